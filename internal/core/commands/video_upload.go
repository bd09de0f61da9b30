// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands provides the concrete Chain of Responsibility command
// implementations for the dataset preparation workflows. This file defines
// the command that uploads a local video to the Generative AI File Service
// so a model can analyze it.
//
// Logic Flow:
//  1. Take the local video path from the context and sniff its MIME type
//     from the file header.
//  2. Upload the file through the Files API. The returned handle starts in
//     the PROCESSING state; the model cannot use it yet.
//  3. Poll the file status every ten seconds until it leaves PROCESSING.
//     A file that lands in FAILED is a hard error; anything else means the
//     service has the video ready.
//  4. Place the active `genai.File` handle in the context under a canonical
//     key for the question command to consume.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
)

// videoFilePollInterval is how long the upload command waits between file
// status checks while the service processes the video.
const videoFilePollInterval = 10 * time.Second

// GetVideoUploadFileParameterName returns the canonical key used to store
// the resulting `genai.File` handle in the context.
func GetVideoUploadFileParameterName() string {
	return "__VIDEO_UPLOAD_FILE__"
}

// VideoUpload uploads a local video to the File Service and waits for it to
// become usable.
type VideoUpload struct {
	cor.BaseCommand
	client *genai.Client
}

// NewVideoUpload is the constructor for the VideoUpload command.
func NewVideoUpload(name string, genaiClient *genai.Client) *VideoUpload {
	return &VideoUpload{BaseCommand: *cor.NewBaseCommand(name), client: genaiClient}
}

// Execute uploads the video named by the primary input and polls until the
// service finishes processing it.
func (v *VideoUpload) Execute(context cor.Context) {
	videoPath, ok := context.Get(v.GetInputParam()).(string)
	if !ok {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("expected a video path as input"))
		return
	}

	mimeType, err := sniffVideoMIME(videoPath)
	if err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), err)
		return
	}

	file, err := v.client.Files.UploadFromPath(context.GetContext(), videoPath, &genai.UploadFileConfig{
		DisplayName: filepath.Base(videoPath),
		MIMEType:    mimeType,
	})
	if err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("failed to upload %s to the file service: %w", videoPath, err))
		return
	}

	// The service transcodes the video before a model can read it; poll
	// until it settles.
	for file.State == genai.FileStateProcessing {
		select {
		case <-context.GetContext().Done():
			v.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(v.GetName(), context.GetContext().Err())
			return
		case <-time.After(videoFilePollInterval):
		}
		if file, err = v.client.Files.Get(context.GetContext(), file.Name, nil); err != nil {
			v.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(v.GetName(), fmt.Errorf("failed to get file status during processing: %w", err))
			return
		}
	}

	if file.State == genai.FileStateFailed {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("file service failed to process %s", videoPath))
		return
	}

	v.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetVideoUploadFileParameterName(), file)
	context.Add(v.GetOutputParam(), file)
}

// sniffVideoMIME reads the file header to determine the video MIME type,
// defaulting to video/mp4 when the header is inconclusive.
func sniffVideoMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 261)
	n, _ := io.ReadFull(f, buf)
	kind, err := filetype.Match(buf[:n])
	if err != nil || kind == filetype.Unknown {
		return "video/mp4", nil
	}
	return kind.MIME.Value, nil
}
