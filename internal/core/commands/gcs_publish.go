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
// the publish command: streaming a prepared dataset artifact (the scene
// metadata file, or a directory of clips) into a Google Cloud Storage
// bucket.
//
// Logic Flow:
//  1. Receive the local path to publish from the context. A file maps to a
//     single object; a directory is walked and every regular file under it
//     becomes an object whose name is its path relative to the directory,
//     so the bucket mirrors the local layout.
//  2. For each file, open it, sniff the content type, and `io.Copy` it into
//     a GCS object writer under the configured prefix. Streaming keeps the
//     memory footprint flat regardless of clip sizes.
//  3. Closing the writer finalizes the object; a close error is a failed
//     upload, not a cleanup detail, and aborts the publish.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
)

// GCSPublish uploads a dataset artifact to a Cloud Storage bucket.
type GCSPublish struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
	prefix string // Object name prefix, typically the dataset name.
}

// NewGCSPublish is the constructor for the publish command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: An initialized *storage.Client.
//   - bucket: The destination bucket name.
//   - prefix: Prefix prepended to every object name; may be empty.
func NewGCSPublish(name string, client *storage.Client, bucket string, prefix string) *GCSPublish {
	return &GCSPublish{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket, prefix: prefix}
}

// Execute publishes the file or directory named by the primary input and
// outputs the number of objects written.
func (c *GCSPublish) Execute(context cor.Context) {
	localPath, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected a local path as input"))
		return
	}

	info, err := os.Stat(localPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to stat %s: %w", localPath, err))
		return
	}

	uploaded := 0
	if info.IsDir() {
		err = filepath.WalkDir(localPath, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(localPath, path)
			if relErr != nil {
				return relErr
			}
			if upErr := c.uploadFile(context, path, filepath.ToSlash(rel)); upErr != nil {
				return upErr
			}
			uploaded++
			return nil
		})
	} else {
		err = c.uploadFile(context, localPath, filepath.Base(localPath))
		if err == nil {
			uploaded = 1
		}
	}

	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), uploaded)
}

// uploadFile streams one local file into the bucket under the command's
// prefix.
func (c *GCSPublish) uploadFile(context cor.Context, path string, objectName string) error {
	dat, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer func() { _ = dat.Close() }()

	if len(c.prefix) > 0 {
		objectName = c.prefix + "/" + objectName
	}

	obj := c.client.Bucket(c.bucket).Object(objectName)
	writer := obj.NewWriter(context.GetContext())
	writer.ContentType = sniffContentType(path)

	if _, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to upload %s to gs://%s/%s: %w", path, c.bucket, objectName, err)
	}
	// Close finalizes the object; an error here means the upload did not
	// commit.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", c.bucket, objectName, err)
	}
	return nil
}

// sniffContentType reads the file header to determine its MIME type,
// defaulting to octet-stream when the type is unknown.
func sniffContentType(path string) string {
	buf := make([]byte, 261)
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer func() { _ = f.Close() }()
	n, _ := io.ReadFull(f, buf)
	kind, err := filetype.Match(buf[:n])
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
