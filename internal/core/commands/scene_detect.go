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
// the command that runs the external content-change detector over one video
// and produces its scene metadata record.
//
// Logic Flow:
//  1. Read the video path placed in the context by the batch driver.
//  2. Invoke the injected SceneDetector (ffmpeg in production, a fake in
//     tests) with the configured threshold.
//  3. On success, publish the *model.VideoMetadata both as the primary
//     output (for the optional split/annotate commands downstream) and
//     under a canonical key the driver reads after the chain finishes.
//  4. On failure, record the error in the context keyed by this command's
//     name; the driver converts it into the per-video failure record. A
//     detection failure never aborts the batch.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// GetVideoMetadataParameterName returns the canonical context key under
// which the detection result is stored for consumers outside the piped
// chain flow (the batch driver and the annotator).
func GetVideoMetadataParameterName() string {
	return "__VIDEO_METADATA__"
}

// SceneDetect is the command wrapper around the external scene detector.
type SceneDetect struct {
	cor.BaseCommand
	detector  media.SceneDetector
	threshold int
}

// NewSceneDetect constructs a detection command for a fixed threshold.
//
// Inputs:
//   - name: Command instance name for logging and telemetry.
//   - detector: The scene detection capability to invoke.
//   - threshold: Content-change threshold on the detector's 0-100 scale.
func NewSceneDetect(name string, detector media.SceneDetector, threshold int) *SceneDetect {
	return &SceneDetect{
		BaseCommand: *cor.NewBaseCommand(name),
		detector:    detector,
		threshold:   threshold,
	}
}

// Execute runs the detector over the video named by the primary input.
func (c *SceneDetect) Execute(context cor.Context) {
	videoPath, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected a video path as input"))
		return
	}

	metadata, err := c.detector.DetectScenes(context.GetContext(), videoPath, c.threshold)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetVideoMetadataParameterName(), metadata)
	context.Add(c.GetOutputParam(), metadata)
}

// VideoMetadataFrom extracts the detection result a finished chain left in
// the context, or nil when detection did not complete.
func VideoMetadataFrom(context cor.Context) *model.VideoMetadata {
	if v, ok := context.Get(GetVideoMetadataParameterName()).(*model.VideoMetadata); ok {
		return v
	}
	return nil
}
