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
// the debug-mode command that burns the scene annotation onto each clip the
// splitter produced.
//
// Logic Flow:
//  1. Receive the ordered clip paths from the split command and the scene
//     list from the detection result still held in the context.
//  2. For each clip that exists on disk, invoke the annotator, which
//     re-encodes the overlay and atomically replaces the clip in place.
//  3. A clip the splitter skipped (zero-length scene) is absent on disk and
//     is skipped here too; that is an expected outcome, not an error, and
//     is logged at debug level only.
//  4. An actual annotation failure is recorded in the context and stops the
//     remaining clips: the encoder is broken, not the data.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
)

// SceneAnnotate overlays the per-scene debug banner on each split clip.
type SceneAnnotate struct {
	cor.BaseCommand
	annotator media.ClipAnnotator
}

// NewSceneAnnotate constructs an annotation command.
func NewSceneAnnotate(name string, annotator media.ClipAnnotator) *SceneAnnotate {
	return &SceneAnnotate{
		BaseCommand: *cor.NewBaseCommand(name),
		annotator:   annotator,
	}
}

// IsExecutable additionally requires the detection result, which carries
// the scene boundaries the overlay text is rendered from.
func (c *SceneAnnotate) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && VideoMetadataFrom(context) != nil
}

// Execute annotates every clip that exists on disk.
func (c *SceneAnnotate) Execute(context cor.Context) {
	clips, ok := context.Get(c.GetInputParam()).([]string)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected clip paths as input"))
		return
	}
	metadata := VideoMetadataFrom(context)

	annotated := 0
	for i, clipPath := range clips {
		if i >= len(metadata.Scenes) {
			break
		}
		if _, err := os.Stat(clipPath); err != nil {
			// The splitter skipped this scene; nothing to annotate.
			slog.Debug("clip missing after split, skipping annotation", "clip", clipPath)
			continue
		}
		if err := c.annotator.Annotate(context.GetContext(), clipPath, metadata.Scenes[i], metadata.FPS); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
		annotated++
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), annotated)
}
