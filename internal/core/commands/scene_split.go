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
// the debug-mode command that splits a video into one clip per detected
// scene, namespaced by video stem under the debug output directory.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// SceneSplit cuts the source video into per-scene clips. It only runs in
// debug mode, as a side branch off the detector's output; the metadata
// record is passed through untouched.
type SceneSplit struct {
	cor.BaseCommand
	splitter  media.ClipSplitter
	outputDir string // Root debug directory; clips land in outputDir/{stem}/.
}

// NewSceneSplit constructs a split command targeting the given debug
// output directory.
func NewSceneSplit(name string, splitter media.ClipSplitter, outputDir string) *SceneSplit {
	return &SceneSplit{
		BaseCommand: *cor.NewBaseCommand(name),
		splitter:    splitter,
		outputDir:   outputDir,
	}
}

// Execute splits the video described by the incoming metadata record and
// pipes the clip paths to the annotator.
func (c *SceneSplit) Execute(context cor.Context) {
	metadata, ok := context.Get(c.GetInputParam()).(*model.VideoMetadata)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected video metadata as input"))
		return
	}

	clipDir := filepath.Join(c.outputDir, media.VideoStem(metadata.VideoPath))
	clips, err := c.splitter.Split(context.GetContext(), metadata.VideoPath, metadata.Scenes, clipDir)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), clips)
}
