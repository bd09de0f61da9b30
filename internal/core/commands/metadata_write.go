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
// the output writer: the final stage that serializes the batch aggregate to
// a pretty-printed JSON file, unconditionally overwriting any existing file
// at the configured path.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// MetadataWrite serializes a SceneCollection to disk.
type MetadataWrite struct {
	cor.BaseCommand
	outputPath string
}

// NewMetadataWrite constructs a writer command targeting the given path.
func NewMetadataWrite(name string, outputPath string) *MetadataWrite {
	return &MetadataWrite{
		BaseCommand: *cor.NewBaseCommand(name),
		outputPath:  outputPath,
	}
}

// Execute writes the aggregate found in the primary input. The write happens
// once, after the whole batch completes; a run killed mid-batch leaves no
// output file, which is the documented durability contract.
func (c *MetadataWrite) Execute(context cor.Context) {
	collection, ok := context.Get(c.GetInputParam()).(*model.SceneCollection)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected a scene collection as input"))
		return
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to serialize scene metadata: %w", err))
		return
	}

	if err := os.WriteFile(c.outputPath, data, 0o644); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to write scene metadata to %s: %w", c.outputPath, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), c.outputPath)
}
