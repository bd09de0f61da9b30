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

// Package workflow defines the high-level orchestrations of the dataset
// preparation pipeline, combining commands into coherent per-video chains
// and the batch driver that runs them. This file implements the scene
// detection workflow for a single video.
package workflow

import (
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
)

// SceneDetectionWorkflow runs the external scene detector over one video
// and, in debug mode, materializes annotated per-scene clips for visual
// verification. The workflow is a chain: detect, then optionally split and
// annotate. The chain's context carries the video path in and the
// *model.VideoMetadata out; any command failure is contained in the context
// for the batch driver to convert into a per-video failure record.
type SceneDetectionWorkflow struct {
	cor.BaseCommand
	detector  media.SceneDetector
	splitter  media.ClipSplitter
	annotator media.ClipAnnotator
	threshold int
	debug     bool
	debugDir  string
	chain     cor.Chain
}

// Execute runs the per-video chain.
func (w *SceneDetectionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain assembles the command sequence. In full mode only the
// detector runs; in debug mode the detector's output is piped into the
// splitter and the resulting clip list into the annotator.
func (w *SceneDetectionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewSceneDetect("scene-detect", w.detector, w.threshold))
	if w.debug {
		out.AddCommand(commands.NewSceneSplit("scene-split", w.splitter, w.debugDir))
		out.AddCommand(commands.NewSceneAnnotate("scene-annotate", w.annotator))
	}
	w.chain = out
}

// NewSceneDetectionWorkflow is the constructor for the per-video workflow.
//
// Inputs:
//   - detector: The scene detection capability (ffmpeg in production).
//   - splitter, annotator: The debug-clip capabilities; only invoked when
//     debug is true, but always wired so tests can substitute fakes.
//   - threshold: Content-change threshold on the detector's 0-100 scale.
//   - debug: Whether to produce annotated per-scene clips.
//   - debugDir: Root directory for debug clips, namespaced per video stem.
func NewSceneDetectionWorkflow(
	detector media.SceneDetector,
	splitter media.ClipSplitter,
	annotator media.ClipAnnotator,
	threshold int,
	debug bool,
	debugDir string) *SceneDetectionWorkflow {
	out := &SceneDetectionWorkflow{
		BaseCommand: *cor.NewBaseCommand("scene-detection-workflow"),
		detector:    detector,
		splitter:    splitter,
		annotator:   annotator,
		threshold:   threshold,
		debug:       debug,
		debugDir:    debugDir,
	}
	out.initializeChain()
	return out
}
