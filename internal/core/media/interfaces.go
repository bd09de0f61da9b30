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

// Package media wraps the external video tooling (ffprobe, ffmpeg) behind
// small synchronous capability interfaces. The pipeline's control logic only
// ever talks to these interfaces, which keeps the heavy out-of-process
// dependencies injectable: tests substitute fakes returning canned
// boundaries, and production wires the FFmpeg-backed implementations from
// this package.
//
// All operations are blocking and potentially slow; they accept a
// context.Context so a caller can bound or cancel the underlying process.
package media

import (
	"context"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// SceneDetector runs a content-change detector over a video and returns the
// full detection result. Implementations must be deterministic for a fixed
// threshold and input: scenes cover the entire video span, the first scene
// starts at frame 0 / 0.0s, the last ends at the final frame, and the native
// frame rate is preserved with no implicit resampling. The threshold is the
// detector-specific sensitivity scalar; higher values yield fewer, larger
// scenes.
type SceneDetector interface {
	DetectScenes(ctx context.Context, videoPath string, threshold int) (*model.VideoMetadata, error)
}

// ClipSplitter physically cuts a video into one clip per scene, using the
// scene boundaries as cut points. Clip filenames are deterministic:
// `{stem}_scene_{index:03d}.mp4` with a 1-based index, written under
// outputDir. The returned slice lists the expected clip paths in scene
// order; a splitter may skip a zero-length scene, in which case the path is
// still listed but absent on disk.
type ClipSplitter interface {
	Split(ctx context.Context, videoPath string, scenes []*model.Scene, outputDir string) ([]string, error)
}

// ClipAnnotator overlays the scene burn-in text on every frame of a clip,
// re-encoding it and atomically replacing the clip in place. The fps is the
// source video's native rate, carried through unchanged.
type ClipAnnotator interface {
	Annotate(ctx context.Context, clipPath string, scene *model.Scene, fps float64) error
}

// Prober reads container-level stream information for a video file.
type Prober interface {
	Probe(ctx context.Context, videoPath string) (*model.VideoInfo, error)
}
