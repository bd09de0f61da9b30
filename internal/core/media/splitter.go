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

// Package media wraps the external video tooling behind capability
// interfaces. This file implements the ClipSplitter interface: cutting a
// source video into one re-encoded clip per detected scene, with the same
// deterministic filename template the debug annotator expects.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// Encoder settings for scene clips. Re-encoding (rather than stream copy) is
// required so cuts land exactly on scene boundaries instead of the nearest
// keyframe.
const (
	splitVideoCodec  = "libx264"
	splitPreset      = "veryfast"
	splitCRF         = "23"
	splitAudioCodec  = "aac"
	clipNameTemplate = "%s_scene_%03d.mp4"
)

// FFmpegClipSplitter implements ClipSplitter by running one ffmpeg encode
// per scene.
type FFmpegClipSplitter struct {
	CommandPath string
	Runner      CommandRunner
}

// NewFFmpegClipSplitter creates a splitter for the given ffmpeg executable.
// An empty path falls back to the PATH default.
func NewFFmpegClipSplitter(ffmpegPath string) *FFmpegClipSplitter {
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	return &FFmpegClipSplitter{CommandPath: ffmpegPath, Runner: ExecRunner{}}
}

// ClipFileName returns the deterministic clip filename for a scene. The
// index is 1-based to match the splitter's output numbering, while scene ids
// in the metadata remain 0-based.
func ClipFileName(videoStem string, sceneIndex int) string {
	return fmt.Sprintf(clipNameTemplate, videoStem, sceneIndex)
}

// VideoStem returns the video filename without its extension, used to
// namespace debug output per video.
func VideoStem(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Split cuts the source into one clip per scene under outputDir, creating
// the directory if needed. A scene whose time span collapses to zero is
// skipped (its clip path is still returned so callers observe the gap), and
// a failed encode aborts the split: clip generation is a debug aid, so a
// broken encoder should surface rather than silently produce partial output.
func (s *FFmpegClipSplitter) Split(ctx context.Context, videoPath string, scenes []*model.Scene, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clip directory %s: %w", outputDir, err)
	}

	stem := VideoStem(videoPath)
	clips := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		clipPath := filepath.Join(outputDir, ClipFileName(stem, i+1))
		clips = append(clips, clipPath)
		if scene.EndTime <= scene.StartTime {
			continue
		}

		out, err := s.Runner.CombinedOutput(ctx, s.CommandPath,
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", videoPath,
			"-ss", formatSeconds(scene.StartTime),
			"-to", formatSeconds(scene.EndTime),
			"-c:v", splitVideoCodec,
			"-preset", splitPreset,
			"-crf", splitCRF,
			"-c:a", splitAudioCodec,
			clipPath,
		)
		if err != nil {
			return clips, fmt.Errorf("failed to split scene %d of %s: %w (output: %s)", scene.SceneID, videoPath, err, tail(out, 400))
		}
	}
	return clips, nil
}

// formatSeconds renders a timestamp for an ffmpeg argument with enough
// precision to hit frame boundaries at high frame rates.
func formatSeconds(t float64) string {
	return fmt.Sprintf("%.6f", t)
}
