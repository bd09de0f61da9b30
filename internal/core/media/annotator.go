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
// interfaces. This file implements the ClipAnnotator interface: burning the
// scene id, frame range and time range onto every frame of a debug clip.
//
// Logic Flow:
//  1. Build a drawbox+drawtext filter: a black banner across the top of the
//     frame with the scene annotation in green on top of it, matching the
//     fixed overlay position used by the rest of the tooling.
//  2. Re-encode the clip to a uniquely named temp file in the same
//     directory. Same-directory matters: os.Rename is only atomic within a
//     filesystem.
//  3. Rename the temp file over the original clip. A consumer therefore
//     only ever sees the pre-annotation clip or the fully annotated one
//     under the final name; a kill mid-encode leaves at most a stray temp
//     file behind.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// Overlay geometry for the burn-in banner. The box spans the frame width
// with a 10px margin; the text sits inside it at a fixed offset.
const (
	annotateBox      = "drawbox=x=10:y=10:w=iw-20:h=50:color=black:t=fill"
	annotateTextTmpl = "drawtext=text='%s':x=20:y=28:fontsize=24:fontcolor=green"
	tempClipPrefix   = "annotate-"
)

// FFmpegClipAnnotator implements ClipAnnotator with an ffmpeg drawtext
// re-encode and an atomic rename.
type FFmpegClipAnnotator struct {
	CommandPath string
	Runner      CommandRunner
}

// NewFFmpegClipAnnotator creates an annotator for the given ffmpeg
// executable. An empty path falls back to the PATH default.
func NewFFmpegClipAnnotator(ffmpegPath string) *FFmpegClipAnnotator {
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	return &FFmpegClipAnnotator{CommandPath: ffmpegPath, Runner: ExecRunner{}}
}

// Annotate overlays the scene banner on every frame of the clip and
// atomically replaces the clip in place. The fps parameter is carried on the
// output stream so the annotated clip keeps the source timing.
func (a *FFmpegClipAnnotator) Annotate(ctx context.Context, clipPath string, scene *model.Scene, fps float64) error {
	filter := fmt.Sprintf("%s,"+annotateTextTmpl, annotateBox, EscapeDrawText(scene.Annotation()))

	// Temp output in the clip's own directory so the final rename stays on
	// one filesystem.
	tempPath := filepath.Join(filepath.Dir(clipPath),
		fmt.Sprintf("%s%s.mp4", tempClipPrefix, uuid.NewString()))

	out, err := a.Runner.CombinedOutput(ctx, a.CommandPath,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", clipPath,
		"-vf", filter,
		"-r", formatSeconds(fps),
		"-c:v", splitVideoCodec,
		"-preset", splitPreset,
		"-crf", splitCRF,
		"-c:a", "copy",
		tempPath,
	)
	if err != nil {
		// Best effort: do not leave a half-written temp file behind on a
		// clean failure.
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to annotate %s: %w (output: %s)", clipPath, err, tail(out, 400))
	}

	if err := os.Rename(tempPath, clipPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s with annotated clip: %w", clipPath, err)
	}
	return nil
}

// EscapeDrawText escapes the characters that terminate or re-parse a
// drawtext argument inside an ffmpeg filter graph.
func EscapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`,`, `\,`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}
