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
// interfaces. This file implements the two frame-rate tools:
//
//   - Retime rewrites a video at a new frame rate, keeping every frame, so
//     a 30fps clip retimed to 10fps plays three times slower with identical
//     content.
//   - Subsample keeps every k-th frame where k = round(in_fps/out_fps) and
//     writes the survivors at the target rate, preserving wall-clock
//     duration at the cost of temporal resolution.
package media

import (
	"context"
	"fmt"
	"math"
)

// Retimer changes the playback frame rate of videos through ffmpeg.
type Retimer struct {
	CommandPath string
	Prober      Prober
	Runner      CommandRunner
}

// NewRetimer creates a retimer for the given ffmpeg executable. The prober
// is used by Subsample to read the source rate.
func NewRetimer(ffmpegPath string, prober Prober) *Retimer {
	if len(ffmpegPath) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	return &Retimer{CommandPath: ffmpegPath, Prober: prober, Runner: ExecRunner{}}
}

// Retime rewrites inputPath at targetFPS keeping every frame. The stream is
// re-encoded because a container-level rate change alone does not survive
// every player.
func (r *Retimer) Retime(ctx context.Context, inputPath string, outputPath string, targetFPS float64) error {
	if targetFPS <= 0 {
		return fmt.Errorf("target fps must be positive, got %g", targetFPS)
	}
	out, err := r.Runner.CombinedOutput(ctx, r.CommandPath,
		"-y", "-hide_banner", "-loglevel", "error",
		"-r", fmt.Sprintf("%g", targetFPS),
		"-i", inputPath,
		"-c:v", splitVideoCodec,
		"-preset", splitPreset,
		"-crf", splitCRF,
		"-an",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("failed to retime %s to %gfps: %w (output: %s)", inputPath, targetFPS, err, tail(out, 400))
	}
	return nil
}

// Subsample drops frames to approximate targetFPS, keeping every k-th frame
// of the source. The source must run at or above the target rate.
func (r *Retimer) Subsample(ctx context.Context, inputPath string, outputPath string, targetFPS float64) error {
	if targetFPS <= 0 {
		return fmt.Errorf("target fps must be positive, got %g", targetFPS)
	}
	info, err := r.Prober.Probe(ctx, inputPath)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", inputPath, err)
	}
	if info.FPS < targetFPS {
		return fmt.Errorf("cannot subsample %s: source rate %.3f is below target %g", inputPath, info.FPS, targetFPS)
	}

	step := int(math.Round(info.FPS / targetFPS))
	if step < 1 {
		step = 1
	}

	out, err := r.Runner.CombinedOutput(ctx, r.CommandPath,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vf", fmt.Sprintf("select='not(mod(n\\,%d))',setpts=N/FRAME_RATE/TB", step),
		"-r", fmt.Sprintf("%g", targetFPS),
		"-c:v", splitVideoCodec,
		"-preset", splitPreset,
		"-crf", splitCRF,
		"-an",
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("failed to subsample %s to %gfps: %w (output: %s)", inputPath, targetFPS, err, tail(out, 400))
	}
	return nil
}
