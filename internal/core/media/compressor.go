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
// interfaces. This file implements the single-file compressor used by the
// batch compression command: a GPU-first encode with a transparent CPU
// fallback, so the same invocation works on machines with and without an
// NVENC-capable card.
package media

import (
	"context"
	"fmt"
	"strings"
)

// EncoderKind reports which encode path produced an output file.
type EncoderKind string

const (
	EncoderGPU EncoderKind = "gpu"
	EncoderCPU EncoderKind = "cpu"
)

// Encoder settings for dataset compression. The GPU preset p4 is the NVENC
// medium-quality point; the CPU path mirrors the clip splitter's settings.
const (
	compressGPUCodec  = "h264_nvenc"
	compressGPUPreset = "p4"
	compressCPUCodec  = "libx264"
	compressCPUPreset = "veryfast"
	compressCRF       = "23"
	compressAudio     = "aac"
	compressBitrate   = "128k"
)

// VideoCompressor re-encodes a single video through ffmpeg.
type VideoCompressor struct {
	CommandPath string
	Runner      CommandRunner
	TargetFPS   float64 // When positive, the output is written at this rate.
}

// NewVideoCompressor creates a compressor for the given ffmpeg executable.
// An empty path falls back to the PATH default.
func NewVideoCompressor(ffmpegPath string) *VideoCompressor {
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	return &VideoCompressor{CommandPath: ffmpegPath, Runner: ExecRunner{}}
}

// Compress encodes inputPath into outputPath, trying hardware encoding
// first and falling back to software on any failure. It returns which
// encoder produced the output. NVENC failures are common (no card, driver
// mismatch, unsupported pixel format) and are never surfaced to the caller
// as long as the CPU encode succeeds.
func (c *VideoCompressor) Compress(ctx context.Context, inputPath string, outputPath string) (EncoderKind, error) {
	gpuOut, gpuErr := c.Runner.CombinedOutput(ctx, c.CommandPath, c.encodeArgs(inputPath, outputPath, true)...)
	if gpuErr == nil {
		return EncoderGPU, nil
	}
	// Respect cancellation between attempts; the CPU encode is slow and
	// should not start after the caller has given up.
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	cpuOut, cpuErr := c.Runner.CombinedOutput(ctx, c.CommandPath, c.encodeArgs(inputPath, outputPath, false)...)
	if cpuErr == nil {
		return EncoderCPU, nil
	}
	return "", fmt.Errorf("failed to compress %s: gpu: %v (output: %s); cpu: %v (output: %s)",
		inputPath, gpuErr, tail(gpuOut, 200), cpuErr, tail(cpuOut, 200))
}

func (c *VideoCompressor) encodeArgs(inputPath string, outputPath string, gpu bool) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if gpu {
		args = append(args, "-hwaccel", "cuda")
	}
	args = append(args, "-i", inputPath)
	if gpu {
		args = append(args, "-c:v", compressGPUCodec, "-preset", compressGPUPreset)
	} else {
		args = append(args, "-c:v", compressCPUCodec, "-preset", compressCPUPreset)
	}
	args = append(args,
		"-crf", compressCRF,
		"-c:a", compressAudio,
		"-b:a", compressBitrate,
	)
	if c.TargetFPS > 0 {
		args = append(args, "-r", fmt.Sprintf("%g", c.TargetFPS))
	}
	args = append(args, outputPath)
	return args
}
