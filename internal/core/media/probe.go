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
// interfaces. This file implements the Prober interface on top of a single
// ffprobe JSON call. The probe result supplies the native frame rate, frame
// count and duration that the scene detector needs to convert cut timestamps
// into frame indices.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// DefaultFFprobeCommand is used when no explicit ffprobe path is configured,
// assuming the binary is on the system PATH.
const DefaultFFprobeCommand = "ffprobe"

// FFprobeProber implements Prober by shelling out to ffprobe with JSON
// output. One invocation collects both the stream and format sections.
type FFprobeProber struct {
	CommandPath string // Path to the ffprobe executable.
}

// NewFFprobeProber creates a prober for the given ffprobe executable. An
// empty path falls back to DefaultFFprobeCommand.
func NewFFprobeProber(commandPath string) *FFprobeProber {
	if len(strings.TrimSpace(commandPath)) == 0 {
		commandPath = DefaultFFprobeCommand
	}
	return &FFprobeProber{CommandPath: commandPath}
}

// ffprobe JSON wire types. Only the fields the pipeline consumes are mapped;
// everything else ffprobe prints is dropped at decode time.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"` // Rational, e.g. "60000/1001".
	NbFrames     string `json:"nb_frames"`      // May be absent for some containers.
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe against the video and returns the parsed stream info.
//
// Inputs:
//   - ctx: Context bounding the ffprobe process.
//   - videoPath: Path to the video file.
//
// Outputs:
//   - *model.VideoInfo: Width, height, fps, frame count and duration.
//   - error: A wrapped error if ffprobe fails or the output is unusable.
func (p *FFprobeProber) Probe(ctx context.Context, videoPath string) (*model.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, p.CommandPath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-print_format", "json",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", videoPath, err)
	}
	return ParseProbeOutput(out, videoPath)
}

// ParseProbeOutput converts raw ffprobe JSON into a VideoInfo. Exported so
// the parsing can be tested without a real ffprobe binary.
func ParseProbeOutput(data []byte, videoPath string) (*model.VideoInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", videoPath, err)
	}
	if len(raw.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found in %s", videoPath)
	}
	stream := raw.Streams[0]

	fps, err := parseFrameRate(stream.AvgFrameRate)
	if err != nil {
		return nil, fmt.Errorf("bad frame rate %q in %s: %w", stream.AvgFrameRate, videoPath, err)
	}

	duration, _ := strconv.ParseFloat(raw.Format.Duration, 64)

	// nb_frames and format.duration are both container-dependent; when one
	// is absent, derive it from the other at the native rate. A stream with
	// neither is rejected downstream as having no decodable frames.
	frameCount, _ := strconv.Atoi(stream.NbFrames)
	if frameCount == 0 && duration > 0 {
		frameCount = int(math.Round(duration * fps))
	}
	if duration == 0 && frameCount > 0 && fps > 0 {
		duration = float64(frameCount) / fps
	}

	return &model.VideoInfo{
		Width:      stream.Width,
		Height:     stream.Height,
		FPS:        fps,
		FrameCount: frameCount,
		Duration:   duration,
	}, nil
}

// parseFrameRate converts an ffprobe rational frame rate ("60/1",
// "60000/1001") into a float.
func parseFrameRate(rational string) (float64, error) {
	parts := strings.SplitN(rational, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	if len(parts) == 1 {
		return num, nil
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("zero denominator in frame rate")
	}
	return num / den, nil
}
