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
// interfaces. This file implements the SceneDetector interface on top of
// ffmpeg's content-change detector.
//
// Logic Flow:
//  1. Probe the video for its native frame rate, frame count and duration.
//  2. Run ffmpeg with a `select=gt(scene,T)` filter and `metadata=print` so
//     every frame whose scene score exceeds the threshold is reported with
//     its presentation timestamp on stderr. The threshold is the pipeline's
//     0-100 integer scalar mapped onto ffmpeg's 0.0-1.0 scene score.
//  3. Parse the `pts_time:` values from the filter output. These are the cut
//     points: each one starts a new scene.
//  4. Convert the cut timestamps into a contiguous, non-overlapping scene
//     list covering the entire video span, with both frame-index and
//     time-seconds boundaries at the native frame rate.
//
// The detector is deterministic for a fixed threshold and input: ffmpeg's
// scene score depends only on the decoded frames, so repeated runs yield
// byte-identical scene lists.
package media

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// DefaultFFmpegCommand is used when no explicit ffmpeg path is configured,
// assuming the binary is on the system PATH.
const DefaultFFmpegCommand = "ffmpeg"

// DefaultSceneThreshold is the batch default content-change threshold on the
// 0-100 scale. Higher values are less sensitive and yield fewer scenes.
const DefaultSceneThreshold = 20

// ptsTimePattern extracts presentation timestamps from the metadata=print
// filter output (lines of the form "... pts_time:12.345").
var ptsTimePattern = regexp.MustCompile(`pts_time:([0-9]+\.?[0-9]*)`)

// FFmpegSceneDetector implements SceneDetector using the ffmpeg scene filter
// as the external black-box change detector.
type FFmpegSceneDetector struct {
	CommandPath string // Path to the ffmpeg executable.
	Prober      Prober // Used for fps/frame-count/duration; required.
	Runner      CommandRunner
}

// NewFFmpegSceneDetector creates a detector for the given executables. Empty
// paths fall back to the PATH defaults.
func NewFFmpegSceneDetector(ffmpegPath string, prober Prober) *FFmpegSceneDetector {
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	if prober == nil {
		prober = NewFFprobeProber("")
	}
	return &FFmpegSceneDetector{
		CommandPath: ffmpegPath,
		Prober:      prober,
		Runner:      ExecRunner{},
	}
}

// DetectScenes runs the content-change detector over the video and returns
// the per-video metadata record. Any probe or decode failure is returned as
// an error for the caller to contain; the detector itself never writes to
// the aggregate.
func (d *FFmpegSceneDetector) DetectScenes(ctx context.Context, videoPath string, threshold int) (*model.VideoMetadata, error) {
	info, err := d.Prober.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if info.FrameCount == 0 || info.FPS == 0 || info.Duration == 0 {
		return nil, fmt.Errorf("video %s has no decodable frames", videoPath)
	}

	// ffmpeg expresses the scene score in [0,1]; the pipeline's threshold is
	// an integer on [0,100].
	score := float64(threshold) / 100.0
	filter := fmt.Sprintf("select=gt(scene\\,%g),metadata=print:file=-", score)

	output, err := d.Runner.CombinedOutput(ctx, d.CommandPath,
		"-hide_banner",
		"-i", videoPath,
		"-vf", filter,
		"-an",
		"-f", "null", "-",
	)
	if err != nil {
		return nil, fmt.Errorf("scene detection failed for %s: %w (output: %s)", videoPath, err, tail(output, 400))
	}

	cuts := ParseCutTimes(string(output))
	scenes := ScenesFromCuts(cuts, info)

	return &model.VideoMetadata{
		VideoPath: videoPath,
		FPS:       info.FPS,
		Threshold: threshold,
		NumScenes: len(scenes),
		Scenes:    scenes,
	}, nil
}

// ParseCutTimes extracts the ordered, de-duplicated cut timestamps from the
// ffmpeg filter output. Exported so the parsing can be tested without a real
// ffmpeg binary.
func ParseCutTimes(output string) []float64 {
	matches := ptsTimePattern.FindAllStringSubmatch(output, -1)
	cuts := make([]float64, 0, len(matches))
	seen := make(map[float64]bool)
	for _, m := range matches {
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil || seen[t] {
			continue
		}
		seen[t] = true
		cuts = append(cuts, t)
	}
	sort.Float64s(cuts)
	return cuts
}

// ScenesFromCuts converts detector cut timestamps into the contiguous scene
// list the metadata schema requires. The first scene always starts at frame
// 0 / 0.0s and the last always ends at the final frame / the container
// duration. Cut points at or beyond the video bounds are dropped, as are
// cuts that would produce a zero-length scene after frame quantization.
func ScenesFromCuts(cuts []float64, info *model.VideoInfo) []*model.Scene {
	boundaries := []float64{0}
	frames := []int{0}
	for _, cut := range cuts {
		if cut <= 0 || cut >= info.Duration {
			continue
		}
		frame := int(math.Round(cut * info.FPS))
		if frame <= frames[len(frames)-1] || frame >= info.FrameCount {
			continue
		}
		boundaries = append(boundaries, cut)
		frames = append(frames, frame)
	}
	boundaries = append(boundaries, info.Duration)
	frames = append(frames, info.FrameCount)

	scenes := make([]*model.Scene, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		scenes = append(scenes, &model.Scene{
			SceneID:    i,
			StartFrame: frames[i],
			EndFrame:   frames[i+1],
			StartTime:  boundaries[i],
			EndTime:    boundaries[i+1],
		})
	}
	return scenes
}

// tail returns at most n trailing bytes of a command's output for error
// messages, keeping per-video failure records readable.
func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
