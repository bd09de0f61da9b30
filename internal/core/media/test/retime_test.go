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

package media_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRetimeForcesInputRate verifies the target rate is imposed on the
// input side, so every source frame survives and the clip plays at the new
// speed.
func TestRetimeForcesInputRate(t *testing.T) {
	runner := &fakeRunner{}
	retimer := media.NewRetimer("", &fixedProber{info: sixtyFPS()})
	retimer.Runner = runner

	err := retimer.Retime(context.Background(), "/videos/in.mp4", "/videos/out.mp4", 10)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	args := runner.calls[0]
	rateAt := indexOf(args, "-r")
	inputAt := indexOf(args, "-i")
	require.GreaterOrEqual(t, rateAt, 0)
	require.GreaterOrEqual(t, inputAt, 0)
	assert.Less(t, rateAt, inputAt, "the rate must precede -i to apply to the input stream")
	assert.Equal(t, "10", args[rateAt+1])
}

// TestRetimeRejectsNonPositiveRate verifies a zero or negative target is an
// error before any process is spawned.
func TestRetimeRejectsNonPositiveRate(t *testing.T) {
	runner := &fakeRunner{}
	retimer := media.NewRetimer("", &fixedProber{info: sixtyFPS()})
	retimer.Runner = runner

	err := retimer.Retime(context.Background(), "/videos/in.mp4", "/videos/out.mp4", 0)
	assert.ErrorContains(t, err, "must be positive")
	assert.Empty(t, runner.calls)
}

// TestSubsampleStepComputation verifies the keep-every-kth-frame filter
// uses k = round(source_fps / target_fps).
func TestSubsampleStepComputation(t *testing.T) {
	runner := &fakeRunner{}
	retimer := media.NewRetimer("", &fixedProber{info: sixtyFPS()})
	retimer.Runner = runner

	err := retimer.Subsample(context.Background(), "/videos/in.mp4", "/videos/out.mp4", 20)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], `select='not(mod(n\,3))',setpts=N/FRAME_RATE/TB`)
	assert.Contains(t, runner.calls[0], "20")
}

// TestSubsampleRoundsStep verifies NTSC-style rates round to the nearest
// integer step instead of truncating.
func TestSubsampleRoundsStep(t *testing.T) {
	runner := &fakeRunner{}
	info := &model.VideoInfo{FPS: 29.97, FrameCount: 300, Duration: 10.01}
	retimer := media.NewRetimer("", &fixedProber{info: info})
	retimer.Runner = runner

	err := retimer.Subsample(context.Background(), "/videos/ntsc.mp4", "/videos/out.mp4", 10)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], `select='not(mod(n\,3))',setpts=N/FRAME_RATE/TB`)
}

// TestSubsampleRejectsUpsampling verifies a source below the target rate is
// an error: there are no frames to invent.
func TestSubsampleRejectsUpsampling(t *testing.T) {
	runner := &fakeRunner{}
	info := &model.VideoInfo{FPS: 24, FrameCount: 240, Duration: 10}
	retimer := media.NewRetimer("", &fixedProber{info: info})
	retimer.Runner = runner

	err := retimer.Subsample(context.Background(), "/videos/slow.mp4", "/videos/out.mp4", 30)
	assert.ErrorContains(t, err, "below target")
	assert.Empty(t, runner.calls)
}

// indexOf returns the position of want in args, or -1.
func indexOf(args []string, want string) int {
	for i, arg := range args {
		if arg == want {
			return i
		}
	}
	return -1
}
