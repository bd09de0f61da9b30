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
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseProbeOutput verifies decoding of a typical ffprobe JSON payload,
// including the rational frame rate.
func TestParseProbeOutput(t *testing.T) {
	raw := []byte(`{
  "streams": [
    {"codec_type": "video", "width": 1920, "height": 1080,
     "avg_frame_rate": "60000/1001", "nb_frames": "3600"}
  ],
  "format": {"duration": "60.06"}
}`)
	info, err := media.ParseProbeOutput(raw, "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 59.94, info.FPS, 0.01)
	assert.Equal(t, 3600, info.FrameCount)
	assert.InDelta(t, 60.06, info.Duration, 0.001)
}

// TestParseProbeOutputDerivesFrameCount verifies the fallback used for
// containers that do not report nb_frames.
func TestParseProbeOutputDerivesFrameCount(t *testing.T) {
	raw := []byte(`{
  "streams": [
    {"codec_type": "video", "width": 1280, "height": 720, "avg_frame_rate": "30/1"}
  ],
  "format": {"duration": "12.5"}
}`)
	info, err := media.ParseProbeOutput(raw, "clip.mkv")
	require.NoError(t, err)
	assert.Equal(t, 375, info.FrameCount)
}

// TestParseProbeOutputDerivesDuration verifies the opposite fallback:
// containers that report nb_frames but omit format.duration still yield a
// usable span, so the final scene never collapses to zero length.
func TestParseProbeOutputDerivesDuration(t *testing.T) {
	raw := []byte(`{
  "streams": [
    {"codec_type": "video", "width": 1280, "height": 720,
     "avg_frame_rate": "30/1", "nb_frames": "300"}
  ],
  "format": {}
}`)
	info, err := media.ParseProbeOutput(raw, "clip.avi")
	require.NoError(t, err)
	assert.Equal(t, 300, info.FrameCount)
	assert.InDelta(t, 10.0, info.Duration, 0.001)
}

// TestParseProbeOutputNoStream verifies that an audio-only or empty probe
// result is rejected.
func TestParseProbeOutputNoStream(t *testing.T) {
	_, err := media.ParseProbeOutput([]byte(`{"streams": [], "format": {}}`), "audio.m4a")
	assert.ErrorContains(t, err, "no video stream")
}

// TestParseProbeOutputBadFrameRate verifies a malformed rational is
// reported rather than treated as zero.
func TestParseProbeOutputBadFrameRate(t *testing.T) {
	raw := []byte(`{
  "streams": [{"codec_type": "video", "avg_frame_rate": "0/0", "nb_frames": "10"}],
  "format": {"duration": "1.0"}
}`)
	_, err := media.ParseProbeOutput(raw, "weird.mp4")
	assert.Error(t, err)
}
