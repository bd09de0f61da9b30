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
	"os/exec"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDownloadUsesDefaultQuality verifies an empty quality selector falls
// back to the best-mp4 default and the output is templated on the remote
// title.
func TestDownloadUsesDefaultQuality(t *testing.T) {
	runner := &fakeRunner{}
	downloader := media.NewDownloader("", "")
	downloader.Runner = runner

	err := downloader.Download(context.Background(), "https://example.com/watch?v=abc", "", "/data/videos")
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], media.DefaultDownloadQuality)
	assert.Contains(t, runner.calls[0], "/data/videos/%(title)s.%(ext)s")
}

// TestDownloadMissingBinary verifies a not-found yt-dlp maps to the
// sentinel so callers can print an install hint instead of a raw exec
// failure.
func TestDownloadMissingBinary(t *testing.T) {
	runner := &fakeRunner{err: &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound}}
	downloader := media.NewDownloader("", "")
	downloader.Runner = runner

	err := downloader.Download(context.Background(), "https://example.com/watch?v=abc", "", "/data/videos")
	assert.ErrorIs(t, err, media.ErrDownloaderMissing)

	err = downloader.DownloadSegment(context.Background(), "https://example.com/watch?v=abc", 0, 5, 0, "/data/out.mp4")
	assert.ErrorIs(t, err, media.ErrDownloaderMissing)
}

// TestDownloadSegmentSeeksResolvedStream verifies the two-step segment
// fetch: yt-dlp resolves the direct stream URL, then ffmpeg seeks into it
// for only the requested span at the requested rate.
func TestDownloadSegmentSeeksResolvedStream(t *testing.T) {
	runner := &fakeRunner{output: []byte("https://cdn.example.com/stream.mp4\nextra diagnostics\n")}
	downloader := media.NewDownloader("", "")
	downloader.Runner = runner

	err := downloader.DownloadSegment(context.Background(), "https://example.com/watch?v=abc", 12.5, 3, 24, "/data/out.mp4")
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[0], "--get-url")
	assert.Contains(t, runner.calls[1], "https://cdn.example.com/stream.mp4")
	assert.Contains(t, runner.calls[1], "12.500000")
	assert.Contains(t, runner.calls[1], "3.000000")
	assert.Contains(t, runner.calls[1], "24")
	assert.Equal(t, "/data/out.mp4", runner.calls[1][len(runner.calls[1])-1])
}

// TestDownloadSegmentNoStreamURL verifies an empty resolver response is an
// error rather than an ffmpeg call with a blank input.
func TestDownloadSegmentNoStreamURL(t *testing.T) {
	runner := &fakeRunner{output: []byte("\n")}
	downloader := media.NewDownloader("", "")
	downloader.Runner = runner

	err := downloader.DownloadSegment(context.Background(), "https://example.com/watch?v=abc", 0, 5, 0, "/data/out.mp4")
	assert.ErrorContains(t, err, "no stream url")
	require.Len(t, runner.calls, 1)
}
