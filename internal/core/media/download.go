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
// interfaces. This file implements the yt-dlp downloader used to fetch
// source videos for the dataset, either whole or as a re-encoded segment.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultYTDLPCommand is used when no explicit yt-dlp path is configured.
const DefaultYTDLPCommand = "yt-dlp"

// DefaultDownloadQuality selects the best mp4 stream yt-dlp can resolve.
const DefaultDownloadQuality = "best[ext=mp4]"

// ErrDownloaderMissing signals that the yt-dlp binary is not installed.
// Callers surface this as an actionable message rather than a raw exec
// failure.
var ErrDownloaderMissing = errors.New("yt-dlp not found: install it with `pip install yt-dlp` or place the binary on PATH")

// Downloader fetches remote videos via yt-dlp.
type Downloader struct {
	CommandPath string
	FFmpegPath  string
	Runner      CommandRunner
}

// NewDownloader creates a downloader. Empty paths fall back to the PATH
// defaults.
func NewDownloader(ytdlpPath string, ffmpegPath string) *Downloader {
	if len(strings.TrimSpace(ytdlpPath)) == 0 {
		ytdlpPath = DefaultYTDLPCommand
	}
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	return &Downloader{CommandPath: ytdlpPath, FFmpegPath: ffmpegPath, Runner: ExecRunner{}}
}

// Download fetches the full video at url into outputDir, named by its
// remote title. An empty quality selects DefaultDownloadQuality.
func (d *Downloader) Download(ctx context.Context, url string, quality string, outputDir string) error {
	if len(strings.TrimSpace(quality)) == 0 {
		quality = DefaultDownloadQuality
	}
	out, err := d.Runner.CombinedOutput(ctx, d.CommandPath,
		"-f", quality,
		"-o", filepath.Join(outputDir, "%(title)s.%(ext)s"),
		url,
	)
	if err != nil {
		return d.wrapError(url, out, err)
	}
	return nil
}

// DownloadSegment fetches only [startSeconds, startSeconds+durationSeconds)
// of the video at url, re-encoded at fps, into outputPath. yt-dlp resolves
// the direct stream URL and ffmpeg seeks into it, so only the segment's
// bytes are transferred.
func (d *Downloader) DownloadSegment(ctx context.Context, url string, startSeconds float64, durationSeconds float64, fps float64, outputPath string) error {
	streamOut, err := d.Runner.CombinedOutput(ctx, d.CommandPath, "--get-url", "-f", DefaultDownloadQuality, url)
	if err != nil {
		return d.wrapError(url, streamOut, err)
	}
	streamURL := firstLine(streamOut)
	if len(streamURL) == 0 {
		return fmt.Errorf("yt-dlp returned no stream url for %s", url)
	}

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(startSeconds),
		"-i", streamURL,
		"-t", formatSeconds(durationSeconds),
		"-c:v", splitVideoCodec,
		"-preset", splitPreset,
		"-crf", splitCRF,
	}
	if fps > 0 {
		args = append(args, "-r", fmt.Sprintf("%g", fps))
	}
	args = append(args, outputPath)

	out, err := d.Runner.CombinedOutput(ctx, d.FFmpegPath, args...)
	if err != nil {
		return fmt.Errorf("failed to download segment of %s: %w (output: %s)", url, err, tail(out, 400))
	}
	return nil
}

func (d *Downloader) wrapError(url string, out []byte, err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return ErrDownloaderMissing
	}
	return fmt.Errorf("failed to download %s: %w (output: %s)", url, err, tail(out, 400))
}

func firstLine(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	return strings.TrimSpace(string(line))
}
