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

// The download subcommand: fetch source videos with yt-dlp, either whole
// or as a re-encoded segment when --start/--duration are given.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
)

var downloadFlags struct {
	url      string
	quality  string
	outDir   string
	output   string
	start    float64
	duration float64
	fps      float64
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a source video (or a segment of one) with yt-dlp",
	RunE:  runDownload,
}

func init() {
	f := downloadCmd.Flags()
	f.StringVar(&downloadFlags.url, "url", "", "video URL")
	f.StringVar(&downloadFlags.quality, "quality", "", "yt-dlp format selector (default: best mp4)")
	f.StringVar(&downloadFlags.outDir, "out-dir", ".", "directory for full downloads, file named by remote title")
	f.StringVar(&downloadFlags.output, "output", "", "output file for segment downloads")
	f.Float64Var(&downloadFlags.start, "start", 0, "segment start in seconds")
	f.Float64Var(&downloadFlags.duration, "duration", 0, "segment duration in seconds; 0 downloads the whole video")
	f.Float64Var(&downloadFlags.fps, "fps", 0, "re-encode segment at this frame rate (segment mode only)")
	_ = downloadCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	downloader := media.NewDownloader(appConfig.Tools.YTDLPPath, appConfig.Tools.FFmpegPath)

	if downloadFlags.duration > 0 {
		if len(downloadFlags.output) == 0 {
			return fmt.Errorf("--output is required when downloading a segment")
		}
		if err := downloader.DownloadSegment(cmd.Context(), downloadFlags.url, downloadFlags.start, downloadFlags.duration, downloadFlags.fps, downloadFlags.output); err != nil {
			return err
		}
		slog.Info("segment downloaded", "url", downloadFlags.url, "output", downloadFlags.output)
		return nil
	}

	if err := downloader.Download(cmd.Context(), downloadFlags.url, downloadFlags.quality, downloadFlags.outDir); err != nil {
		return err
	}
	slog.Info("download complete", "url", downloadFlags.url, "dir", downloadFlags.outDir)
	return nil
}
