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

// The compress subcommand: re-encode a directory of videos in parallel,
// preferring hardware encoding and falling back to software per file.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

var compressFlags struct {
	inputDir  string
	outputDir string
	workers   int
	format    string
	fps       float64
}

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Batch-compress every .mp4 in a directory",
	Long: `Re-encodes every .mp4 under --input-dir into --output-dir. Files whose
output already exists are skipped, so an interrupted run can simply be
restarted. Each file first attempts NVENC hardware encoding and falls back
to libx264 when no capable GPU is present.`,
	RunE: runCompress,
}

func init() {
	f := compressCmd.Flags()
	f.StringVar(&compressFlags.inputDir, "input-dir", "", "directory of source .mp4 files")
	f.StringVar(&compressFlags.outputDir, "output-dir", "", "directory compressed files are written to")
	f.IntVar(&compressFlags.workers, "workers", 0, "worker pool size (0 selects min(4, NumCPU))")
	f.StringVar(&compressFlags.format, "format", "mp4", "container extension to pick up from --input-dir")
	f.Float64Var(&compressFlags.fps, "fps", 0, "write outputs at this frame rate (0 keeps the source rate)")
	_ = compressCmd.MarkFlagRequired("input-dir")
	_ = compressCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, _ []string) error {
	workers := compressFlags.workers
	if workers == 0 {
		workers = appConfig.Compressor.Workers
	}

	compressor := media.NewVideoCompressor(appConfig.Tools.FFmpegPath)
	videoFormat := &model.MediaFormatFilter{Format: compressFlags.format, FPS: compressFlags.fps}
	command := commands.NewCompress("compress", compressor, videoFormat, compressFlags.outputDir, workers)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(cmd.Context())
	chainCtx.Add(cor.CtxIn, compressFlags.inputDir)

	command.Execute(chainCtx)
	if chainCtx.HasErrors() {
		return chainCtx.GetErrors()[command.GetName()]
	}

	summary := chainCtx.Get(command.GetOutputParam()).(*commands.CompressSummary)
	slog.Info("compression complete",
		"total", summary.Total(),
		"skipped", summary.Skipped,
		"gpu", summary.GPU,
		"cpu", summary.CPU,
		"errors", summary.Errors)
	if summary.Errors > 0 {
		for _, failure := range summary.Failures {
			slog.Warn("compression failure", "error", failure)
		}
		return fmt.Errorf("%d of %d files failed to compress", summary.Errors, summary.Total())
	}
	return nil
}
