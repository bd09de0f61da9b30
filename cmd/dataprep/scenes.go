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

// The scenes subcommand: run scene detection over a manifest of videos and
// write the aggregated scene metadata JSON. Debug mode processes a handful
// of videos and materializes annotated per-scene clips alongside the
// metadata so boundaries can be verified by eye before a full run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/dataset"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/workflow"
)

var scenesFlags struct {
	dataPath    string
	videoDir    string
	globalPath  string
	outputPath  string
	threshold   int
	debug       bool
	debugLimit  int
	debugOutput string
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "Detect scene boundaries for every video in a manifest",
	RunE:  runScenes,
}

func init() {
	f := scenesCmd.Flags()
	f.StringVar(&scenesFlags.dataPath, "data-path", "dataset.json", "manifest file, relative to --global-path unless absolute")
	f.StringVar(&scenesFlags.videoDir, "video-dir", "videos", "video directory, relative to --global-path unless absolute")
	f.StringVar(&scenesFlags.globalPath, "global-path", ".", "base directory relative paths are resolved against")
	f.StringVar(&scenesFlags.outputPath, "output-path", "scene_metadata.json", "output JSON file, relative to --global-path unless absolute")
	f.IntVar(&scenesFlags.threshold, "threshold", media.DefaultSceneThreshold, "content-change threshold (0-100); higher yields fewer scenes")
	f.BoolVar(&scenesFlags.debug, "debug", false, "debug mode: stop after --debug-limit successful videos and write annotated clips")
	f.IntVar(&scenesFlags.debugLimit, "debug-limit", workflow.DefaultDebugLimit, "number of successful videos to process in debug mode")
	f.StringVar(&scenesFlags.debugOutput, "debug-output", "./debug_scenes", "directory for annotated debug clips")
	rootCmd.AddCommand(scenesCmd)
}

func runScenes(cmd *cobra.Command, _ []string) error {
	cfg := appConfig

	threshold := scenesFlags.threshold
	if !cmd.Flags().Changed("threshold") && cfg.Detector.Threshold > 0 {
		threshold = cfg.Detector.Threshold
	}
	debugLimit := scenesFlags.debugLimit
	if !cmd.Flags().Changed("debug-limit") && cfg.Detector.DebugLimit > 0 {
		debugLimit = cfg.Detector.DebugLimit
	}
	debugOutput := scenesFlags.debugOutput
	if !cmd.Flags().Changed("debug-output") && len(cfg.Detector.DebugOutput) > 0 {
		debugOutput = cfg.Detector.DebugOutput
	}

	manifestPath := resolvePath(scenesFlags.globalPath, scenesFlags.dataPath)
	videoDir := resolvePath(scenesFlags.globalPath, scenesFlags.videoDir)
	outputPath := resolvePath(scenesFlags.globalPath, scenesFlags.outputPath)
	debugOutput = resolvePath(scenesFlags.globalPath, debugOutput)

	if _, err := os.Stat(manifestPath); err != nil {
		return fmt.Errorf("manifest not found at %s", manifestPath)
	}
	if info, err := os.Stat(videoDir); err != nil || !info.IsDir() {
		return fmt.Errorf("video directory not found at %s", videoDir)
	}

	records, err := dataset.Load(manifestPath)
	if err != nil {
		return err
	}
	resolved := dataset.Resolve(records, videoDir)
	slog.Info("manifest loaded",
		"manifest", manifestPath,
		"total", len(resolved),
		"valid", dataset.CountFound(resolved),
		"threshold", threshold,
		"debug", scenesFlags.debug)

	prober := media.NewFFprobeProber(cfg.Tools.FFprobePath)
	detector := media.NewFFmpegSceneDetector(cfg.Tools.FFmpegPath, prober)
	splitter := media.NewFFmpegClipSplitter(cfg.Tools.FFmpegPath)
	annotator := media.NewFFmpegClipAnnotator(cfg.Tools.FFmpegPath)

	wf := workflow.NewSceneDetectionWorkflow(detector, splitter, annotator, threshold, scenesFlags.debug, debugOutput)
	driver := workflow.NewBatchDriver(wf, threshold, scenesFlags.debug, debugLimit)

	collection, err := driver.Run(cmd.Context(), resolved)
	if err != nil {
		return err
	}

	writer := commands.NewMetadataWrite("metadata-write", outputPath)
	writeCtx := cor.NewBaseContext()
	defer writeCtx.Close()
	writeCtx.SetContext(context.WithoutCancel(cmd.Context()))
	writeCtx.Add(cor.CtxIn, collection)
	writer.Execute(writeCtx)
	if writeCtx.HasErrors() {
		return writeCtx.GetErrors()[writer.GetName()]
	}

	slog.Info("scene metadata written", "output", outputPath, "videos", collection.TotalVideos)
	return nil
}
