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

// dataprep is the command line entry point for the video dataset
// preparation toolkit. Each subcommand is one stage of dataset assembly:
// downloading source videos, compressing them, normalizing frame rates,
// detecting scenes, asking a model about a video, and publishing the
// finished dataset.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "dataprep",
	Short: "Prepare video datasets: download, compress, retime, detect scenes, publish",
	Long: `dataprep assembles video datasets for model training.

The typical flow is: download source videos, compress them to a uniform
encoding, optionally normalize frame rates, then run scene detection over a
manifest to produce the scene metadata file. The scenes subcommand's debug
mode additionally writes annotated per-scene clips for visual verification.`,
	SilenceUsage: true,
}

func main() {
	telemetry.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := loadConfiguration()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("failed to setup telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to shutdown telemetry", "error", err)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "unhandled error: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
