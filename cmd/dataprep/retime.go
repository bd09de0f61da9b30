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

// The retime and subsample subcommands: frame rate normalization for
// dataset videos. retime keeps every frame and changes playback speed;
// subsample drops frames to hit the target rate at the original duration.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
)

var retimeFlags struct {
	input  string
	output string
	fps    float64
}

var retimeCmd = &cobra.Command{
	Use:   "retime",
	Short: "Rewrite a video at a new frame rate, keeping every frame",
	RunE: func(cmd *cobra.Command, _ []string) error {
		retimer := newRetimer()
		if err := retimer.Retime(cmd.Context(), retimeFlags.input, retimeFlags.output, retimeFlags.fps); err != nil {
			return err
		}
		slog.Info("retime complete", "input", retimeFlags.input, "output", retimeFlags.output, "fps", retimeFlags.fps)
		return nil
	},
}

var subsampleCmd = &cobra.Command{
	Use:   "subsample",
	Short: "Drop frames to approximate a lower frame rate at the original duration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		retimer := newRetimer()
		if err := retimer.Subsample(cmd.Context(), retimeFlags.input, retimeFlags.output, retimeFlags.fps); err != nil {
			return err
		}
		slog.Info("subsample complete", "input", retimeFlags.input, "output", retimeFlags.output, "fps", retimeFlags.fps)
		return nil
	},
}

func newRetimer() *media.Retimer {
	prober := media.NewFFprobeProber(appConfig.Tools.FFprobePath)
	return media.NewRetimer(appConfig.Tools.FFmpegPath, prober)
}

func init() {
	for _, cmd := range []*cobra.Command{retimeCmd, subsampleCmd} {
		f := cmd.Flags()
		f.StringVar(&retimeFlags.input, "input", "", "source video file")
		f.StringVar(&retimeFlags.output, "output", "", "destination video file")
		f.Float64Var(&retimeFlags.fps, "fps", 0, "target frame rate")
		_ = cmd.MarkFlagRequired("input")
		_ = cmd.MarkFlagRequired("output")
		_ = cmd.MarkFlagRequired("fps")
		rootCmd.AddCommand(cmd)
	}
}
