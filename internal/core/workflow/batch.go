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

// Package workflow defines the high-level orchestrations of the dataset
// preparation pipeline. This file implements the batch driver: the loop
// that feeds resolved manifest entries through the per-video workflow and
// aggregates the results.
//
// Logic Flow:
//  1. Iterate the resolved videos in manifest order. Entries the resolver
//     tagged Missing are skipped without comment beyond a debug log; a
//     partially downloaded dataset is the normal case, not an error.
//  2. Each Found video gets a fresh cor.Context carrying the video path,
//     and the per-video workflow chain runs inside it. The context is
//     closed after each video so temp working files never accumulate.
//  3. A video whose chain recorded errors (or produced no metadata) becomes
//     an {error, video_path} record in the aggregate; the batch continues.
//  4. Debug mode stops after the configured number of *successful* videos.
//     Failures do not count toward the limit, so a debug run always yields
//     the requested number of inspectable clip sets when enough healthy
//     videos exist.
//  5. TotalVideos in the aggregate follows the run mode: the number of
//     successfully processed videos in debug mode, and the number of valid
//     (on-disk) videos in full mode, including ones that later failed.
package workflow

import (
	goctx "context"
	"errors"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/dataset"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// DefaultDebugLimit is the number of successful videos a debug run
// processes when no explicit limit is given.
const DefaultDebugLimit = 5

// BatchDriver owns one batch run: it executes the per-video workflow for
// each manifest entry and builds the SceneCollection aggregate.
type BatchDriver struct {
	workflow     *SceneDetectionWorkflow
	threshold    int
	debug        bool
	debugLimit   int
	showProgress bool
}

// NewBatchDriver is the constructor for the batch driver.
//
// Inputs:
//   - workflow: The per-video chain to execute.
//   - threshold: Detector threshold, recorded in the aggregate.
//   - debug: Whether this is a debug run.
//   - debugLimit: Successful-video cap for debug runs; values < 1 select
//     DefaultDebugLimit.
func NewBatchDriver(workflow *SceneDetectionWorkflow, threshold int, debug bool, debugLimit int) *BatchDriver {
	if debugLimit < 1 {
		debugLimit = DefaultDebugLimit
	}
	return &BatchDriver{
		workflow:     workflow,
		threshold:    threshold,
		debug:        debug,
		debugLimit:   debugLimit,
		showProgress: true,
	}
}

// SetShowProgress toggles the terminal progress bar, off in tests.
func (d *BatchDriver) SetShowProgress(show bool) {
	d.showProgress = show
}

// Run processes the resolved manifest entries and returns the aggregate.
// Per-video failures are contained; Run itself only observes the parent
// context for cancellation between videos.
func (d *BatchDriver) Run(ctx goctx.Context, resolved []dataset.ResolvedVideo) (*model.SceneCollection, error) {
	collection := model.NewSceneCollection(d.threshold, d.debug)

	var bar *progressbar.ProgressBar
	if d.showProgress {
		bar = progressbar.Default(int64(len(resolved)), "detecting scenes")
	}

	successes := 0
	for _, video := range resolved {
		if err := ctx.Err(); err != nil {
			return collection, err
		}
		if d.debug && successes >= d.debugLimit {
			break
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		if video.State == dataset.Missing {
			slog.Debug("manifest entry not on disk, skipping", "video", video.Name)
			continue
		}

		if d.processOne(ctx, video, collection) {
			successes++
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if d.debug {
		collection.TotalVideos = successes
	} else {
		collection.TotalVideos = dataset.CountFound(resolved)
	}
	return collection, nil
}

// processOne runs the workflow chain for a single video inside its own
// cor.Context and records the outcome in the aggregate. It reports whether
// the video counts as a success.
func (d *BatchDriver) processOne(ctx goctx.Context, video dataset.ResolvedVideo, collection *model.SceneCollection) bool {
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, video.Path)

	d.workflow.Execute(chainCtx)

	metadata := commands.VideoMetadataFrom(chainCtx)
	if chainCtx.HasErrors() || metadata == nil {
		err := flattenErrors(chainCtx.GetErrors())
		slog.Warn("video processing failed", "video", video.Name, "error", err)
		collection.AddFailure(video.Name, video.Path, err)
		return false
	}

	collection.AddResult(video.Name, metadata)
	return true
}

// flattenErrors joins a chain's per-command error map into one error for
// the failure record. The map is small (a chain stops at the first error
// unless configured otherwise) so ordering is not significant.
func flattenErrors(errMap map[string]error) error {
	if len(errMap) == 0 {
		return errors.New("workflow produced no result")
	}
	errs := make([]error, 0, len(errMap))
	for _, err := range errMap {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
