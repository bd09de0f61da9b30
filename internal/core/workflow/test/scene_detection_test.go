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

// Package workflow_test contains the tests for the batch scene detection
// pipeline. This file drives the full manifest-to-aggregate flow against
// the in-memory fakes: a manifest with a missing file, a video whose
// detection fails, and a debug run with a successful-video limit.
package workflow_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/dataset"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-dataset-prep/internal/testutil"
)

// writeTestDataset materializes a video directory and a manifest naming the
// given files. Entries in onDisk get an empty placeholder file; the fakes
// never read video bytes.
func writeTestDataset(t *testing.T, manifest []string, onDisk []string) (manifestPath string, videoDir string) {
	t.Helper()
	root := t.TempDir()
	videoDir = filepath.Join(root, "videos")
	require.NoError(t, os.MkdirAll(videoDir, 0o755))
	for _, name := range onDisk {
		require.NoError(t, os.WriteFile(filepath.Join(videoDir, name), []byte{}, 0o644))
	}

	records := make([]map[string]string, 0, len(manifest))
	for _, name := range manifest {
		records = append(records, map[string]string{"video": name, "duration": "unused"})
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	manifestPath = filepath.Join(root, "dataset.json")
	require.NoError(t, os.WriteFile(manifestPath, data, 0o644))
	return manifestPath, videoDir
}

func newTestDriver(detector *test.FakeSceneDetector, splitter *test.FakeClipSplitter, annotator *test.FakeClipAnnotator, threshold int, debug bool, debugDir string, debugLimit int) *workflow.BatchDriver {
	wf := workflow.NewSceneDetectionWorkflow(detector, splitter, annotator, threshold, debug, debugDir)
	driver := workflow.NewBatchDriver(wf, threshold, debug, debugLimit)
	driver.SetShowProgress(false)
	return driver
}

// TestFullRunSkipsMissingVideos runs a three-entry manifest where one file
// is absent from disk. The missing entry is silently skipped: it appears
// nowhere in the aggregate, and the valid-video total counts only the files
// that exist.
func TestFullRunSkipsMissingVideos(t *testing.T) {
	manifestPath, videoDir := writeTestDataset(t,
		[]string{"a.mp4", "gone.mp4", "c.mp4"},
		[]string{"a.mp4", "c.mp4"})

	records, err := dataset.Load(manifestPath)
	require.NoError(t, err)
	resolved := dataset.Resolve(records, videoDir)

	detector := test.NewFakeSceneDetector(30.0, 10.0, []float64{4.0})
	driver := newTestDriver(detector, &test.FakeClipSplitter{}, &test.FakeClipAnnotator{}, config.Detector.Threshold, false, "", 0)

	collection, err := driver.Run(ctx, resolved)
	require.NoError(t, err)

	assert.Equal(t, 2, collection.TotalVideos)
	assert.False(t, collection.DebugMode)
	assert.Equal(t, config.Detector.Threshold, collection.Threshold)
	assert.Len(t, collection.Videos, 2)
	assert.Contains(t, collection.Videos, "a.mp4")
	assert.Contains(t, collection.Videos, "c.mp4")
	assert.NotContains(t, collection.Videos, "gone.mp4")
	// The detector is never invoked for the missing file.
	assert.Equal(t, []string{
		filepath.Join(videoDir, "a.mp4"),
		filepath.Join(videoDir, "c.mp4"),
	}, detector.Calls)
}

// TestFullRunRecordsPerVideoFailure forces one detection to fail and checks
// that the batch continues, the failure becomes an error record, and the
// valid-video total still includes the errored file.
func TestFullRunRecordsPerVideoFailure(t *testing.T) {
	manifestPath, videoDir := writeTestDataset(t,
		[]string{"ok.mp4", "broken.mp4"},
		[]string{"ok.mp4", "broken.mp4"})

	records, err := dataset.Load(manifestPath)
	require.NoError(t, err)
	resolved := dataset.Resolve(records, videoDir)

	detector := test.NewFakeSceneDetector(24.0, 8.0, []float64{2.0, 5.0})
	detector.FailFor[filepath.Join(videoDir, "broken.mp4")] = errors.New("moov atom not found")
	driver := newTestDriver(detector, &test.FakeClipSplitter{}, &test.FakeClipAnnotator{}, 30, false, "", 0)

	collection, err := driver.Run(ctx, resolved)
	require.NoError(t, err)

	// Valid count, not success count: the broken file exists on disk.
	assert.Equal(t, 2, collection.TotalVideos)

	metadata, ok := collection.Videos["ok.mp4"].(*model.VideoMetadata)
	require.True(t, ok, "expected a metadata record for ok.mp4")
	assert.Equal(t, 3, metadata.NumScenes)
	assert.Equal(t, 30, metadata.Threshold)

	failure, ok := collection.Videos["broken.mp4"].(*model.VideoError)
	require.True(t, ok, "expected a failure record for broken.mp4")
	assert.Contains(t, failure.Error, "moov atom not found")
	assert.Equal(t, filepath.Join(videoDir, "broken.mp4"), failure.VideoPath)
}

// TestDebugRunCountsOnlySuccesses runs debug mode with a limit of one where
// the first video fails detection. The failure must not consume the limit:
// the driver keeps going until one video succeeds, and the aggregate's
// total reflects the single success while still carrying the failure
// record.
func TestDebugRunCountsOnlySuccesses(t *testing.T) {
	manifestPath, videoDir := writeTestDataset(t,
		[]string{"bad.mp4", "good.mp4", "never.mp4"},
		[]string{"bad.mp4", "good.mp4", "never.mp4"})

	records, err := dataset.Load(manifestPath)
	require.NoError(t, err)
	resolved := dataset.Resolve(records, videoDir)

	debugDir := filepath.Join(t.TempDir(), "debug_scenes")
	detector := test.NewFakeSceneDetector(30.0, 6.0, []float64{3.0})
	detector.FailFor[filepath.Join(videoDir, "bad.mp4")] = errors.New("invalid data found when processing input")
	splitter := &test.FakeClipSplitter{}
	annotator := &test.FakeClipAnnotator{}
	driver := newTestDriver(detector, splitter, annotator, 20, true, debugDir, 1)

	collection, err := driver.Run(ctx, resolved)
	require.NoError(t, err)

	assert.True(t, collection.DebugMode)
	assert.Equal(t, 1, collection.TotalVideos)
	assert.Len(t, collection.Videos, 2)
	assert.Contains(t, collection.Videos, "bad.mp4")
	assert.Contains(t, collection.Videos, "good.mp4")
	// The limit was reached before the third video.
	assert.NotContains(t, collection.Videos, "never.mp4")
	assert.Len(t, detector.Calls, 2)

	// The successful video produced clips under debugDir/{stem}/ and one
	// annotation per scene.
	assert.Equal(t, 1, splitter.Calls)
	clipDir := filepath.Join(debugDir, "good")
	entries, err := os.ReadDir(clipDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Len(t, annotator.Annotations, 2)
	assert.Contains(t, annotator.Annotations[0], "Scene 0 | Frames: 0-90 | Time: 0.00s-3.00s")
}

// TestWorkflowContainsSplitFailure checks that a debug-mode split failure
// leaves a failure record rather than a partial metadata entry, and does
// not count toward the debug limit.
func TestWorkflowContainsSplitFailure(t *testing.T) {
	manifestPath, videoDir := writeTestDataset(t,
		[]string{"a.mp4", "b.mp4"},
		[]string{"a.mp4", "b.mp4"})

	records, err := dataset.Load(manifestPath)
	require.NoError(t, err)
	resolved := dataset.Resolve(records, videoDir)

	detector := test.NewFakeSceneDetector(30.0, 6.0, nil)
	splitter := &test.FakeClipSplitter{Err: errors.New("encoder exited with code 1")}
	driver := newTestDriver(detector, splitter, &test.FakeClipAnnotator{}, config.Detector.Threshold, true, t.TempDir(), config.Detector.DebugLimit)

	collection, err := driver.Run(ctx, resolved)
	require.NoError(t, err)

	assert.Equal(t, 0, collection.TotalVideos)
	for name, entry := range collection.Videos {
		failure, ok := entry.(*model.VideoError)
		require.True(t, ok, "expected a failure record for %s", name)
		assert.Contains(t, failure.Error, "encoder exited")
	}
}

// TestWorkflowChainPipesMetadata exercises the per-video chain directly:
// the detector's output must land both under the canonical metadata key and
// flow through the split and annotate commands without errors.
func TestWorkflowChainPipesMetadata(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "scene-detection-chain-test")
	defer span.End()

	videoDir := t.TempDir()
	videoPath := filepath.Join(videoDir, "clip.mp4")
	test.HandleErr(os.WriteFile(videoPath, []byte{}, 0o644), t)

	detector := test.NewFakeSceneDetector(25.0, 4.0, []float64{1.0})
	wf := workflow.NewSceneDetectionWorkflow(detector, &test.FakeClipSplitter{}, &test.FakeClipAnnotator{}, 20, true, t.TempDir())

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(traceContext)
	chainCtx.Add(cor.CtxIn, videoPath)

	assert.True(t, wf.IsExecutable(chainCtx))
	wf.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors(), "chain errors: %v", chainCtx.GetErrors())
	metadata := detector.Results[videoPath]
	require.NotNil(t, metadata)
	assert.Equal(t, 2, metadata.NumScenes)
	assert.Equal(t, 0, metadata.Scenes[0].StartFrame)
	assert.Equal(t, 100, metadata.Scenes[1].EndFrame)
}
