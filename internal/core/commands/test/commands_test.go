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

// Package commands_test tests the pipeline commands that run without
// external services: the metadata writer and the batch compressor. The
// compressor's ffmpeg calls go through an injected runner that simulates
// GPU availability per input file.
package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

func newChainContext(t *testing.T) cor.Context {
	t.Helper()
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	t.Cleanup(chainCtx.Close)
	return chainCtx
}

// TestMetadataWriteSerializesAggregate checks the output file shape: pretty
// printed JSON with the batch fields and both result shapes under videos.
func TestMetadataWriteSerializesAggregate(t *testing.T) {
	collection := model.NewSceneCollection(27, false)
	collection.TotalVideos = 2
	collection.AddResult("a.mp4", &model.VideoMetadata{
		VideoPath: "/data/videos/a.mp4",
		FPS:       29.97,
		Threshold: 27,
		NumScenes: 1,
		Scenes: []*model.Scene{
			{SceneID: 0, StartFrame: 0, EndFrame: 120, StartTime: 0, EndTime: 4.004},
		},
	})
	collection.AddFailure("b.mp4", "/data/videos/b.mp4", errors.New("moov atom not found"))

	outputPath := filepath.Join(t.TempDir(), "scene_metadata.json")
	writer := commands.NewMetadataWrite("metadata-write", outputPath)

	chainCtx := newChainContext(t)
	chainCtx.Add(cor.CtxIn, collection)
	writer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors(), "writer errors: %v", chainCtx.GetErrors())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  "), "expected two-space indented JSON")

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, int64(27), parsed.Get("threshold").Int())
	assert.Equal(t, int64(2), parsed.Get("total_videos").Int())
	assert.False(t, parsed.Get("debug_mode").Bool())
	assert.Equal(t, int64(120), parsed.Get("videos.a\\.mp4.scenes.0.end_frame").Int())
	assert.Equal(t, "moov atom not found", parsed.Get("videos.b\\.mp4.error").String())
	assert.Equal(t, "/data/videos/b.mp4", parsed.Get("videos.b\\.mp4.video_path").String())
}

// TestMetadataWriteOverwritesExisting verifies the unconditional overwrite:
// a stale file at the output path is replaced, not appended to.
func TestMetadataWriteOverwritesExisting(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "scene_metadata.json")
	require.NoError(t, os.WriteFile(outputPath, []byte("stale content"), 0o644))

	collection := model.NewSceneCollection(20, true)
	writer := commands.NewMetadataWrite("metadata-write", outputPath)

	chainCtx := newChainContext(t)
	chainCtx.Add(cor.CtxIn, collection)
	writer.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.True(t, gjson.ParseBytes(data).Get("debug_mode").Bool())
}

// compressRunner simulates ffmpeg for the compressor: NVENC invocations
// fail unless the runner is marked GPU-capable, and every successful encode
// touches the output file the way ffmpeg would.
type compressRunner struct {
	mu           sync.Mutex
	gpuAvailable bool
	failInputs   map[string]bool
	gpuCalls     int
	cpuCalls     int
}

func (r *compressRunner) CombinedOutput(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var input, output string
	gpu := false
	for i, arg := range args {
		switch arg {
		case "-i":
			input = args[i+1]
		case "-hwaccel":
			gpu = true
		}
	}
	output = args[len(args)-1]

	if gpu {
		r.gpuCalls++
		if !r.gpuAvailable {
			return []byte("Cannot load libnvidia-encode.so.1"), errors.New("exit status 1")
		}
	} else {
		r.cpuCalls++
	}
	if r.failInputs[filepath.Base(input)] {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}
	return nil, os.WriteFile(output, []byte("encoded"), 0o644)
}

func (r *compressRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.CombinedOutput(ctx, name, args...)
	return err
}

func writeInputVideos(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("raw"), 0o644))
	}
	return dir
}

func runCompress(t *testing.T, runner *compressRunner, inputDir string, outputDir string) *commands.CompressSummary {
	t.Helper()
	compressor := media.NewVideoCompressor("")
	compressor.Runner = runner
	command := commands.NewCompress("compress", compressor, nil, outputDir, 2)
	command.SetShowProgress(false)

	chainCtx := newChainContext(t)
	chainCtx.Add(cor.CtxIn, inputDir)
	command.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors(), "compress errors: %v", chainCtx.GetErrors())

	summary, ok := chainCtx.Get(command.GetOutputParam()).(*commands.CompressSummary)
	require.True(t, ok, "expected a compress summary output")
	return summary
}

// TestCompressFallsBackToCPU runs the batch with no GPU available: every
// file must still compress through the software path.
func TestCompressFallsBackToCPU(t *testing.T) {
	inputDir := writeInputVideos(t, "a.mp4", "b.mp4", "notes.txt")
	outputDir := filepath.Join(t.TempDir(), "compressed")
	runner := &compressRunner{gpuAvailable: false}

	summary := runCompress(t, runner, inputDir, outputDir)

	assert.Equal(t, 0, summary.GPU)
	assert.Equal(t, 2, summary.CPU)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 0, summary.Skipped)
	// One failed NVENC attempt per file before the fallback.
	assert.Equal(t, 2, runner.gpuCalls)

	for _, name := range []string{"a.mp4", "b.mp4"} {
		_, err := os.Stat(filepath.Join(outputDir, name))
		assert.NoError(t, err)
	}
	// Non-video files are never touched.
	_, err := os.Stat(filepath.Join(outputDir, "notes.txt"))
	assert.True(t, os.IsNotExist(err))
}

// TestCompressSkipsExistingOutputs marks a file as already compressed and
// checks the resumability contract: it is counted as skipped and no encode
// runs for it.
func TestCompressSkipsExistingOutputs(t *testing.T) {
	inputDir := writeInputVideos(t, "a.mp4", "b.mp4")
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "a.mp4"), []byte("done"), 0o644))

	runner := &compressRunner{gpuAvailable: true}
	summary := runCompress(t, runner, inputDir, outputDir)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.GPU)
	assert.Equal(t, 0, summary.CPU)
	assert.Equal(t, 1, runner.gpuCalls)
	assert.Equal(t, 0, runner.cpuCalls)
	assert.Equal(t, 2, summary.Total())
}

// TestCompressRecordsFailures forces one file to fail both encode paths.
// The batch continues and the failure shows up in the summary, not as a
// chain error.
func TestCompressRecordsFailures(t *testing.T) {
	inputDir := writeInputVideos(t, "corrupt.mp4", "fine.mp4")
	outputDir := t.TempDir()
	runner := &compressRunner{gpuAvailable: false, failInputs: map[string]bool{"corrupt.mp4": true}}

	summary := runCompress(t, runner, inputDir, outputDir)

	assert.Equal(t, 1, summary.CPU)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0], "corrupt.mp4")

	// The failed file leaves no partial output behind.
	_, err := os.Stat(filepath.Join(outputDir, "corrupt.mp4"))
	assert.True(t, os.IsNotExist(err))
}
