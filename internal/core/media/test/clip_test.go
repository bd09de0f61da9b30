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
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClipFileName verifies the deterministic, zero-padded clip template
// shared by the splitter and the annotator.
func TestClipFileName(t *testing.T) {
	assert.Equal(t, "game_scene_001.mp4", media.ClipFileName("game", 1))
	assert.Equal(t, "game_scene_042.mp4", media.ClipFileName("game", 42))
	assert.Equal(t, "game_scene_100.mp4", media.ClipFileName("game", 100))
}

// TestVideoStem verifies extension stripping for debug namespacing.
func TestVideoStem(t *testing.T) {
	assert.Equal(t, "game", media.VideoStem("/data/videos/game.mp4"))
	assert.Equal(t, "clip.v2", media.VideoStem("clip.v2.mp4"))
}

// TestSplitProducesOnePerScene verifies commands are issued per scene with
// the scene boundaries as cut points, and that clip paths come back in
// scene order.
func TestSplitProducesOnePerScene(t *testing.T) {
	runner := &fakeRunner{}
	splitter := media.NewFFmpegClipSplitter("")
	splitter.Runner = runner

	outDir := filepath.Join(t.TempDir(), "debug", "game")
	scenes := []*model.Scene{
		{SceneID: 0, StartFrame: 0, EndFrame: 120, StartTime: 0, EndTime: 2},
		{SceneID: 1, StartFrame: 120, EndFrame: 600, StartTime: 2, EndTime: 10},
	}

	clips, err := splitter.Split(context.Background(), "/videos/game.mp4", scenes, outDir)
	require.NoError(t, err)
	require.Len(t, clips, 2)

	assert.Equal(t, filepath.Join(outDir, "game_scene_001.mp4"), clips[0])
	assert.Equal(t, filepath.Join(outDir, "game_scene_002.mp4"), clips[1])
	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[0], "0.000000")
	assert.Contains(t, runner.calls[0], "2.000000")
	assert.Contains(t, runner.calls[1], "10.000000")

	// The output directory must exist after the split.
	_, err = os.Stat(outDir)
	assert.NoError(t, err)
}

// TestSplitSkipsZeroLengthScene verifies a degenerate scene produces no
// encode but still occupies a slot in the returned clip list, mirroring the
// splitter-skipped-clip case the annotator must tolerate.
func TestSplitSkipsZeroLengthScene(t *testing.T) {
	runner := &fakeRunner{}
	splitter := media.NewFFmpegClipSplitter("")
	splitter.Runner = runner

	scenes := []*model.Scene{
		{SceneID: 0, StartTime: 0, EndTime: 0},
		{SceneID: 1, StartTime: 0, EndTime: 5},
	}
	clips, err := splitter.Split(context.Background(), "/videos/game.mp4", scenes, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, clips, 2)
	assert.Len(t, runner.calls, 1)
}

// annotateRunner simulates a successful ffmpeg encode by writing the output
// file named by the final argument.
type annotateRunner struct {
	fakeRunner
	payload string
}

func (a *annotateRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := a.fakeRunner.CombinedOutput(ctx, name, args...)
	if err == nil && len(args) > 0 {
		if werr := os.WriteFile(args[len(args)-1], []byte(a.payload), 0o644); werr != nil {
			return nil, werr
		}
	}
	return out, err
}

// TestAnnotateReplacesClipAtomically verifies the temp-write-then-rename
// contract: after Annotate returns, the clip path holds the annotated
// content and no temp file remains in the directory.
func TestAnnotateReplacesClipAtomically(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "game_scene_001.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("original"), 0o644))

	runner := &annotateRunner{payload: "annotated"}
	annotator := media.NewFFmpegClipAnnotator("")
	annotator.Runner = runner

	scene := &model.Scene{SceneID: 0, StartFrame: 0, EndFrame: 120, StartTime: 0, EndTime: 2}
	require.NoError(t, annotator.Annotate(context.Background(), clip, scene, 60))

	content, err := os.ReadFile(clip)
	require.NoError(t, err)
	assert.Equal(t, "annotated", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// The burn-in text must carry the escaped annotation.
	require.Len(t, runner.calls, 1)
	joined := ""
	for _, arg := range runner.calls[0] {
		joined += arg + " "
	}
	assert.Contains(t, joined, `Scene 0 | Frames\: 0-120`)
}

// TestAnnotateFailureKeepsOriginal verifies a failed encode leaves the
// original clip untouched under its final name.
func TestAnnotateFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "game_scene_001.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("original"), 0o644))

	runner := &fakeRunner{output: []byte("No such filter: 'drawtext'"), err: assert.AnError}
	annotator := media.NewFFmpegClipAnnotator("")
	annotator.Runner = runner

	scene := &model.Scene{SceneID: 0, StartTime: 0, EndTime: 2}
	err := annotator.Annotate(context.Background(), clip, scene, 60)
	assert.Error(t, err)

	content, rerr := os.ReadFile(clip)
	require.NoError(t, rerr)
	assert.Equal(t, "original", string(content))
}

// TestEscapeDrawText verifies filter-graph metacharacters are escaped.
func TestEscapeDrawText(t *testing.T) {
	assert.Equal(t, `Time\: 0.00s-2.50s`, media.EscapeDrawText("Time: 0.00s-2.50s"))
	assert.Equal(t, `a\,b`, media.EscapeDrawText("a,b"))
}
