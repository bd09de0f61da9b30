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

// Package test provides utility functions and fakes to support the test
// suite: a cached test configuration and in-memory stand-ins for the
// external video tooling, so pipeline tests never spawn ffmpeg.
package test

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// StateManager caches the application configuration during test runs so the
// TOML files are read once per suite.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil. Convenience to reduce
// boilerplate error checking in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test configuration files under the
// repository's configs/ directory. Test binaries run with their package
// directory as the working directory, so the path is resolved by walking
// up to the module root rather than hardcoded.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, findConfigDir())
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// findConfigDir walks up from the working directory to the directory
// holding go.mod and returns its configs/ subdirectory.
func findConfigDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "configs"
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "configs")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "configs"
		}
		dir = parent
	}
}

// GetConfig is a singleton accessor for the test configuration, loading the
// TOML files on first use and caching the result.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// FakeSceneDetector implements media.SceneDetector with canned cut points.
// Each call records the video path it saw, and FailFor can force a failure
// for specific paths to exercise the batch driver's error containment.
type FakeSceneDetector struct {
	FPS      float64            // Frame rate reported in every result.
	Duration float64            // Duration reported in every result.
	Cuts     []float64          // Interior cut times applied to every video.
	FailFor  map[string]error   // Paths that should fail detection.
	Calls    []string           // Every path DetectScenes was invoked with.
	Results  map[string]*model.VideoMetadata
}

// NewFakeSceneDetector returns a detector producing len(cuts)+1 scenes per
// video at the given rate and duration.
func NewFakeSceneDetector(fps float64, duration float64, cuts []float64) *FakeSceneDetector {
	return &FakeSceneDetector{
		FPS:      fps,
		Duration: duration,
		Cuts:     cuts,
		FailFor:  make(map[string]error),
		Results:  make(map[string]*model.VideoMetadata),
	}
}

func (f *FakeSceneDetector) DetectScenes(_ context.Context, videoPath string, threshold int) (*model.VideoMetadata, error) {
	f.Calls = append(f.Calls, videoPath)
	if err, ok := f.FailFor[videoPath]; ok {
		return nil, err
	}

	boundaries := append([]float64{0}, f.Cuts...)
	boundaries = append(boundaries, f.Duration)
	scenes := make([]*model.Scene, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		scenes = append(scenes, &model.Scene{
			SceneID:    i,
			StartFrame: int(math.Round(boundaries[i] * f.FPS)),
			EndFrame:   int(math.Round(boundaries[i+1] * f.FPS)),
			StartTime:  boundaries[i],
			EndTime:    boundaries[i+1],
		})
	}
	out := &model.VideoMetadata{
		VideoPath: videoPath,
		FPS:       f.FPS,
		Threshold: threshold,
		NumScenes: len(scenes),
		Scenes:    scenes,
	}
	f.Results[videoPath] = out
	return out, nil
}

// FakeClipSplitter implements media.ClipSplitter by touching empty clip
// files on disk, so the annotator's existence checks behave as in
// production.
type FakeClipSplitter struct {
	Calls int
	Err   error
}

func (f *FakeClipSplitter) Split(_ context.Context, videoPath string, scenes []*model.Scene, outputDir string) ([]string, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	stem := media.VideoStem(videoPath)
	clips := make([]string, 0, len(scenes))
	for i := range scenes {
		clipPath := filepath.Join(outputDir, media.ClipFileName(stem, i+1))
		clips = append(clips, clipPath)
		if err := os.WriteFile(clipPath, []byte{}, 0o644); err != nil {
			return nil, err
		}
	}
	return clips, nil
}

// FakeClipAnnotator implements media.ClipAnnotator by recording the
// annotation text it would have burned in.
type FakeClipAnnotator struct {
	Annotations []string
	Err         error
}

func (f *FakeClipAnnotator) Annotate(_ context.Context, clipPath string, scene *model.Scene, fps float64) error {
	if f.Err != nil {
		return f.Err
	}
	f.Annotations = append(f.Annotations, fmt.Sprintf("%s: %s", filepath.Base(clipPath), scene.Annotation()))
	return nil
}
