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

// Package model defines the core data structures for the dataset preparation
// pipeline. This file contains the scene metadata schema: the per-scene
// boundary record, the per-video detection result, and the batch-level
// aggregate that is serialized to the output JSON file.
//
// Structs:
//   - Scene: A single detected scene with frame and time boundaries.
//   - VideoMetadata: The full detection result for one video.
//   - VideoError: The failure record written in place of VideoMetadata when
//     detection fails for a video.
//   - SceneCollection: The batch aggregate keyed by manifest filename.
package model

import "fmt"

// Scene is a contiguous run of frames between two detected content-change
// boundaries. Scene ids are 0-based and strictly increasing within a video.
// Both frame-index and time-in-seconds units are carried so consumers never
// need the source fps to interpret the record. Invariants: StartFrame <
// EndFrame and StartTime < EndTime.
type Scene struct {
	SceneID    int     `json:"scene_id"`    // 0-based sequential id within the video.
	StartFrame int     `json:"start_frame"` // First frame of the scene (inclusive).
	EndFrame   int     `json:"end_frame"`   // Frame the scene ends on (exclusive, equals the next scene's start).
	StartTime  float64 `json:"start_time"`  // Scene start in seconds at the native frame rate.
	EndTime    float64 `json:"end_time"`    // Scene end in seconds at the native frame rate.
}

// VideoMetadata is the successful detection result for a single video. It is
// created once per video during detection and is immutable afterwards. The
// fps recorded here is the video's native frame rate; the detector never
// resamples.
type VideoMetadata struct {
	VideoPath string   `json:"video_path"` // Absolute path of the analyzed video.
	FPS       float64  `json:"fps"`        // Native frame rate of the source.
	Threshold int      `json:"threshold"`  // Detector threshold used for this run.
	NumScenes int      `json:"num_scenes"` // Convenience count, always len(Scenes).
	Scenes    []*Scene `json:"scenes"`     // Scenes ordered by SceneID, covering the full video span.
}

// VideoError is recorded in the aggregate in place of a VideoMetadata when
// detection fails for a video. A per-video failure never aborts the batch.
type VideoError struct {
	Error     string `json:"error"`      // The failure message, as returned by the detector.
	VideoPath string `json:"video_path"` // Absolute path of the video that failed.
}

// SceneCollection is the batch-level aggregate produced by the driver and
// written once at the end of a run. The Videos map holds either *VideoMetadata
// or *VideoError values keyed by the manifest filename; consumers distinguish
// the two shapes by the presence of the "error" key. The collection is owned
// exclusively by the driver until hand-off to the writer; the pipeline
// processes videos sequentially so no locking is required.
type SceneCollection struct {
	Threshold   int            `json:"threshold"`    // Detector threshold for the whole batch.
	TotalVideos int            `json:"total_videos"` // Valid-video count (full mode) or successful count (debug mode).
	DebugMode   bool           `json:"debug_mode"`   // True when the run materialized annotated clips.
	Videos      map[string]any `json:"videos"`       // Per-video results keyed by manifest filename.
}

// NewSceneCollection creates an empty aggregate for a batch run. The map must
// be initialized up front so the driver can insert results without nil checks.
func NewSceneCollection(threshold int, debugMode bool) *SceneCollection {
	return &SceneCollection{
		Threshold: threshold,
		DebugMode: debugMode,
		Videos:    make(map[string]any),
	}
}

// AddResult records a successful detection under the manifest filename.
func (c *SceneCollection) AddResult(filename string, metadata *VideoMetadata) {
	c.Videos[filename] = metadata
}

// AddFailure records a per-video detection failure under the manifest
// filename. The error is flattened to a string so the aggregate stays
// JSON-serializable.
func (c *SceneCollection) AddFailure(filename string, videoPath string, err error) {
	c.Videos[filename] = &VideoError{Error: err.Error(), VideoPath: videoPath}
}

// Annotation renders the burn-in text for a scene, matching the overlay
// written onto every frame of a debug clip. Times are fixed to two decimals.
func (s *Scene) Annotation() string {
	return fmt.Sprintf("Scene %d | Frames: %d-%d | Time: %.2fs-%.2fs",
		s.SceneID, s.StartFrame, s.EndFrame, s.StartTime, s.EndTime)
}
