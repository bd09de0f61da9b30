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
// pipeline. This file, `transient.go`, contains structs used only in memory
// while a workflow executes; they are never serialized into the output
// metadata file.
package model

// VideoInfo is the result of probing a video container. The detector uses it
// to convert cut timestamps to frame indices and to clamp the last scene to
// the true end of the video.
type VideoInfo struct {
	Width      int     // Frame width in pixels.
	Height     int     // Frame height in pixels.
	FPS        float64 // Average frame rate.
	FrameCount int     // Total number of frames in the stream.
	Duration   float64 // Container duration in seconds.
}

// MediaFormatFilter describes a target encode for a transcoding operation,
// such as the frame-rate tools or the compressor output.
type MediaFormatFilter struct {
	Format string  // Container format, e.g. "mp4".
	FPS    float64 // Target frame rate for retiming operations; zero means keep the source rate.
}
