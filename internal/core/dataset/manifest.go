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

// Package dataset implements the manifest loader for the scene detection
// pipeline. A manifest is a JSON array of records, each naming a video file
// relative to a video directory. The loader resolves every record to an
// on-disk path and tags it as Found or Missing; a missing file is a known,
// common case for partial datasets and is an explicit outcome rather than an
// error, so callers (and tests) can assert on the skip reason.
//
// Logic Flow:
//  1. `Load` reads and decodes the manifest. Records carry at least a
//     `video` field; unknown fields are ignored.
//  2. `Resolve` joins each filename under the video directory and stats the
//     result, producing an ordered slice of ResolvedVideo values that
//     preserves manifest order.
//  3. Callers iterate the resolved slice, processing Found entries and
//     counting Missing ones against the valid-video denominator.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is a single manifest entry. Manifests produced by upstream
// annotation tooling carry many extra fields; only the video filename is
// meaningful here, so everything else is dropped at decode time.
type Record struct {
	Video string `json:"video"` // Video filename relative to the video directory.
}

// Resolution tags the outcome of resolving a manifest record against the
// video directory.
type Resolution int

const (
	// Found means the video file exists on disk and can be processed.
	Found Resolution = iota
	// Missing means the manifest names a file that is not on disk. The
	// record is excluded from processing but still counts toward the
	// manifest total.
	Missing
)

// ResolvedVideo pairs a manifest filename with its resolved absolute path
// and the resolution outcome.
type ResolvedVideo struct {
	Name  string     // The filename exactly as it appears in the manifest.
	Path  string     // The resolved path under the video directory.
	State Resolution // Found or Missing.
}

// Load reads a manifest file and decodes it into an ordered slice of records.
//
// Inputs:
//   - manifestPath: Path to the JSON manifest file.
//
// Outputs:
//   - []Record: The manifest entries in file order.
//   - error: A wrapped error if the file cannot be read or decoded.
func Load(manifestPath string) ([]Record, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", manifestPath, err)
	}
	return records, nil
}

// Resolve maps manifest records to on-disk paths, tagging each as Found or
// Missing. Order is preserved so the batch driver processes videos in
// manifest order.
func Resolve(records []Record, videoDir string) []ResolvedVideo {
	out := make([]ResolvedVideo, 0, len(records))
	for _, record := range records {
		resolved := ResolvedVideo{
			Name: record.Video,
			Path: filepath.Join(videoDir, record.Video),
		}
		if _, err := os.Stat(resolved.Path); err != nil {
			resolved.State = Missing
		}
		out = append(out, resolved)
	}
	return out
}

// CountFound returns the number of resolved entries that exist on disk.
// This is the "valid videos" denominator reported in the run summary.
func CountFound(resolved []ResolvedVideo) int {
	count := 0
	for _, r := range resolved {
		if r.State == Found {
			count++
		}
	}
	return count
}
