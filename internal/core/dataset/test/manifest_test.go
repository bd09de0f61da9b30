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

// Package dataset_test contains unit tests for the manifest loader. The tests
// build real manifests and video directories under t.TempDir so the resolve
// logic runs against the actual filesystem.
package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/dataset"
	"github.com/zeebo/assert"
)

// writeFile is a small helper that creates a file with the given content and
// fails the test immediately on error.
func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestLoadIgnoresUnknownFields verifies that manifest records decode even when
// upstream tooling attaches extra annotation fields to each entry.
func TestLoadIgnoresUnknownFields(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")
	writeFile(t, manifest, `[
  {"video": "a.mp4", "caption": "a three pointer", "split": "train"},
  {"video": "b.mp4", "frame_labels": [1, 2, 3]}
]`)

	records, err := dataset.Load(manifest)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(records))
	assert.Equal(t, "a.mp4", records[0].Video)
	assert.Equal(t, "b.mp4", records[1].Video)
}

// TestLoadRejectsMalformedManifest verifies that a manifest that is not a
// JSON array is reported as an error rather than silently producing an empty
// record list.
func TestLoadRejectsMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")
	writeFile(t, manifest, `{"video": "a.mp4"}`)

	_, err := dataset.Load(manifest)
	assert.Error(t, err)
}

// TestResolveTagsMissingFiles verifies the core loader contract: records
// resolve in manifest order, files on disk are tagged Found, files absent
// from the video directory are tagged Missing, and Missing entries still
// appear in the resolved slice so callers can count them.
func TestResolveTagsMissingFiles(t *testing.T) {
	videoDir := t.TempDir()
	writeFile(t, filepath.Join(videoDir, "a.mp4"), "x")
	writeFile(t, filepath.Join(videoDir, "b.mp4"), "x")

	records := []dataset.Record{
		{Video: "a.mp4"},
		{Video: "missing.mp4"},
		{Video: "b.mp4"},
	}

	resolved := dataset.Resolve(records, videoDir)
	assert.Equal(t, 3, len(resolved))

	assert.Equal(t, "a.mp4", resolved[0].Name)
	assert.Equal(t, dataset.Found, resolved[0].State)
	assert.Equal(t, filepath.Join(videoDir, "a.mp4"), resolved[0].Path)

	assert.Equal(t, "missing.mp4", resolved[1].Name)
	assert.Equal(t, dataset.Missing, resolved[1].State)

	assert.Equal(t, "b.mp4", resolved[2].Name)
	assert.Equal(t, dataset.Found, resolved[2].State)

	assert.Equal(t, 2, dataset.CountFound(resolved))
}
