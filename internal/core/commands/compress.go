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

// Package commands provides the concrete Chain of Responsibility command
// implementations for the dataset preparation workflows. This file defines
// the batch compressor: every .mp4 in an input directory is re-encoded into
// an output directory, with hardware encoding where available.
//
// Logic Flow:
//  1. Scan the input directory for .mp4 files, sorted by name so runs are
//     deterministic. Files whose output already exists are skipped, which
//     makes the command safely resumable after an interruption.
//  2. **Worker Pool Pattern**: compression is CPU/GPU bound and fully
//     independent per file, so the remaining files are fanned out over a
//     bounded pool of goroutines.
//     - A buffered `jobs` channel carries one job per file to the workers.
//     - A `results` channel carries each file's outcome back.
//     - A `sync.WaitGroup` tracks worker completion.
//  3. Each worker invokes the media.VideoCompressor, which tries NVENC and
//     falls back to libx264 on its own; the worker just records which path
//     was taken. A file that fails both encodes becomes an error result and
//     the batch continues.
//  4. The Execute function drains the results, advances a progress bar per
//     completed file, and publishes a CompressSummary with the per-category
//     counts.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/media"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/model"
)

// DefaultCompressWorkers bounds the pool when no explicit worker count is
// configured. Four concurrent encodes saturate a single NVENC session queue
// without starving the CPU fallback path.
const DefaultCompressWorkers = 4

// CompressSummary reports the outcome of one batch compression run.
type CompressSummary struct {
	Skipped  int      `json:"skipped"`
	GPU      int      `json:"gpu"`
	CPU      int      `json:"cpu"`
	Errors   int      `json:"errors"`
	Failures []string `json:"failures,omitempty"`
}

// Total returns the number of input files considered.
func (s *CompressSummary) Total() int {
	return s.Skipped + s.GPU + s.CPU + s.Errors
}

// Compress re-encodes a directory of videos with a bounded worker pool.
type Compress struct {
	cor.BaseCommand
	compressor      *media.VideoCompressor
	videoFormat     *model.MediaFormatFilter
	outputDir       string
	numberOfWorkers int
	showProgress    bool
}

// NewCompress is the constructor for the batch compression command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - compressor: The single-file compressor to run per video.
//   - videoFormat: Selects which container extensions to pick up and an
//     optional target frame rate; nil defaults to mp4 at the source rate.
//   - outputDir: Directory the compressed files are written to.
//   - numberOfWorkers: Pool size; values < 1 select min(4, NumCPU).
func NewCompress(name string, compressor *media.VideoCompressor, videoFormat *model.MediaFormatFilter, outputDir string, numberOfWorkers int) *Compress {
	if numberOfWorkers < 1 {
		numberOfWorkers = DefaultCompressWorkers
		if cpus := runtime.NumCPU(); cpus < numberOfWorkers {
			numberOfWorkers = cpus
		}
	}
	if videoFormat == nil {
		videoFormat = &model.MediaFormatFilter{Format: "mp4"}
	}
	compressor.TargetFPS = videoFormat.FPS
	return &Compress{
		BaseCommand:     *cor.NewBaseCommand(name),
		compressor:      compressor,
		videoFormat:     videoFormat,
		outputDir:       outputDir,
		numberOfWorkers: numberOfWorkers,
		showProgress:    true,
	}
}

// SetShowProgress toggles the terminal progress bar, off in tests.
func (c *Compress) SetShowProgress(show bool) {
	c.showProgress = show
}

// Execute compresses every pending .mp4 under the input directory named by
// the primary input parameter.
func (c *Compress) Execute(context cor.Context) {
	inputDir, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected an input directory as input"))
		return
	}

	videos, err := listVideos(inputDir, c.videoFormat.Format)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create output directory %s: %w", c.outputDir, err))
		return
	}

	summary := &CompressSummary{}

	// Partition into already-done and pending before spawning workers, so
	// the progress bar length reflects actual work.
	pending := make([]*compressJob, 0, len(videos))
	for _, video := range videos {
		outputPath := filepath.Join(c.outputDir, filepath.Base(video))
		if _, statErr := os.Stat(outputPath); statErr == nil {
			summary.Skipped++
			continue
		}
		pending = append(pending, &compressJob{inputPath: video, outputPath: outputPath})
	}

	var wg sync.WaitGroup
	jobs := make(chan *compressJob, len(pending))
	results := make(chan *compressResult, len(pending))

	for w := 1; w <= c.numberOfWorkers; w++ {
		wg.Add(1)
		go compressWorker(context, c.compressor, jobs, results, &wg)
	}

	for _, job := range pending {
		jobs <- job
	}
	close(jobs)

	// Drain results as they arrive so the progress bar moves per file
	// rather than jumping at the end. The workers close nothing; we know
	// exactly how many results to expect.
	var bar *progressbar.ProgressBar
	if c.showProgress {
		bar = progressbar.Default(int64(len(pending)), "compressing")
	}
	for range pending {
		r := <-results
		if bar != nil {
			_ = bar.Add(1)
		}
		switch {
		case r.err != nil:
			summary.Errors++
			summary.Failures = append(summary.Failures, r.err.Error())
		case r.encoder == media.EncoderGPU:
			summary.GPU++
		default:
			summary.CPU++
		}
	}
	wg.Wait()
	close(results)

	// Encode failures are per-file outcomes in the summary, not chain
	// errors; the command itself succeeded at running the batch.
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), summary)
}

type compressJob struct {
	inputPath  string
	outputPath string
}

type compressResult struct {
	encoder media.EncoderKind
	err     error
}

// compressWorker is the function that each concurrent goroutine runs. It
// receives jobs from the `jobs` channel and sends outcomes to `results`.
func compressWorker(context cor.Context, compressor *media.VideoCompressor, jobs <-chan *compressJob, results chan<- *compressResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		encoder, err := compressor.Compress(context.GetContext(), j.inputPath, j.outputPath)
		if err != nil {
			// Leave no partial output behind so a rerun retries the file
			// instead of skipping it.
			_ = os.Remove(j.outputPath)
			results <- &compressResult{err: err}
			continue
		}
		results <- &compressResult{encoder: encoder}
	}
}

// listVideos returns the sorted paths directly under dir matching the
// container format extension.
func listVideos(dir string, format string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}
	ext := "." + strings.TrimPrefix(format, ".")
	videos := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(videos)
	return videos, nil
}
