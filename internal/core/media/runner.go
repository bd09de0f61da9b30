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

package media

import (
	"context"
	"os/exec"
)

// CommandRunner is the seam between the ffmpeg wrappers and the OS. The
// production implementation shells out; tests substitute a recorder that
// returns canned output without spawning processes.
type CommandRunner interface {
	// CombinedOutput runs the command and returns its combined stdout and
	// stderr. ffmpeg writes filter diagnostics to stderr, so both streams
	// are needed.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run executes the command, discarding output, and returns its exit
	// error if any.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
