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

// Package cor (Chain of Responsibility) provides the building blocks for the
// per-video processing workflows. A workflow is a Chain of Commands sharing a
// Context: each command reads its input from the context, does one unit of
// work, and writes its output back for the next command. Errors are collected
// in the context rather than thrown, which is what lets the batch driver
// contain a failure to a single video and keep going.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the reserved context keys that carry the primary data
// flow between commands. A chain moves the value a command left under CtxOut
// into CtxIn before running the next command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands: a
// property bag for data, a per-command error map, and a registry of temp
// files to remove when the workflow finishes. It also carries the standard
// Go context for cancellation and trace propagation.
type Context interface {
	// SetContext and GetContext manage the embedded Go context used for
	// cancellation signals and OpenTelemetry span propagation.
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a key-value pair; it returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a stored value, or nil when the key is absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records a command failure, keyed by the command name.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the workflow.
	GetErrors() map[string]error

	// HasErrors reports whether any command has failed.
	HasErrors() bool

	// AddTempFile registers a working file for cleanup, and GetTempFiles
	// lists everything registered so far.
	AddTempFile(file string)
	GetTempFiles() []string

	// Close removes all registered temp files. Defer it when starting a
	// workflow so working state is released on every exit path.
	Close()
}

// Executable is anything with core execution logic driven by a Context.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, nameable unit of work with built-in telemetry.
type Command interface {
	Executable

	// GetName identifies the command in logs, traces and error maps.
	GetName() string

	// GetInputParam and GetOutputParam name the context keys for the
	// command's primary input and output. They default to CtxIn/CtxOut,
	// which is what makes chain piping work.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is the precondition check a chain runs before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands and is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
