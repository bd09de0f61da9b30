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

// Package workflow_test contains the tests for the batch scene detection
// pipeline. This file provides the shared setup via TestMain: a root
// context and logging. The pipeline under test runs entirely against the
// in-memory fakes from testutil, so no external tooling or cloud clients
// are initialized.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/telemetry"
	test "github.com/jaycherian/gcp-go-video-dataset-prep/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	ctx    context.Context
	config *cloud.Config
)

const tName = "github.com/jaycherian/gcp-go-video-dataset-prep/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	// Load the test configuration so the suite exercises the same detector
	// defaults an operator would configure.
	config = test.GetConfig()

	telemetry.SetupLogging()
	logger.Info("completed test setup")

	exitCode := m.Run()
	os.Exit(exitCode)
}
