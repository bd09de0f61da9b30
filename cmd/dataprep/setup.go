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

// Shared setup for the dataprep subcommands: configuration loading and
// path resolution.
package main

import (
	"path/filepath"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
)

// appConfig holds the layered TOML configuration, loaded once at startup.
// Subcommand flags override individual values per invocation.
var appConfig *cloud.Config

func loadConfiguration() *cloud.Config {
	appConfig = cloud.NewConfig()
	cloud.LoadConfig(appConfig)
	return appConfig
}

// resolvePath joins a relative path under the global base path; absolute
// paths are used as-is.
func resolvePath(globalPath string, path string) string {
	if len(path) == 0 || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(globalPath, path)
}
