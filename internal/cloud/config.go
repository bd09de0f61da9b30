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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the clients for the Google Cloud services the
// toolkit talks to. This file centralizes the configuration structs.
//
// Structs:
//   - Tools: Paths to the external binaries the pipeline shells out to.
//   - Detector: Defaults for the scene detection run.
//   - Compressor: Defaults for the batch compression run.
//   - Storage: The Cloud Storage bucket datasets are published to.
//   - GenAiLLMModel: Configuration for a generative model used by the
//     video Q&A command.
//   - Config: The top-level struct aggregating everything above.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with
//     empty maps.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for
// GenAI models. Non-restrictive: the videos being asked about are the
// user's own dataset, so nothing should be withheld.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Tools holds the paths to the external binaries the pipeline delegates to.
// Empty values fall back to resolving the default names on PATH.
type Tools struct {
	FFmpegPath  string `toml:"ffmpeg_path"`  // Path to the ffmpeg executable.
	FFprobePath string `toml:"ffprobe_path"` // Path to the ffprobe executable.
	YTDLPPath   string `toml:"ytdlp_path"`   // Path to the yt-dlp executable.
}

// Detector holds the defaults for scene detection runs. Flags override
// these per invocation.
type Detector struct {
	Threshold   int    `toml:"threshold"`    // Content-change threshold, 0-100.
	DebugLimit  int    `toml:"debug_limit"`  // Successful-video cap for debug runs.
	DebugOutput string `toml:"debug_output"` // Root directory for annotated debug clips.
}

// Compressor holds the defaults for batch compression runs.
type Compressor struct {
	Workers int `toml:"workers"` // Worker pool size; 0 selects min(4, NumCPU).
}

// Storage represents the configuration for the dataset publication bucket.
type Storage struct {
	DatasetBucket string `toml:"dataset_bucket"` // Destination bucket for published artifacts.
	ObjectPrefix  string `toml:"object_prefix"`  // Prefix prepended to every published object name.
}

// GenAiLLMModel represents the configuration for a generative model used
// by the video Q&A command.
type GenAiLLMModel struct {
	Model              string  `toml:"model"`               // The model name.
	SystemInstructions string  `toml:"system_instructions"` // System instructions for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-k sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Maximum output tokens.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type (e.g. "text/plain").
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed against the model.
}

// Config represents the overall configuration for the toolkit, loaded from
// TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	Application struct {
		Name            string `toml:"name"`              // The application name, used in logs and telemetry.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project; empty disables cloud exporters.
		GeminiApiKey    string `toml:"gemini_api_key"`    // API key for the Gemini Developer API, used by the video Q&A flow.
	} `toml:"application"`
	Tools       Tools                       `toml:"tools"`        // External binary paths.
	Detector    Detector                    `toml:"detector"`     // Scene detection defaults.
	Compressor  Compressor                  `toml:"compressor"`   // Batch compression defaults.
	Storage     Storage                     `toml:"storage"`      // Dataset publication bucket.
	AgentModels map[string]GenAiLLMModel `toml:"agent_models"` // Generative models keyed by a logical name (e.g. "video-qa").
}

// NewConfig creates a new, initialized Config instance. The maps must be
// initialized so the TOML loader can populate them without nil checks.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]GenAiLLMModel),
	}
}
