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

// Package cloud provides components for interacting with Google Cloud
// services. This file initializes and holds the client objects the toolkit
// needs: one for Cloud Storage (dataset publication) and one for the
// Gemini API (video Q&A), plus the configured quota-aware model wrappers.
// It acts as a small dependency injection container created once at startup
// and passed into the commands that need it. The Gemini client is only
// created when an API key is available, so the storage-only commands never
// depend on one.
//
// The clients here reach the network the moment they are created, so the
// CLI only calls NewCloudServiceClients for the subcommands that actually
// talk to Google Cloud; the local pipeline commands never construct one.
package cloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is a container for the Google Cloud service clients shared
// across cloud-facing commands.
type ServiceClients struct {
	StorageClient *storage.Client                         // Client for Google Cloud Storage.
	GenAIClient   *genai.Client                           // Client for the Gemini API; nil when no API key is configured.
	AgentModels   map[string]*QuotaAwareGenerativeAIModel // Configured models keyed by logical name.
}

// Close releases the client connections. The GenAI client holds no
// long-lived connection and has no close function in the current library.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
}

// NewCloudServiceClients initializes the Google Cloud clients from the
// application configuration.
//
// Inputs:
//   - ctx: The root context managing the client lifecycles.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The fully initialized container.
//   - error: An error if any client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	if len(GeminiApiKey(config)) == 0 {
		// No key means the Q&A flow is unavailable; the other cloud
		// commands (publish) still get their storage client.
		return &ServiceClients{
			StorageClient: sc,
			AgentModels:   agentModels,
		}, nil
	}

	gc, err := genai.NewClient(ctx, GenAIClientConfig(config))
	if err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	// Wrap each configured model with its generation parameters and rate
	// limiter.
	for key, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](values.Temperature),
			TopP:             genai.Ptr[float32](values.TopP),
			TopK:             genai.Ptr[float32](values.TopK),
			MaxOutputTokens:  values.MaxTokens,
			SafetySettings:   DefaultSafetySettings,
			ResponseMIMEType: values.OutputFormat,
		}
		if len(values.SystemInstructions) > 0 {
			generationConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
		}
		agentModels[key] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit)
	}

	return &ServiceClients{
		StorageClient: sc,
		GenAIClient:   gc,
		AgentModels:   agentModels,
	}, nil
}

// GenAIClientConfig builds the client configuration for the video Q&A
// flow. The flow uploads local videos through the File Service, which the
// library only serves on the Gemini Developer backend; the Vertex AI
// backend rejects every Files method. The client therefore targets the
// developer API with an API key.
func GenAIClientConfig(config *Config) *genai.ClientConfig {
	return &genai.ClientConfig{
		APIKey:  GeminiApiKey(config),
		Backend: genai.BackendGeminiAPI,
	}
}

// GeminiApiKey resolves the Gemini Developer API key from the
// configuration, falling back to the environment variables the genai
// library honors on its own.
func GeminiApiKey(config *Config) string {
	if key := config.Application.GeminiApiKey; len(key) > 0 {
		return key
	}
	if key := os.Getenv("GEMINI_API_KEY"); len(key) > 0 {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}
