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
// services. This file implements a decorator around the Generative AI
// client that adds rate limiting and retries:
//
//   - Rate limiting: model endpoints have per-minute quotas; the limiter
//     keeps a batch of Q&A calls under them instead of erroring out.
//   - Retry logic: transient request failures are retried with a backoff
//     before the error surfaces to the caller.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// retryBackoff is the pause between attempts after a failed generation
// call, long enough for a quota window to roll over.
const retryBackoff = time.Minute

// generateMaxAttempts bounds how many times one GenerateContent call is
// issued before giving up.
const generateMaxAttempts = 4

// QuotaAwareGenerativeAIModel decorates a generative model handle with a
// rate limiter so callers can issue requests freely and let the wrapper
// pace them against the service quota.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation parameters applied to every call.
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter // Paces requests against the model's quota.
}

// NewQuotaAwareModel wraps a model handle with a limiter allowing
// requestsPerSecond sustained calls (with an equal burst).
//
// Inputs:
//   - config: The generation parameters for every call through this wrapper.
//   - name: The model name passed to the API.
//   - handle: The underlying models client.
//   - requestsPerSecond: Maximum API calls allowed per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
	}
}

// GenerateContent issues a generation request, blocking on the rate limiter
// first and retrying failed attempts with a backoff. The context bounds
// both the limiter wait and the backoff sleeps.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	for attempt := 0; attempt < generateMaxAttempts; attempt++ {
		if err = q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return resp, nil
		}
		if attempt == generateMaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return nil, err
}
