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
// the question command of the video Q&A workflow: given an uploaded video
// file handle, ask the generative model a free-form question about its
// content and return the answer text.
package commands

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
)

// VideoAsk asks the generative model a question about an uploaded video.
type VideoAsk struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	question                 string
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewVideoAsk is the constructor for the VideoAsk command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - model: The rate-limited generative model client.
//   - question: The free-form question to ask about the video.
func NewVideoAsk(name string, model *cloud.QuotaAwareGenerativeAIModel, question string) *VideoAsk {
	out := &VideoAsk{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: model,
		question:          question,
	}
	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.retry", out.GetName()))
	return out
}

// IsExecutable requires the uploaded file handle from the upload command.
func (c *VideoAsk) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetVideoUploadFileParameterName()) != nil
}

// Execute sends the question and the video file reference to the model and
// outputs the answer text.
func (c *VideoAsk) Execute(context cor.Context) {
	videoFile, ok := context.Get(GetVideoUploadFileParameterName()).(*genai.File)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("expected an uploaded video file handle"))
		return
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: c.question},
				{FileData: &genai.FileData{
					FileURI:  videoFile.URI,
					MIMEType: videoFile.MIMEType,
				}},
			},
			Role: "user",
		},
	}

	answer, err := cloud.GenerateMultiModalResponse(
		context.GetContext(),
		c.geminiInputTokenCounter,
		c.geminiOutputTokenCounter,
		c.geminiRetryCounter,
		0,
		c.generativeAIModel,
		contents)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to generate an answer: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), answer)
}
