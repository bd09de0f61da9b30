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

// The ask subcommand: upload a local video to the Generative AI File
// Service and ask a model a free-form question about its content. Useful
// for spot-checking dataset videos ("does this clip contain a scoreboard?")
// without opening them.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
)

var askFlags struct {
	video    string
	question string
	model    string
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a generative model a question about a local video",
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.StringVar(&askFlags.video, "video", "", "local video file to ask about")
	f.StringVar(&askFlags.question, "question", "", "the question to ask")
	f.StringVar(&askFlags.model, "model", "video-qa", "agent model key from the configuration")
	_ = askCmd.MarkFlagRequired("video")
	_ = askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, _ []string) error {
	clients, err := cloud.NewCloudServiceClients(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer clients.Close()

	if clients.GenAIClient == nil {
		return fmt.Errorf("video Q&A needs a Gemini API key: set application.gemini_api_key in the configuration or the GEMINI_API_KEY environment variable")
	}

	model, ok := clients.AgentModels[askFlags.model]
	if !ok {
		return fmt.Errorf("no agent model named %q in the configuration", askFlags.model)
	}

	chain := cor.NewBaseChain("video-qa")
	chain.AddCommand(commands.NewVideoUpload("video-upload", clients.GenAIClient))
	chain.AddCommand(commands.NewVideoAsk("video-ask", model, askFlags.question))

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(cmd.Context())
	chainCtx.Add(cor.CtxIn, askFlags.video)

	chain.Execute(chainCtx)
	if chainCtx.HasErrors() {
		for name, err := range chainCtx.GetErrors() {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	answer, _ := chainCtx.Get(cor.CtxIn).(string)
	fmt.Println(answer)
	return nil
}
