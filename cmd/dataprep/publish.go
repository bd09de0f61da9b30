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

// The publish subcommand: upload a prepared dataset artifact (the scene
// metadata file, or a whole directory of clips) to a Cloud Storage bucket.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/cloud"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-dataset-prep/internal/core/cor"
)

var publishFlags struct {
	path   string
	bucket string
	prefix string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a dataset artifact to Cloud Storage",
	RunE:  runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&publishFlags.path, "path", "", "local file or directory to publish")
	f.StringVar(&publishFlags.bucket, "bucket", "", "destination bucket (default from configuration)")
	f.StringVar(&publishFlags.prefix, "prefix", "", "object name prefix (default from configuration)")
	_ = publishCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	bucket := publishFlags.bucket
	if len(bucket) == 0 {
		bucket = appConfig.Storage.DatasetBucket
	}
	if len(bucket) == 0 {
		return fmt.Errorf("no destination bucket: pass --bucket or set storage.dataset_bucket in the configuration")
	}
	prefix := publishFlags.prefix
	if len(prefix) == 0 {
		prefix = appConfig.Storage.ObjectPrefix
	}

	clients, err := cloud.NewCloudServiceClients(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer clients.Close()

	command := commands.NewGCSPublish("gcs-publish", clients.StorageClient, bucket, prefix)
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(cmd.Context())
	chainCtx.Add(cor.CtxIn, publishFlags.path)

	command.Execute(chainCtx)
	if chainCtx.HasErrors() {
		return chainCtx.GetErrors()[command.GetName()]
	}

	uploaded, _ := chainCtx.Get(command.GetOutputParam()).(int)
	slog.Info("publish complete", "objects", uploaded, "bucket", bucket, "prefix", prefix)
	return nil
}
