/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateEmbeddingsCmd = &cobra.Command{
	Use:     "generate-embeddings <project>",
	Short:   "Generate and store schema embeddings for a dataset",
	Long:    `Embeds the dataset overview, every column description, and every sample-data pattern so that semantic search and suggestions can use them. Safe to run repeatedly.`,
	Example: `./dataset-insights generate-embeddings sales`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGenerateEmbeddings,
}

func runGenerateEmbeddings(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline(cmd.Context(), true)
	defer cleanup()
	if err != nil {
		return err
	}

	if !p.GenerateEmbeddings(cmd.Context(), args[0], localUser) {
		return fmt.Errorf("failed to generate embeddings for project %s", args[0])
	}
	fmt.Printf("Embeddings generated for project %s\n", args[0])
	return nil
}
