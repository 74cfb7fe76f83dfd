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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:     "search <project> <query>",
	Short:   "Semantic search over a dataset's schema embeddings",
	Long:    `Embeds the query and returns the most similar schema fragments (overview, columns, sample patterns) by cosine similarity. Run generate-embeddings first; search returns no matches for a project with no stored embeddings.`,
	Example: `./dataset-insights search sales "monthly revenue"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "Maximum number of matches to return")
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline(cmd.Context(), true)
	defer cleanup()
	if err != nil {
		return err
	}

	matches := p.SemanticSearch(cmd.Context(), args[0], localUser, args[1], searchTopK)
	if len(matches) == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	out, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format matches: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
