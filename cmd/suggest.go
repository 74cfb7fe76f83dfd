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

var maxSuggestions int

var suggestCmd = &cobra.Command{
	Use:     "suggest <project>",
	Short:   "Generate follow-up question suggestions for a dataset",
	Example: `./dataset-insights suggest sales --max 5`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSuggest,
}

func runSuggest(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline(cmd.Context(), false)
	defer cleanup()
	if err != nil {
		return err
	}

	suggestions := p.GenerateSuggestions(cmd.Context(), args[0], localUser, maxSuggestions)
	for i, s := range suggestions {
		fmt.Printf("%d. [%s/%s] %s (confidence %.2f)\n", i+1, s.Category, s.Complexity, s.Text, s.Confidence)
	}
	return nil
}

func init() {
	suggestCmd.Flags().IntVar(&maxSuggestions, "max", 5, "Maximum number of suggestions to return")
}
