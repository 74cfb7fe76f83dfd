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

var askCmd = &cobra.Command{
	Use:     "ask <project> <question>",
	Short:   "Answer a natural-language question about a dataset",
	Example: `./dataset-insights ask sales "What is the average order amount per region?"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	projectID, question := args[0], args[1]

	p, cleanup, err := buildPipeline(cmd.Context(), true)
	defer cleanup()
	if err != nil {
		return err
	}

	result := p.ProcessQuery(cmd.Context(), question, projectID, localUser)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
