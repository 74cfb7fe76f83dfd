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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/config"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/embedstore"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/engine"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/genai"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/pipeline"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/project"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/sqlcheck"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/sqlgen"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/suggest"
)

// localUser is the user id the single-user CLI runs as.
const localUser = "local"

var (
	configFile   string
	dataDir      string
	geminiAPIKey string
	verbose      bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dataset-insights",
	Short: "Ask natural-language questions about CSV datasets",
	Long: `dataset-insights answers natural-language questions about tabular datasets
by translating them into SQL, executing against an embedded analytical engine,
and returning tables, chart configurations, or prose summaries.`,
	PersistentPreRunE: initFlagsAndConfig,
}

func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if geminiAPIKey != "" {
		cfg.GeminiAPIKey = geminiAPIKey
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if verbose {
		cfg.Verbose = true
	}

	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// buildPipeline wires the pipeline once per invocation. The returned cleanup
// closes the model clients.
func buildPipeline(ctx context.Context, requireModels bool) (*pipeline.Pipeline, func(), error) {
	store := project.NewLocalStore(cfg.DataDir)
	embeddings := embedstore.New()

	var (
		primary  *genai.Client
		fallback *genai.Client
		embedder genai.Embedder
		err      error
	)
	cleanup := func() {
		if primary != nil {
			primary.Close()
		}
		if fallback != nil {
			fallback.Close()
		}
	}

	if cfg.GeminiAPIKey != "" {
		primary, err = genai.NewClient(ctx, genai.Config{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.PrimaryModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Temperature:    0.1,
		}, logger)
		if err != nil {
			return nil, cleanup, err
		}
		fallback, err = genai.NewClient(ctx, genai.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.FallbackModel,
			Temperature: 0.1,
		}, logger)
		if err != nil {
			return nil, cleanup, err
		}
		embedder = primary
	} else if requireModels {
		return nil, cleanup, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or --gemini-api-key)")
	}

	var synthesizer pipeline.SQLSynthesizer
	if primary != nil {
		synthesizer = sqlgen.New(primary, fallback, logger)
	}

	p := pipeline.New(pipeline.Deps{
		Projects:    store,
		Blobs:       store,
		Synthesizer: synthesizer,
		Validator:   sqlcheck.New(logger),
		Runner:      engine.New(logger),
		Embedder:    embedder,
		Store:       embeddings,
		Suggester:   suggest.New(embeddings, embedder, logger),
		Log:         logger,
		MaxRows:     cfg.MaxResultRows,
	})
	return p, cleanup, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory containing project CSV files")
	rootCmd.PersistentFlags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(generateEmbeddingsCmd)
	rootCmd.AddCommand(searchCmd)
}
