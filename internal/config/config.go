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
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	GeminiAPIKey   string
	PrimaryModel   string
	FallbackModel  string
	EmbeddingModel string
	DataDir        string
	MaxResultRows  int
	Verbose        bool
}

// Load reads configuration from environment variables (prefix
// DATASET_INSIGHTS_) and an optional YAML file, with flag values applied by
// the command layer afterwards.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("primary_model", "gemini-1.5-pro-latest")
	v.SetDefault("fallback_model", "gemini-1.5-flash-latest")
	v.SetDefault("embedding_model", "text-embedding-004")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("max_result_rows", 1000)

	v.SetEnvPrefix("DATASET_INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindEnv("gemini_api_key", "GEMINI_API_KEY", "DATASET_INSIGHTS_GEMINI_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return &Config{
		GeminiAPIKey:   v.GetString("gemini_api_key"),
		PrimaryModel:   v.GetString("primary_model"),
		FallbackModel:  v.GetString("fallback_model"),
		EmbeddingModel: v.GetString("embedding_model"),
		DataDir:        v.GetString("data_dir"),
		MaxResultRows:  v.GetInt("max_result_rows"),
		Verbose:        v.GetBool("verbose"),
	}, nil
}
