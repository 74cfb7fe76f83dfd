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

// Package suggest ranks candidate follow-up questions for a dataset by
// combining schema heuristics, semantic search over the embedding store, and
// generic fallbacks.
package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/embedstore"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/genai"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

// Category groups suggestions by the kind of work they lead to.
type Category string

const (
	CategoryAnalysis      Category = "analysis"
	CategoryVisualization Category = "visualization"
	CategorySummary       Category = "summary"
	CategoryExploration   Category = "exploration"
)

// Complexity grades how much query sophistication a suggestion implies.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// Suggestion is one ranked follow-up question. Type is the heuristic tag
// that produced it, kept for testing and debugging only.
type Suggestion struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Category   Category   `json:"category"`
	Complexity Complexity `json:"complexity"`
	Confidence float64    `json:"confidence"`
	Type       string     `json:"type"`
}

// semanticThreshold is the minimum similarity a semantic-search hit needs to
// become a suggestion.
const semanticThreshold = 0.6

// semanticPatterns are the generic analytical intents the semantic strategy
// probes the embedding store with.
var semanticPatterns = []string{
	"summary statistics of the dataset",
	"detect outliers and unusual values",
	"compare values across categories",
	"trends and changes over time",
	"distribution of values in a column",
}

// Engine produces ranked suggestion lists.
type Engine struct {
	store    *embedstore.Store
	embedder genai.Embedder
	log      *zap.Logger
}

// New creates an Engine. embedder may be nil; the semantic strategy is then
// skipped.
func New(store *embedstore.Store, embedder genai.Embedder, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		log:      log,
	}
}

// Generate combines all three strategies, de-duplicates by case-insensitive
// text keeping the highest confidence, sorts by confidence descending, and
// truncates to max.
func (e *Engine) Generate(ctx context.Context, projectID string, m *schema.Model, max int) []Suggestion {
	if max <= 0 {
		max = 5
	}

	var all []Suggestion
	all = append(all, schemaBased(m)...)
	all = append(all, e.semanticBased(ctx, projectID)...)
	all = append(all, general(m.Name)...)

	return dedupeAndRank(all, max)
}

// Fallback is the fixed list returned when project access is denied or
// metadata is absent. Confidences stay at or below 0.7 so real suggestions
// always outrank these.
func (e *Engine) Fallback() []Suggestion {
	return []Suggestion{
		newSuggestion("Show me an overview of the data", CategorySummary, ComplexityBeginner, 0.7, "fallback"),
		newSuggestion("What are the main trends in this dataset?", CategoryAnalysis, ComplexityBeginner, 0.65, "fallback"),
		newSuggestion("Show me the first 10 rows", CategoryExploration, ComplexityBeginner, 0.6, "fallback"),
		newSuggestion("Are there any missing values?", CategoryExploration, ComplexityIntermediate, 0.55, "fallback"),
	}
}

// schemaBased derives suggestions from the column types actually present.
func schemaBased(m *schema.Model) []Suggestion {
	var sugs []Suggestion

	numeric := m.NumericColumns()
	categorical := m.CategoricalColumns()
	temporal := m.TemporalColumns()

	limit := len(numeric)
	if limit > 2 {
		limit = 2
	}
	for _, col := range numeric[:limit] {
		sugs = append(sugs,
			newSuggestion(fmt.Sprintf("What is the total %s?", col.Name), CategoryAnalysis, ComplexityBeginner, 0.9, "schema_numeric"),
			newSuggestion(fmt.Sprintf("What is the average %s?", col.Name), CategoryAnalysis, ComplexityBeginner, 0.85, "schema_numeric"),
		)
	}

	if len(numeric) > 0 && len(categorical) > 0 {
		num, cat := numeric[0], categorical[0]
		sugs = append(sugs,
			newSuggestion(fmt.Sprintf("Break down %s by %s", num.Name, cat.Name), CategoryAnalysis, ComplexityIntermediate, 0.88, "schema_breakdown"),
			newSuggestion(fmt.Sprintf("Create a bar chart of %s by %s", num.Name, cat.Name), CategoryVisualization, ComplexityIntermediate, 0.86, "schema_chart"),
		)
	}

	if len(temporal) > 0 && len(numeric) > 0 {
		sugs = append(sugs, newSuggestion(
			fmt.Sprintf("Show the trend of %s over %s", numeric[0].Name, temporal[0].Name),
			CategoryVisualization, ComplexityIntermediate, 0.87, "schema_trend"))
	}

	if len(categorical) > 0 {
		sugs = append(sugs, newSuggestion(
			fmt.Sprintf("What are the most common values of %s?", categorical[0].Name),
			CategoryAnalysis, ComplexityBeginner, 0.84, "schema_ranking"))
	}

	return sugs
}

// semanticBased probes the embedding store with generic analytical patterns
// and phrases suggestions around the matched schema text.
func (e *Engine) semanticBased(ctx context.Context, projectID string) []Suggestion {
	if e.embedder == nil || !e.store.Has(projectID) {
		return nil
	}

	var sugs []Suggestion
	for _, pattern := range semanticPatterns {
		vector, err := e.embedder.Embed(ctx, pattern)
		if err != nil {
			e.log.Warn("embedding a suggestion pattern failed", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		matches, err := e.store.Search(projectID, vector, 1)
		if err != nil || len(matches) == 0 {
			continue
		}
		match := matches[0]
		if match.Similarity <= semanticThreshold {
			continue
		}

		text := phraseSemanticSuggestion(pattern, match)
		confidence := 0.6 + 0.3*match.Similarity
		if confidence > 0.95 {
			confidence = 0.95
		}
		sugs = append(sugs, newSuggestion(text, CategoryAnalysis, ComplexityIntermediate, confidence, "semantic"))
	}
	return sugs
}

func phraseSemanticSuggestion(pattern string, match embedstore.Match) string {
	if match.Kind == embedstore.KindColumn || match.Kind == embedstore.KindSampleData {
		if match.ColumnName != "" {
			return fmt.Sprintf("Show %s for column %s", pattern, match.ColumnName)
		}
	}
	return capitalize(pattern)
}

// general returns fixed suggestions parameterized only by dataset name.
func general(datasetName string) []Suggestion {
	if datasetName == "" {
		datasetName = "this dataset"
	}
	return []Suggestion{
		newSuggestion(fmt.Sprintf("Give me an overview of %s", datasetName), CategorySummary, ComplexityBeginner, 0.7, "general"),
		newSuggestion("Show me a sample of the data", CategoryExploration, ComplexityBeginner, 0.65, "general"),
		newSuggestion("Are there data quality issues I should know about?", CategoryExploration, ComplexityAdvanced, 0.6, "general"),
		newSuggestion("Describe the columns in this dataset", CategorySummary, ComplexityBeginner, 0.55, "general"),
	}
}

// dedupeAndRank drops case-insensitive duplicate texts keeping the highest
// confidence, sorts by confidence descending, and truncates.
func dedupeAndRank(sugs []Suggestion, max int) []Suggestion {
	best := make(map[string]Suggestion, len(sugs))
	order := make([]string, 0, len(sugs))
	for _, s := range sugs {
		key := strings.ToLower(strings.TrimSpace(s.Text))
		if key == "" {
			continue
		}
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = s
		} else if s.Confidence > existing.Confidence {
			best[key] = s
		}
	}

	deduped := make([]Suggestion, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, best[key])
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Confidence > deduped[j].Confidence
	})
	if len(deduped) > max {
		deduped = deduped[:max]
	}
	return deduped
}

func newSuggestion(text string, cat Category, cplx Complexity, confidence float64, tag string) Suggestion {
	return Suggestion{
		ID:         uuid.NewString(),
		Text:       text,
		Category:   cat,
		Complexity: cplx,
		Confidence: confidence,
		Type:       tag,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
