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
package classify

import "strings"

// Level buckets a question's estimated query complexity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Size estimates how many rows a question's answer is likely to span.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Analysis is the output of AnalyzeComplexity.
type Analysis struct {
	Level               Level `json:"complexity_level"`
	RequiresJoins       bool  `json:"requires_joins"`
	RequiresAggregation bool  `json:"requires_aggregation"`
	RequiresFiltering   bool  `json:"requires_filtering"`
	EstimatedResultSize Size  `json:"estimated_result_size"`
}

var joinKeywords = []string{
	"join", "merge", "combine", "relate", "correlate", "together with",
}

var largeResultKeywords = []string{"all", "everything", "entire"}
var smallResultKeywords = []string{"top", "first", "limit"}

var temporalKeywords = []string{
	"over time", "trend", "monthly", "weekly", "daily", "yearly",
	"per month", "per year", "per week", "by month", "by year",
}

// AnalyzeComplexity scores a question for joins, aggregation, and filtering,
// and estimates the result size. Join language weighs heaviest since it
// implies the hardest SQL shapes.
func AnalyzeComplexity(question string) Analysis {
	q := strings.ToLower(question)

	score := 0
	a := Analysis{EstimatedResultSize: SizeMedium}

	for _, kw := range joinKeywords {
		if strings.Contains(q, kw) {
			score += 3
			a.RequiresJoins = true
		}
	}
	for _, kw := range aggregationKeywords {
		if strings.Contains(q, kw) {
			score += 2
			a.RequiresAggregation = true
		}
	}
	for _, kw := range filteringKeywords {
		if strings.Contains(q, kw) {
			score++
			a.RequiresFiltering = true
		}
	}

	switch {
	case score >= 5:
		a.Level = LevelHigh
	case score >= 2:
		a.Level = LevelMedium
	default:
		a.Level = LevelLow
	}

	if containsAny(q, largeResultKeywords) {
		a.EstimatedResultSize = SizeLarge
	} else if containsAny(q, smallResultKeywords) {
		a.EstimatedResultSize = SizeSmall
	}

	return a
}

// HasTemporalLanguage reports whether the question uses time-series phrasing.
// The pipeline uses this to bias the final intent toward a chart.
func HasTemporalLanguage(question string) bool {
	return containsAny(strings.ToLower(question), temporalKeywords)
}
