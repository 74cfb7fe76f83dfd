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

// Package classify contains the pure question-analysis functions of the
// query pipeline: intent classification and complexity scoring. Nothing in
// this package performs I/O; every function is deterministic over its input
// string, which keeps the heuristics unit-testable in isolation.
package classify

import "strings"

// Intent is the coarse category a question is routed by.
type Intent string

const (
	IntentSQL     Intent = "sql"
	IntentChart   Intent = "chart"
	IntentGeneral Intent = "general"
)

var aggregationKeywords = []string{
	"total", "sum", "count", "average", "avg", "mean",
	"max", "maximum", "min", "minimum", "how many", "how much", "number of",
}

var filteringKeywords = []string{
	"where", "filter", "only", "above", "below", "between",
	"greater than", "less than", "more than", "under", "over", "at least",
}

var chartKeywords = []string{
	"chart", "graph", "plot", "visualize", "visualization", "visualise",
	"bar", "pie", "line", "histogram", "scatter",
}

var analyticalKeywords = []string{
	"compare", "top", "highest", "lowest", "rank", "ranking",
	"distribution", "group", "breakdown", "per", "by",
}

var conversationalKeywords = []string{
	"hello", "hi", "thanks", "thank you", "help", "please",
	"what is", "what are", "tell me about", "describe", "meaning",
}

// dataOperationKeywords disambiguates "show me ..." phrasings: "show me the
// total sales" is a data request, "show me around" is not.
var dataOperationKeywords = []string{
	"total", "count", "average", "sum", "max", "min", "list", "records", "rows",
}

// ClassifyIntent labels a question as sql, chart, or general using weighted
// keyword scores. The decision order is significant: chart outranks sql,
// which outranks general, and two tie-break rules run last.
func ClassifyIntent(question string) Intent {
	q := strings.ToLower(question)

	sqlScore := 0
	chartScore := 0
	generalScore := 0

	aggregationHit := false
	for _, kw := range aggregationKeywords {
		if strings.Contains(q, kw) {
			sqlScore += 3
			aggregationHit = true
		}
	}
	for _, kw := range filteringKeywords {
		if strings.Contains(q, kw) {
			sqlScore += 2
		}
	}
	for _, kw := range analyticalKeywords {
		if strings.Contains(q, kw) {
			sqlScore++
		}
	}

	for _, kw := range chartKeywords {
		if strings.Contains(q, kw) {
			chartScore += 4
		}
	}
	if chartScore > 0 && aggregationHit {
		chartScore += 2
	}

	for _, kw := range conversationalKeywords {
		if strings.Contains(q, kw) {
			generalScore += 3
		}
	}
	if len(strings.Fields(q)) > 10 {
		generalScore++
	}
	if strings.Contains(q, "explain") || strings.Contains(q, "understand") {
		generalScore += 2
	}

	// "show me" plus a concrete data operation is a query, not small talk.
	if strings.Contains(q, "show me") && containsAny(q, dataOperationKeywords) {
		sqlScore += 3
		aggregationHit = true
	}

	switch {
	case chartScore >= 4:
		return IntentChart
	case sqlScore >= 4:
		return IntentSQL
	case generalScore >= 4:
		return IntentGeneral
	case sqlScore >= 2 && aggregationHit:
		return IntentSQL
	case strings.Contains(q, "?") && generalScore > 0:
		return IntentGeneral
	case sqlScore > generalScore:
		return IntentSQL
	case generalScore > sqlScore:
		return IntentGeneral
	case sqlScore > 0:
		return IntentSQL
	default:
		return IntentGeneral
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
