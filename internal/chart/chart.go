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

// Package chart infers a renderable chart configuration from a query result:
// which columns serve as axes, which chart type fits the shape, and a title
// derived from the question.
package chart

import (
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/classify"
)

// Type enumerates the supported chart types.
type Type string

const (
	TypeBar  Type = "bar"
	TypeLine Type = "line"
	TypePie  Type = "pie"
)

// Point is one derived data point of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Config describes a chart for the caller to render.
type Config struct {
	Type       Type    `json:"type"`
	XAxis      string  `json:"x_axis"`
	YAxis      string  `json:"y_axis"`
	Title      string  `json:"title"`
	DataPoints []Point `json:"data_points,omitempty"`
}

var xAxisHints = []string{"name", "category", "type", "date", "time", "month", "year"}
var yAxisHints = []string{"count", "sum", "total", "amount", "value", "avg", "average"}
var temporalColumnHints = []string{"date", "time", "month", "year"}

// maxDataPoints caps the derived point list so huge result sets do not bloat
// the response payload.
const maxDataPoints = 50

// Build infers a chart configuration from the result shape. It returns nil
// when the result has fewer than two columns — there is nothing to plot.
func Build(rows []map[string]any, columns []string, hint Type, question string, comp classify.Analysis) *Config {
	if len(columns) < 2 {
		return nil
	}

	xAxis := pickColumn(columns, xAxisHints, columns[0])
	yAxis := pickColumn(columns, yAxisHints, columns[1])
	if yAxis == xAxis && len(columns) > 1 {
		yAxis = columns[1]
	}

	chartType := hint
	if chartType == "" {
		chartType = TypeBar
	}
	switch {
	case len(rows) > 20 && containsAnyHint(xAxis, temporalColumnHints):
		chartType = TypeLine
	case len(rows) > 0 && len(rows) <= 5:
		chartType = TypePie
	}

	title := deriveTitle(question)
	if title == "" {
		title = fmt.Sprintf("%s Chart of %s by %s", capitalize(string(chartType)), yAxis, xAxis)
	}

	return &Config{
		Type:       chartType,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Title:      title,
		DataPoints: buildPoints(rows, xAxis, yAxis),
	}
}

// TypeHintFromSQL derives the engine's suggested chart type from the shape
// of the SQL: grouped sums and counts read as bars, averages as lines.
func TypeHintFromSQL(query string) Type {
	q := strings.ToUpper(query)
	if strings.Contains(q, "AVG(") {
		return TypeLine
	}
	if strings.Contains(q, "GROUP BY") && (strings.Contains(q, "SUM(") || strings.Contains(q, "COUNT(")) {
		return TypeBar
	}
	return TypeBar
}

func pickColumn(columns []string, hints []string, fallback string) string {
	for _, col := range columns {
		if containsAnyHint(col, hints) {
			return col
		}
	}
	return fallback
}

func containsAnyHint(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, hint := range hints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

var titleBoilerplate = []string{
	"create a", "create", "make a", "make", "draw a", "draw",
	"show me a", "show me", "show", "plot a", "plot", "graph a", "graph",
	"can you", "please", "chart of", "chart for", "chart",
}

// deriveTitle strips chart-request boilerplate from the question so that
// "Create a bar chart of sales by category" becomes "Sales by category".
func deriveTitle(question string) string {
	title := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(question), "?"))
	lower := strings.ToLower(title)
	for _, phrase := range titleBoilerplate {
		if strings.HasPrefix(lower, phrase+" ") {
			title = title[len(phrase)+1:]
			lower = strings.ToLower(title)
		}
	}
	for _, chartWord := range []string{"bar chart of", "line chart of", "pie chart of", "bar chart", "line chart", "pie chart"} {
		if strings.HasPrefix(lower, chartWord) {
			title = strings.TrimSpace(title[len(chartWord):])
			title = strings.TrimPrefix(title, "of ")
			lower = strings.ToLower(title)
			break
		}
	}
	title = strings.TrimSpace(title)
	if len(title) < 3 {
		return ""
	}
	return capitalize(title)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildPoints(rows []map[string]any, xAxis, yAxis string) []Point {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		if len(points) >= maxDataPoints {
			break
		}
		value, ok := toFloat(row[yAxis])
		if !ok {
			continue
		}
		points = append(points, Point{
			Label: fmt.Sprintf("%v", row[xAxis]),
			Value: value,
		})
	}
	return points
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}
