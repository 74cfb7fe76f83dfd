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
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// PromptText renders the schema into the compact textual form embedded in
// SQL-generation prompts: one line per column with type and example values.
func PromptText(m *Model) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dataset: %s (%d rows)\n", m.Name, m.RowCount))
	if m.Description != "" {
		b.WriteString(fmt.Sprintf("Description: %s\n", m.Description))
	}
	b.WriteString("Columns:\n")
	for _, c := range m.Columns {
		b.WriteString(fmt.Sprintf("- %s (%s)", c.Name, c.Type))
		if len(c.SampleValues) > 0 {
			b.WriteString(fmt.Sprintf(", examples: [%s]", strings.Join(c.SampleValues, ", ")))
		}
		if c.Nullable {
			b.WriteString(", may contain nulls")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OverviewText renders the dataset-level sentence that gets embedded for
// semantic search: name, description, shape, column list, and a type histogram.
func OverviewText(m *Model) string {
	names := make([]string, len(m.Columns))
	histogram := make(map[ColumnType]int)
	for i, c := range m.Columns {
		names[i] = c.Name
		histogram[c.Type]++
	}

	types := make([]string, 0, len(histogram))
	for t := range histogram {
		types = append(types, string(t))
	}
	sort.Strings(types)
	typeParts := make([]string, len(types))
	for i, t := range types {
		typeParts[i] = fmt.Sprintf("%d %s", histogram[ColumnType(t)], t)
	}

	desc := m.Description
	if desc == "" {
		desc = "no description"
	}
	return fmt.Sprintf("Dataset %s (%s) with %d rows and %d columns: %s. Column types: %s.",
		m.Name, desc, m.RowCount, len(m.Columns), strings.Join(names, ", "), strings.Join(typeParts, ", "))
}

// ColumnText renders the per-column sentence embedded for semantic search.
func ColumnText(c ColumnMetadata) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Column %s of type %s", c.Name, c.Type))
	if n := len(c.SampleValues); n > 0 {
		limit := n
		if limit > 3 {
			limit = 3
		}
		b.WriteString(fmt.Sprintf(" with example values %s", strings.Join(c.SampleValues[:limit], ", ")))
	}
	if c.Nullable {
		b.WriteString(". It may contain null values")
	}
	b.WriteString(".")
	return b.String()
}

// SamplePatternText renders the sample-data pattern sentence for a column.
// Numeric columns are described by their value range, everything else by a
// handful of distinct sample values.
func SamplePatternText(c ColumnMetadata) string {
	if c.Type == TypeNumber && c.MinValue != "" && c.MaxValue != "" {
		return fmt.Sprintf("Values in column %s range from %s to %s.", c.Name, c.MinValue, c.MaxValue)
	}
	if len(c.SampleValues) == 0 {
		return fmt.Sprintf("Column %s has no sample values.", c.Name)
	}
	limit := len(c.SampleValues)
	if limit > 3 {
		limit = 3
	}
	return fmt.Sprintf("Column %s contains values such as %s.", c.Name, strings.Join(c.SampleValues[:limit], ", "))
}
