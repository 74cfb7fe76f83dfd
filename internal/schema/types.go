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

import "strings"

// ColumnType is the normalized type of a dataset column.
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeNumber   ColumnType = "number"
	TypeBoolean  ColumnType = "boolean"
	TypeDate     ColumnType = "date"
	TypeDateTime ColumnType = "datetime"
)

// ColumnMetadata describes a single dataset column. It is produced by
// ingestion and treated as read-only by every consumer.
type ColumnMetadata struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	Nullable     bool       `json:"nullable"`
	SampleValues []string   `json:"sample_values"`
	UniqueCount  int64      `json:"unique_count,omitempty"` // -1 when unknown
	MinValue     string     `json:"min_value,omitempty"`
	MaxValue     string     `json:"max_value,omitempty"`
}

// Model is the normalized description of one dataset.
type Model struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	RowCount    int64            `json:"row_count"`
	Columns     []ColumnMetadata `json:"columns"`
}

// Column returns the column with the given name, matched case-insensitively.
func (m *Model) Column(name string) (ColumnMetadata, bool) {
	for _, c := range m.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// NumericColumns returns the columns with a numeric type, in schema order.
func (m *Model) NumericColumns() []ColumnMetadata {
	var cols []ColumnMetadata
	for _, c := range m.Columns {
		if c.Type == TypeNumber {
			cols = append(cols, c)
		}
	}
	return cols
}

// CategoricalColumns returns the string-typed columns, in schema order.
func (m *Model) CategoricalColumns() []ColumnMetadata {
	var cols []ColumnMetadata
	for _, c := range m.Columns {
		if c.Type == TypeString {
			cols = append(cols, c)
		}
	}
	return cols
}

// TemporalColumns returns date and datetime columns, in schema order.
func (m *Model) TemporalColumns() []ColumnMetadata {
	var cols []ColumnMetadata
	for _, c := range m.Columns {
		if c.Type == TypeDate || c.Type == TypeDateTime {
			cols = append(cols, c)
		}
	}
	return cols
}
