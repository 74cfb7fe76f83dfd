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
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// InferOptions controls CSV schema inference.
type InferOptions struct {
	SampleSize int // max rows to inspect (0 = default 1000)
	MaxSamples int // max sample values kept per column (0 = default 5)
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// InferFromCSV inspects raw CSV bytes and produces a Model: per-column type,
// nullability, sample values, distinct count, and min/max for numeric columns.
// Malformed rows are skipped rather than failing the whole dataset.
func InferFromCSV(data []byte, name string, opts ...InferOptions) (*Model, error) {
	opt := InferOptions{}
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.SampleSize <= 0 {
		opt.SampleSize = 1000
	}
	if opt.MaxSamples <= 0 {
		opt.MaxSamples = 5
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}

	type columnScan struct {
		nonEmpty int
		empty    int
		numbers  int
		booleans int
		dates    int
		times    int
		distinct map[string]struct{}
		samples  []string
		min      float64
		max      float64
	}

	scans := make([]columnScan, len(headers))
	for i := range scans {
		scans[i].distinct = make(map[string]struct{})
	}

	var rowCount int64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rowCount++
		if rowCount > int64(opt.SampleSize) {
			continue
		}
		for i := range headers {
			if i >= len(row) {
				scans[i].empty++
				continue
			}
			val := strings.TrimSpace(row[i])
			sc := &scans[i]
			if val == "" {
				sc.empty++
				continue
			}
			sc.nonEmpty++
			if _, seen := sc.distinct[val]; !seen {
				sc.distinct[val] = struct{}{}
				if len(sc.samples) < opt.MaxSamples {
					sc.samples = append(sc.samples, val)
				}
			}
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				if sc.numbers == 0 || f < sc.min {
					sc.min = f
				}
				if sc.numbers == 0 || f > sc.max {
					sc.max = f
				}
				sc.numbers++
				continue
			}
			if isBoolean(val) {
				sc.booleans++
				continue
			}
			if matchesAnyLayout(val, dateLayouts) {
				sc.dates++
				continue
			}
			if matchesAnyLayout(val, dateTimeLayouts) {
				sc.times++
			}
		}
	}

	if rowCount == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	columns := make([]ColumnMetadata, len(headers))
	for i, header := range headers {
		sc := scans[i]
		col := ColumnMetadata{
			Name:         strings.TrimSpace(header),
			Type:         classifyColumn(sc.nonEmpty, sc.numbers, sc.booleans, sc.dates, sc.times),
			Nullable:     sc.empty > 0,
			SampleValues: sc.samples,
			UniqueCount:  int64(len(sc.distinct)),
		}
		if col.Type == TypeNumber && sc.numbers > 0 {
			col.MinValue = formatNumber(sc.min)
			col.MaxValue = formatNumber(sc.max)
		}
		columns[i] = col
	}

	return &Model{
		Name:     name,
		RowCount: rowCount,
		Columns:  columns,
	}, nil
}

// classifyColumn picks a column type when at least 90% of non-empty values
// parse as that type. Everything else falls back to string.
func classifyColumn(nonEmpty, numbers, booleans, dates, times int) ColumnType {
	if nonEmpty == 0 {
		return TypeString
	}
	threshold := (nonEmpty * 9) / 10
	if threshold == 0 {
		threshold = nonEmpty
	}
	switch {
	case numbers >= threshold:
		return TypeNumber
	case booleans >= threshold:
		return TypeBoolean
	case dates >= threshold:
		return TypeDate
	case times >= threshold:
		return TypeDateTime
	default:
		return TypeString
	}
}

func isBoolean(val string) bool {
	switch strings.ToLower(val) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

func matchesAnyLayout(val string, layouts []string) bool {
	for _, layout := range layouts {
		if _, err := time.Parse(layout, val); err == nil {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
