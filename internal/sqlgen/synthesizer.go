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

// Package sqlgen turns a natural-language question plus a dataset schema
// into a single SQL string written against the fixed relation "data".
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/genai"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

// RelationName is the table name every synthesized query must reference.
const RelationName = "data"

// Attempt records one model call, successful or not, so callers can log and
// test the primary-then-fallback chain without relying on error unwinding.
type Attempt struct {
	Backend string // "primary" or "fallback"
	SQL     string
	Err     error
}

// Synthesizer generates SQL via a primary model with a single fallback hop
// to a secondary, cheaper model on any failure.
type Synthesizer struct {
	primary  genai.Completer
	fallback genai.Completer
	log      *zap.Logger
}

// New creates a Synthesizer. fallback may be nil, in which case a primary
// failure is terminal.
func New(primary, fallback genai.Completer, log *zap.Logger) *Synthesizer {
	return &Synthesizer{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Generate returns a sanitized SQL string for the question, plus the record
// of every model attempt made. It returns an error only when all backends
// fail or return an empty string.
func (s *Synthesizer) Generate(ctx context.Context, question string, m *schema.Model) (string, []Attempt, error) {
	var attempts []Attempt

	raw, err := s.primary.Complete(ctx, buildPrompt(question, m))
	sql := sanitizeSQL(raw)
	attempts = append(attempts, Attempt{Backend: "primary", SQL: sql, Err: err})
	if err == nil && sql != "" {
		return sql, attempts, nil
	}
	if err != nil {
		s.log.Warn("primary SQL generation failed, trying fallback", zap.Error(err))
	} else {
		s.log.Warn("primary SQL generation returned empty output, trying fallback")
	}

	if s.fallback == nil {
		return "", attempts, fmt.Errorf("SQL generation failed: %w", firstError(attempts))
	}

	raw, err = s.fallback.Complete(ctx, buildSimplifiedPrompt(question, m))
	sql = sanitizeSQL(raw)
	attempts = append(attempts, Attempt{Backend: "fallback", SQL: sql, Err: err})
	if err == nil && sql != "" {
		return sql, attempts, nil
	}

	return "", attempts, fmt.Errorf("SQL generation failed on all backends: %w", firstError(attempts))
}

func firstError(attempts []Attempt) error {
	for _, a := range attempts {
		if a.Err != nil {
			return a.Err
		}
	}
	return fmt.Errorf("model returned empty SQL")
}

func buildPrompt(question string, m *schema.Model) string {
	var b strings.Builder
	b.WriteString("You are an expert SQL analyst. Write a single SQL query that answers the user's question.\n\n")
	b.WriteString(schema.PromptText(m))
	b.WriteString(fmt.Sprintf(`
Rules:
1. The data is in a single table named "%s". Query only that table.
2. Use only the columns listed above, with their exact names.
3. Use standard analytical SQL (DuckDB dialect). SELECT statements only.
4. Give aggregated columns clear aliases (e.g. COUNT(*) AS count).
5. Output ONLY the SQL query. No prose, no markdown fences, no explanations.

Question: %s

SQL QUERY:`, RelationName, question))
	return b.String()
}

// buildSimplifiedPrompt is the cheaper prompt used on the fallback hop: just
// column names and types, no sample values.
func buildSimplifiedPrompt(question string, m *schema.Model) string {
	cols := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		cols[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	return fmt.Sprintf(`Write one SQL SELECT query against the table "%s" with columns: %s.
Answer this question: %s
Output only the SQL, nothing else.`, RelationName, strings.Join(cols, ", "), question)
}

// sanitizeSQL strips markdown fences, an echoed "SQL QUERY:" label, and any
// trailing semicolons from model output.
func sanitizeSQL(raw string) string {
	sql := strings.TrimSpace(raw)

	if strings.HasPrefix(sql, "```") {
		sql = strings.TrimPrefix(sql, "```sql")
		sql = strings.TrimPrefix(sql, "```SQL")
		sql = strings.TrimPrefix(sql, "```")
		if idx := strings.Index(sql, "```"); idx != -1 {
			sql = sql[:idx]
		}
	}

	sql = strings.TrimSpace(sql)
	for _, label := range []string{"SQL QUERY:", "SQL Query:", "sql query:", "SQL:"} {
		sql = strings.TrimSpace(strings.TrimPrefix(sql, label))
	}

	sql = strings.TrimRight(strings.TrimSpace(sql), ";")
	return strings.TrimSpace(sql)
}
