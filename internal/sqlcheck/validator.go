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

// Package sqlcheck gates synthesized SQL before any execution: a keyword and
// injection-pattern blocklist followed by an EXPLAIN dry-run against a
// throwaway in-memory table. Nothing that fails either stage ever reaches
// real data.
package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"
)

// Result is the validator's verdict. Reason is empty when Valid is true.
type Result struct {
	Valid  bool
	Reason string
}

var blockedKeywords = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE",
	"TRUNCATE", "REPLACE", "MERGE", "COPY", "ATTACH", "DETACH",
}

var injectionPatterns = []string{";", "--", "/*", "*/", "xp_", "sp_"}

var keywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(blockedKeywords))
	for _, kw := range blockedKeywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// Validator rejects unsafe or malformed SQL.
type Validator struct {
	log *zap.Logger
}

// New creates a Validator.
func New(log *zap.Logger) *Validator {
	return &Validator{log: log}
}

// Validate runs both gates in order: blocklist scan, then syntax dry-run.
func (v *Validator) Validate(ctx context.Context, query string) Result {
	if res := scanBlocklist(query); !res.Valid {
		v.log.Warn("SQL rejected by blocklist", zap.String("reason", res.Reason))
		return res
	}
	if res := v.dryRun(ctx, query); !res.Valid {
		v.log.Warn("SQL rejected by dry-run", zap.String("reason", res.Reason))
		return res
	}
	return Result{Valid: true}
}

// scanBlocklist rejects SQL containing mutating keywords or common injection
// markers. Case-insensitive; keywords match on word boundaries so column
// names like "update_count" in quoted strings do not false-positive on
// substrings of other words.
func scanBlocklist(query string) Result {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Result{Reason: "SQL validation failed: empty query"}
	}

	for _, kw := range blockedKeywords {
		if keywordPatterns[kw].MatchString(trimmed) {
			return Result{Reason: fmt.Sprintf("SQL validation failed: blocked keyword %s", kw)}
		}
	}
	for _, pattern := range injectionPatterns {
		if strings.Contains(strings.ToLower(trimmed), pattern) {
			return Result{Reason: fmt.Sprintf("SQL validation failed: suspicious pattern %q", pattern)}
		}
	}
	return Result{Valid: true}
}

// dryRun creates an ephemeral in-memory engine with a generic placeholder
// table and runs EXPLAIN on the query. Binder errors (unknown columns) are
// expected — the placeholder schema never matches the real dataset — so only
// parse-level failures invalidate the query. The scratch engine is always
// closed before returning.
func (v *Validator) dryRun(ctx context.Context, query string) Result {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return Result{Reason: fmt.Sprintf("SQL validation failed: could not open scratch engine: %v", err)}
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE data (id INTEGER, name VARCHAR, age INTEGER, category VARCHAR, amount DOUBLE)`)
	if err != nil {
		return Result{Reason: fmt.Sprintf("SQL validation failed: could not create scratch table: %v", err)}
	}

	rows, err := db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		if isBinderError(err) {
			return Result{Valid: true}
		}
		return Result{Reason: fmt.Sprintf("SQL validation failed: %v", err)}
	}
	defer rows.Close()

	return Result{Valid: true}
}

func isBinderError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Binder Error") || strings.Contains(msg, "Catalog Error")
}
