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
package sqlcheck

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestScanBlocklist(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantValid  bool
		wantReason string
	}{
		{"Plain select", "SELECT * FROM data", true, ""},
		{"Aggregation", "SELECT category, SUM(amount) AS total FROM data GROUP BY category", true, ""},
		{"Drop statement", "DROP TABLE data", false, "DROP"},
		{"Lowercase delete", "delete from data", false, "DELETE"},
		{"Stacked query injection", "SELECT * FROM data; DROP TABLE data", false, "DROP"},
		{"Comment injection", "SELECT * FROM data -- hidden", false, "--"},
		{"Block comment", "SELECT /* sneak */ * FROM data", false, "/*"},
		{"Update statement", "UPDATE data SET amount = 0", false, "UPDATE"},
		{"Extended stored procedure", "SELECT * FROM data WHERE name = 'xp_cmdshell'", false, "xp_"},
		{"Empty query", "", false, "empty"},
		{"Keyword inside identifier is allowed", "SELECT update_count FROM data", true, ""},
		{"Keyword inside word is allowed", "SELECT * FROM data WHERE name = 'amalgamated'", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scanBlocklist(tt.query)
			if res.Valid != tt.wantValid {
				t.Fatalf("scanBlocklist(%q).Valid = %v, want %v (reason %q)", tt.query, res.Valid, tt.wantValid, res.Reason)
			}
			if !tt.wantValid {
				if !strings.HasPrefix(res.Reason, "SQL validation failed:") {
					t.Errorf("reason %q missing stable prefix", res.Reason)
				}
				if !strings.Contains(res.Reason, tt.wantReason) {
					t.Errorf("reason %q should mention %q", res.Reason, tt.wantReason)
				}
			}
		})
	}
}

func TestValidateDryRun(t *testing.T) {
	v := New(zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name      string
		query     string
		wantValid bool
	}{
		{"Well formed select", "SELECT name, amount FROM data WHERE amount > 10", true},
		{"Aggregation with alias", "SELECT category, COUNT(*) AS count FROM data GROUP BY category", true},
		{"Unknown columns still pass", "SELECT revenue, region FROM data GROUP BY region", true},
		{"Misspelled keyword fails", "SELEC name FROM data", false},
		{"Garbage fails", "this is not sql at all", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(ctx, tt.query)
			if res.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v (reason %q)", tt.query, res.Valid, tt.wantValid, res.Reason)
			}
		})
	}
}

func TestValidateBlocklistRunsBeforeDryRun(t *testing.T) {
	v := New(zap.NewNop())

	// A syntactically valid statement that is still forbidden: the blocklist
	// verdict must mention the keyword, not a parse failure.
	res := v.Validate(context.Background(), "DELETE FROM data WHERE amount < 0")
	if res.Valid {
		t.Fatal("mutating statement should be rejected")
	}
	if !strings.Contains(res.Reason, "DELETE") {
		t.Errorf("reason %q should come from the blocklist", res.Reason)
	}
}
