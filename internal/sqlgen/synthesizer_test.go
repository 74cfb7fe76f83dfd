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
package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func testModel() *schema.Model {
	return &schema.Model{
		Name:     "sales",
		RowCount: 10,
		Columns: []schema.ColumnMetadata{
			{Name: "region", Type: schema.TypeString, SampleValues: []string{"east", "west"}},
			{Name: "amount", Type: schema.TypeNumber},
		},
	}
}

func TestGeneratePrimarySucceeds(t *testing.T) {
	primary := &stubCompleter{response: "SELECT region, SUM(amount) AS total FROM data GROUP BY region;"}
	fallback := &stubCompleter{response: "SELECT 1"}
	s := New(primary, fallback, zap.NewNop())

	sql, attempts, err := s.Generate(context.Background(), "total amount per region", testModel())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := "SELECT region, SUM(amount) AS total FROM data GROUP BY region"
	if sql != want {
		t.Errorf("Generate() sql = %q, want %q", sql, want)
	}
	if len(attempts) != 1 || attempts[0].Backend != "primary" {
		t.Errorf("attempts = %+v, want single primary attempt", attempts)
	}
	if len(fallback.prompts) != 0 {
		t.Error("fallback should not be called when primary succeeds")
	}
}

func TestGenerateFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubCompleter{err: errors.New("quota exceeded")}
	fallback := &stubCompleter{response: "SELECT COUNT(*) AS count FROM data"}
	s := New(primary, fallback, zap.NewNop())

	sql, attempts, err := s.Generate(context.Background(), "how many rows", testModel())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if sql != "SELECT COUNT(*) AS count FROM data" {
		t.Errorf("Generate() sql = %q", sql)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Backend != "primary" || attempts[0].Err == nil {
		t.Errorf("first attempt = %+v, want failed primary", attempts[0])
	}
	if attempts[1].Backend != "fallback" || attempts[1].Err != nil {
		t.Errorf("second attempt = %+v, want successful fallback", attempts[1])
	}
}

func TestGenerateFallsBackOnEmptyPrimaryOutput(t *testing.T) {
	primary := &stubCompleter{response: "```sql\n```"}
	fallback := &stubCompleter{response: "SELECT * FROM data"}
	s := New(primary, fallback, zap.NewNop())

	sql, _, err := s.Generate(context.Background(), "show rows", testModel())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if sql != "SELECT * FROM data" {
		t.Errorf("Generate() sql = %q", sql)
	}
}

func TestGenerateAllBackendsFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	primary := &stubCompleter{err: primaryErr}
	fallback := &stubCompleter{err: errors.New("fallback down")}
	s := New(primary, fallback, zap.NewNop())

	_, attempts, err := s.Generate(context.Background(), "anything", testModel())
	if err == nil {
		t.Fatal("Generate() expected error")
	}
	if !errors.Is(err, primaryErr) {
		t.Errorf("Generate() error = %v, want wrapped primary error", err)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
}

func TestGenerateNoFallbackConfigured(t *testing.T) {
	primary := &stubCompleter{err: errors.New("unavailable")}
	s := New(primary, nil, zap.NewNop())

	_, attempts, err := s.Generate(context.Background(), "anything", testModel())
	if err == nil {
		t.Fatal("Generate() expected error")
	}
	if len(attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(attempts))
	}
}

func TestGeneratePromptContents(t *testing.T) {
	primary := &stubCompleter{err: errors.New("down")}
	fallback := &stubCompleter{response: "SELECT 1"}
	s := New(primary, fallback, zap.NewNop())

	if _, _, err := s.Generate(context.Background(), "total per region", testModel()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	full := primary.prompts[0]
	if !strings.Contains(full, `table named "data"`) {
		t.Error("full prompt should pin the relation name")
	}
	if !strings.Contains(full, "examples: [east, west]") {
		t.Error("full prompt should include sample values")
	}

	simplified := fallback.prompts[0]
	if !strings.Contains(simplified, "region (string), amount (number)") {
		t.Errorf("simplified prompt should list columns, got %q", simplified)
	}
	if strings.Contains(simplified, "east") {
		t.Error("simplified prompt should not include sample values")
	}
}

func TestSanitizeSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"Plain", "SELECT 1", "SELECT 1"},
		{"Trailing semicolon", "SELECT 1;", "SELECT 1"},
		{"Markdown fence", "```sql\nSELECT * FROM data\n```", "SELECT * FROM data"},
		{"Bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"Echoed label", "SQL QUERY: SELECT 1", "SELECT 1"},
		{"Label inside fence", "```sql\nSQL: SELECT 1;\n```", "SELECT 1"},
		{"Whitespace", "  SELECT 1  \n", "SELECT 1"},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSQL(tt.raw); got != tt.want {
				t.Errorf("sanitizeSQL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
