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

// Package embedstore is the process-wide keyed collection of embedding
// records, one set per project. Records are created on demand and only ever
// replaced wholesale; per-project locking serializes regeneration against
// concurrent searches.
package embedstore

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Kind labels what a record's text describes.
type Kind string

const (
	KindOverview   Kind = "overview"
	KindColumn     Kind = "column"
	KindSampleData Kind = "sample_data"
)

// Record is one embedded text snippet. Immutable once stored.
type Record struct {
	Kind       Kind
	ColumnName string // set only for column and sample_data kinds
	Text       string
	Vector     []float32
}

// Match is one semantic-search hit.
type Match struct {
	Similarity float64 `json:"similarity"`
	Kind       Kind    `json:"kind"`
	Text       string  `json:"text"`
	ColumnName string  `json:"column_name,omitempty"`
}

type projectEntry struct {
	mu      sync.Mutex
	dim     int
	records []Record
}

// Store holds embedding records keyed by project id. Construct one at
// process start and inject it; it is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	projects map[string]*projectEntry
}

// New creates an empty Store.
func New() *Store {
	return &Store{projects: make(map[string]*projectEntry)}
}

func (s *Store) entry(projectID string) *projectEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.projects[projectID]
	if !ok {
		e = &projectEntry{}
		s.projects[projectID] = e
	}
	return e
}

// Replace swaps in a whole new record set for the project. All vectors must
// share one dimensionality; a mismatched vector rejects the whole batch.
func (s *Store) Replace(projectID string, records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("cannot store an empty record set for project %s", projectID)
	}
	dim := len(records[0].Vector)
	if dim == 0 {
		return fmt.Errorf("cannot store zero-length vectors for project %s", projectID)
	}
	for i, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("vector dimensionality mismatch for project %s: record %d has %d, expected %d",
				projectID, i, len(r.Vector), dim)
		}
	}

	e := s.entry(projectID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dim = dim
	e.records = records
	return nil
}

// Count returns the number of records stored for the project.
func (s *Store) Count(projectID string) int {
	e := s.entry(projectID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.records)
}

// Has reports whether the project already has embeddings.
func (s *Store) Has(projectID string) bool {
	return s.Count(projectID) > 0
}

// Search ranks every stored record by cosine similarity to the query vector
// and returns the top k, highest first.
func (s *Store) Search(projectID string, query []float32, topK int) ([]Match, error) {
	e := s.entry(projectID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) == 0 {
		return nil, fmt.Errorf("no embeddings stored for project %s", projectID)
	}
	if len(query) != e.dim {
		return nil, fmt.Errorf("query vector dimensionality %d does not match stored dimensionality %d", len(query), e.dim)
	}
	if topK <= 0 {
		topK = 5
	}

	matches := make([]Match, 0, len(e.records))
	for _, r := range e.records {
		matches = append(matches, Match{
			Similarity: CosineSimilarity(query, r.Vector),
			Kind:       r.Kind,
			Text:       r.Text,
			ColumnName: r.ColumnName,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// CosineSimilarity returns the cosine of the angle between two same-length
// vectors, in [-1, 1]. Zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
