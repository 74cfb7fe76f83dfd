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
package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/pipeline"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

func writeDataset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestListProjects(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "sales.csv", "a\n1\n")
	writeDataset(t, dir, "users.CSV", "a\n1\n")
	writeDataset(t, dir, "notes.txt", "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewLocalStore(dir)
	ids, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "sales" || ids[1] != "users" {
		t.Errorf("ListProjects() = %v, want [sales users]", ids)
	}
}

func TestGetSchemaAndCache(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "sales.csv", "category,amount\nfood,10\ntoys,5\n")
	s := NewLocalStore(dir)

	m, err := s.GetSchema(context.Background(), "sales")
	if err != nil {
		t.Fatalf("GetSchema() error = %v", err)
	}
	if m.Name != "sales" || m.RowCount != 2 {
		t.Errorf("schema = %+v", m)
	}
	amount, ok := m.Column("amount")
	if !ok || amount.Type != schema.TypeNumber {
		t.Errorf("amount column = %+v, found %v", amount, ok)
	}

	// Second read comes from the cache: removing the file must not matter.
	if err := os.Remove(filepath.Join(dir, "sales.csv")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSchema(context.Background(), "sales"); err != nil {
		t.Errorf("cached GetSchema() error = %v", err)
	}
}

func TestGetSchemaMissingProject(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	_, err := s.GetSchema(context.Background(), "ghost")
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Errorf("GetSchema(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestCheckOwnership(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "sales.csv", "a\n1\n")
	s := NewLocalStore(dir)

	owned, err := s.CheckOwnership(context.Background(), "sales", "anyone")
	if err != nil || !owned {
		t.Errorf("CheckOwnership(sales) = %v, %v", owned, err)
	}
	owned, err = s.CheckOwnership(context.Background(), "ghost", "anyone")
	if err != nil || owned {
		t.Errorf("CheckOwnership(ghost) = %v, %v", owned, err)
	}
}

func TestDownloadDatasetConfinesPath(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "sales.csv", "a\n1\n")
	s := NewLocalStore(dir)

	// Path components in the id are stripped; the traversal resolves to a
	// nonexistent file inside the data directory.
	_, err := s.DownloadDataset(context.Background(), "../../../etc/passwd")
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Errorf("DownloadDataset(traversal) error = %v, want ErrNotFound", err)
	}

	data, err := s.DownloadDataset(context.Background(), "sales")
	if err != nil {
		t.Fatalf("DownloadDataset(sales) error = %v", err)
	}
	if string(data) != "a\n1\n" {
		t.Errorf("DownloadDataset(sales) = %q", data)
	}
}
