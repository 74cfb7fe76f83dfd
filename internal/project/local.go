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

// Package project provides a local-filesystem implementation of the
// pipeline's external collaborators: a directory of CSV files where the
// project id is the file stem. It backs the CLI and the integration tests;
// production deployments substitute their own stores.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/pipeline"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

// LocalStore implements pipeline.ProjectStore and pipeline.BlobStore over a
// directory of CSV files. Schemas are inferred on first access and cached.
type LocalStore struct {
	dir string

	mu      sync.Mutex
	schemas map[string]*schema.Model
}

var _ pipeline.ProjectStore = (*LocalStore)(nil)
var _ pipeline.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		schemas: make(map[string]*schema.Model),
	}
}

// ListProjects returns the project ids available in the directory.
func (s *LocalStore) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			ids = append(ids, strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}
	return ids, nil
}

// GetSchema infers (and caches) the schema of the project's CSV file.
func (s *LocalStore) GetSchema(ctx context.Context, projectID string) (*schema.Model, error) {
	s.mu.Lock()
	if m, ok := s.schemas[projectID]; ok {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	data, err := s.DownloadDataset(ctx, projectID)
	if err != nil {
		return nil, err
	}
	m, err := schema.InferFromCSV(data, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to infer schema for project %s: %w", projectID, err)
	}

	s.mu.Lock()
	s.schemas[projectID] = m
	s.mu.Unlock()
	return m, nil
}

// CheckOwnership always grants access: the local store is single-user.
func (s *LocalStore) CheckOwnership(ctx context.Context, projectID, userID string) (bool, error) {
	if _, err := os.Stat(s.path(projectID)); err != nil {
		return false, nil
	}
	return true, nil
}

// DownloadDataset returns the raw CSV bytes for the project.
func (s *LocalStore) DownloadDataset(ctx context.Context, projectID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pipeline.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read dataset for project %s: %w", projectID, err)
	}
	return data, nil
}

func (s *LocalStore) path(projectID string) string {
	// Keep ids confined to the data directory.
	base := filepath.Base(projectID)
	return filepath.Join(s.dir, base+".csv")
}
