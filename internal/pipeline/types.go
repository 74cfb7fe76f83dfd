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
package pipeline

import (
	"context"
	"errors"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/chart"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
)

// ErrNotFound is returned by the external stores when a project or dataset
// does not exist.
var ErrNotFound = errors.New("not found")

// ResultType labels the shape of a QueryResult.
type ResultType string

const (
	ResultTable   ResultType = "table"
	ResultChart   ResultType = "chart"
	ResultSummary ResultType = "summary"
	ResultError   ResultType = "error"
)

// QueryResult is the immutable answer to one question. Exactly one of Data,
// Summary, or Error carries the payload, according to ResultType.
type QueryResult struct {
	ID            string           `json:"id"`
	Query         string           `json:"query"`
	SQLQuery      string           `json:"sql_query,omitempty"`
	ResultType    ResultType       `json:"result_type"`
	Data          []map[string]any `json:"data,omitempty"`
	ChartConfig   *chart.Config    `json:"chart_config,omitempty"`
	ExecutionTime float64          `json:"execution_time"`
	RowCount      int              `json:"row_count"`
	Summary       string           `json:"summary,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// ProjectStore is the external schema/ownership collaborator. GetSchema
// returns ErrNotFound when the project does not exist.
type ProjectStore interface {
	GetSchema(ctx context.Context, projectID string) (*schema.Model, error)
	CheckOwnership(ctx context.Context, projectID, userID string) (bool, error)
}

// BlobStore is the external dataset-payload collaborator. DownloadDataset
// returns the raw CSV bytes, or ErrNotFound.
type BlobStore interface {
	DownloadDataset(ctx context.Context, projectID string) ([]byte, error)
}
