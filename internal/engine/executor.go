// Package engine executes validated SQL against an embedded analytical
// engine. Every call builds its own short-lived DuckDB instance, loads the
// dataset snapshot into the fixed relation, runs the query, and converts the
// result into JSON-safe rows. No engine state survives a call.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/classify"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/sqlgen"
)

// Stable error prefixes callers pattern-match on.
const (
	datasetLoadErrPrefix = "dataset load error"
	executionErrPrefix   = "SQL execution error"
)

// ResultSet is the JSON-safe output of one query execution.
type ResultSet struct {
	Columns       []string
	Rows          []map[string]any
	RowCount      int
	ExecutionTime float64 // seconds
}

// Executor runs SQL against per-call engine instances.
type Executor struct {
	log  *zap.Logger
	open func() (*sql.DB, error)
}

// Option configures an Executor.
type Option func(*Executor)

// WithOpener overrides how the engine handle is opened. Used by tests to
// substitute a mock database.
func WithOpener(open func() (*sql.DB, error)) Option {
	return func(e *Executor) { e.open = open }
}

// New creates an Executor backed by in-memory DuckDB instances.
func New(log *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		log: log,
		open: func() (*sql.DB, error) {
			return sql.Open("duckdb", "")
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads the CSV snapshot into the relation the synthesized SQL expects
// and executes the query. The engine handle is closed on every exit path.
func (e *Executor) Run(ctx context.Context, csvData []byte, query string) (*ResultSet, error) {
	start := time.Now()

	if len(csvData) == 0 {
		return nil, fmt.Errorf("%s: dataset is empty", datasetLoadErrPrefix)
	}

	db, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("%s: could not open engine: %w", datasetLoadErrPrefix, err)
	}
	defer db.Close()

	if err := loadRelation(ctx, db, csvData); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", executionErrPrefix, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", executionErrPrefix, err)
	}

	var shaped []map[string]any
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("%s: %w", executionErrPrefix, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = shapeValue(values[i])
		}
		shaped = append(shaped, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", executionErrPrefix, err)
	}

	elapsed := time.Since(start).Seconds()
	e.log.Debug("query executed",
		zap.Int("rows", len(shaped)),
		zap.Float64("seconds", elapsed))

	return &ResultSet{
		Columns:       columns,
		Rows:          shaped,
		RowCount:      len(shaped),
		ExecutionTime: elapsed,
	}, nil
}

// loadRelation writes the CSV to a temp file and lets the engine's CSV
// reader infer column types. The temp file is removed before returning.
func loadRelation(ctx context.Context, db *sql.DB, csvData []byte) error {
	tmp, err := os.CreateTemp("", "dataset-*.csv")
	if err != nil {
		return fmt.Errorf("%s: %w", datasetLoadErrPrefix, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(csvData); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", datasetLoadErrPrefix, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", datasetLoadErrPrefix, err)
	}

	path := strings.ReplaceAll(tmp.Name(), "'", "''")
	createStmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM read_csv_auto('%s')", sqlgen.RelationName, path)
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("%s: could not parse CSV: %w", datasetLoadErrPrefix, err)
	}
	return nil
}

// shapeValue converts an engine value into something the JSON encoder can
// hold: NaN and infinities become nil, timestamps become ISO-8601 strings,
// byte slices become strings, everything else passes through.
func shapeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return val
	}
}

// ApplyRowLimit appends a LIMIT clause when the question's estimated result
// size is large and the query does not already carry one.
func ApplyRowLimit(query string, estimated classify.Size, maxRows int) string {
	if estimated != classify.SizeLarge || maxRows <= 0 {
		return query
	}
	if strings.Contains(strings.ToLower(query), "limit") {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimSpace(query), maxRows)
}

// IsDatasetLoadError reports whether the error came from loading or parsing
// the dataset rather than from query execution.
func IsDatasetLoadError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), datasetLoadErrPrefix)
}

// IsExecutionError reports whether the error came from running the query
// inside the engine.
func IsExecutionError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), executionErrPrefix)
}
