package engine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/classify"
)

func TestRunAgainstEmbeddedEngine(t *testing.T) {
	e := New(zap.NewNop())
	csvData := []byte("name,age\nA,1\nB,2\nC,3\n")

	rs, err := e.Run(context.Background(), csvData, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rs.RowCount != 1 {
		t.Fatalf("RowCount = %d, want 1", rs.RowCount)
	}
	if len(rs.Columns) != 1 || rs.Columns[0] != "n" {
		t.Errorf("Columns = %v, want [n]", rs.Columns)
	}
	n, ok := rs.Rows[0]["n"]
	if !ok {
		t.Fatal("row missing column n")
	}
	if n != int64(3) {
		t.Errorf("n = %v (%T), want 3", n, n)
	}
	if rs.ExecutionTime <= 0 {
		t.Error("ExecutionTime should be positive")
	}
}

func TestRunAggregation(t *testing.T) {
	e := New(zap.NewNop())
	csvData := []byte("category,amount\nfood,10\nfood,5\ntoys,2\n")

	rs, err := e.Run(context.Background(), csvData,
		"SELECT category, SUM(amount) AS total FROM data GROUP BY category ORDER BY total DESC")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rs.RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", rs.RowCount)
	}
	if rs.Rows[0]["category"] != "food" {
		t.Errorf("first row = %v, want food first", rs.Rows[0])
	}
}

func TestRunEmptyDataset(t *testing.T) {
	e := New(zap.NewNop())
	_, err := e.Run(context.Background(), nil, "SELECT 1")
	if !IsDatasetLoadError(err) {
		t.Errorf("err = %v, want dataset load error", err)
	}
}

func TestRunExecutionError(t *testing.T) {
	e := New(zap.NewNop())
	csvData := []byte("name,age\nA,1\n")

	_, err := e.Run(context.Background(), csvData, "SELECT missing_column FROM data")
	if !IsExecutionError(err) {
		t.Errorf("err = %v, want execution error", err)
	}
	if IsDatasetLoadError(err) {
		t.Error("execution failure should not classify as load error")
	}
}

func TestRunShapesValuesFromMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	e := New(zap.NewNop(), WithOpener(func() (*sql.DB, error) { return db, nil }))

	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("CREATE TABLE data AS SELECT").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM data").WillReturnRows(
		sqlmock.NewRows([]string{"name", "seen_at", "blob"}).
			AddRow("A", when, []byte("raw")))
	mock.ExpectClose()

	rs, err := e.Run(context.Background(), []byte("x\n1\n"), "SELECT * FROM data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	row := rs.Rows[0]
	if row["seen_at"] != "2024-06-01T12:00:00Z" {
		t.Errorf("seen_at = %v, want RFC3339 string", row["seen_at"])
	}
	if row["blob"] != "raw" {
		t.Errorf("blob = %v, want string", row["blob"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunOpenFailure(t *testing.T) {
	e := New(zap.NewNop(), WithOpener(func() (*sql.DB, error) {
		return nil, errors.New("no engine")
	}))
	_, err := e.Run(context.Background(), []byte("x\n1\n"), "SELECT 1")
	if !IsDatasetLoadError(err) {
		t.Errorf("err = %v, want dataset load error", err)
	}
}

func TestShapeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"Nil", nil, nil},
		{"Float", 2.5, 2.5},
		{"Integer", int64(7), int64(7)},
		{"String", "ok", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shapeValue(tt.in); got != tt.want {
				t.Errorf("shapeValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := shapeValue(math.NaN()); got != nil {
		t.Errorf("shapeValue(NaN) = %v, want nil", got)
	}
	if got := shapeValue(math.Inf(1)); got != nil {
		t.Errorf("shapeValue(+Inf) = %v, want nil", got)
	}
}

func TestApplyRowLimit(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		estimated classify.Size
		maxRows   int
		want      string
	}{
		{"Large result gets limit", "SELECT * FROM data", classify.SizeLarge, 1000, "SELECT * FROM data LIMIT 1000"},
		{"Existing limit kept", "SELECT * FROM data LIMIT 5", classify.SizeLarge, 1000, "SELECT * FROM data LIMIT 5"},
		{"Medium result untouched", "SELECT * FROM data", classify.SizeMedium, 1000, "SELECT * FROM data"},
		{"Small result untouched", "SELECT * FROM data", classify.SizeSmall, 1000, "SELECT * FROM data"},
		{"Zero max disables", "SELECT * FROM data", classify.SizeLarge, 0, "SELECT * FROM data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyRowLimit(tt.query, tt.estimated, tt.maxRows); got != tt.want {
				t.Errorf("ApplyRowLimit() = %q, want %q", got, tt.want)
			}
		})
	}
}
