// Package pipeline orchestrates the natural-language query flow: intent and
// complexity analysis, SQL synthesis with fallback, safety validation,
// execution against a per-request analytical relation, result shaping, and
// the companion suggestion and semantic-search operations. Every public
// operation returns a well-formed value; no error escapes to the caller.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/dataset-insights/internal/chart"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/classify"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/embedstore"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/engine"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/genai"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/schema"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/sqlcheck"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/sqlgen"
	"github.com/GoogleCloudPlatform/dataset-insights/internal/suggest"
)

// SQLSynthesizer produces a SQL string for a question and schema.
type SQLSynthesizer interface {
	Generate(ctx context.Context, question string, m *schema.Model) (string, []sqlgen.Attempt, error)
}

// SQLValidator gates SQL before execution.
type SQLValidator interface {
	Validate(ctx context.Context, query string) sqlcheck.Result
}

// QueryRunner executes validated SQL against a dataset snapshot.
type QueryRunner interface {
	Run(ctx context.Context, csvData []byte, query string) (*engine.ResultSet, error)
}

// Deps wires the pipeline's collaborators. Embedder may be nil, which
// disables the semantic paths; everything else is required.
type Deps struct {
	Projects    ProjectStore
	Blobs       BlobStore
	Synthesizer SQLSynthesizer
	Validator   SQLValidator
	Runner      QueryRunner
	Embedder    genai.Embedder
	Store       *embedstore.Store
	Suggester   *suggest.Engine
	Log         *zap.Logger
	MaxRows     int
}

// Pipeline is the orchestrator. Construct it once and share across requests;
// each call builds its own per-request state.
type Pipeline struct {
	projects    ProjectStore
	blobs       BlobStore
	synthesizer SQLSynthesizer
	validator   SQLValidator
	runner      QueryRunner
	embedder    genai.Embedder
	store       *embedstore.Store
	suggester   *suggest.Engine
	log         *zap.Logger
	maxRows     int
}

// New creates a Pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	maxRows := deps.MaxRows
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &Pipeline{
		projects:    deps.Projects,
		blobs:       deps.Blobs,
		synthesizer: deps.Synthesizer,
		validator:   deps.Validator,
		runner:      deps.Runner,
		embedder:    deps.Embedder,
		store:       deps.Store,
		suggester:   deps.Suggester,
		log:         deps.Log,
		maxRows:     maxRows,
	}
}

// ProcessQuery answers one natural-language question about a project's
// dataset. The result is always structurally valid; failures surface as a
// result with ResultType "error".
func (p *Pipeline) ProcessQuery(ctx context.Context, question, projectID, userID string) *QueryResult {
	res := &QueryResult{
		ID:    uuid.NewString(),
		Query: question,
	}

	owned, err := p.projects.CheckOwnership(ctx, projectID, userID)
	if err != nil || !owned {
		return errorResult(res, "access denied to project")
	}

	m, err := p.projects.GetSchema(ctx, projectID)
	if err != nil {
		return errorResult(res, fmt.Sprintf("project schema unavailable: %v", err))
	}

	comp := classify.AnalyzeComplexity(question)
	intent := resolveIntent(question, comp)
	p.log.Info("question classified",
		zap.String("intent", string(intent)),
		zap.String("complexity", string(comp.Level)))

	if intent == classify.IntentGeneral {
		return p.summarize(ctx, res, question, projectID, m)
	}

	query, attempts, err := p.synthesizer.Generate(ctx, question, m)
	for _, a := range attempts {
		if a.Err != nil {
			p.log.Warn("SQL generation attempt failed", zap.String("backend", a.Backend), zap.Error(a.Err))
		}
	}
	if err != nil {
		return errorResult(res, fmt.Sprintf("could not generate SQL: %v", err))
	}

	if vres := p.validator.Validate(ctx, query); !vres.Valid {
		return errorResult(res, vres.Reason)
	}

	query = engine.ApplyRowLimit(query, comp.EstimatedResultSize, p.maxRows)

	csvData, err := p.blobs.DownloadDataset(ctx, projectID)
	if err != nil {
		return errorResult(res, fmt.Sprintf("dataset load error: %v", err))
	}

	rs, err := p.runner.Run(ctx, csvData, query)
	if err != nil {
		return errorResult(res, err.Error())
	}

	res.SQLQuery = query
	res.Data = rs.Rows
	res.RowCount = rs.RowCount
	res.ExecutionTime = rs.ExecutionTime
	res.ResultType = ResultTable

	if intent == classify.IntentChart {
		cfg := chart.Build(rs.Rows, rs.Columns, chart.TypeHintFromSQL(query), question, comp)
		if cfg != nil {
			res.ChartConfig = cfg
			res.ResultType = ResultChart
		}
	}
	return res
}

// resolveIntent applies the documented complexity overrides on top of the
// base classifier, in fixed order: detected aggregation forces sql unless a
// chart was asked for, high-complexity general questions become sql, and
// temporal phrasing forces a chart. The ordering is a heuristic, not a
// guarantee.
func resolveIntent(question string, comp classify.Analysis) classify.Intent {
	intent := classify.ClassifyIntent(question)
	if comp.RequiresAggregation && intent != classify.IntentChart {
		intent = classify.IntentSQL
	}
	if comp.Level == classify.LevelHigh && intent == classify.IntentGeneral {
		intent = classify.IntentSQL
	}
	if classify.HasTemporalLanguage(question) {
		intent = classify.IntentChart
	}
	return intent
}

// summarize answers a general question with prose grounded in the nearest
// schema descriptions, falling back to a deterministic schema summary when
// no embedding backend is available.
func (p *Pipeline) summarize(ctx context.Context, res *QueryResult, question, projectID string, m *schema.Model) *QueryResult {
	res.ResultType = ResultSummary

	if p.embedder != nil {
		if !p.store.Has(projectID) {
			p.generateRecords(ctx, projectID, m)
		}
		if vector, err := p.embedder.Embed(ctx, question); err == nil {
			if matches, err := p.store.Search(projectID, vector, 3); err == nil && len(matches) > 0 {
				res.Summary = summaryFromMatches(m, matches)
				return res
			}
		} else {
			p.log.Warn("question embedding failed, using schema summary", zap.Error(err))
		}
	}

	res.Summary = schemaSummary(m)
	return res
}

func summaryFromMatches(m *schema.Model, matches []embedstore.Match) string {
	var b strings.Builder
	b.WriteString(schema.OverviewText(m))
	b.WriteString(" Most relevant to your question: ")
	parts := make([]string, 0, len(matches))
	for _, match := range matches {
		parts = append(parts, match.Text)
	}
	b.WriteString(strings.Join(parts, " "))
	return b.String()
}

func schemaSummary(m *schema.Model) string {
	var b strings.Builder
	b.WriteString(schema.OverviewText(m))
	for _, c := range m.Columns {
		b.WriteString(" ")
		b.WriteString(schema.ColumnText(c))
	}
	return b.String()
}

// GenerateEmbeddings builds and stores the project's embedding records.
// Idempotent: if embeddings already exist, it is a no-op returning true.
func (p *Pipeline) GenerateEmbeddings(ctx context.Context, projectID, userID string) bool {
	owned, err := p.projects.CheckOwnership(ctx, projectID, userID)
	if err != nil || !owned {
		return false
	}
	if p.store.Has(projectID) {
		return true
	}
	m, err := p.projects.GetSchema(ctx, projectID)
	if err != nil {
		p.log.Warn("cannot generate embeddings without a schema", zap.String("project", projectID), zap.Error(err))
		return false
	}
	return p.generateRecordsFor(ctx, projectID, m)
}

func (p *Pipeline) generateRecords(ctx context.Context, projectID string, m *schema.Model) {
	if !p.store.Has(projectID) {
		p.generateRecordsFor(ctx, projectID, m)
	}
}

// generateRecordsFor embeds the overview sentence, one sentence per column,
// and one sample-data pattern sentence per column, then replaces the
// project's record set wholesale. Individual embedding failures are skipped;
// the batch fails only if nothing embeds.
func (p *Pipeline) generateRecordsFor(ctx context.Context, projectID string, m *schema.Model) bool {
	if p.embedder == nil {
		return false
	}

	type pending struct {
		kind   embedstore.Kind
		column string
		text   string
	}
	var texts []pending
	texts = append(texts, pending{kind: embedstore.KindOverview, text: schema.OverviewText(m)})
	for _, c := range m.Columns {
		texts = append(texts, pending{kind: embedstore.KindColumn, column: c.Name, text: schema.ColumnText(c)})
		texts = append(texts, pending{kind: embedstore.KindSampleData, column: c.Name, text: schema.SamplePatternText(c)})
	}

	records := make([]embedstore.Record, 0, len(texts))
	for _, t := range texts {
		vector, err := p.embedder.Embed(ctx, t.text)
		if err != nil || len(vector) == 0 {
			p.log.Warn("embedding failed, skipping record",
				zap.String("kind", string(t.kind)), zap.Error(err))
			continue
		}
		records = append(records, embedstore.Record{
			Kind:       t.kind,
			ColumnName: t.column,
			Text:       t.text,
			Vector:     vector,
		})
	}
	if len(records) == 0 {
		return false
	}
	if err := p.store.Replace(projectID, records); err != nil {
		p.log.Warn("storing embeddings failed", zap.String("project", projectID), zap.Error(err))
		return false
	}
	p.log.Info("embeddings generated", zap.String("project", projectID), zap.Int("records", len(records)))
	return true
}

// SemanticSearch ranks the project's stored embedding records against the
// query text. Returns an empty list on access denial or any backend failure.
func (p *Pipeline) SemanticSearch(ctx context.Context, projectID, userID, text string, topK int) []embedstore.Match {
	owned, err := p.projects.CheckOwnership(ctx, projectID, userID)
	if err != nil || !owned || p.embedder == nil {
		return nil
	}

	if !p.store.Has(projectID) {
		if m, err := p.projects.GetSchema(ctx, projectID); err == nil {
			p.generateRecordsFor(ctx, projectID, m)
		}
	}

	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		p.log.Warn("query embedding failed", zap.Error(err))
		return nil
	}
	matches, err := p.store.Search(projectID, vector, topK)
	if err != nil {
		p.log.Warn("semantic search failed", zap.String("project", projectID), zap.Error(err))
		return nil
	}
	return matches
}

// GenerateSuggestions returns up to max ranked follow-up questions for the
// project. On access denial or missing metadata it returns the fixed
// fallback list instead of failing.
func (p *Pipeline) GenerateSuggestions(ctx context.Context, projectID, userID string, max int) []suggest.Suggestion {
	if max <= 0 {
		max = 5
	}

	owned, err := p.projects.CheckOwnership(ctx, projectID, userID)
	if err != nil || !owned {
		return truncate(p.suggester.Fallback(), max)
	}
	m, err := p.projects.GetSchema(ctx, projectID)
	if err != nil {
		return truncate(p.suggester.Fallback(), max)
	}

	if p.embedder != nil && !p.store.Has(projectID) {
		p.generateRecordsFor(ctx, projectID, m)
	}
	return p.suggester.Generate(ctx, projectID, m, max)
}

func truncate(sugs []suggest.Suggestion, max int) []suggest.Suggestion {
	if len(sugs) > max {
		return sugs[:max]
	}
	return sugs
}

func errorResult(res *QueryResult, msg string) *QueryResult {
	res.ResultType = ResultError
	res.Error = msg
	res.Data = nil
	res.Summary = ""
	res.ChartConfig = nil
	return res
}
