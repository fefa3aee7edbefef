// Package importer orchestrates the per-row pipeline: map columns, validate
// against create metadata, build the payload, submit, classify the result.
// Rows fail individually; the batch always runs to the end.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/sheetflow/sheetflow/internal/config"
	"github.com/sheetflow/sheetflow/internal/domain"
	"github.com/sheetflow/sheetflow/internal/jira"
	"github.com/sheetflow/sheetflow/internal/mapper"
	"github.com/sheetflow/sheetflow/internal/payload"
	"github.com/sheetflow/sheetflow/internal/permission"
	"github.com/sheetflow/sheetflow/internal/repository"
)

// IssueCreator is the slice of the tracker client the importer consumes.
type IssueCreator interface {
	CreateIssue(ctx context.Context, req jira.CreateIssueRequest) (jira.IssueCreateResult, error)
}

// Options selects the target of one import call.
type Options struct {
	ProjectKey string
	IssueType  string
	FileName   string
	DryRun     bool
}

// RowError pairs a failed row's 1-based data index with its reason.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BatchSummary accumulates per-row outcomes across one run.
type BatchSummary struct {
	RunID     uuid.UUID  `json:"runId"`
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors"`
	Issues    []string   `json:"issues,omitempty"`
}

// Importer runs the end-to-end pipeline for single rows and batches.
type Importer struct {
	creds     config.JiraConfig
	mapper    *mapper.Mapper
	validator *permission.Validator
	builder   *payload.Builder
	client    IssueCreator
	logRepo   repository.ImportLogRepository // nil disables persistence
}

// New wires an importer from the pipeline components.
func New(
	creds config.JiraConfig,
	columnMapper *mapper.Mapper,
	validator *permission.Validator,
	builder *payload.Builder,
	client IssueCreator,
	logRepo repository.ImportLogRepository,
) *Importer {
	return &Importer{
		creds:     creds,
		mapper:    columnMapper,
		validator: validator,
		builder:   builder,
		client:    client,
		logRepo:   logRepo,
	}
}

// ImportRow imports a single row. The returned error is non-nil only for the
// fail-fast credential check, which is a caller setup problem; everything
// else, including submission failures, is reported inside the RowOutcome.
func (i *Importer) ImportRow(ctx context.Context, row domain.RowRecord, opts Options) (domain.RowOutcome, error) {
	if err := i.ensureConfigured(); err != nil {
		return domain.RowOutcome{}, err
	}

	projectKey := opts.ProjectKey
	if projectKey == "" {
		projectKey = i.creds.ProjectKey
	}

	// Columns come from the row itself, not a shared batch header.
	mapping, err := i.mapper.Map(ctx, row.ColumnNames())
	if err != nil {
		return domain.RowOutcome{Error: err.Error()}, nil
	}

	validated, err := i.validator.Validate(ctx, mapping, projectKey, opts.IssueType)
	if err != nil {
		return domain.RowOutcome{Error: err.Error()}, nil
	}

	built, err := i.builder.Build(ctx, row, validated, projectKey)
	if err != nil {
		return domain.RowOutcome{Error: err.Error()}, nil
	}
	if len(built.SkippedFields) > 0 {
		log.Printf("[IMPORT] skipped fields: %s", strings.Join(built.SkippedFields, "; "))
	}

	if opts.DryRun {
		return domain.RowOutcome{Success: true}, nil
	}

	result, err := i.client.CreateIssue(ctx, jira.CreateIssueRequest{Fields: built.Fields})
	if err != nil {
		var submission *jira.SubmissionError
		if errors.As(err, &submission) {
			return domain.RowOutcome{Error: submission.Error()}, nil
		}
		return domain.RowOutcome{Error: err.Error()}, nil
	}

	return domain.RowOutcome{Success: true, IssueKey: result.Key}, nil
}

// ImportBatch runs every row through ImportRow, accumulating a summary.
// Partial failure is expected; a row error never stops the batch. Failures
// are recorded to the import log when a repository is configured.
func (i *Importer) ImportBatch(ctx context.Context, rows []domain.RowRecord, opts Options) (BatchSummary, error) {
	if err := i.ensureConfigured(); err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{
		RunID:  uuid.New(),
		Total:  len(rows),
		Errors: []RowError{},
	}

	for idx, row := range rows {
		outcome, err := i.ImportRow(ctx, row, opts)
		if err != nil {
			return summary, err
		}

		if outcome.Success {
			summary.Succeeded++
			if outcome.IssueKey != "" {
				summary.Issues = append(summary.Issues, outcome.IssueKey)
			}
			continue
		}

		summary.Failed++
		summary.Errors = append(summary.Errors, RowError{Row: idx + 1, Reason: outcome.Error})
		i.recordFailure(ctx, summary.RunID, opts, idx+1, outcome.Error)
	}

	log.Printf("[IMPORT] run %s finished: %d total, %d succeeded, %d failed",
		summary.RunID, summary.Total, summary.Succeeded, summary.Failed)
	return summary, nil
}

// ensureConfigured fails fast, naming the missing configuration keys.
func (i *Importer) ensureConfigured() error {
	if missing := i.creds.MissingKeys(); len(missing) > 0 {
		return fmt.Errorf("jira configuration incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (i *Importer) recordFailure(ctx context.Context, runID uuid.UUID, opts Options, rowNumber int, reason string) {
	if i.logRepo == nil || reason == "" {
		return
	}
	entry := domain.ImportLogEntry{
		RunID:        runID,
		ProjectKey:   opts.ProjectKey,
		FileName:     opts.FileName,
		RowNumber:    &rowNumber,
		ErrorMessage: reason,
	}
	if entry.ProjectKey == "" {
		entry.ProjectKey = i.creds.ProjectKey
	}
	if err := i.logRepo.Record(ctx, entry); err != nil {
		log.Printf("[IMPORT] failed to record import log: %v", err)
	}
}
