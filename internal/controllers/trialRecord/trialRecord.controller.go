package trialRecordController

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"trialapi/config"
	"trialapi/internal/events"
	"trialapi/internal/logger"
	"trialapi/internal/metrics"
	. "trialapi/internal/models"
	"trialapi/internal/repositories"
	"trialapi/internal/services"

	"github.com/goccy/go-json"
)

type DocumentValidator interface {
	Validate(raw []byte) (TrialDocument, error)
}

type TrialRecordController struct {
	trialRecordRepo    repositories.TrialRecordRepository
	validator          DocumentValidator
	publisher          events.Publisher
	metrics            *metrics.Metrics
	transactionService *services.TransactionService
	queryTimeout       time.Duration
	log                logger.Logger
}

func New(
	trialRecordRepo repositories.TrialRecordRepository,
	validator DocumentValidator,
	publisher events.Publisher,
	metrics *metrics.Metrics,
	transactionService *services.TransactionService,
	config config.Config,
) *TrialRecordController {
	return &TrialRecordController{
		trialRecordRepo:    trialRecordRepo,
		validator:          validator,
		publisher:          publisher,
		metrics:            metrics,
		transactionService: transactionService,
		queryTimeout:       config.DatabaseQueryTimeout,
		log:                logger.New("TrialRecordController"),
	}
}

// Ingest runs one uploaded document through validation, normalization and
// the chronology check, then persists it.
func (tc *TrialRecordController) Ingest(ctx context.Context, raw []byte) (*TrialRecord, error) {
	log := tc.log.Function("Ingest")

	record, err := tc.prepare(raw)
	if err != nil {
		tc.observe(err)
		return nil, err
	}

	queryCtx, cancel := tc.queryContext(ctx)
	defer cancel()

	if err := tc.trialRecordRepo.Insert(queryCtx, &record); err != nil {
		tc.observe(err)
		if errors.Is(err, ErrConflict) {
			log.Info("Rejected duplicate trial record", "id", record.ID)
			return nil, err
		}
		return nil, log.Err("failed to insert trial record", err, "id", record.ID)
	}

	tc.metrics.ObserveIngest(metrics.OutcomeCreated)
	tc.publish(ctx, events.TypeRecordCreated, record.ID, map[string]any{
		"status":       record.Status.String(),
		"durationDays": record.DurationDays,
	})

	log.Info("Created trial record", "id", record.ID, "status", record.Status)
	return &record, nil
}

// IngestBatch ingests every element of a JSON array independently. Failed
// elements are reported alongside the created records.
func (tc *TrialRecordController) IngestBatch(ctx context.Context, raw []byte) (BatchResult, error) {
	log := tc.log.Function("IngestBatch")

	var documents []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		tc.metrics.ObserveIngest(metrics.OutcomeMalformed)
		return BatchResult{}, fmt.Errorf("%w: batch upload must be a JSON array", ErrMalformedInput)
	}
	if err := json.Unmarshal(trimmed, &documents); err != nil {
		tc.metrics.ObserveIngest(metrics.OutcomeMalformed)
		return BatchResult{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	result := BatchResult{
		Created: make([]TrialRecord, 0, len(documents)),
		Failed:  []BatchFailure{},
	}

	for index, document := range documents {
		if err := ctx.Err(); err != nil {
			return result, log.Err("batch ingestion interrupted", err, "index", index)
		}

		record, err := tc.Ingest(ctx, document)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				Index:  index,
				ID:     documentID(document),
				Status: StatusCode(err),
				Errors: ErrorMessages(err),
			})
			continue
		}

		result.Created = append(result.Created, *record)
	}

	log.Info("Batch ingested", "created", len(result.Created), "failed", len(result.Failed))
	return result, nil
}

// Replace overwrites the record stored under id with a new document. The
// document's own id must match.
func (tc *TrialRecordController) Replace(ctx context.Context, id string, raw []byte) (*TrialRecord, error) {
	log := tc.log.Function("Replace")

	record, err := tc.prepare(raw)
	if err != nil {
		tc.observe(err)
		return nil, err
	}

	if record.ID != id {
		err := NewValidationError(fmt.Sprintf(
			"id mismatch at '/id': document id %q does not match %q", record.ID, id,
		))
		tc.observe(err)
		return nil, err
	}

	queryCtx, cancel := tc.queryContext(ctx)
	defer cancel()

	var previous Status
	err = tc.transactionService.Execute(queryCtx, func(txCtx context.Context) error {
		existing, err := tc.trialRecordRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		previous = existing.Status

		return tc.trialRecordRepo.Replace(txCtx, &record)
	})
	if err != nil {
		tc.observe(err)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to replace trial record", err, "id", id)
	}

	tc.metrics.ObserveIngest(metrics.OutcomeReplaced)
	tc.publish(ctx, events.TypeRecordReplaced, record.ID, map[string]any{
		"previousStatus": previous.String(),
		"status":         record.Status.String(),
	})

	return &record, nil
}

func (tc *TrialRecordController) Get(ctx context.Context, id string) (*TrialRecord, error) {
	queryCtx, cancel := tc.queryContext(ctx)
	defer cancel()

	record, err := tc.trialRecordRepo.FindByID(queryCtx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, tc.log.Function("Get").Err("failed to get trial record", err, "id", id)
	}

	return record, nil
}

func (tc *TrialRecordController) List(ctx context.Context, filter TrialRecordFilter) ([]TrialRecord, error) {
	queryCtx, cancel := tc.queryContext(ctx)
	defer cancel()

	records, err := tc.trialRecordRepo.ListWhere(queryCtx, filter)
	if err != nil {
		return nil, tc.log.Function("List").Err("failed to list trial records", err)
	}

	return records, nil
}

func (tc *TrialRecordController) Delete(ctx context.Context, id string) error {
	queryCtx, cancel := tc.queryContext(ctx)
	defer cancel()

	if err := tc.trialRecordRepo.Delete(queryCtx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return tc.log.Function("Delete").Err("failed to delete trial record", err, "id", id)
	}

	tc.publish(ctx, events.TypeRecordDeleted, id, nil)
	return nil
}

func (tc *TrialRecordController) prepare(raw []byte) (TrialRecord, error) {
	doc, err := tc.validator.Validate(raw)
	if err != nil {
		return TrialRecord{}, err
	}

	record := services.NormalizeTrialRecord(doc)
	if err := services.ValidateChronology(record); err != nil {
		return TrialRecord{}, err
	}

	return record, nil
}

func (tc *TrialRecordController) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if tc.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, tc.queryTimeout)
}

func (tc *TrialRecordController) publish(ctx context.Context, eventType, id string, data map[string]any) {
	if err := tc.publisher.Publish(ctx, events.NewEvent(eventType, id, data)); err != nil {
		tc.log.Function("publish").Warn("failed to publish change event", "type", eventType, "id", id, "error", err)
	}
}

func (tc *TrialRecordController) observe(err error) {
	var outcome string
	_, invalid := IsValidationError(err)
	switch {
	case invalid:
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, ErrMalformedInput):
		outcome = metrics.OutcomeMalformed
	case errors.Is(err, ErrConflict):
		outcome = metrics.OutcomeConflict
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	tc.metrics.ObserveIngest(outcome)
}

// documentID extracts the id of a batch element for error reporting, even
// when the element failed validation.
func documentID(raw []byte) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	id, _ := probe.ID.(string)
	return id
}
