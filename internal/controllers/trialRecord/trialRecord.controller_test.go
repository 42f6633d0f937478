package trialRecordController

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trialapi/config"
	"trialapi/internal/database"
	"trialapi/internal/events"
	"trialapi/internal/metrics"
	. "trialapi/internal/models"
	"trialapi/internal/repositories"
	"trialapi/internal/schema"
	"trialapi/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	controller *TrialRecordController
	repo       repositories.TrialRecordRepository
	publisher  *recordingPublisher
	metrics    *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	cfg := config.Config{
		DatabaseDriver:       config.DriverSQLite,
		DatabaseDbPath:       filepath.Join(t.TempDir(), "trials.db"),
		DatabaseAutoMigrate:  true,
		DatabaseQueryTimeout: 5 * time.Second,
	}
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	validator, err := schema.Default()
	require.NoError(t, err)

	repo := repositories.NewTrialRecord(db)
	publisher := &recordingPublisher{}
	m := metrics.New()

	return fixture{
		controller: New(repo, validator, publisher, m, services.NewTransactionService(db), cfg),
		repo:       repo,
		publisher:  publisher,
		metrics:    m,
	}
}

func (f fixture) outcomes(outcome string) float64 {
	return testutil.ToFloat64(f.metrics.RecordsIngested.WithLabelValues(outcome))
}

const validDocument = `{
	"id": "test-id-4",
	"title": "Test Title 4",
	"startDate": "2023-01-01",
	"endDate": "2023-02-01",
	"participantCount": 150,
	"status": "NotStarted"
}`

func TestIngest_PersistsNormalizedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.controller.Ingest(ctx, []byte(validDocument))
	require.NoError(t, err)
	assert.Equal(t, 31, created.DurationDays)
	assert.Equal(t, StatusNotStarted, created.Status)

	stored, err := f.controller.Get(ctx, "test-id-4")
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)
	assert.True(t, created.StartDate.Equal(stored.StartDate))
	assert.True(t, created.EndDate.Equal(stored.EndDate))
	assert.Equal(t, created.ParticipantCount, stored.ParticipantCount)
	assert.Equal(t, created.DurationDays, stored.DurationDays)

	assert.Equal(t, []string{events.TypeRecordCreated}, f.publisher.types())
	assert.Equal(t, 1.0, f.outcomes(metrics.OutcomeCreated))
}

func TestIngest_MissingEndDate(t *testing.T) {
	f := newFixture(t)

	created, err := f.controller.Ingest(context.Background(), []byte(`{
		"id": "test-id-5",
		"title": "Test Title 5",
		"startDate": "2023-01-01",
		"participantCount": 150,
		"status": "Completed"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "2023-02-01", created.EndDate.String())
	assert.Equal(t, StatusOngoing, created.Status)
	assert.Equal(t, 31, created.DurationDays)
}

func TestIngest_Failures(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		outcome string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "schema violations",
			raw:     `{"id":"a","title":"b","startDate":"2023-01-01","participantCount":0,"status":42}`,
			outcome: metrics.OutcomeInvalid,
			check: func(t *testing.T, err error) {
				validationErr, ok := IsValidationError(err)
				require.True(t, ok)
				assert.GreaterOrEqual(t, len(validationErr.Errors), 2)
			},
		},
		{
			name:    "end before start",
			raw:     `{"id":"test-id-X","title":"X","startDate":"2023-01-01","endDate":"2022-02-01","status":"NotStarted"}`,
			outcome: metrics.OutcomeInvalid,
			check: func(t *testing.T, err error) {
				validationErr, ok := IsValidationError(err)
				require.True(t, ok)
				assert.Contains(t, validationErr.Errors[0], "end date cannot be before start date")
			},
		},
		{
			name:    "empty upload",
			raw:     "",
			outcome: metrics.OutcomeMalformed,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedInput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			record, err := f.controller.Ingest(context.Background(), []byte(tt.raw))
			assert.Nil(t, record)
			tt.check(t, err)
			assert.Equal(t, 1.0, f.outcomes(tt.outcome))

			count, err := f.repo.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestIngest_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.Ingest(ctx, []byte(validDocument))
	require.NoError(t, err)

	_, err = f.controller.Ingest(ctx, []byte(`{"id":"test-id-4","title":"Other","startDate":"2024-01-01","status":"Completed"}`))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1.0, f.outcomes(metrics.OutcomeConflict))

	stored, err := f.controller.Get(ctx, "test-id-4")
	require.NoError(t, err)
	assert.Equal(t, "Test Title 4", stored.Title)
}

func TestIngest_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("valkey unavailable")

	_, err := f.controller.Ingest(context.Background(), []byte(validDocument))
	assert.NoError(t, err)
}

func TestIngestBatch(t *testing.T) {
	f := newFixture(t)

	result, err := f.controller.IngestBatch(context.Background(), []byte(`[
		{"id":"b-1","title":"One","startDate":"2023-01-01","status":"NotStarted"},
		{"id":"b-2","title":"Two","startDate":"2023-01-01","participantCount":0,"status":"Ongoing"},
		{"id":"b-1","title":"Again","startDate":"2023-01-01","status":"Completed"},
		"not an object",
		{"id":"b-3","title":"Three","startDate":"2023-03-01","endDate":"2023-03-11","status":"Completed"}
	]`))
	require.NoError(t, err)

	require.Len(t, result.Created, 2)
	assert.Equal(t, "b-1", result.Created[0].ID)
	assert.Equal(t, "b-3", result.Created[1].ID)
	assert.Equal(t, 10, result.Created[1].DurationDays)

	require.Len(t, result.Failed, 3)
	assert.Equal(t, BatchFailure{Index: 1, ID: "b-2", Status: http.StatusBadRequest, Errors: result.Failed[0].Errors}, result.Failed[0])
	assert.Equal(t, 2, result.Failed[1].Index)
	assert.Equal(t, http.StatusConflict, result.Failed[1].Status)
	assert.Equal(t, 3, result.Failed[2].Index)
	assert.Empty(t, result.Failed[2].ID)
	assert.Equal(t, http.StatusBadRequest, result.Failed[2].Status)
}

func TestIngestBatch_NotAnArray(t *testing.T) {
	f := newFixture(t)

	for _, raw := range []string{"", `{"id":"a"}`, "[1,"} {
		_, err := f.controller.IngestBatch(context.Background(), []byte(raw))
		assert.ErrorIs(t, err, ErrMalformedInput, "input %q", raw)
	}
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.Ingest(ctx, []byte(validDocument))
	require.NoError(t, err)

	replaced, err := f.controller.Replace(ctx, "test-id-4", []byte(`{
		"id": "test-id-4",
		"title": "Renamed",
		"startDate": "2023-01-01",
		"endDate": "2023-01-11",
		"status": "Completed"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 10, replaced.DurationDays)

	stored, err := f.controller.Get(ctx, "test-id-4")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Zero(t, stored.ParticipantCount)

	assert.Equal(t, []string{events.TypeRecordCreated, events.TypeRecordReplaced}, f.publisher.types())
}

func TestReplace_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.Replace(ctx, "missing", []byte(`{"id":"missing","title":"a","startDate":"2023-01-01","status":"Ongoing"}`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.controller.Replace(ctx, "other", []byte(validDocument))
	validationErr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, validationErr.Errors[0], "/id")
}

func TestReplace_BoundedByQueryTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.Ingest(ctx, []byte(validDocument))
	require.NoError(t, err)

	f.controller.queryTimeout = time.Nanosecond
	_, err = f.controller.Replace(ctx, "test-id-4", []byte(`{
		"id": "test-id-4",
		"title": "Too Slow",
		"startDate": "2023-01-01",
		"status": "Completed"
	}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1.0, f.outcomes(metrics.OutcomeError))

	f.controller.queryTimeout = 5 * time.Second
	stored, err := f.controller.Get(ctx, "test-id-4")
	require.NoError(t, err)
	assert.Equal(t, "Test Title 4", stored.Title)
	assert.Equal(t, []string{events.TypeRecordCreated}, f.publisher.types())
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, doc := range []string{
		`{"id":"test-id","title":"Test Title","startDate":"2023-01-01","status":"NotStarted"}`,
		`{"id":"test-id-2","title":"Test Title 2","startDate":"2023-01-01","endDate":"2023-06-01","status":"Completed"}`,
		`{"id":"test-id-3","title":"Test Title 3","startDate":"2023-01-01","endDate":"2023-06-01","status":"Completed"}`,
	} {
		_, err := f.controller.Ingest(ctx, []byte(doc))
		require.NoError(t, err)
	}

	completed := StatusCompleted
	records, err := f.controller.List(ctx, TrialRecordFilter{Status: &completed})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, StatusCompleted, record.Status)
	}

	require.NoError(t, f.controller.Delete(ctx, "test-id-2"))
	_, err = f.controller.Get(ctx, "test-id-2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.controller.Delete(ctx, "test-id-2"), ErrNotFound)

	records, err = f.controller.List(ctx, TrialRecordFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
