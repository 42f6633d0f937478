package events

import (
	"context"
	"testing"
	"time"

	"trialapi/config"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_WithoutClientIsNoop(t *testing.T) {
	publisher := New(nil, config.Config{EventsChannel: "trial-records"})

	_, ok := publisher.(NoopPublisher)
	require.True(t, ok)
	assert.NoError(t, publisher.Publish(context.Background(), NewEvent(TypeRecordCreated, "a", nil)))
	assert.NoError(t, publisher.Close())
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(TypeRecordDeleted, "test-id", map[string]any{"status": "Completed"})

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeRecordDeleted, event.Type)
	assert.Equal(t, "test-id", event.RecordID)
	assert.False(t, event.Timestamp.Before(before))

	other := NewEvent(TypeRecordDeleted, "test-id", nil)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestEvent_JSONShape(t *testing.T) {
	event := Event{
		ID:        "id-1",
		Type:      TypeRecordCreated,
		Channel:   "trial-records",
		RecordID:  "T-1",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "id-1",
		"type": "record.created",
		"channel": "trial-records",
		"recordId": "T-1",
		"timestamp": "2024-05-01T12:00:00Z"
	}`, string(payload))
}
