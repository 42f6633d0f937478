package events

import (
	"context"
	"time"

	"trialapi/config"
	"trialapi/internal/database"
	"trialapi/internal/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	TypeRecordCreated  = "record.created"
	TypeRecordReplaced = "record.replaced"
	TypeRecordDeleted  = "record.deleted"
)

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel"`
	RecordID  string         `json:"recordId"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEvent(eventType, recordID string, data map[string]any) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return Event{
		ID:        id.String(),
		Type:      eventType,
		RecordID:  recordID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher announces record changes. Implementations must not block the
// caller for longer than the context allows.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New returns a valkey-backed publisher when the database carries an events
// client and a no-op publisher otherwise.
func New(client database.CacheClient, config config.Config) Publisher {
	if client == nil {
		return NoopPublisher{}
	}

	return &EventBus{
		client:  client,
		channel: config.EventsChannel,
		log:     logger.New("EventBus"),
	}
}

type EventBus struct {
	client  database.CacheClient
	channel string
	log     logger.Logger
}

func (b *EventBus) Publish(ctx context.Context, event Event) error {
	log := b.log.Function("Publish")

	event.Channel = b.channel
	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "type", event.Type)
	}

	cmd := b.client.B().Publish().Channel(b.channel).Message(string(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return log.Err("failed to publish event", err, "type", event.Type, "recordID", event.RecordID)
	}

	log.Debug("Published event", "type", event.Type, "recordID", event.RecordID)
	return nil
}

// Close is a no-op; the client belongs to database.DB.
func (b *EventBus) Close() error {
	return nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
