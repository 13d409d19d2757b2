package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-forum-api/internal/utils"
)

// Event types emitted by the forum.
const (
	ThreadLocked   = "thread.locked"
	ReplyCreated   = "reply.created"
	ReplyDeleted   = "reply.deleted"
	UserBanned     = "user.banned"
	ReportFiled    = "report.filed"
	ReportResolved = "report.resolved"
)

// Event is the payload published for every effective forum state change.
type Event struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	ActorID       uint                   `json:"actor_id"`
	EntityType    string                 `json:"entity_type"`
	EntityID      uint                   `json:"entity_id"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// Publisher delivers domain events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes events on "<subject>.<event type>". A nil connection yields Nop.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) Publisher {
	if conn == nil || subject == "" {
		return Nop{}
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if event.CorrelationID == "" {
		event.CorrelationID = utils.CorrelationID(ctx)
	}

	payload, err := Encode(event)
	if err != nil {
		return err
	}

	subject := p.subject + "." + event.Type
	if err := p.conn.Publish(subject, payload); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event published")
	return nil
}

// Encode stamps missing identifiers and serialises the event.
func Encode(event Event) ([]byte, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}
