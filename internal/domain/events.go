package domain

import "time"

// Event types
const (
	EventTypeMovementCompleted = "movement.completed"
	EventTypeMovementRejected  = "movement.rejected"
	EventTypeAccountOpened     = "account.opened"
)

// Aggregate types
const (
	AggregateTypeMovement = "movement"
	AggregateTypeAccount  = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewMovementEvent builds the outbox event documenting m.
func NewMovementEvent(id string, m *Movement) *OutboxEvent {
	eventType := EventTypeMovementCompleted
	if !m.IsCompleted() {
		eventType = EventTypeMovementRejected
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   m.ID,
		AggregateType: AggregateTypeMovement,
		EventType:     eventType,
		Payload: map[string]any{
			"movement_id":       m.ID,
			"seq":               m.Seq,
			"source_account_id": m.SourceAccountID,
			"dest_account_id":   m.DestAccountID,
			"amount":            m.Amount.String(),
			"status":            string(m.Status),
			"reason":            m.Reason,
			"event_at":          m.CreatedAt.Format(time.RFC3339Nano),
		},
		CreatedAt: m.CreatedAt,
	}
}

// NewAccountOpenedEvent builds the outbox event documenting an opened account.
func NewAccountOpenedEvent(id string, a *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   a.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountOpened,
		Payload: map[string]any{
			"account_id":      a.ID,
			"owner_id":        a.OwnerID,
			"opening_balance": a.OpeningBalance.String(),
		},
		CreatedAt: a.CreatedAt,
	}
}
