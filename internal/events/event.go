package events

import (
	"context"
	"encoding/json"
	"time"
)

type Type string

const (
	AccountCreated       Type = "account.created"
	AccountUpdated       Type = "account.updated"
	AccountDeleted       Type = "account.deleted"
	TransactionRecorded  Type = "transaction.recorded"
	TransactionUpdated   Type = "transaction.updated"
	TransactionDeleted   Type = "transaction.deleted"
	GoalContributed      Type = "goal.contributed"
	ReceivableReceived   Type = "receivable.received"
	RecurringGenerated   Type = "recurring.generated"
	ReportDispatchQueued Type = "report.dispatch_queued"
)

// Event is a committed ledger change. Amount is a decimal string so the
// message is independent of any numeric encoding.
type Event struct {
	Type        Type      `json:"type"`
	UserID      string    `json:"user_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Amount      string    `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func New(eventType Type, userID, entityType, entityID string) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now().UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler func(ctx context.Context, e Event) error
