package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventType names a ledger change.
type EventType string

const (
	EventTransactionCreated     EventType = "transaction.created"
	EventTransactionUpdated     EventType = "transaction.updated"
	EventTransactionDeleted     EventType = "transaction.deleted"
	EventMonthlyExpenseUpserted EventType = "monthly_expense.upserted"
	EventMonthlyExpenseDeleted  EventType = "monthly_expense.deleted"
)

// LedgerEvent is a lightweight notification that a record changed.
// Consumers fetch the current record by ID.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Period    string    `json:"period"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time
func NewLedgerEvent(t EventType, id, period string) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		ID:        id,
		Period:    period,
		Timestamp: time.Now().UTC(),
	}
}

// IsTransaction reports whether the event concerns a transaction.
func (e *LedgerEvent) IsTransaction() bool {
	switch e.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
		return true
	}
	return false
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects ones without a type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, errors.New("ledger event without type")
	}
	return &e, nil
}
