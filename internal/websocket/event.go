package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of lifecycle event
type EventType string

const (
	EventTypeCreated     EventType = "created"
	EventTypeUpdated     EventType = "updated"
	EventTypeDeleted     EventType = "deleted"
	EventTypeRecomputed  EventType = "recomputed"
	EventTypeCompensated EventType = "compensated"
)

// EntityType represents the entity the event is about
type EntityType string

const (
	EntityTypeLoan        EntityType = "loan"
	EntityTypeLoanPayment EntityType = "loan_payment"
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeAccount     EntityType = "account"
	EntityTypeReceipt     EntityType = "lead_payment_received"
	EntityTypeFalco       EntityType = "falco_compensation"
)

// Event is a message broadcast to back-office clients watching a route.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"` // Combined type e.g. "loan.created"
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanUpdated creates a loan.updated event
func LoanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoan, payload)
}

// LoanDeleted creates a loan.deleted event
func LoanDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLoan, payload)
}

// LoanRecomputed creates a loan.recomputed event
func LoanRecomputed(payload interface{}) Event {
	return NewEvent(EventTypeRecomputed, EntityTypeLoan, payload)
}

// PaymentCreated creates a loan_payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoanPayment, payload)
}

// PaymentUpdated creates a loan_payment.updated event
func PaymentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoanPayment, payload)
}

// PaymentDeleted creates a loan_payment.deleted event
func PaymentDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLoanPayment, payload)
}

// ReceiptCreated creates a lead_payment_received.created event
func ReceiptCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeReceipt, payload)
}

// FalcoCompensated creates a falco_compensation.compensated event
func FalcoCompensated(payload interface{}) Event {
	return NewEvent(EventTypeCompensated, EntityTypeFalco, payload)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}
