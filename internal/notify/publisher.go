// internal/notify/publisher.go
package notify

import (
	"context"
	"time"
)

// EventType names a ledger event. It is also the subject suffix.
type EventType string

const (
	EventCardCreated   EventType = "card.created"
	EventCardDestroyed EventType = "card.destroyed"
	EventDeposit       EventType = "deposit"
	EventWithdraw      EventType = "withdraw"
	EventTransfer      EventType = "transfer"
)

// Event describes one committed ledger mutation.
// For transfers CardID/OwnerID are the sender and the Counterparty fields the receiver.
type Event struct {
	Type                EventType `json:"type"`
	CardID              string    `json:"card_id"`
	OwnerID             string    `json:"owner_id"`
	CounterpartyCardID  string    `json:"counterparty_card_id,omitempty"`
	CounterpartyOwnerID string    `json:"counterparty_owner_id,omitempty"`
	Amount              int64     `json:"amount,omitempty"`
	Balance             int64     `json:"balance"`
	At                  time.Time `json:"at"`
}

// Publisher delivers ledger events. Delivery is best effort; the ledger
// never fails an operation because an event could not be sent.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
