package events

import (
	"context"
	"math/big"
	"sync"

	"github.com/shubhamku044/cross-chain-rebase-token/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRateChanged      EventType = "rate_changed"
	EventTypePrincipalChanged EventType = "principal_changed"
	EventTypeRoleGranted      EventType = "role_granted"
	EventTypeRoleRevoked      EventType = "role_revoked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RateChangedEvent is emitted whenever the global rate is successfully
// lowered (or re-set). Observers such as indexers and the bridge track
// rate history through it.
type RateChangedEvent struct {
	OldRate   *big.Int
	NewRate   *big.Int
	ChangedBy string
}

func (e RateChangedEvent) Type() EventType {
	return EventTypeRateChanged
}

// PrincipalChangedEvent represents a realized principal change on one
// account, including interest realized by settlement.
type PrincipalChangedEvent struct {
	Address         string
	PrincipalBefore *big.Int
	PrincipalAfter  *big.Int
	ChangeAmount    *big.Int
	EntryType       models.EntryType
}

func (e PrincipalChangedEvent) Type() EventType {
	return EventTypePrincipalChanged
}

// RoleGrantedEvent represents a role grant by the owner
type RoleGrantedEvent struct {
	Address   string
	Role      models.Role
	GrantedBy string
}

func (e RoleGrantedEvent) Type() EventType {
	return EventTypeRoleGranted
}

// RoleRevokedEvent represents a role revocation by the owner
type RoleRevokedEvent struct {
	Address   string
	Role      models.Role
	RevokedBy string
}

func (e RoleRevokedEvent) Type() EventType {
	return EventTypeRoleRevoked
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
// A rolled-back operation therefore emits nothing.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful DB commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus")

	// Events outlive the transaction context that produced them.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after a DB rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
