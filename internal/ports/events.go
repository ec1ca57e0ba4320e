package ports

import "context"

const (
	// EventTransactionUpdate fires when the datastore delivers an UPDATE
	// notification ahead of the edit (spec §4.1).
	EventTransactionUpdate = "transaction.update"
	// EventTransactionChange fires once a CHANGE has been dispatched to every
	// subscribed translator.
	EventTransactionChange = "transaction.change"
	// EventTransactionCommitted fires when a DONE has driven the generation
	// runner to completion.
	EventTransactionCommitted = "transaction.committed"
	// EventTransactionAborted fires when any translator rejects a CHANGE or
	// the datastore sends ABORT.
	EventTransactionAborted = "transaction.aborted"
	// EventGenerationClaimed fires when the dagger hands out a fresh
	// generation number.
	EventGenerationClaimed = "generation.claimed"
	// EventGenerationEvolved fires when a generation is promoted to current.
	EventGenerationEvolved = "generation.evolved"
	// EventGenerationAbandoned fires when a generation's scratch area is
	// discarded without being promoted.
	EventGenerationAbandoned = "generation.abandoned"
	// EventActionStarted fires before the runner executes a staged action
	// file.
	EventActionStarted = "runner.action.started"
	// EventActionCompleted fires after a staged action file exits zero.
	EventActionCompleted = "runner.action.completed"
	// EventActionFailed fires after a staged action file exits non-zero or
	// cannot be started.
	EventActionFailed = "runner.action.failed"
)

// DomainEvent represents a significant occurrence within the domain or
// application layer. Events carry structured payloads that downstream
// subscribers can use for logging, auditing, or metrics.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous — Publish blocks until all handlers run — so that audit and
// log signals are durable before the process exits. Handlers may spawn
// goroutines for async work. Implementations must be thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Handlers should avoid
// panicking; failures should be surfaced via returned errors so publishers
// can log diagnostics and continue delivering to remaining subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}
