// Package transaction implements the change-dispatch engine (spec §4.1):
// the UPDATE/CHANGE/DONE/ABORT state machine that turns a datastore's raw
// notifications into ordered translator callbacks and, on a successful
// DONE, a generation-runner invocation. Grounded on
// original_source/src/confd/src/core.c's change_cb/core_post_hook pair for
// the event-dispatch shape, and on the teacher's
// internal/infrastructure/engine/executor.go for the "inject every
// collaborator via functional options, record outcomes via logger/events/
// metrics" structure.
package transaction

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(l ports.Logger) Option          { return func(c *Coordinator) { c.logger = l } }
func WithEvents(p ports.EventPublisher) Option  { return func(c *Coordinator) { c.events = p } }
func WithMetrics(m ports.MetricsCollector) Option { return func(c *Coordinator) { c.metrics = m } }
func WithAudit(a Auditor) Option                { return func(c *Coordinator) { c.audit = a } }

// Auditor is the subset of internal/infrastructure/audit.Ledger the
// coordinator depends on, kept as a small interface so tests can supply a
// fake instead of constructing a real zerolog writer.
type Auditor interface {
	Claimed(requestID string, gen generation.Number)
	Committed(requestID string, gen generation.Number)
	Aborted(requestID string, gen generation.Number, reason string)
}

// Coordinator drives one or more sequential transactions against a shared
// dagger, translator registry, and generation runner. It is not safe for
// concurrent transactions — spec §5 states there is exactly one
// configuration writer at a time, and the coordinator enforces that by
// construction rather than with a lock: HandleEvent is always invoked
// synchronously from the datastore's single dispatch goroutine.
type Coordinator struct {
	registry ports.TranslatorRegistry
	dagger   ports.Dagger
	runner   ports.GenerationRunner

	logger  ports.Logger
	events  ports.EventPublisher
	metrics ports.MetricsCollector
	audit   Auditor

	state *generation.TransactionState
}

// New returns a Coordinator wired to the given collaborators.
func New(registry ports.TranslatorRegistry, dagger ports.Dagger, runner ports.GenerationRunner, opts ...Option) *Coordinator {
	c := &Coordinator{registry: registry, dagger: dagger, runner: runner}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleEvent implements ports.ChangeHandler, the callback a Datastore
// invokes once per lifecycle event.
func (c *Coordinator) HandleEvent(ctx context.Context, requestID string, ev translator.Event, diff []configtree.DiffEntry) error {
	ctx = ports.WithCorrelationID(ctx, requestID)
	switch ev {
	case translator.EventUpdate:
		return c.handleUpdate(ctx, requestID, diff)
	case translator.EventChange:
		return c.handleChange(ctx, requestID, diff)
	case translator.EventDone:
		return c.handleDone(ctx, requestID)
	case translator.EventAbort:
		return c.handleAbort(ctx, requestID, diff)
	default:
		return confderr.New(confderr.ErrCodeValidation, "unknown lifecycle event",
			map[string]interface{}{"event": string(ev)})
	}
}

// handleUpdate gives translators that opted in (Metadata.WantsUpdate) a
// chance to infer default leaves before validation runs, per spec §4.3's
// "UPDATE-time leaf inference". No dagger is available yet — nothing is
// staged during UPDATE.
func (c *Coordinator) handleUpdate(ctx context.Context, requestID string, diff []configtree.DiffEntry) error {
	if c.events != nil {
		c.events.Publish(ctx, lifecycleEvent{typ: ports.EventTransactionUpdate, requestID: requestID})
	}
	for _, t := range c.registry.Ordered() {
		if !t.Metadata().WantsUpdate {
			continue
		}
		scoped := configtree.DiffUnder(diff, t.Metadata().XPath)
		if len(scoped) == 0 {
			continue
		}
		if err := t.HandleEvent(ctx, translator.EventUpdate, scoped, nil); err != nil {
			c.logError(ctx, requestID, t, err)
			return err
		}
	}
	return nil
}

// handleChange claims a generation, then dispatches CHANGE to every
// translator in priority order, vetoing the whole transaction if any
// translator returns an error (spec §4.1: "a module may veto a proposed
// change by returning an error from CHANGE").
func (c *Coordinator) handleChange(ctx context.Context, requestID string, diff []configtree.DiffEntry) error {
	gen, err := c.dagger.Claim(ctx)
	if err != nil {
		return err
	}
	c.state = generation.NewTransactionState()
	c.state.SetGeneration(gen)
	if c.audit != nil {
		c.audit.Claimed(requestID, gen)
	}
	if c.events != nil {
		c.events.Publish(ctx, lifecycleEvent{typ: ports.EventGenerationClaimed, requestID: requestID, gen: gen})
	}

	for _, t := range c.registry.Ordered() {
		scoped := configtree.DiffUnder(diff, t.Metadata().XPath)
		if len(scoped) == 0 {
			continue
		}
		c.state.IncrementPending()
		if err := t.HandleEvent(ctx, translator.EventChange, scoped, c.dagger); err != nil {
			c.logError(ctx, requestID, t, err)
			c.abandon(ctx, requestID, err.Error())
			return err
		}
	}

	if c.events != nil {
		c.events.Publish(ctx, lifecycleEvent{typ: ports.EventTransactionChange, requestID: requestID, gen: gen})
	}
	return nil
}

// handleDone runs the generation runner once every translator's pending
// CHANGE callback has completed, per spec §4.1's pending-count rule. The
// datastore delivers one DONE per transaction, covering every translator
// that received CHANGE, so the whole pending count is drained here.
func (c *Coordinator) handleDone(ctx context.Context, requestID string) error {
	if c.state == nil {
		return confderr.New(confderr.ErrCodeState, "DONE received with no open transaction", nil)
	}
	for !c.state.DecrementAndCheck() {
	}

	gen := c.state.Generation()
	if err := c.runner.Run(ctx, gen); err != nil {
		c.logError(ctx, requestID, nil, err)
		return err
	}

	c.state.Finish(generation.StatusCommitted)
	if c.audit != nil {
		c.audit.Committed(requestID, gen)
	}
	if c.events != nil {
		c.events.Publish(ctx, lifecycleEvent{typ: ports.EventTransactionCommitted, requestID: requestID, gen: gen})
	}
	if c.metrics != nil {
		c.metrics.IncCounter(ctx, "confd_transactions_total", map[string]string{"status": "committed"})
	}
	c.state = nil
	return nil
}

// handleAbort discards the claimed generation without running it.
func (c *Coordinator) handleAbort(ctx context.Context, requestID string, diff []configtree.DiffEntry) error {
	c.abandon(ctx, requestID, "datastore requested abort")
	return nil
}

func (c *Coordinator) abandon(ctx context.Context, requestID, reason string) {
	gen := generation.None
	if c.state != nil {
		gen = c.state.Generation()
		c.state.Reset()
		c.state.Finish(generation.StatusAbandoned)
	}
	abandonErr := c.dagger.Abandon(ctx)
	if abandonErr != nil && c.logger != nil {
		c.logger.Error(ctx, "failed to abandon generation", "error", abandonErr)
	}
	if c.audit != nil {
		c.audit.Aborted(requestID, gen, reason)
	}
	if c.events != nil {
		c.events.Publish(ctx, lifecycleEvent{typ: ports.EventTransactionAborted, requestID: requestID, gen: gen})
		if abandonErr == nil {
			c.events.Publish(ctx, lifecycleEvent{typ: ports.EventGenerationAbandoned, requestID: requestID, gen: gen})
		}
	}
	if c.metrics != nil {
		c.metrics.IncCounter(ctx, "confd_transactions_total", map[string]string{"status": "aborted"})
	}
	c.state = nil
}

func (c *Coordinator) logError(ctx context.Context, requestID string, t ports.Translator, err error) {
	if c.logger == nil {
		return
	}
	fields := []interface{}{"request_id", requestID, "error", err}
	if t != nil {
		fields = append(fields, "translator", string(t.Metadata().Type))
	}
	c.logger.Error(ctx, "translator rejected change", fields...)
}

type lifecycleEvent struct {
	typ       string
	requestID string
	gen       generation.Number
}

func (e lifecycleEvent) EventType() string { return e.typ }
func (e lifecycleEvent) Payload() interface{} {
	return map[string]interface{}{"request_id": e.requestID, "generation": int(e.gen)}
}
