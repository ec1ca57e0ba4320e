package generation

import "sync"

// Status is the terminal or in-flight state of a transaction (spec §4.1).
type Status string

const (
	StatusOpen      Status = "open"
	StatusCommitted Status = "committed"
	StatusAbandoned Status = "abandoned"
)

// TransactionState tracks how many subscribed modules still have a pending
// CHANGE callback outstanding for the currently open transaction (spec §3:
// "Transaction State"). The generation runner executes only once this
// reaches zero during DONE, and the generation is abandoned if any module
// signals ABORT.
type TransactionState struct {
	mu      sync.Mutex
	pending int
	status  Status
	gen     Number
}

// NewTransactionState returns a TransactionState with no generation claimed.
func NewTransactionState() *TransactionState {
	return &TransactionState{status: StatusOpen, gen: None}
}

// IncrementPending is called once per CHANGE event delivered to a module.
func (t *TransactionState) IncrementPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
}

// DecrementAndCheck is called on DONE; it returns true when the count has
// reached zero, meaning every module has validated and the generation
// runner may proceed.
func (t *TransactionState) DecrementAndCheck() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending > 0 {
		t.pending--
	}
	return t.pending == 0
}

// Reset is called on ABORT; it clears the pending count back to zero.
func (t *TransactionState) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = 0
}

// Pending reports the current outstanding-callback count.
func (t *TransactionState) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// SetGeneration records which generation number this transaction has
// claimed from the dagger.
func (t *TransactionState) SetGeneration(n Number) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen = n
}

// Generation returns the generation number claimed by this transaction, or
// None if no CHANGE event has opened one yet.
func (t *TransactionState) Generation() Number {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Finish marks the transaction COMMITTED or ABANDONED, its terminal state.
func (t *TransactionState) Finish(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Status reports the transaction's current status.
func (t *TransactionState) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
