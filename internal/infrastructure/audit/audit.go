// Package audit writes an append-only, structured record of every
// transaction's lifecycle (claim, commit, abort) using zerolog. This is
// distinct from internal/infrastructure/logging's human-facing operational
// log: the audit ledger is one JSON object per line, meant for offline
// replay and compliance review rather than a terminal, which is why it
// uses rs/zerolog (declared but unused by the teacher) rather than
// reusing the charmbracelet/log adapter wired for console-oriented output.
package audit

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/kernelkit/confd/internal/domain/generation"
)

// Ledger appends one JSON record per transaction lifecycle event.
type Ledger struct {
	logger zerolog.Logger
}

// New returns a Ledger writing newline-delimited JSON to w.
func New(w io.Writer) *Ledger {
	return &Ledger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Claimed records that a transaction claimed a generation number.
func (l *Ledger) Claimed(requestID string, gen generation.Number) {
	l.logger.Info().
		Str("request_id", requestID).
		Int("generation", int(gen)).
		Str("event", "claimed").
		Msg("generation claimed")
}

// Committed records a successful DONE that evolved a generation to current.
func (l *Ledger) Committed(requestID string, gen generation.Number) {
	l.logger.Info().
		Str("request_id", requestID).
		Int("generation", int(gen)).
		Str("event", "committed").
		Msg("transaction committed")
}

// Aborted records a transaction that was abandoned, with the reason given
// by the translator (or datastore) that triggered the ABORT.
func (l *Ledger) Aborted(requestID string, gen generation.Number, reason string) {
	l.logger.Warn().
		Str("request_id", requestID).
		Int("generation", int(gen)).
		Str("event", "aborted").
		Str("reason", reason).
		Msg("transaction aborted")
}
