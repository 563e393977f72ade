// Package diagnostics aggregates the non-fatal warnings a document load
// or render frame can accumulate (link failures, missing
// strings/styles/resources, backend errors) and defines the CLI's
// three-way exit code.
package diagnostics

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/google/uuid"
)

// ExitCode is the process exit status reported by the CLI.
type ExitCode int

const (
	ExitOK           ExitCode = 0
	ExitParseError   ExitCode = 1
	ExitRuntimeError ExitCode = 2
)

// Batch accumulates non-fatal diagnostics for one load/render session,
// tagged with a session ID so operators can tell apart the warnings of
// two runs writing to the same log stream.
type Batch struct {
	SessionID uuid.UUID
	log       *zap.Logger
	err       error
}

// NewBatch creates a diagnostics batch tagged with a fresh session ID.
func NewBatch(log *zap.Logger) *Batch {
	return &Batch{SessionID: uuid.New(), log: log}
}

// Add appends a non-fatal diagnostic and logs it at warn level.
func (b *Batch) Add(err error) {
	if err == nil {
		return
	}
	b.err = multierr.Append(b.err, err)
	if b.log != nil {
		b.log.Warn("diagnostic", zap.String("session", b.SessionID.String()), zap.Error(err))
	}
}

// AddAll appends every non-nil error in errs.
func (b *Batch) AddAll(errs []error) {
	for _, err := range errs {
		b.Add(err)
	}
}

// Errors returns the aggregated diagnostics, or nil if none were added.
func (b *Batch) Errors() error { return b.err }

// Len reports how many diagnostics have been recorded.
func (b *Batch) Len() int { return len(multierr.Errors(b.err)) }

// NewConsoleCore builds a bare zapcore.Core writing to the given
// WriteSyncer, for callers that need a logger without pulling in the
// full applog console setup.
func NewConsoleCore(ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	return zapcore.NewCore(zapcore.NewConsoleEncoder(ec), ws, zap.NewAtomicLevelAt(level))
}
