// Package trace emits sequence-numbered debug lines for diagnosing link and
// image resolution decisions. A Tracer is scoped to one synchronization run
// and threaded through explicitly, so no counter state leaks across runs.
package trace

import (
	"log/slog"
)

// Tracer numbers debug steps within one run. The zero sequence starts at 1.
// A nil Tracer is valid and discards every step.
type Tracer struct {
	logger  *slog.Logger
	scope   string
	enabled bool
	seq     int
}

// New creates a Tracer writing scope-prefixed debug lines to logger.
// When enabled is false every Step call is a no-op.
func New(logger *slog.Logger, scope string, enabled bool) *Tracer {
	return &Tracer{logger: logger, scope: scope, enabled: enabled}
}

// Step logs one numbered trace line. Safe on a nil or disabled Tracer.
func (t *Tracer) Step(msg string, args ...any) {
	if t == nil || !t.enabled {
		return
	}
	t.seq++
	attrs := []any{slog.String("scope", t.scope), slog.Int("seq", t.seq)}
	attrs = append(attrs, args...)
	t.logger.Debug(msg, attrs...)
}
