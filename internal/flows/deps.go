package flows

import (
	"context"
	"time"
)

// Failure is the host-level constructor for a failed submission. kind is one
// of the host's sentinel errors, message is the user-facing text, and cause is
// the underlying error (may be nil).
type Failure func(kind error, message string, cause error) error

// AuditFunc emits one audit event. meta is evaluated lazily.
type AuditFunc func(ctx context.Context, event string, success bool, username string, err error, meta func() map[string]string)

// Hooks are the ambient dependencies shared by every flow.
type Hooks struct {
	Now            func() time.Time
	MetricInc      func(int)
	ObserveLatency func(time.Duration)
	EmitAudit      AuditFunc
	Warn           func(string, ...any)
	// Stale reports whether the caller no longer wants the result. It is
	// checked once the remote call settles and before any store write.
	Stale func() bool
}

func (h *Hooks) fill() {
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.MetricInc == nil {
		h.MetricInc = func(int) {}
	}
	if h.ObserveLatency == nil {
		h.ObserveLatency = func(time.Duration) {}
	}
	if h.EmitAudit == nil {
		h.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if h.Warn == nil {
		h.Warn = func(string, ...any) {}
	}
	if h.Stale == nil {
		h.Stale = func() bool { return false }
	}
}

// Errors carries host-level sentinel errors.
type Errors struct {
	ClientNotReady       error
	ContractViolation    error
	RemoteRejected       error
	RemoteUnreachable    error
	SessionPersistFailed error
	// Discarded is returned when Stale reported true. Callers must drop the
	// result without touching user-visible state.
	Discarded error
}

// Deps groups flow dependency sets. The root Client builds this once and
// copies the matching set into each flow instance.
type Deps struct {
	Login    LoginDeps
	Register RegisterDeps
	Logout   LogoutDeps
}
