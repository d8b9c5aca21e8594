package authflow

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	internalaudit "github.com/chatline/authflow/internal/audit"
	"github.com/chatline/authflow/internal/flows"
	internalmetrics "github.com/chatline/authflow/internal/metrics"
	"github.com/chatline/authflow/identity"
	"github.com/chatline/authflow/session"
)

// IdentityService is the remote contract the flows call. *identity.Client
// implements it.
type IdentityService interface {
	Login(context.Context, identity.LoginRequest) (*identity.LoginResponse, error)
	Register(context.Context, identity.RegisterRequest) (*identity.RegisterResponse, error)
}

// Client owns the session store, the identity service client, metrics and the
// audit dispatcher, and hands out flows bound to them. Build one with [New].
type Client struct {
	config   Config
	store    session.Store
	identity IdentityService
	metrics  *internalmetrics.Metrics
	audit    *internalaudit.Dispatcher
	logger   *slog.Logger
	flowDeps flows.Deps
	closed   atomic.Bool
}

// Logout clears the stored session. Logging out with no session succeeds.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	return flows.RunLogout(ctx, c.flowDeps.Logout)
}

// HasValidSession reports whether a complete token pair is stored.
func (c *Client) HasValidSession(ctx context.Context) bool {
	if c == nil || c.store == nil {
		return false
	}
	return c.store.HasValidSession(ctx)
}

// SessionStore returns the store the client persists to.
func (c *Client) SessionStore() session.Store {
	return c.store
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// MetricsSnapshot returns the current metric values. It is empty when metrics
// are disabled.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return (*internalmetrics.Metrics)(nil).Snapshot()
	}
	return c.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close flushes the audit dispatcher. Flows created by c fail with
// ErrClientNotReady afterwards.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.audit.Close()
}

func (c *Client) emitAudit(ctx context.Context, event string, success bool, username string, err error, meta func() map[string]string) {
	if c.audit == nil {
		return
	}
	ev := AuditEvent{
		EventType: event,
		Username:  username,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if meta != nil {
		ev.Metadata = meta()
	}
	c.audit.Emit(ctx, ev)
}

func (c *Client) warn(msg string, args ...any) {
	c.logger.Warn(msg, args...)
}

func (c *Client) buildFlowDeps() {
	errs := flows.Errors{
		ClientNotReady:       ErrClientNotReady,
		ContractViolation:    ErrContractViolation,
		RemoteRejected:       ErrRemoteRejected,
		RemoteUnreachable:    ErrRemoteUnreachable,
		SessionPersistFailed: ErrSessionPersistFailed,
		Discarded:            errResultDiscarded,
	}
	hooks := flows.Hooks{
		Now:       time.Now,
		MetricInc: func(id int) { c.metrics.Inc(MetricID(id)) },
		ObserveLatency: func(d time.Duration) {
			c.metrics.Observe(MetricRemoteLatency, d)
		},
		EmitAudit: c.emitAudit,
		Warn:      c.warn,
	}

	c.flowDeps = flows.Deps{
		Login: flows.LoginDeps{
			Hooks:       hooks,
			Login:       c.identity.Login,
			SaveSession: c.store.Save,
			NewFailure:  newFlowError,
			Metrics: flows.LoginMetrics{
				LoginSuccess:           int(MetricLoginSuccess),
				LoginRejected:          int(MetricLoginRejected),
				LoginUnreachable:       int(MetricLoginUnreachable),
				LoginContractViolation: int(MetricLoginContractViolation),
				LoginPersistFailed:     int(MetricLoginPersistFailed),
				SessionSaved:           int(MetricSessionSaved),
				StaleResultDiscarded:   int(MetricStaleResultDiscarded),
			},
			Events: flows.LoginEvents{
				LoginSuccess: AuditLoginSuccess,
				LoginFailure: AuditLoginFailure,
			},
			Errors: errs,
		},
		Register: flows.RegisterDeps{
			Hooks:      hooks,
			Register:   c.identity.Register,
			NewFailure: newFlowError,
			Metrics: flows.RegisterMetrics{
				RegisterSuccess:      int(MetricRegisterSuccess),
				RegisterRejected:     int(MetricRegisterRejected),
				RegisterUnreachable:  int(MetricRegisterUnreachable),
				StaleResultDiscarded: int(MetricStaleResultDiscarded),
			},
			Events: flows.RegisterEvents{
				RegisterSuccess: AuditRegisterSuccess,
				RegisterFailure: AuditRegisterFailure,
			},
			Errors: errs,
		},
		Logout: flows.LogoutDeps{
			Hooks:        hooks,
			LoadSession:  c.store.Load,
			ClearSession: c.store.Clear,
			Metrics: flows.LogoutMetrics{
				Logout:         int(MetricLogout),
				SessionCleared: int(MetricSessionCleared),
			},
			Event:  AuditLogout,
			Errors: errs,
		},
	}
}

// CurrentSession describes the stored session. It returns session.ErrNoSession
// when nobody is logged in.
func (c *Client) CurrentSession(ctx context.Context) (*SessionInfo, error) {
	if c == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	sess, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.warn("authflow: session load failed", "error", err)
		}
		return nil, err
	}
	return describeSession(sess), nil
}
