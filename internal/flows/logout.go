package flows

import (
	"context"
	"errors"

	"github.com/chatline/authflow/session"
)

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout         int
	SessionCleared int
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Hooks

	LoadSession  func(context.Context) (*session.Session, error)
	ClearSession func(context.Context) error

	Metrics LogoutMetrics
	Event   string
	Errors  Errors
}

// RunLogout clears the stored session. Clearing an empty store succeeds.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	deps.fill()
	if deps.ClearSession == nil {
		return deps.Errors.ClientNotReady
	}

	username := ""
	if deps.LoadSession != nil {
		if sess, err := deps.LoadSession(ctx); err == nil {
			username = sess.Username
		} else if !errors.Is(err, session.ErrNoSession) {
			deps.Warn("authflow: could not read session before logout", "error", err)
		}
	}

	if err := deps.ClearSession(ctx); err != nil {
		deps.EmitAudit(ctx, deps.Event, false, username, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.SessionCleared)
	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Event, true, username, nil, nil)
	return nil
}
