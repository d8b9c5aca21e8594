package authflow

import (
	"context"
	"errors"

	"github.com/chatline/authflow/internal/flows"
	"github.com/chatline/authflow/session"
)

// LoginFlow submits credentials, persists the returned token pair and asks
// the shell to navigate to the authenticated area.
//
// A LoginFlow is safe for concurrent use. It runs at most one submission at a
// time.
type LoginFlow struct {
	state *flowState
}

// NewLoginFlow returns an idle login flow bound to c's identity service and
// session store.
func (c *Client) NewLoginFlow(opts ...FlowOption) *LoginFlow {
	return &LoginFlow{state: newFlowState(FlowLogin, c, opts)}
}

// Submit runs one login attempt. It returns nil on success, a *FlowError on
// failure, ErrSubmitInProgress while another attempt is in flight, and
// ErrFlowClosed after Close. When Close lands before the session is written,
// the result is discarded and the store is not touched. When it lands after,
// Submit returns nil but emits no event.
func (f *LoginFlow) Submit(ctx context.Context, creds LoginCredentials) error {
	runCtx, err := f.state.begin(ctx)
	if err != nil {
		return err
	}

	c := f.state.client
	deps := c.flowDeps.Login
	deps.Stale = f.state.isClosed
	deps.SaveSession = func(ctx context.Context, s session.Session) error {
		return f.state.guarded(func() error {
			return c.store.Save(ctx, s)
		})
	}

	res, err := flows.RunLogin(runCtx, creds.Username, creds.Password, deps)
	if errors.Is(err, errResultDiscarded) {
		return ErrFlowClosed
	}
	if err != nil {
		if !f.state.finish(Event{Status: Status{Phase: PhaseFailed, Message: MessageOf(err)}, Err: err}) {
			return ErrFlowClosed
		}
		return err
	}

	nav := &Navigation{Route: c.config.Navigation.AuthenticatedRoute, After: c.config.Navigation.LoginRedirectDelay}
	// The session is stored by now. A Close racing this point only suppresses the event.
	f.state.finish(Event{Status: Status{Phase: PhaseSucceeded, Message: res.Message}, Navigation: nav})
	return nil
}

// Edit records a field edit. A Failed flow returns to Idle and its message is cleared.
func (f *LoginFlow) Edit() { f.state.edit() }

// Status returns the current phase and message.
func (f *LoginFlow) Status() Status { return f.state.current() }

// Close unmounts the flow. Idempotent.
func (f *LoginFlow) Close() { f.state.close() }
