package authflow

import (
	"context"
	"errors"

	"github.com/chatline/authflow/internal/flows"
)

// RegistrationFlow submits the registration form and, on success, asks the
// shell to navigate to the login view. It never creates a session.
type RegistrationFlow struct {
	state *flowState
}

// NewRegistrationFlow returns an Idle registration flow bound to c.
func (c *Client) NewRegistrationFlow(opts ...FlowOption) *RegistrationFlow {
	return &RegistrationFlow{state: newFlowState(FlowRegister, c, opts)}
}

// Submit runs one registration attempt with the same in-flight and close
// rules as LoginFlow.Submit.
func (f *RegistrationFlow) Submit(ctx context.Context, creds RegistrationCredentials) error {
	runCtx, err := f.state.begin(ctx)
	if err != nil {
		return err
	}

	c := f.state.client
	deps := c.flowDeps.Register
	deps.Stale = f.state.isClosed

	res, err := flows.RunRegister(runCtx, creds.request(), deps)
	if errors.Is(err, errResultDiscarded) {
		return ErrFlowClosed
	}
	if err != nil {
		if !f.state.finish(Event{Status: Status{Phase: PhaseFailed, Message: MessageOf(err)}, Err: err}) {
			return ErrFlowClosed
		}
		return err
	}

	nav := &Navigation{Route: c.config.Navigation.LoginRoute, After: c.config.Navigation.RegisterRedirectDelay}
	if !f.state.finish(Event{Status: Status{Phase: PhaseSucceeded, Message: res.Message}, Navigation: nav}) {
		return ErrFlowClosed
	}
	return nil
}

// Edit records a field edit. A Failed flow returns to Idle.
func (f *RegistrationFlow) Edit() { f.state.edit() }

// Status returns the current phase and message.
func (f *RegistrationFlow) Status() Status { return f.state.current() }

// Close unmounts the flow. An in-flight result is discarded.
func (f *RegistrationFlow) Close() { f.state.close() }
