package flows

import (
	"context"
	"errors"

	"github.com/chatline/authflow/identity"
)

// RegisterResult is the flow-local successful registration outcome.
type RegisterResult struct {
	Message string
}

// RegisterMetrics carries metric IDs needed by the registration flow.
type RegisterMetrics struct {
	RegisterSuccess      int
	RegisterRejected     int
	RegisterUnreachable  int
	StaleResultDiscarded int
}

// RegisterEvents carries audit event names used by the registration flow.
type RegisterEvents struct {
	RegisterSuccess string
	RegisterFailure string
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Hooks

	Register   func(context.Context, identity.RegisterRequest) (*identity.RegisterResponse, error)
	NewFailure Failure

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  Errors
}

// RunRegister submits the registration form once. It never creates a session.
func RunRegister(ctx context.Context, req identity.RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	deps.fill()
	if deps.Register == nil || deps.NewFailure == nil {
		return nil, deps.Errors.ClientNotReady
	}

	start := deps.Now()
	resp, err := deps.Register(ctx, req)
	deps.ObserveLatency(deps.Now().Sub(start))
	req.Password = ""

	if deps.Stale() {
		deps.MetricInc(deps.Metrics.StaleResultDiscarded)
		return nil, deps.Errors.Discarded
	}

	// A 2xx body that is not a JSON object carries no message; the account
	// was still created.
	if errors.Is(err, identity.ErrMalformedResponse) {
		deps.Warn("authflow: register response body was not a JSON object")
		resp, err = &identity.RegisterResponse{}, nil
	}

	if err != nil {
		var remote *identity.RemoteError
		if errors.As(err, &remote) {
			message := MessageRegistrationFailed
			switch {
			case remote.Code != "":
				message = remote.Code
			case remote.Message != "":
				message = remote.Message
			}
			deps.MetricInc(deps.Metrics.RegisterRejected)
			deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, req.Username, deps.Errors.RemoteRejected, func() map[string]string {
				return remoteMeta("rejected", remote)
			})
			return nil, deps.NewFailure(deps.Errors.RemoteRejected, message, err)
		}

		deps.MetricInc(deps.Metrics.RegisterUnreachable)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, req.Username, deps.Errors.RemoteUnreachable, func() map[string]string {
			return map[string]string{"reason": "unreachable"}
		})
		return nil, deps.NewFailure(deps.Errors.RemoteUnreachable, MessageRegistrationFailed, err)
	}

	message := resp.Message
	if message == "" {
		message = MessageRegisterSucceeded
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, req.Username, nil, func() map[string]string {
		if req.ProfileImage == nil || len(req.ProfileImage.Data) == 0 {
			return nil
		}
		return map[string]string{"profile_image": "attached"}
	})

	return &RegisterResult{Message: message}, nil
}
