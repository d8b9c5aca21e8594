package flows

import (
	"context"
	"errors"
	"strconv"

	"github.com/chatline/authflow/identity"
	"github.com/chatline/authflow/session"
)

// LoginResult is the flow-local successful login outcome.
type LoginResult struct {
	Session session.Session
	Message string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess           int
	LoginRejected          int
	LoginUnreachable       int
	LoginContractViolation int
	LoginPersistFailed     int
	SessionSaved           int
	StaleResultDiscarded   int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Hooks

	Login       func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error)
	SaveSession func(context.Context, session.Session) error
	NewFailure  Failure

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  Errors
}

// RunLogin submits credentials once, validates the returned token pair and
// persists it. The store is written only when both tokens are present and the
// caller has not gone stale.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*LoginResult, error) {
	deps.fill()
	if deps.Login == nil || deps.SaveSession == nil || deps.NewFailure == nil {
		return nil, deps.Errors.ClientNotReady
	}

	start := deps.Now()
	resp, err := deps.Login(ctx, identity.LoginRequest{Username: username, Password: password})
	deps.ObserveLatency(deps.Now().Sub(start))
	password = ""

	if deps.Stale() {
		deps.MetricInc(deps.Metrics.StaleResultDiscarded)
		return nil, deps.Errors.Discarded
	}

	if err != nil {
		return nil, loginFailure(ctx, username, err, deps)
	}

	tokens := session.Tokens{Access: resp.Access, Refresh: resp.Refresh}
	if !tokens.Valid() {
		deps.MetricInc(deps.Metrics.LoginContractViolation)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.ContractViolation, func() map[string]string {
			return map[string]string{
				"reason":  "missing_tokens",
				"access":  presence(tokens.Access),
				"refresh": presence(tokens.Refresh),
			}
		})
		return nil, deps.NewFailure(deps.Errors.ContractViolation, MessageInvalidResponse, session.ErrPartialTokens)
	}

	display := resp.Username
	if display == "" {
		deps.Warn("authflow: login response omitted username, using submitted value")
		display = username
	}

	sess := session.Session{Username: display, Tokens: tokens, SavedAt: deps.Now()}
	if err := deps.SaveSession(ctx, sess); err != nil {
		if deps.Errors.Discarded != nil && errors.Is(err, deps.Errors.Discarded) {
			deps.MetricInc(deps.Metrics.StaleResultDiscarded)
			return nil, deps.Errors.Discarded
		}
		deps.MetricInc(deps.Metrics.LoginPersistFailed)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, display, deps.Errors.SessionPersistFailed, func() map[string]string {
			return map[string]string{"reason": "session_persist"}
		})
		return nil, deps.NewFailure(deps.Errors.SessionPersistFailed, MessageSessionNotSaved, err)
	}

	deps.MetricInc(deps.Metrics.SessionSaved)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, display, nil, nil)

	return &LoginResult{Session: sess, Message: MessageLoginSucceeded}, nil
}

func loginFailure(ctx context.Context, username string, err error, deps LoginDeps) error {
	if errors.Is(err, identity.ErrMalformedResponse) {
		deps.MetricInc(deps.Metrics.LoginContractViolation)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.ContractViolation, func() map[string]string {
			return map[string]string{"reason": "malformed_response"}
		})
		return deps.NewFailure(deps.Errors.ContractViolation, MessageInvalidResponse, err)
	}

	var remote *identity.RemoteError
	if errors.As(err, &remote) {
		message := MessageLoginFailed
		if remote.Code != "" {
			message = remote.Code
		}
		deps.MetricInc(deps.Metrics.LoginRejected)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.RemoteRejected, func() map[string]string {
			return remoteMeta("rejected", remote)
		})
		return deps.NewFailure(deps.Errors.RemoteRejected, message, err)
	}

	deps.MetricInc(deps.Metrics.LoginUnreachable)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, username, deps.Errors.RemoteUnreachable, func() map[string]string {
		return map[string]string{"reason": "unreachable"}
	})
	return deps.NewFailure(deps.Errors.RemoteUnreachable, MessageLoginFailed, err)
}

func remoteMeta(reason string, remote *identity.RemoteError) map[string]string {
	meta := map[string]string{
		"reason": reason,
		"status": strconv.Itoa(remote.StatusCode),
	}
	if remote.RequestID != "" {
		meta["remote_request_id"] = remote.RequestID
	}
	return meta
}

func presence(v string) string {
	if v == "" {
		return "missing"
	}
	return "present"
}
