package authflow

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmitInProgress is returned by Submit while a submission is already in flight.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrFlowClosed is returned by Submit after Close, and by a Submit whose result was discarded by Close.
	ErrFlowClosed = errors.New("flow closed")
	// ErrContractViolation marks a 2xx login response without a complete token pair or with an unparseable body.
	ErrContractViolation = errors.New("identity service contract violation")
	// ErrRemoteRejected marks a non-2xx response from the identity service.
	ErrRemoteRejected = errors.New("identity service rejected request")
	// ErrRemoteUnreachable marks a transport failure reaching the identity service.
	ErrRemoteUnreachable = errors.New("identity service unreachable")
	// ErrSessionPersistFailed marks a session store write failure after a successful login.
	ErrSessionPersistFailed = errors.New("session persist failed")
	// ErrClientNotReady is returned when a flow runs against a closed or partially built Client.
	ErrClientNotReady = errors.New("client not ready")
	// ErrInvalidConfig is returned by Config.Validate and Builder.Build.
	ErrInvalidConfig = errors.New("invalid config")

	errResultDiscarded = errors.New("result discarded")
)

// FlowError is the error returned by a failed submission.
//
// errors.Is matches both Kind (one of the sentinels above) and the underlying
// cause in Err.
type FlowError struct {
	Kind    error
	Message string
	Err     error
}

func newFlowError(kind error, message string, cause error) error {
	return &FlowError{Kind: kind, Message: message, Err: cause}
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("authflow: %v", e.Kind)
	}
	return fmt.Sprintf("authflow: %v: %v", e.Kind, e.Err)
}

func (e *FlowError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// MessageOf returns the user-facing message carried by err, or "" when err is
// not a *FlowError.
func MessageOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return ""
}
