package authflow

import (
	"time"

	"github.com/chatline/authflow/identity"
)

// LoginCredentials is the login form. Required fields are enforced by the
// input collector, not by the flow.
type LoginCredentials struct {
	Username string
	Password string
}

// ProfileImage is an optional registration attachment. An empty ContentType
// is sniffed from Data.
type ProfileImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegistrationCredentials is the registration form.
type RegistrationCredentials struct {
	Username     string
	Email        string
	Password     string
	ProfileImage *ProfileImage
}

func (c RegistrationCredentials) request() identity.RegisterRequest {
	req := identity.RegisterRequest{
		Username: c.Username,
		Email:    c.Email,
		Password: c.Password,
	}
	if c.ProfileImage != nil && len(c.ProfileImage.Data) > 0 {
		req.ProfileImage = &identity.Attachment{
			Filename:    c.ProfileImage.Filename,
			ContentType: c.ProfileImage.ContentType,
			Data:        c.ProfileImage.Data,
		}
	}
	return req
}

// Phase is the lifecycle position of a flow.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a flow's current phase and user-facing message.
type Status struct {
	Phase   Phase
	Message string
}

// FlowKind names the flow that produced an Event.
type FlowKind string

const (
	FlowLogin    FlowKind = "login"
	FlowRegister FlowKind = "register"
)

// Navigation asks the shell to move to Route once After has elapsed.
type Navigation struct {
	Route string
	After time.Duration
}

// Event is emitted on every status transition. Navigation is set only on the
// Succeeded event; Err is set only on the Failed event.
type Event struct {
	Flow       FlowKind
	Status     Status
	Navigation *Navigation
	Err        error
}

// EventHandler receives flow events synchronously, in transition order.
type EventHandler func(Event)
