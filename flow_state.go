package authflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// flowState is the mutex-guarded status shared by LoginFlow and
// RegistrationFlow. At most one submission runs at a time.
type flowState struct {
	kind     FlowKind
	client   *Client
	handlers []EventHandler

	mu     sync.Mutex
	status Status
	closed bool
	cancel context.CancelFunc
}

// FlowOption customizes a flow at construction.
type FlowOption func(*flowState)

// OnEvent registers h to receive every status transition of the flow.
func OnEvent(h EventHandler) FlowOption {
	return func(s *flowState) {
		if h != nil {
			s.handlers = append(s.handlers, h)
		}
	}
}

func newFlowState(kind FlowKind, c *Client, opts []FlowOption) *flowState {
	s := &flowState{kind: kind, client: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// begin moves the flow to Submitting and returns the context the single
// request runs under. Close cancels that context.
func (s *flowState) begin(ctx context.Context) (context.Context, error) {
	if s.client == nil || s.client.closed.Load() {
		return nil, ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrFlowClosed
	}
	if s.status.Phase == PhaseSubmitting {
		s.mu.Unlock()
		s.client.metrics.Inc(MetricSubmitRejected)
		return nil, ErrSubmitInProgress
	}
	if requestIDFromContext(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status = Status{Phase: PhaseSubmitting}
	s.mu.Unlock()

	s.emit(Event{Flow: s.kind, Status: Status{Phase: PhaseSubmitting}})
	return runCtx, nil
}

// finish records the outcome. It reports false, and changes nothing, when the
// flow was closed while the request was in flight.
func (s *flowState) finish(ev Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = ev.Status
	s.mu.Unlock()

	ev.Flow = s.kind
	s.emit(ev)
	return true
}

func (s *flowState) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// guarded runs fn under the state lock unless the flow is closed. Close waits
// for fn to return.
func (s *flowState) guarded(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errResultDiscarded
	}
	return fn()
}

func (s *flowState) edit() {
	s.mu.Lock()
	if s.closed || s.status.Phase != PhaseFailed {
		s.mu.Unlock()
		return
	}
	s.status = Status{Phase: PhaseIdle}
	s.mu.Unlock()

	s.emit(Event{Flow: s.kind, Status: Status{Phase: PhaseIdle}})
}

func (s *flowState) current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *flowState) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *flowState) emit(ev Event) {
	for _, h := range s.handlers {
		h(ev)
	}
}
