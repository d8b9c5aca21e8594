package flows

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chatline/authflow/identity"
	"github.com/chatline/authflow/session"
)

var (
	errNotReady    = errors.New("not ready")
	errContract    = errors.New("contract")
	errRejected    = errors.New("rejected")
	errUnreachable = errors.New("unreachable")
	errPersist     = errors.New("persist")
	errDiscarded   = errors.New("discarded")
)

var testErrors = Errors{
	ClientNotReady:       errNotReady,
	ContractViolation:    errContract,
	RemoteRejected:       errRejected,
	RemoteUnreachable:    errUnreachable,
	SessionPersistFailed: errPersist,
	Discarded:            errDiscarded,
}

type testFailure struct {
	kind    error
	message string
	cause   error
}

func (f *testFailure) Error() string { return fmt.Sprintf("%v: %s", f.kind, f.message) }

func (f *testFailure) Unwrap() []error { return []error{f.kind, f.cause} }

func newTestFailure(kind error, message string, cause error) error {
	return &testFailure{kind: kind, message: message, cause: cause}
}

type recorder struct {
	metrics map[int]int
	events  []string
	saved   []session.Session
	warned  int
}

func newRecorder() *recorder {
	return &recorder{metrics: map[int]int{}}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		MetricInc: func(id int) { r.metrics[id]++ },
		EmitAudit: func(_ context.Context, event string, _ bool, _ string, _ error, meta func() map[string]string) {
			if meta != nil {
				_ = meta()
			}
			r.events = append(r.events, event)
		},
		Warn: func(string, ...any) { r.warned++ },
	}
}

func loginDeps(r *recorder, login func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error)) LoginDeps {
	return LoginDeps{
		Hooks: r.hooks(),
		Login: login,
		SaveSession: func(_ context.Context, s session.Session) error {
			r.saved = append(r.saved, s)
			return nil
		},
		NewFailure: newTestFailure,
		Metrics: LoginMetrics{
			LoginSuccess:           1,
			LoginRejected:          2,
			LoginUnreachable:       3,
			LoginContractViolation: 4,
			LoginPersistFailed:     5,
			SessionSaved:           6,
			StaleResultDiscarded:   7,
		},
		Events: LoginEvents{LoginSuccess: "login_success", LoginFailure: "login_failure"},
		Errors: testErrors,
	}
}

func failureOf(t *testing.T, err error) *testFailure {
	t.Helper()
	var f *testFailure
	if !errors.As(err, &f) {
		t.Fatalf("expected flow failure, got %v", err)
	}
	return f
}

func TestRunLoginSuccessPersistsServerUsername(t *testing.T) {
	r := newRecorder()
	var sent identity.LoginRequest
	deps := loginDeps(r, func(_ context.Context, req identity.LoginRequest) (*identity.LoginResponse, error) {
		sent = req
		return &identity.LoginResponse{Access: "A", Refresh: "R", Username: "Alice"}, nil
	})

	res, err := RunLogin(context.Background(), "alice", "secret", deps)
	if err != nil {
		t.Fatalf("RunLogin failed: %v", err)
	}
	if sent.Username != "alice" || sent.Password != "secret" {
		t.Fatalf("unexpected request %+v", sent)
	}
	if res.Message != MessageLoginSucceeded {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if len(r.saved) != 1 || r.saved[0].Username != "Alice" || r.saved[0].Tokens != (session.Tokens{Access: "A", Refresh: "R"}) {
		t.Fatalf("unexpected saved sessions %+v", r.saved)
	}
	if r.metrics[1] != 1 || r.metrics[6] != 1 {
		t.Fatalf("unexpected metrics %v", r.metrics)
	}
	if len(r.events) != 1 || r.events[0] != "login_success" {
		t.Fatalf("unexpected events %v", r.events)
	}
}

func TestRunLoginFallsBackToSubmittedUsername(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return &identity.LoginResponse{Access: "A", Refresh: "R"}, nil
	})

	if _, err := RunLogin(context.Background(), "alice", "secret", deps); err != nil {
		t.Fatalf("RunLogin failed: %v", err)
	}
	if r.saved[0].Username != "alice" {
		t.Fatalf("expected submitted username, got %q", r.saved[0].Username)
	}
	if r.warned != 1 {
		t.Fatalf("expected one warning, got %d", r.warned)
	}
}

func TestRunLoginPartialTokensIsContractViolation(t *testing.T) {
	for name, resp := range map[string]*identity.LoginResponse{
		"no refresh": {Access: "A"},
		"no access":  {Refresh: "R"},
		"neither":    {Username: "alice"},
	} {
		t.Run(name, func(t *testing.T) {
			r := newRecorder()
			deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
				return resp, nil
			})

			_, err := RunLogin(context.Background(), "alice", "secret", deps)
			f := failureOf(t, err)
			if !errors.Is(err, errContract) || f.message != MessageInvalidResponse {
				t.Fatalf("unexpected failure %+v", f)
			}
			if !errors.Is(err, session.ErrPartialTokens) {
				t.Fatalf("expected cause ErrPartialTokens, got %v", err)
			}
			if len(r.saved) != 0 {
				t.Fatal("store must not be written for a partial pair")
			}
		})
	}
}

func TestRunLoginMalformedBodyIsContractViolation(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return nil, identity.ErrMalformedResponse
	})

	_, err := RunLogin(context.Background(), "alice", "secret", deps)
	if f := failureOf(t, err); f.message != MessageInvalidResponse || !errors.Is(err, errContract) {
		t.Fatalf("unexpected failure %+v", f)
	}
}

func TestRunLoginRemoteErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		remote *identity.RemoteError
		want   string
	}{
		{"error field", &identity.RemoteError{StatusCode: 401, Code: "bad creds"}, "bad creds"},
		{"message only", &identity.RemoteError{StatusCode: 401, Message: "ignored"}, MessageLoginFailed},
		{"empty body", &identity.RemoteError{StatusCode: 500}, MessageLoginFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecorder()
			deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
				return nil, tc.remote
			})

			_, err := RunLogin(context.Background(), "alice", "secret", deps)
			f := failureOf(t, err)
			if f.message != tc.want || !errors.Is(err, errRejected) {
				t.Fatalf("unexpected failure %+v", f)
			}
			if len(r.saved) != 0 {
				t.Fatal("store must not be written on rejection")
			}
		})
	}
}

func TestRunLoginUnreachable(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return nil, fmt.Errorf("%w: dial tcp: refused", identity.ErrUnreachable)
	})

	_, err := RunLogin(context.Background(), "alice", "secret", deps)
	if f := failureOf(t, err); f.message != MessageLoginFailed || !errors.Is(err, errUnreachable) {
		t.Fatalf("unexpected failure %+v", f)
	}
	if !errors.Is(err, identity.ErrUnreachable) {
		t.Fatal("expected cause to be preserved")
	}
}

func TestRunLoginPersistFailure(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return &identity.LoginResponse{Access: "A", Refresh: "R", Username: "alice"}, nil
	})
	deps.SaveSession = func(context.Context, session.Session) error { return session.ErrStoreUnavailable }

	_, err := RunLogin(context.Background(), "alice", "secret", deps)
	if !errors.Is(err, errPersist) || !errors.Is(err, session.ErrStoreUnavailable) {
		t.Fatalf("unexpected error %v", err)
	}
	if r.metrics[1] != 0 || r.metrics[5] != 1 {
		t.Fatalf("unexpected metrics %v", r.metrics)
	}
}

func TestRunLoginStaleResultDiscarded(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return &identity.LoginResponse{Access: "A", Refresh: "R", Username: "alice"}, nil
	})
	deps.Stale = func() bool { return true }

	_, err := RunLogin(context.Background(), "alice", "secret", deps)
	if !errors.Is(err, errDiscarded) {
		t.Fatalf("expected discarded, got %v", err)
	}
	if len(r.saved) != 0 || len(r.events) != 0 {
		t.Fatal("stale result must not write the store or emit audit events")
	}
	if r.metrics[7] != 1 {
		t.Fatalf("expected stale metric, got %v", r.metrics)
	}
}

func TestRunLoginNotReady(t *testing.T) {
	if _, err := RunLogin(context.Background(), "a", "b", LoginDeps{Errors: testErrors}); !errors.Is(err, errNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
}

func registerDeps(r *recorder, register func(context.Context, identity.RegisterRequest) (*identity.RegisterResponse, error)) RegisterDeps {
	return RegisterDeps{
		Hooks:      r.hooks(),
		Register:   register,
		NewFailure: newTestFailure,
		Metrics: RegisterMetrics{
			RegisterSuccess:      1,
			RegisterRejected:     2,
			RegisterUnreachable:  3,
			StaleResultDiscarded: 4,
		},
		Events: RegisterEvents{RegisterSuccess: "register_success", RegisterFailure: "register_failure"},
		Errors: testErrors,
	}
}

func TestRunRegisterMessages(t *testing.T) {
	cases := []struct {
		name    string
		resp    *identity.RegisterResponse
		err     error
		want    string
		wantErr error
	}{
		{"server message", &identity.RegisterResponse{Message: "Welcome aboard"}, nil, "Welcome aboard", nil},
		{"default success", &identity.RegisterResponse{}, nil, MessageRegisterSucceeded, nil},
		{"non-object success", nil, identity.ErrMalformedResponse, MessageRegisterSucceeded, nil},
		{"error field", nil, &identity.RemoteError{StatusCode: 400, Code: "Username already exists.", Message: "other"}, "Username already exists.", errRejected},
		{"message field", nil, &identity.RemoteError{StatusCode: 400, Message: "Email taken"}, "Email taken", errRejected},
		{"no fields", nil, &identity.RemoteError{StatusCode: 500}, MessageRegistrationFailed, errRejected},
		{"unreachable", nil, identity.ErrUnreachable, MessageRegistrationFailed, errUnreachable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecorder()
			deps := registerDeps(r, func(context.Context, identity.RegisterRequest) (*identity.RegisterResponse, error) {
				return tc.resp, tc.err
			})

			res, err := RunRegister(context.Background(), identity.RegisterRequest{Username: "bob"}, deps)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if res.Message != tc.want {
					t.Fatalf("expected %q, got %q", tc.want, res.Message)
				}
				return
			}
			f := failureOf(t, err)
			if f.message != tc.want || !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected failure %+v", f)
			}
		})
	}
}

func TestRunRegisterStale(t *testing.T) {
	r := newRecorder()
	deps := registerDeps(r, func(context.Context, identity.RegisterRequest) (*identity.RegisterResponse, error) {
		return &identity.RegisterResponse{}, nil
	})
	deps.Stale = func() bool { return true }

	if _, err := RunRegister(context.Background(), identity.RegisterRequest{}, deps); !errors.Is(err, errDiscarded) {
		t.Fatalf("expected discarded, got %v", err)
	}
	if len(r.events) != 0 || r.metrics[4] != 1 {
		t.Fatalf("unexpected side effects events=%v metrics=%v", r.events, r.metrics)
	}
}

func TestRunLogoutIsIdempotent(t *testing.T) {
	r := newRecorder()
	store := session.NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, session.Session{Username: "alice", Tokens: session.Tokens{Access: "A", Refresh: "R"}}); err != nil {
		t.Fatal(err)
	}

	deps := LogoutDeps{
		Hooks:        r.hooks(),
		LoadSession:  store.Load,
		ClearSession: store.Clear,
		Metrics:      LogoutMetrics{Logout: 1, SessionCleared: 2},
		Event:        "logout",
		Errors:       testErrors,
	}
	for i := 0; i < 2; i++ {
		if err := RunLogout(ctx, deps); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if store.HasValidSession(ctx) {
		t.Fatal("expected session to be cleared")
	}
	if r.metrics[1] != 2 {
		t.Fatalf("expected two logouts, got %v", r.metrics)
	}
}

func TestRunLoginCloseDuringSaveIsDiscarded(t *testing.T) {
	r := newRecorder()
	deps := loginDeps(r, func(context.Context, identity.LoginRequest) (*identity.LoginResponse, error) {
		return &identity.LoginResponse{Access: "A", Refresh: "R", Username: "alice"}, nil
	})
	deps.SaveSession = func(context.Context, session.Session) error { return errDiscarded }

	_, err := RunLogin(context.Background(), "alice", "secret", deps)
	if !errors.Is(err, errDiscarded) {
		t.Fatalf("expected discarded, got %v", err)
	}
	if r.metrics[5] != 0 || len(r.events) != 0 {
		t.Fatalf("discard must not count as persist failure: metrics=%v events=%v", r.metrics, r.events)
	}
}
