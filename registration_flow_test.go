package authflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatline/authflow/session"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type capturedPart struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

func captureMultipart(t *testing.T, r *http.Request) []capturedPart {
	t.Helper()
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		t.Errorf("bad content type: %v", err)
		return nil
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	var parts []capturedPart
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return parts
		}
		if err != nil {
			t.Errorf("NextPart: %v", err)
			return parts
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, capturedPart{
			name:        p.FormName(),
			filename:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			data:        data,
		})
	}
}

func TestRegistrationWithImageNavigatesToLogin(t *testing.T) {
	parts := make(chan []capturedPart, 1)
	c := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/register/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		parts <- captureMultipart(t, r)
		jsonHandler(http.StatusCreated, `{}`)(w, r)
	}, session.NewMemoryStore())

	var log eventLog
	flow := c.NewRegistrationFlow(OnEvent(log.handle))
	err := flow.Submit(context.Background(), RegistrationCredentials{
		Username:     "bob",
		Email:        "bob@example.com",
		Password:     "hunter2",
		ProfileImage: &ProfileImage{Filename: "me.png", Data: pngHeader},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got := <-parts
	if len(got) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(got))
	}
	img := got[3]
	if img.name != "profile_image" || img.filename != "me.png" || img.contentType != "image/png" || !bytes.Equal(img.data, pngHeader) {
		t.Fatalf("unexpected image part %+v", img)
	}

	if got := flow.Status(); got != (Status{Phase: PhaseSucceeded, Message: "Registered successfully!"}) {
		t.Fatalf("unexpected status %+v", got)
	}
	navs := log.navigations()
	if len(navs) != 1 || navs[0] != (Navigation{Route: RouteLogin, After: 800 * time.Millisecond}) {
		t.Fatalf("expected one login navigation, got %+v", navs)
	}
	if c.HasValidSession(context.Background()) {
		t.Fatal("registration must not create a session")
	}
}

func TestRegistrationWithoutImageOmitsPart(t *testing.T) {
	parts := make(chan []capturedPart, 1)
	c := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		parts <- captureMultipart(t, r)
		jsonHandler(http.StatusCreated, `{"message":"Welcome, bob"}`)(w, r)
	}, session.NewMemoryStore())

	flow := c.NewRegistrationFlow()
	err := flow.Submit(context.Background(), RegistrationCredentials{
		Username:     "bob",
		Email:        "bob@example.com",
		Password:     "hunter2",
		ProfileImage: &ProfileImage{Filename: "empty.png"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	for _, p := range <-parts {
		if p.name == "profile_image" {
			t.Fatal("empty image must not be sent")
		}
	}
	if got := flow.Status().Message; got != "Welcome, bob" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegistrationFailureMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusBadRequest, `{"error":"Username already exists.","message":"x"}`, "Username already exists."},
		{"message field", http.StatusBadRequest, `{"message":"Enter a valid email address."}`, "Enter a valid email address."},
		{"nothing usable", http.StatusInternalServerError, `<html></html>`, "Registration failed."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newHTTPClient(t, jsonHandler(tc.status, tc.body), session.NewMemoryStore())
			var log eventLog
			flow := c.NewRegistrationFlow(OnEvent(log.handle))

			err := flow.Submit(context.Background(), RegistrationCredentials{Username: "bob", Email: "bob@example.com", Password: "pw"})
			if !errors.Is(err, ErrRemoteRejected) {
				t.Fatalf("expected ErrRemoteRejected, got %v", err)
			}
			if got := flow.Status(); got != (Status{Phase: PhaseFailed, Message: tc.want}) {
				t.Fatalf("unexpected status %+v", got)
			}
			if MessageOf(err) != tc.want {
				t.Fatalf("MessageOf mismatch: %q", MessageOf(err))
			}
			if len(log.navigations()) != 0 {
				t.Fatal("failure must not navigate")
			}
		})
	}
}

func TestRegistrationInFlightAndClose(t *testing.T) {
	svc := newBlockingIdentity()
	c := newFakeClient(t, svc, session.NewMemoryStore())

	var emitted atomic.Int32
	flow := c.NewRegistrationFlow(OnEvent(func(Event) { emitted.Add(1) }))
	done := make(chan error, 1)
	go func() {
		done <- flow.Submit(context.Background(), RegistrationCredentials{Username: "bob"})
	}()
	<-svc.started

	if err := flow.Submit(context.Background(), RegistrationCredentials{Username: "bob"}); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	flow.Close()
	flow.Close()
	close(svc.release)

	if err := <-done; !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}
	if n := emitted.Load(); n != 1 {
		t.Fatalf("expected only the Submitting event, got %d", n)
	}
}
