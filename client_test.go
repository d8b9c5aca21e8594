package authflow

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/chatline/authflow/internal/devidentity/devidentitytest"
	"github.com/chatline/authflow/session"
)

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Identity.BaseURL = "ftp://example.com"
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	c, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer c.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildLogsLintWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := defaultConfig()
	cfg.Identity.BaseURL = "http://chat.example.com/api/"
	c, err := New().WithConfig(cfg).WithLogger(logger).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()
	if !strings.Contains(buf.String(), "plaintext_identity") {
		t.Fatalf("expected lint warning in log, got %q", buf.String())
	}
}

func TestEndToEndAgainstDevIdentity(t *testing.T) {
	_, base := devidentitytest.NewTestServer(t)

	cfg := defaultConfig()
	cfg.Identity.BaseURL = base
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}
	sink := NewChannelSink(16)
	store := session.NewMemoryStore()
	c, err := New().WithConfig(cfg).WithSessionStore(store).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ctx := WithRequestID(context.Background(), "req-1")

	reg := c.NewRegistrationFlow()
	if err := reg.Submit(ctx, RegistrationCredentials{Username: "alice", Email: "alice@example.com", Password: "secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := reg.Status().Message; got != "User registered successfully." {
		t.Fatalf("unexpected register message %q", got)
	}

	login := c.NewLoginFlow()
	if err := login.Submit(ctx, LoginCredentials{Username: "alice", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	info, err := c.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if info.Username != "alice" || info.AccessExpiresAt.IsZero() || info.RefreshExpiresAt.IsZero() {
		t.Fatalf("unexpected session info %+v", info)
	}
	if !info.RefreshExpiresAt.After(info.AccessExpiresAt) {
		t.Fatal("refresh token should outlive access token")
	}
	if info.AccessExpired(time.Now()) {
		t.Fatal("fresh access token reported expired")
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if _, err := c.CurrentSession(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	c.Close()

	var types []string
	for len(sink.Events()) > 0 {
		ev := <-sink.Events()
		if ev.RequestID != "req-1" {
			t.Fatalf("event %s missing request id", ev.EventType)
		}
		types = append(types, ev.EventType)
	}
	want := []string{AuditRegisterSuccess, AuditLoginSuccess, AuditLogout, AuditLogout}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("expected audit events %v, got %v", want, types)
	}

	snap := c.MetricsSnapshot()
	if snap.Counters[MetricRegisterSuccess] != 1 || snap.Counters[MetricSessionCleared] != 2 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
	var observed uint64
	for _, n := range snap.Histograms[MetricRemoteLatency] {
		observed += n
	}
	if observed != 2 {
		t.Fatalf("expected 2 latency observations, got %d", observed)
	}
}

func TestCurrentSessionOpaqueTokens(t *testing.T) {
	store := session.NewMemoryStore()
	saved := time.Now().Truncate(time.Millisecond)
	if err := store.Save(context.Background(), session.Session{Username: "bob", Tokens: session.Tokens{Access: "A", Refresh: "R"}, SavedAt: saved}); err != nil {
		t.Fatal(err)
	}
	c := newFakeClient(t, newBlockingIdentity(), store)

	info, err := c.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if info.Username != "bob" || !info.SavedAt.Equal(saved) {
		t.Fatalf("unexpected info %+v", info)
	}
	if !info.AccessExpiresAt.IsZero() || info.AccessExpired(time.Now()) {
		t.Fatal("opaque tokens must leave expiry unknown")
	}
}

func TestMetricsDisabledSnapshotEmpty(t *testing.T) {
	c, err := New().WithIdentity(newBlockingIdentity()).WithMetricsEnabled(false).WithLatencyHistograms(false).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()
	if snap := c.MetricsSnapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if c.AuditDropped() != 0 {
		t.Fatal("expected no drops with audit disabled")
	}
}
