// Package devidentitytest starts throwaway development identity services for tests.
package devidentitytest

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/chatline/authflow/internal/devidentity"
	"github.com/chatline/authflow/password"
)

// NewTestServer starts a devidentity.Server with cheap hashing parameters on an httptest
// listener and returns it with the API base URL (ending in "/").
func NewTestServer(tb testing.TB) (*devidentity.Server, string) {
	tb.Helper()

	cfg := devidentity.DefaultConfig(bytes.Repeat([]byte("k"), 32))
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	srv, err := devidentity.New(cfg)
	if err != nil {
		tb.Fatalf("devidentity.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	tb.Cleanup(ts.Close)
	return srv, ts.URL + cfg.Prefix + "/"
}
