package session

import (
	"context"
	"errors"
)

var (
	// ErrNoSession is returned by Load when no valid session is stored.
	ErrNoSession = errors.New("no session")
	// ErrPartialTokens is returned by Save when the token pair is incomplete.
	ErrPartialTokens = errors.New("partial token pair")
	// ErrStoreUnavailable wraps failures of the underlying storage medium.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store is the sole owner of persisted session data.
//
// Implementations must write a session atomically: a concurrent reader observes either
// the previous session or the new one, never a mix.
type Store interface {
	// Save replaces any stored session with s. Partial token pairs are rejected
	// with ErrPartialTokens and leave the store untouched.
	Save(ctx context.Context, s Session) error
	// Load returns the stored session or ErrNoSession.
	Load(ctx context.Context) (*Session, error)
	// HasValidSession reports whether both tokens are present and non-empty.
	HasValidSession(ctx context.Context) bool
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

func checkSave(s Session) error {
	if !s.Tokens.Valid() {
		return ErrPartialTokens
	}
	return nil
}

func hasValid(ctx context.Context, st Store) bool {
	s, err := st.Load(ctx)
	return err == nil && s != nil && s.Tokens.Valid()
}
