package session

import "time"

// Tokens is the access/refresh pair issued on login.
//
// A Tokens value is either fully absent or fully present; a partial pair is
// invalid and is never stored.
type Tokens struct {
	Access  string
	Refresh string
}

// Valid reports whether both tokens are present and non-empty.
func (t Tokens) Valid() bool {
	return t.Access != "" && t.Refresh != ""
}

// Empty reports whether neither token is present.
func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

// Session is the authenticated identity persisted for the current storage scope.
type Session struct {
	Username string
	Tokens   Tokens
	SavedAt  time.Time
}
