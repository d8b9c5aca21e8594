package authflow

import (
	"time"

	"github.com/chatline/authflow/jwt"
	"github.com/chatline/authflow/session"
)

// SessionInfo is a display view of the stored session. It never exposes the
// tokens themselves.
//
// Expiry times are decoded from the tokens without signature verification and
// are zero when a token is opaque. They are for display only.
type SessionInfo struct {
	Username         string
	SavedAt          time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessExpired reports whether the access token carries an expiry that is
// before now.
func (s SessionInfo) AccessExpired(now time.Time) bool {
	return !s.AccessExpiresAt.IsZero() && now.After(s.AccessExpiresAt)
}

func describeSession(sess *session.Session) *SessionInfo {
	return &SessionInfo{
		Username:         sess.Username,
		SavedAt:          sess.SavedAt,
		AccessExpiresAt:  tokenExpiry(sess.Tokens.Access),
		RefreshExpiresAt: tokenExpiry(sess.Tokens.Refresh),
	}
}

func tokenExpiry(token string) time.Time {
	claims, err := jwt.Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
