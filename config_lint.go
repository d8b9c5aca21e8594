package authflow

import (
	"net/url"
	"time"
)

// LintSeverity grades a LintWarning.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
)

func (s LintSeverity) String() string {
	if s == LintWarn {
		return "warn"
	}
	return "info"
}

// LintWarning is a configuration choice that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// Lint returns advisory warnings for a configuration that already passes Validate.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.Identity.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("plaintext_identity", LintWarn, "credentials are sent to a non-loopback identity service over plain http")
	}
	if c.Identity.Timeout == 0 {
		add("no_timeout", LintWarn, "identity requests have no timeout and may hang until the context is cancelled")
	}
	if c.Identity.Timeout > 2*time.Minute {
		add("timeout_long", LintInfo, "identity timeout exceeds 2m")
	}
	if c.Identity.RequestsPerSecond > 0 && c.Identity.Burst == 0 {
		add("burst_defaulted", LintInfo, "rate limit burst is 0 and will be raised to 1")
	}
	if c.Navigation.LoginRedirectDelay > 5*time.Second || c.Navigation.RegisterRedirectDelay > 5*time.Second {
		add("redirect_delay_long", LintInfo, "redirect delay exceeds 5s")
	}
	if c.Navigation.AuthenticatedRoute == c.Navigation.LoginRoute {
		add("route_loop", LintWarn, "authenticated route equals login route")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintInfo, "audit emission blocks submissions when the buffer is full")
	}
	return ws
}

func isLoopback(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
