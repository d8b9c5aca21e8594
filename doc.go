// Package authflow implements the login and registration flows of a chat
// client: credential submission against a remote identity service, session
// persistence, and the navigation that follows a successful submission.
//
// A [Client] is assembled once through [Builder.Build] and is safe for
// concurrent use. Each view creates its own [LoginFlow] or [RegistrationFlow];
// a flow runs at most one submission at a time and reports every transition
// through the [EventHandler] given to [OnEvent].
//
// # Architecture boundaries
//
// authflow is the public surface. Flow orchestration, metrics and audit
// dispatch live under internal/. The session package owns storage, the
// identity package owns the wire contract, and shell turns Navigation values
// into view switches.
//
// # What this package must NOT do
//
//   - Write a session after its flow was closed.
//   - Log or audit passwords or tokens.
//   - Import any sub-package that re-imports authflow (no import cycles).
package authflow
