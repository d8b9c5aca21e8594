// Package flows contains pure-function orchestrators for the account-access
// operations: login, registration and logout.
//
// Each flow function (RunLogin, RunRegister, RunLogout) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. Flow state (phase, message, close handling) stays with the
// caller; these functions only decide what a single submission produced.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the identity service, the session store,
// the audit dispatcher and metrics. They do NOT own any of these resources.
// Ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authflow (to avoid import cycles).
//   - Retry a submission.
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
