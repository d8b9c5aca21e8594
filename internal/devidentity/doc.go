// Package devidentity is an in-memory identity service speaking the same
// login and registration contract as the production chat backend.
//
// It backs `authflow devserver` and the integration tests. Accounts live only
// in process memory and are lost on restart.
//
// With Config.Redis set and a non-zero Config.Throttle.MaxAttempts, repeated
// failed logins answer 429 with {"error": "Too many login attempts. Try again later."}
// until the window expires.
package devidentity
