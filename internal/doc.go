// Package internal groups helpers that are private to authflow.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - devidentity: in-memory identity service for development and tests
//   - flows: pure-function orchestrators for login, registration and logout
//   - metrics: lock-free counters and the remote latency histogram
//   - rate: Redis-backed failed-login throttle for devidentity
package internal
