// Package session owns the persisted client session: the display username and the
// access/refresh token pair issued by the identity service.
//
// # Record format
//
// A session is always written as ONE structured record (see [Encode]) so that a reader
// can never observe a torn session. The encoder is versioned: new versions add fields
// but never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Store] implementations (memory, file, Redis) and the [Session]
// model. It does NOT talk to the identity service, interpret flow status, or decide
// navigation; those belong to the root package.
//
// # What this package must NOT do
//
//   - Import authflow, identity, or shell (no upward imports).
//   - Persist a partial token pair.
//   - Log token values.
package session
