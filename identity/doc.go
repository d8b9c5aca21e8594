// Package identity is the HTTP client for the chat application's identity service.
//
// It speaks the service's two account-access endpoints: POST login/ (JSON) and
// POST register/ (multipart). Every request carries an X-Request-ID header and the
// client's cookie jar, so cookies set by the service are sent back on later calls.
//
// The package reports outcomes as typed values: [*RemoteError] for non-2xx responses,
// [ErrUnreachable] for transport failures and [ErrMalformedResponse] for 2xx bodies that
// are not JSON objects. Mapping those onto user-facing messages is the caller's job.
package identity
