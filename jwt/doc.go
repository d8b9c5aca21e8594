// Package jwt reads and issues the JSON Web Tokens exchanged with the identity service.
//
// Clients cannot verify the service's signatures, so [Inspect] decodes claims without
// verification and is only ever used for display (who is logged in, when the access
// token lapses). [Manager] signs and verifies token pairs for the in-process
// development identity service.
package jwt
