// Package password hashes and verifies account passwords with Argon2id for the
// development identity service.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports whether a stored hash was produced with weaker
// parameters than the hasher's current ones.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authflow package.
//   - Log plaintext passwords.
package password
