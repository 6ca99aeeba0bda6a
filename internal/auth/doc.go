// Package auth provides credential and session management for ideahub.
//
// # Credentials
//
// Passwords are hashed with PBKDF2-HMAC-SHA256 (100k iterations by
// default) and stored as "saltHex:hashHex". Every login failure returns
// the same ErrInvalidCredentials and performs a hash comparison even when
// the username is unknown, so neither the error message nor the response
// timing reveals which accounts exist.
//
// # Sessions
//
// Sessions are opaque 256-bit random tokens persisted in the store. A
// session has a fixed lifetime set at creation; validation never extends
// it. Each user holds at most one active session: logging in revokes any
// prior session. Expired sessions are removed lazily on validation and in
// bulk by a periodic sweeper.
//
// # Context Propagation
//
// The HTTP layer attaches the resolved Identity to the request context
// with WithIdentity; handlers read it back with FromContext.
package auth
