// Package auth implements the session and token lifecycle for Hearth Core:
// credential verification, signed-token issuance and validation, the
// persisted refresh-session ledger with revocation, and authority
// resolution for endpoint-level authorization.
//
// The model:
//   - Argon2id password hashing with constant-time verification
//   - Stateless HS256 JWT access tokens (short-lived, never persisted)
//   - Persisted refresh sessions (longer-lived, revocable) in SQLite
//   - Roles with permission sets; authorities are the role name upper-cased
//     plus "RESOURCE:OPERATION" strings per permission
//
// Policy: a successful login revokes all of the principal's prior refresh
// sessions. This is a deliberate single-session trade-off — logging in on
// one device silently logs out every other device's refresh session.
//
// Known limitation: because access tokens are stateless, an access token
// issued before logout remains valid until its own (short) expiry. Only
// refresh tokens are revocable; protected endpoints accept an
// already-issued access token for at most the access TTL after logout.
package auth
