// Package auth provides password hashing and the signed session tokens carried
// in Fritter's session cookie.
//
// A token is an HS256 JWT whose ID (jti) is the server-side session ID and whose
// subject is the user ID. Tokens are only trusted once the referenced session row
// still exists, which lets signing out revoke a token before it expires.
package auth
