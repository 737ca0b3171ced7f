// Package token mints and decodes the signed bearer tokens handed to clients.
//
// Tokens are HS256 JWTs carrying user_id, email, typ (access or refresh),
// exp, iat and jti. Access and refresh tokens are signed with independent
// keys and have independent lifetimes.
//
// DecodeExpiry reads exp without checking the signature; callers that need
// authenticity use Parse.
package token
