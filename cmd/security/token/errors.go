package token

import "errors"

var (
	ErrKeyMissing  = errors.New("token signing key missing")
	ErrKeysEqual   = errors.New("access and refresh keys must differ")
	ErrInvalidTTL  = errors.New("token ttl must be positive")
	ErrUnknownKind = errors.New("unknown token kind")
	ErrMalformed   = errors.New("malformed token")
	ErrInvalid     = errors.New("invalid token")
	ErrExpired     = errors.New("token expired")
)
