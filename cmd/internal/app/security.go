package app

import (
	"fmt"

	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
)

// ValidateSecurityConfig enforces the signing-key length policy at startup.
// Keys are measured in bytes since they are used as raw HMAC secrets.
func ValidateSecurityConfig(cfg Config, sess session.Config) error {
	minBytes := cfg.MinTokenKeyBytes
	if minBytes <= 0 {
		return nil
	}
	if n := len(sess.AccessTokenKey); n < minBytes {
		return fmt.Errorf("security policy: ACCESS_TOKEN_KEY is %d bytes, need at least %d", n, minBytes)
	}
	if n := len(sess.RefreshTokenKey); n < minBytes {
		return fmt.Errorf("security policy: REFRESH_TOKEN_KEY is %d bytes, need at least %d", n, minBytes)
	}
	return nil
}
