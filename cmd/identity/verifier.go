package identity

import (
	"log/slog"

	"github.com/Jager4561/car-case-auth/cmd/security/password"
)

// CredentialVerifier checks a candidate password against a stored hash.
type CredentialVerifier interface {
	Verify(storedHash, candidate string) bool
}

// Argon2idVerifier verifies PHC-encoded Argon2id hashes.
// Hashes whose cost exceeds twice the configured parameters are refused.
type Argon2idVerifier struct {
	cfg password.Config
	log *slog.Logger
}

func NewArgon2idVerifier(cfg password.Config, log *slog.Logger) *Argon2idVerifier {
	if log == nil {
		log = slog.Default()
	}
	return &Argon2idVerifier{cfg: cfg, log: log}
}

// Verify reports whether candidate matches storedHash. A malformed stored
// hash never matches and is logged without the candidate.
func (v *Argon2idVerifier) Verify(storedHash, candidate string) bool {
	ok, err := v.cfg.Verify(storedHash, candidate)
	if err != nil {
		v.log.Warn("identity.verify.bad_hash", "err", err)
		return false
	}
	return ok
}
