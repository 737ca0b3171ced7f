package identity

import (
	"fmt"
	"strings"

	"github.com/Jager4561/car-case-auth/cmd/security/password"
)

// Seed is one principal to preload into a MemoryStore.
type Seed struct {
	Email    string
	Password string
	Active   bool
}

// ParseSeeds parses a comma-separated list of email:password[:inactive]
// entries, as used by the SEED_PRINCIPALS variable.
func ParseSeeds(raw string) ([]Seed, error) {
	var out []Seed
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("seed %q: want email:password[:inactive]", parts[0])
		}
		s := Seed{Email: parts[0], Password: parts[1], Active: true}
		if len(parts) == 3 {
			if parts[2] != "inactive" {
				return nil, fmt.Errorf("seed %q: unknown flag %q", parts[0], parts[2])
			}
			s.Active = false
		}
		out = append(out, s)
	}
	return out, nil
}

// SeedMemory hashes each seed's password with cfg and adds it to st.
func SeedMemory(st *MemoryStore, cfg password.Config, seeds []Seed) ([]Principal, error) {
	out := make([]Principal, 0, len(seeds))
	for _, s := range seeds {
		hash, err := cfg.Hash(s.Password)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", s.Email, err)
		}
		p, err := st.Add(Principal{Email: s.Email, PasswordHash: hash, Active: s.Active})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
