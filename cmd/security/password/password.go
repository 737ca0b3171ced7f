package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	phcAlgorithm = "argon2id"
	phcVersion   = argon2.Version // 0x13
)

var b64 = base64.RawStdEncoding

var (
	// ErrInvalidHash is returned for stored hashes that do not decode.
	ErrInvalidHash = errors.New("invalid password hash")

	// ErrHashCost is returned for well-formed hashes whose cost parameters
	// exceed what this Config will compute.
	ErrHashCost = fmt.Errorf("%w: cost out of bounds", ErrInvalidHash)
)

// phc is a decoded Argon2id PHC string.
type phc struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (p phc) String() string {
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		phcVersion,
		p.params.MemoryKiB,
		p.params.Iterations,
		p.params.Parallelism,
		b64.EncodeToString(p.salt),
		b64.EncodeToString(p.key),
	)
}

// Hash derives an Argon2id key for password under a fresh random salt and
// returns it PHC-encoded. The password must satisfy the configured Policy.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	return phc{
		params: c.Params,
		salt:   salt,
		key:    derive(password, salt, c.Params, c.Params.KeyLength),
	}.String(), nil
}

// Verify reports whether password matches encodedHash.
// It returns (false, ErrInvalidHash) for malformed hashes and
// (false, ErrHashCost) for hashes whose cost exceeds the accepted bounds.
// The comparison is constant time in the length of the derived key.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	h, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	if !c.accepts(h.params) {
		return false, ErrHashCost
	}

	got := derive(password, h.salt, h.params, h.params.KeyLength)
	return subtle.ConstantTimeCompare(got, h.key) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with parameters other
// than the current ones. Malformed hashes always need a rehash.
func (c Config) NeedsRehash(encodedHash string) bool {
	h, err := parsePHC(encodedHash)
	if err != nil {
		return true
	}
	p := h.params
	return p.MemoryKiB != c.Params.MemoryKiB ||
		p.Iterations != c.Params.Iterations ||
		p.Parallelism != c.Params.Parallelism ||
		p.KeyLength != c.Params.KeyLength
}

func derive(password string, salt []byte, p Argon2idParams, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, keyLen)
}

// maxParallelism caps the lanes of a stored hash regardless of the local
// CPU count.
const maxParallelism = 64

// accepts bounds the cost of hashes read from storage. Older, cheaper
// parameters verify; memory or iterations above twice the configured cost
// are refused.
func (c Config) accepts(got Argon2idParams) bool {
	limits := c.Params
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case got.Parallelism < 1 || got.Parallelism > maxParallelism:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

// parsePHC decodes $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt>$<key>.
func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcAlgorithm {
		return phc{}, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(phcVersion) {
		return phc{}, ErrInvalidHash
	}

	var mem, iter, par uint64
	want := [...]string{"m", "t", "p"}
	for i, field := range strings.Split(parts[3], ",") {
		name, raw, ok := strings.Cut(field, "=")
		if !ok {
			return phc{}, ErrInvalidHash
		}
		if i >= len(want) || name != want[i] {
			return phc{}, ErrInvalidHash
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || v == 0 {
			return phc{}, ErrInvalidHash
		}
		switch name {
		case "m":
			mem = v
		case "t":
			iter = v
		case "p":
			par = v
		}
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return phc{}, ErrInvalidHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return phc{}, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return phc{}, ErrInvalidHash
	}

	return phc{
		params: Argon2idParams{
			MemoryKiB:   uint32(mem),
			Iterations:  uint32(iter),
			Parallelism: uint8(par),
			SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by accepts().
			KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by accepts().
		},
		salt: salt,
		key:  key,
	}, nil
}
