package token

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the JWT payload of every token minted by Codec.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Type   Kind   `json:"typ"`
}

// Signer is the key and lifetime used for one token kind.
type Signer struct {
	Key []byte
	TTL time.Duration
}

// Codec mints and decodes tokens of both kinds.
type Codec struct {
	issuer  string
	signers map[Kind]Signer
	newID   func() string
}

// NewCodec validates the per-kind signers and returns a Codec.
// issuer is optional; when set it is written as iss and checked by Parse.
func NewCodec(access, refresh Signer, issuer string) (*Codec, error) {
	for kind, s := range map[Kind]Signer{KindAccess: access, KindRefresh: refresh} {
		if len(s.Key) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, ErrKeyMissing)
		}
		if s.TTL <= 0 {
			return nil, fmt.Errorf("%s: %w", kind, ErrInvalidTTL)
		}
	}
	if bytes.Equal(access.Key, refresh.Key) {
		return nil, ErrKeysEqual
	}

	return &Codec{
		issuer: issuer,
		signers: map[Kind]Signer{
			KindAccess:  access,
			KindRefresh: refresh,
		},
		newID: uuid.NewString,
	}, nil
}

// Mint signs a token of the given kind for the principal. It returns the
// token and its expiry in epoch milliseconds. exp has whole-second precision,
// so the returned expiry always equals what DecodeExpiry reads back.
func (c *Codec) Mint(kind Kind, principalID, email string, now time.Time) (string, int64, error) {
	s, ok := c.signers[kind]
	if !ok {
		return "", 0, ErrUnknownKind
	}

	iat := now.UTC().Truncate(time.Second)
	exp := iat.Add(s.TTL).Truncate(time.Second)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.newID(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: principalID,
		Email:  email,
		Type:   kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Key)
	if err != nil {
		return "", 0, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp.UnixMilli(), nil
}

// DecodeExpiry returns the exp claim of raw in epoch milliseconds without
// verifying the signature.
func (c *Codec) DecodeExpiry(raw string) (int64, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return 0, ErrMalformed
	}
	if claims.ExpiresAt == nil {
		return 0, ErrMalformed
	}
	return claims.ExpiresAt.UnixMilli(), nil
}

// Parse verifies raw with the key of kind and returns its claims.
// An expired but otherwise valid token yields ErrExpired; any other failure,
// including a kind mismatch, yields ErrInvalid.
func (c *Codec) Parse(kind Kind, raw string, now time.Time) (*Claims, error) {
	s, ok := c.signers[kind]
	if !ok {
		return nil, ErrUnknownKind
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.Key, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, ErrInvalid
	case claims.Type != kind:
		return nil, ErrInvalid
	}
	return &claims, nil
}
