package session

import (
	"context"
	"errors"
	"time"

	"github.com/Jager4561/car-case-auth/cmd/identity"
	"github.com/Jager4561/car-case-auth/cmd/security/token"
)

// TokenCodec mints and reads tokens. *token.Codec implements it.
type TokenCodec interface {
	Mint(kind token.Kind, principalID, email string, now time.Time) (string, int64, error)
	DecodeExpiry(raw string) (int64, error)
	Parse(kind token.Kind, raw string, now time.Time) (*token.Claims, error)
}

// Service implements the login, refresh, logout and authenticate flows.
//
// It holds no mutable state; all durable state lives in the stores.
type Service struct {
	cfg        Config
	tokens     TokenCodec
	store      Store
	principals identity.Store
	verifier   identity.CredentialVerifier
}

// Issued is the token pair returned by Login and Refresh.
// ExpiresAt is the access token expiry in epoch milliseconds.
type Issued struct {
	SessionID    string
	PrincipalID  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

func NewService(
	cfg Config,
	tokens TokenCodec,
	store Store,
	principals identity.Store,
	verifier identity.CredentialVerifier,
) *Service {
	return &Service{
		cfg:        cfg,
		tokens:     tokens,
		store:      store,
		principals: principals,
		verifier:   verifier,
	}
}

// Login verifies credentials and opens a new session.
// The payload is validated before any store is touched.
func (s *Service) Login(ctx context.Context, now time.Time, in LoginInput) (Issued, error) {
	const op = "session.Login"

	if err := in.Validate(); err != nil {
		return Issued{}, err
	}

	p, err := s.principals.FindByEmail(ctx, in.Email)
	if err != nil {
		return Issued{}, internal(op, err)
	}
	switch {
	case p == nil:
		return Issued{}, fail(op, KindNotFound)
	case !p.Active:
		return Issued{}, fail(op, KindInactive)
	case !s.verifier.Verify(p.PasswordHash, in.Password):
		return Issued{}, fail(op, KindInvalidPassword)
	}

	f, err := s.mintPair(p, now)
	if err != nil {
		return Issued{}, internal(op, err)
	}

	row, err := s.store.Insert(ctx, Session{
		AccessToken:      f.AccessToken,
		RefreshToken:     f.RefreshToken,
		ExpiresAt:        f.ExpiresAt,
		RefreshExpiresAt: f.RefreshExpiresAt,
		PrincipalID:      p.ID,
	})
	if err != nil {
		return Issued{}, internal(op, err)
	}

	return issued(row.ID, p.ID, f), nil
}

// Refresh rotates the token pair of the session holding refreshToken.
// The row is updated in place, so the presented refresh token stops
// resolving. Concurrent refreshes of one token are not serialized; the last
// write wins.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (Issued, error) {
	const op = "session.Refresh"

	if err := requireRefreshToken(op, refreshToken); err != nil {
		return Issued{}, err
	}

	row, err := s.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return Issued{}, internal(op, err)
	}
	if row == nil {
		return Issued{}, fail(op, KindUnauthorized)
	}

	exp, err := s.refreshExpiry(refreshToken, now)
	if err != nil {
		return Issued{}, err
	}
	if exp < now.UnixMilli() {
		return Issued{}, fail(op, KindTokenExpired)
	}

	p, err := s.principals.FindByID(ctx, row.PrincipalID)
	if err != nil {
		return Issued{}, internal(op, err)
	}
	if p == nil {
		return Issued{}, fail(op, KindUnauthorized)
	}

	f, err := s.mintPair(p, now)
	if err != nil {
		return Issued{}, internal(op, err)
	}

	if err := s.store.Update(ctx, row.ID, f); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Issued{}, fail(op, KindUnauthorized)
		}
		return Issued{}, internal(op, err)
	}

	return issued(row.ID, p.ID, f), nil
}

// refreshExpiry reads the refresh token's exp. By default the signature is
// not checked; the store lookup is what binds the token to a session.
func (s *Service) refreshExpiry(raw string, now time.Time) (int64, error) {
	const op = "session.Refresh"

	if !s.cfg.VerifyRefreshSignature {
		exp, err := s.tokens.DecodeExpiry(raw)
		if err != nil {
			return 0, &Error{Op: op, Kind: KindUnauthorized, Err: err}
		}
		return exp, nil
	}

	claims, err := s.tokens.Parse(token.KindRefresh, raw, now)
	switch {
	case errors.Is(err, token.ErrExpired):
		return 0, fail(op, KindTokenExpired)
	case err != nil:
		return 0, &Error{Op: op, Kind: KindUnauthorized, Err: err}
	}
	return claims.ExpiresAt.UnixMilli(), nil
}

// Logout deletes every session holding refreshToken and reports how many
// were removed. Removing none is a success.
func (s *Service) Logout(ctx context.Context, refreshToken string) (int64, error) {
	const op = "session.Logout"

	if err := requireRefreshToken(op, refreshToken); err != nil {
		return 0, err
	}

	n, err := s.store.DeleteWhere(ctx, Filter{RefreshToken: refreshToken})
	if err != nil {
		return 0, internal(op, err)
	}
	return n, nil
}

// Authenticate resolves an access token to its live session and principal.
func (s *Service) Authenticate(ctx context.Context, now time.Time, accessToken string) (*identity.Principal, *Session, error) {
	const op = "session.Authenticate"

	if accessToken == "" {
		return nil, nil, fail(op, KindUnauthorized)
	}

	row, err := s.store.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, nil, internal(op, err)
	}
	if row == nil {
		return nil, nil, fail(op, KindUnauthorized)
	}
	if row.ExpiresAt < now.UnixMilli() {
		return nil, nil, fail(op, KindTokenExpired)
	}

	p, err := s.principals.FindByID(ctx, row.PrincipalID)
	if err != nil {
		return nil, nil, internal(op, err)
	}
	if p == nil {
		return nil, nil, fail(op, KindUnauthorized)
	}
	return p, row, nil
}

func (s *Service) mintPair(p *identity.Principal, now time.Time) (Fields, error) {
	access, accessExp, err := s.tokens.Mint(token.KindAccess, p.ID, p.Email, now)
	if err != nil {
		return Fields{}, err
	}
	refresh, refreshExp, err := s.tokens.Mint(token.KindRefresh, p.ID, p.Email, now)
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func issued(sessionID, principalID string, f Fields) Issued {
	return Issued{
		SessionID:    sessionID,
		PrincipalID:  principalID,
		AccessToken:  f.AccessToken,
		RefreshToken: f.RefreshToken,
		ExpiresAt:    f.ExpiresAt,
	}
}
