package session

import (
	"context"
	"time"

	"github.com/Jager4561/car-case-auth/cmd/identity/ids"
)

// Session binds one issued token pair to a principal.
//
// ExpiresAt mirrors the exp claim of AccessToken and RefreshExpiresAt the exp
// claim of RefreshToken, both in epoch milliseconds.
type Session struct {
	ID               string `json:"id"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresAt        int64  `json:"expires"`
	RefreshExpiresAt int64  `json:"refresh_expires"`
	PrincipalID      string `json:"account"`
}

// Fields are the columns replaced by Store.Update.
type Fields struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAt        int64
	RefreshExpiresAt int64
}

func (s *Session) apply(f Fields) {
	s.AccessToken = f.AccessToken
	s.RefreshToken = f.RefreshToken
	s.ExpiresAt = f.ExpiresAt
	s.RefreshExpiresAt = f.RefreshExpiresAt
}

// Filter selects rows for Store.DeleteWhere. Set conditions are ANDed; a
// filter with no conditions matches nothing.
type Filter struct {
	RefreshToken string
	// RefreshExpiredBefore matches rows whose RefreshExpiresAt is strictly
	// before this epoch-millisecond instant.
	RefreshExpiredBefore int64
}

func (f Filter) empty() bool {
	return f.RefreshToken == "" && f.RefreshExpiredBefore == 0
}

// Matches reports whether s satisfies every set condition of f.
func (f Filter) Matches(s Session) bool {
	if f.empty() {
		return false
	}
	if f.RefreshToken != "" && s.RefreshToken != f.RefreshToken {
		return false
	}
	if f.RefreshExpiredBefore != 0 && s.RefreshExpiresAt >= f.RefreshExpiredBefore {
		return false
	}
	return true
}

// Store persists sessions.
//
// Token columns are not unique at this layer; lookups return the first
// matching row in insertion order. Lookups return (nil, nil) when nothing
// matches.
type Store interface {
	// FindByAccessToken returns the first session holding token as its access token.
	FindByAccessToken(ctx context.Context, token string) (*Session, error)

	// FindByRefreshToken returns the first session holding token as its refresh token.
	FindByRefreshToken(ctx context.Context, token string) (*Session, error)

	// Insert stores s under a newly assigned ID and returns the stored row.
	Insert(ctx context.Context, s Session) (Session, error)

	// Update replaces the token fields of row id atomically.
	// It returns ErrSessionNotFound when the row does not exist.
	Update(ctx context.Context, id string, f Fields) error

	// DeleteWhere removes every row matching f and returns how many were
	// removed. Removing nothing is not an error.
	DeleteWhere(ctx context.Context, f Filter) (int64, error)
}

// NewID returns a new session identifier.
func NewID() (string, error) {
	return ids.NewULID(time.Now().UTC())
}
