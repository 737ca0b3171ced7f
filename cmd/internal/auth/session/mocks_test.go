package session

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Jager4561/car-case-auth/cmd/identity"
	"github.com/Jager4561/car-case-auth/cmd/security/token"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) FindByAccessToken(ctx context.Context, tok string) (*Session, error) {
	args := m.Called(ctx, tok)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *mockStore) FindByRefreshToken(ctx context.Context, tok string) (*Session, error) {
	args := m.Called(ctx, tok)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, s Session) (Session, error) {
	args := m.Called(ctx, s)
	out, _ := args.Get(0).(Session)
	return out, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id string, f Fields) error {
	return m.Called(ctx, id, f).Error(0)
}

func (m *mockStore) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	args := m.Called(ctx, f)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

type mockPrincipals struct{ mock.Mock }

func (m *mockPrincipals) FindByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*identity.Principal)
	return p, args.Error(1)
}

func (m *mockPrincipals) FindByID(ctx context.Context, id string) (*identity.Principal, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*identity.Principal)
	return p, args.Error(1)
}

type mockCodec struct{ mock.Mock }

func (m *mockCodec) Mint(kind token.Kind, principalID, email string, now time.Time) (string, int64, error) {
	args := m.Called(kind, principalID, email, now)
	n, _ := args.Get(1).(int64)
	return args.String(0), n, args.Error(2)
}

func (m *mockCodec) DecodeExpiry(raw string) (int64, error) {
	args := m.Called(raw)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *mockCodec) Parse(kind token.Kind, raw string, now time.Time) (*token.Claims, error) {
	args := m.Called(kind, raw, now)
	c, _ := args.Get(0).(*token.Claims)
	return c, args.Error(1)
}
