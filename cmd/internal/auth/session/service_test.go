package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Jager4561/car-case-auth/cmd/identity"
	"github.com/Jager4561/car-case-auth/cmd/security/password"
	"github.com/Jager4561/car-case-auth/cmd/security/token"
)

const (
	alicePassword = "correct horse battery"
	accessTTL     = 15 * time.Minute
	refreshTTL    = 7 * 24 * time.Hour
)

type fixture struct {
	svc        *Service
	cfg        Config
	codec      *token.Codec
	store      *MemoryStore
	principals *identity.MemoryStore
	alice      identity.Principal
	now        time.Time
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessTokenKey = "access-key-access-key-access-key!"
	cfg.RefreshTokenKey = "refresh-key-refresh-key-refresh-k"
	cfg.AccessTokenTTL = token.TTL(accessTTL)
	cfg.RefreshTokenTTL = token.TTL(refreshTTL)
	return cfg
}

func cheapPasswords() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	codec, err := cfg.NewCodec()
	require.NoError(t, err)

	pw := cheapPasswords()
	principals := identity.NewMemoryStore()
	seeded, err := identity.SeedMemory(principals, pw, []identity.Seed{
		{Email: "alice@example.com", Password: alicePassword, Active: true},
		{Email: "bob@example.com", Password: alicePassword, Active: false},
	})
	require.NoError(t, err)

	store := NewMemoryStore()
	return &fixture{
		svc:        NewService(cfg, codec, store, principals, identity.NewArgon2idVerifier(pw, nil)),
		cfg:        cfg,
		codec:      codec,
		store:      store,
		principals: principals,
		alice:      seeded[0],
		now:        time.Now().UTC(),
	}
}

func (f *fixture) login(t *testing.T) Issued {
	t.Helper()
	out, err := f.svc.Login(context.Background(), f.now, LoginInput{Email: f.alice.Email, Password: alicePassword})
	require.NoError(t, err)
	return out
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, KindOf(err), "err: %v", err)
}

func TestLogin_IssuesPairAndSession(t *testing.T) {
	f := newFixture(t)
	out := f.login(t)

	accessExp, err := f.codec.DecodeExpiry(out.AccessToken)
	require.NoError(t, err)
	refreshExp, err := f.codec.DecodeExpiry(out.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, accessExp, out.ExpiresAt)
	assert.InDelta(t, f.now.Add(accessTTL).UnixMilli(), accessExp, 1000)
	assert.InDelta(t, f.now.Add(refreshTTL).UnixMilli(), refreshExp, 1000)

	row, err := f.store.FindByAccessToken(context.Background(), out.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, out.SessionID, row.ID)
	assert.Equal(t, f.alice.ID, row.PrincipalID)
	assert.Equal(t, out.RefreshToken, row.RefreshToken)
	assert.Equal(t, accessExp, row.ExpiresAt)
	assert.Equal(t, refreshExp, row.RefreshExpiresAt)
}

func TestLogin_TwiceCreatesTwoLiveSessions(t *testing.T) {
	f := newFixture(t)
	a := f.login(t)
	b := f.login(t)

	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
	assert.Equal(t, 2, f.store.Len())

	for _, tok := range []string{a.AccessToken, b.AccessToken} {
		p, _, err := f.svc.Authenticate(context.Background(), f.now, tok)
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, p.ID)
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, f.now, LoginInput{Email: "nobody@example.com", Password: alicePassword})
	requireKind(t, err, KindNotFound)

	_, err = f.svc.Login(ctx, f.now, LoginInput{Email: "bob@example.com", Password: alicePassword})
	requireKind(t, err, KindInactive)

	_, err = f.svc.Login(ctx, f.now, LoginInput{Email: "alice@example.com", Password: "wrong password"})
	requireKind(t, err, KindInvalidPassword)

	_, err = f.svc.Login(ctx, f.now, LoginInput{Email: "ALICE@example.com", Password: alicePassword})
	requireKind(t, err, KindNotFound)

	assert.Zero(t, f.store.Len())
}

func TestLogin_ValidationBeforeAnyLookup(t *testing.T) {
	principals := new(mockPrincipals)
	store := new(mockStore)
	svc := NewService(testConfig(), new(mockCodec), store, principals, nil)

	cases := map[string]struct {
		in  LoginInput
		msg string
	}{
		"missing email":    {LoginInput{Password: "long enough"}, "Missing email"},
		"missing password": {LoginInput{Email: "a@b.c"}, "Missing password"},
		"bad email":        {LoginInput{Email: "not-an-email", Password: "long enough"}, "Invalid email"},
		"two at signs":     {LoginInput{Email: "a@b@c", Password: "long enough"}, "Invalid email"},
		"short password":   {LoginInput{Email: "a@b.c", Password: "1234567"}, "Password must be at least 8 characters long"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), time.Now(), tc.in)
			requireKind(t, err, KindPayload)
			assert.Equal(t, tc.msg, MessageOf(err))
		})
	}

	principals.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestLogin_InternalFailuresDoNotLeak(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")

	principals := new(mockPrincipals)
	principals.On("FindByEmail", mock.Anything, "a@b.c").Return(nil, cause)

	svc := NewService(testConfig(), new(mockCodec), new(mockStore), principals, nil)
	_, err := svc.Login(context.Background(), time.Now(), LoginInput{Email: "a@b.c", Password: "long enough"})

	requireKind(t, err, KindInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", MessageOf(err))
}

func TestLogin_InsertFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	store := new(mockStore)
	store.On("Insert", mock.Anything, mock.Anything).Return(Session{}, errors.New("disk full"))
	f.svc.store = store

	_, err := f.svc.Login(context.Background(), f.now, LoginInput{Email: f.alice.Email, Password: alicePassword})
	requireKind(t, err, KindInternal)
}

func TestLogin_MintFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	codec := new(mockCodec)
	codec.On("Mint", token.KindAccess, f.alice.ID, f.alice.Email, f.now).Return("", int64(0), errors.New("boom"))
	f.svc.tokens = codec

	_, err := f.svc.Login(context.Background(), f.now, LoginInput{Email: f.alice.Email, Password: alicePassword})
	requireKind(t, err, KindInternal)
	assert.Zero(t, f.store.Len())
}

func TestRefresh_RotatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.login(t)

	later := f.now.Add(2 * time.Second)
	second, err := f.svc.Refresh(ctx, later, first.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.store.Len())

	row, err := f.store.FindByRefreshToken(ctx, second.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, second.AccessToken, row.AccessToken)
	assert.Equal(t, second.ExpiresAt, row.ExpiresAt)

	decoded, err := f.codec.DecodeExpiry(row.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, decoded, row.ExpiresAt)

	_, err = f.svc.Refresh(ctx, later, first.RefreshToken)
	requireKind(t, err, KindUnauthorized)

	_, _, err = f.svc.Authenticate(ctx, later, first.AccessToken)
	requireKind(t, err, KindUnauthorized)
}

func TestRefresh_ExpiredDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.login(t)

	before, err := f.store.FindByRefreshToken(ctx, out.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, f.now.Add(refreshTTL+time.Minute), out.RefreshToken)
	requireKind(t, err, KindTokenExpired)

	after, err := f.store.FindByRefreshToken(ctx, out.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefresh_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, f.now, "")
	requireKind(t, err, KindPayload)
	assert.Equal(t, "Missing refresh_token", MessageOf(err))

	_, err = f.svc.Refresh(ctx, f.now, "unknown")
	requireKind(t, err, KindUnauthorized)

	out := f.login(t)
	_, err = f.svc.Refresh(ctx, f.now, out.AccessToken)
	requireKind(t, err, KindUnauthorized)

	f.principals.Remove(f.alice.ID)
	_, err = f.svc.Refresh(ctx, f.now, out.RefreshToken)
	requireKind(t, err, KindUnauthorized)
}

func TestRefresh_RowDeletedConcurrently(t *testing.T) {
	f := newFixture(t)
	out := f.login(t)

	store := new(mockStore)
	row, _ := f.store.FindByRefreshToken(context.Background(), out.RefreshToken)
	store.On("FindByRefreshToken", mock.Anything, out.RefreshToken).Return(row, nil)
	store.On("Update", mock.Anything, row.ID, mock.Anything).Return(ErrSessionNotFound)
	f.svc.store = store

	_, err := f.svc.Refresh(context.Background(), f.now, out.RefreshToken)
	requireKind(t, err, KindUnauthorized)
}

func TestRefresh_UnverifiedDecodeByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A row holding a token signed with a foreign key still refreshes when
	// signature verification is off.
	foreign, err := token.NewCodec(
		token.Signer{Key: []byte("other-access"), TTL: time.Minute},
		token.Signer{Key: []byte("other-refresh"), TTL: time.Hour},
		"",
	)
	require.NoError(t, err)
	raw, exp, err := foreign.Mint(token.KindRefresh, f.alice.ID, f.alice.Email, f.now)
	require.NoError(t, err)
	_, err = f.store.Insert(ctx, Session{AccessToken: "a", RefreshToken: raw, ExpiresAt: exp, RefreshExpiresAt: exp, PrincipalID: f.alice.ID})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, f.now, raw)
	require.NoError(t, err)
}

func TestRefresh_VerifiedSignature(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.VerifyRefreshSignature = true })
	ctx := context.Background()

	out := f.login(t)
	_, err := f.svc.Refresh(ctx, f.now.Add(time.Second), out.RefreshToken)
	require.NoError(t, err)

	foreign, err := token.NewCodec(
		token.Signer{Key: []byte("other-access"), TTL: time.Minute},
		token.Signer{Key: []byte("other-refresh"), TTL: time.Hour},
		"",
	)
	require.NoError(t, err)
	raw, exp, err := foreign.Mint(token.KindRefresh, f.alice.ID, f.alice.Email, f.now)
	require.NoError(t, err)
	_, err = f.store.Insert(ctx, Session{AccessToken: "a", RefreshToken: raw, ExpiresAt: exp, RefreshExpiresAt: exp, PrincipalID: f.alice.ID})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, f.now, raw)
	requireKind(t, err, KindUnauthorized)

	second := f.login(t)
	_, err = f.svc.Refresh(ctx, f.now.Add(refreshTTL+time.Minute), second.RefreshToken)
	requireKind(t, err, KindTokenExpired)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.login(t)
	drop := f.login(t)

	n, err := f.svc.Logout(ctx, drop.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.svc.Logout(ctx, drop.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	assert.Equal(t, 1, f.store.Len())
	_, _, err = f.svc.Authenticate(ctx, f.now, keep.AccessToken)
	require.NoError(t, err)

	_, err = f.svc.Logout(ctx, "")
	requireKind(t, err, KindPayload)
}

func TestLogout_StoreFailure(t *testing.T) {
	store := new(mockStore)
	store.On("DeleteWhere", mock.Anything, Filter{RefreshToken: "r"}).Return(int64(0), errors.New("down"))
	svc := NewService(testConfig(), new(mockCodec), store, new(mockPrincipals), nil)

	_, err := svc.Logout(context.Background(), "r")
	requireKind(t, err, KindInternal)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := f.login(t)

	p, row, err := f.svc.Authenticate(ctx, f.now, out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.alice.Email, p.Email)
	assert.Equal(t, out.SessionID, row.ID)

	_, _, err = f.svc.Authenticate(ctx, f.now, "")
	requireKind(t, err, KindUnauthorized)

	_, _, err = f.svc.Authenticate(ctx, f.now, "eyJ.unknown.token")
	requireKind(t, err, KindUnauthorized)

	// Exactly at expiry is still valid; one millisecond later is not.
	_, _, err = f.svc.Authenticate(ctx, time.UnixMilli(out.ExpiresAt), out.AccessToken)
	require.NoError(t, err)
	_, _, err = f.svc.Authenticate(ctx, time.UnixMilli(out.ExpiresAt+1), out.AccessToken)
	requireKind(t, err, KindTokenExpired)

	f.principals.Remove(f.alice.ID)
	_, _, err = f.svc.Authenticate(ctx, f.now, out.AccessToken)
	requireKind(t, err, KindUnauthorized)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindTokenMissing, KindOf(TokenMissing("op")))
	assert.Equal(t, KindTokenInvalid, KindOf(TokenInvalid("op")))

	wrapped := errors.Join(errors.New("ctx"), fail("op", KindInactive))
	assert.Equal(t, KindInactive, KindOf(wrapped))
	assert.Equal(t, "User is inactive", MessageOf(wrapped))

	e := &Error{Op: "op", Kind: KindInternal, Msg: "secret detail", Err: errors.New("x")}
	assert.Equal(t, "Internal server error", e.Message())
}
