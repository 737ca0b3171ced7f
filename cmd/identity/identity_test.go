package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jager4561/car-case-auth/cmd/security/password"
)

func cheapPasswordConfig() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestMemoryStore_FindExactEmail(t *testing.T) {
	st := NewMemoryStore()
	p, err := st.Add(Principal{Email: "Driver@Example.com", PasswordHash: "x", Active: true})
	require.NoError(t, err)
	assert.Len(t, p.ID, 26)

	ctx := context.Background()

	got, err := st.FindByEmail(ctx, "Driver@Example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, *got)

	got, err = st.FindByEmail(ctx, "driver@example.com")
	require.NoError(t, err)
	assert.Nil(t, got, "email match is case-sensitive")

	got, err = st.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Driver@Example.com", got.Email)

	st.Remove(p.ID)
	got, err = st.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_AddConflicts(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.Add(Principal{ID: "a", Email: "a@b.c", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = st.Add(Principal{ID: "b", Email: "a@b.c", PasswordHash: "x"})
	assert.True(t, IsConflict(err))

	_, err = st.Add(Principal{ID: "a", Email: "z@b.c", PasswordHash: "x"})
	assert.True(t, IsConflict(err))

	_, err = st.Add(Principal{Email: "", PasswordHash: "x"})
	assert.True(t, IsInvalidInput(err))
}

func TestArgon2idVerifier(t *testing.T) {
	cfg := cheapPasswordConfig()
	hash, err := cfg.Hash("hunter2hunter2")
	require.NoError(t, err)

	v := NewArgon2idVerifier(cfg, nil)
	assert.True(t, v.Verify(hash, "hunter2hunter2"))
	assert.False(t, v.Verify(hash, "hunter2hunter3"))
	assert.False(t, v.Verify("plaintext", "plaintext"))
}

func TestParseSeeds(t *testing.T) {
	seeds, err := ParseSeeds(" a@b.c:password1 , x@y.z:password2:inactive,")
	require.NoError(t, err)
	assert.Equal(t, []Seed{
		{Email: "a@b.c", Password: "password1", Active: true},
		{Email: "x@y.z", Password: "password2", Active: false},
	}, seeds)

	for _, bad := range []string{"a@b.c", "a@b.c:", "a@b.c:pw:disabled", ":pw"} {
		_, err := ParseSeeds(bad)
		assert.Error(t, err, bad)
	}
}

func TestSeedMemory(t *testing.T) {
	cfg := cheapPasswordConfig()
	st := NewMemoryStore()

	ps, err := SeedMemory(st, cfg, []Seed{{Email: "a@b.c", Password: "password1", Active: true}})
	require.NoError(t, err)
	require.Len(t, ps, 1)

	got, err := st.FindByEmail(context.Background(), "a@b.c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, NewArgon2idVerifier(cfg, nil).Verify(got.PasswordHash, "password1"))

	_, err = SeedMemory(st, cfg, []Seed{{Email: "short@b.c", Password: "short"}})
	assert.ErrorIs(t, err, password.ErrPasswordTooShort)
}
