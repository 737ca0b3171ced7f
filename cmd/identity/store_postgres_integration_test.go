package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jager4561/car-case-auth/cmd/internal/db/dbtest"
)

func TestPostgresStore_Find(t *testing.T) {
	pool, schema := dbtest.Open(t)

	st, err := NewPostgresStore(pool, WithSchema(schema))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, password, active) VALUES ($1, $2, $3, $4), ($5, $6, $7, $8)`,
		"u1", "active@example.com", "$argon2id$stub", true,
		"u2", "Off@example.com", "$argon2id$stub", false,
	)
	require.NoError(t, err)

	p, err := st.FindByEmail(ctx, "active@example.com")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, Principal{ID: "u1", Email: "active@example.com", PasswordHash: "$argon2id$stub", Active: true}, *p)

	p, err = st.FindByEmail(ctx, "off@example.com")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = st.FindByID(ctx, "u2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Active)

	p, err = st.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewPostgresStore_Options(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)

	st := &PostgresStore{}
	assert.Error(t, WithSchema("bad-schema;")(st))
	assert.Error(t, WithSchema("  ")(st))
	require.NoError(t, WithSchema("cauth")(st))
	assert.Equal(t, "cauth", st.schema)
}
