package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads principals from the users table.
// The pool is owned by the caller and is never closed here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the users table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "public"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	return s.findOne(ctx, "identity.FindByEmail", "email", email)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Principal, error) {
	return s.findOne(ctx, "identity.FindByID", "id", id)
}

// findOne returns the first row where column = value. column is never user input.
func (s *PostgresStore) findOne(ctx context.Context, op, column, value string) (*Principal, error) {
	users := pgIdent(s.schema, "users")

	var p Principal
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, active
		   FROM `+users+`
		  WHERE `+pgx.Identifier{column}.Sanitize()+` = $1
		  LIMIT 1`,
		value,
	).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}
