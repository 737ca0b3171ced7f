package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over the sessions table.
// The pool is owned by the caller.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the sessions table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("session: invalid schema identifier %q", schema)
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
		return nil, fmt.Errorf("session: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "sessions"}.Sanitize()
}

const sessionColumns = `id, access_token, refresh_token, expires, refresh_expires, account`

func (s *PostgresStore) FindByAccessToken(ctx context.Context, token string) (*Session, error) {
	return s.findFirst(ctx, "access_token", token)
}

func (s *PostgresStore) FindByRefreshToken(ctx context.Context, token string) (*Session, error) {
	return s.findFirst(ctx, "refresh_token", token)
}

// findFirst returns the oldest row where column = value. column is never user input.
func (s *PostgresStore) findFirst(ctx context.Context, column, value string) (*Session, error) {
	var row Session
	err := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM `+s.table()+`
		WHERE `+pgx.Identifier{column}.Sanitize()+` = $1
		ORDER BY created_at, id
		LIMIT 1
	`, value).Scan(
		&row.ID,
		&row.AccessToken,
		&row.RefreshToken,
		&row.ExpiresAt,
		&row.RefreshExpiresAt,
		&row.PrincipalID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: find by %s: %w", column, err)
	}
	return &row, nil
}

func (s *PostgresStore) Insert(ctx context.Context, row Session) (Session, error) {
	id, err := NewID()
	if err != nil {
		return Session{}, err
	}
	row.ID = id

	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+s.table()+` (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, row.ID, row.AccessToken, row.RefreshToken, row.ExpiresAt, row.RefreshExpiresAt, row.PrincipalID)
	if err != nil {
		return Session{}, fmt.Errorf("session: insert: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, f Fields) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table()+`
		SET access_token = $2,
		    refresh_token = $3,
		    expires = $4,
		    refresh_expires = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, f.AccessToken, f.RefreshToken, f.ExpiresAt, f.RefreshExpiresAt)
	if err != nil {
		return fmt.Errorf("session: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteWhere(ctx context.Context, f Filter) (int64, error) {
	if f.empty() {
		return 0, nil
	}

	var (
		conds []string
		args  []any
	)
	if f.RefreshToken != "" {
		args = append(args, f.RefreshToken)
		conds = append(conds, fmt.Sprintf("refresh_token = $%d", len(args)))
	}
	if f.RefreshExpiredBefore != 0 {
		args = append(args, f.RefreshExpiredBefore)
		conds = append(conds, fmt.Sprintf("refresh_expires < $%d", len(args)))
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE `+strings.Join(conds, " AND "),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("session: delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping reports whether the backing database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
