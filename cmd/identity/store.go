package identity

import "context"

// Principal is an account that can log in.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Active       bool
}

// Store is the principal lookup boundary.
//
// Lookups return (nil, nil) when no principal matches. Errors are reserved
// for backend failures.
type Store interface {
	// FindByEmail matches email exactly as stored (case-sensitive).
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
}
