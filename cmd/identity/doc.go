// Package identity is the read side of the principal (user) store and the
// credential verifier used by login.
//
// This service never creates or edits principals outside of dev seeding; the
// users table is owned by whoever provisions accounts.
package identity
