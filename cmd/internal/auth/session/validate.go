package session

import (
	"regexp"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted at login.
const MinPasswordLength = 8

var emailRe = regexp.MustCompile("^[A-Za-z0-9_!#$%&'*+/=?`{|}~^.-]+@[A-Za-z0-9.-]+$")

// LoginInput is the login request payload.
type LoginInput struct {
	Email    string
	Password string
}

// Validate checks field presence and shape. It does no lookups.
func (in LoginInput) Validate() error {
	const op = "session.Login.validate"

	switch {
	case in.Email == "":
		return failMsg(op, KindPayload, "Missing email")
	case in.Password == "":
		return failMsg(op, KindPayload, "Missing password")
	case !emailRe.MatchString(in.Email):
		return failMsg(op, KindPayload, "Invalid email")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return failMsg(op, KindPayload, "Password must be at least 8 characters long")
	}
	return nil
}

func requireRefreshToken(op, raw string) error {
	if raw == "" {
		return failMsg(op, KindPayload, "Missing refresh_token")
	}
	return nil
}
