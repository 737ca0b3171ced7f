package authapi

import (
	"net/http"

	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
)

// kindStatus is the only place session kinds become HTTP status codes.
var kindStatus = map[session.Kind]int{
	session.KindPayload:         http.StatusBadRequest,
	session.KindTokenMissing:    http.StatusBadRequest,
	session.KindTokenInvalid:    http.StatusUnauthorized,
	session.KindUnauthorized:    http.StatusUnauthorized,
	session.KindTokenExpired:    http.StatusUnauthorized,
	session.KindNotFound:        http.StatusNotFound,
	session.KindInactive:        http.StatusForbidden,
	session.KindInvalidPassword: http.StatusForbidden,
	session.KindInternal:        http.StatusInternalServerError,
}

func statusFor(k session.Kind) int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}
