package authapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
)

type errorResponse struct {
	Type    session.Kind `json:"type"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {type, message} with the status mapped from its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := session.KindOf(err)
	writeJSON(w, statusFor(kind), errorResponse{Type: kind, Message: session.MessageOf(err)})
}

func payloadError(msg string) error {
	return &session.Error{Op: "authapi.decode", Kind: session.KindPayload, Msg: msg}
}

// decodeJSON reads one JSON object into a new T. An empty body or a JSON null
// yields "Missing payload"; anything unparsable yields "Invalid payload".
// Unknown fields are ignored.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (*T, error) {
	if r.Body == nil {
		return nil, payloadError("Missing payload")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))

	var dst *T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, payloadError("Missing payload")
		}
		return nil, payloadError("Invalid payload")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, payloadError("Invalid payload")
	}
	if dst == nil {
		return nil, payloadError("Missing payload")
	}
	return dst, nil
}
