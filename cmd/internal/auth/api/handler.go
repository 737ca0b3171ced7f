package authapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
	"github.com/Jager4561/car-case-auth/cmd/security/token"
)

// Handler wires HTTP auth endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
	events   EventRecorder
	now      func() time.Time
}

type HandlerOption func(*Handler)

// WithEventRecorder sets the sink for per-operation outcome counts.
func WithEventRecorder(r EventRecorder) HandlerOption {
	return func(h *Handler) {
		if r != nil {
			h.events = r
		}
	}
}

// WithClock overrides the time source used for token minting and expiry checks.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, opts ...HandlerOption) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, session.ErrConfig
	}
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		events:   nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register mounts the auth routes on mux under the configured prefix.
func (h *Handler) Register(mux *http.ServeMux) {
	p := h.cfg.RoutePrefix
	mux.Handle(p+"/login", allow(http.MethodPost, http.HandlerFunc(h.handleLogin)))
	mux.Handle(p+"/refresh", allow(http.MethodPost, http.HandlerFunc(h.handleRefresh)))
	mux.Handle(p+"/logout", allow(http.MethodPost, h.RequireAuth(http.HandlerFunc(h.handleLogout))))
	mux.Handle(p+"/me", allow(http.MethodGet, h.RequireAuth(http.HandlerFunc(h.handleMe))))
}

func allow(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[loginRequest](w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		h.audit(r, "login", err)
		writeError(w, err)
		return
	}

	out, err := h.sessions.Login(r.Context(), h.now(), session.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.audit(r, "login", err, "email", req.Email)
		writeError(w, err)
		return
	}

	h.audit(r, "login", nil, "email", req.Email, "session_id", out.SessionID, "principal_id", out.PrincipalID)
	writeJSON(w, http.StatusOK, issuedResponse(out))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[refreshRequest](w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		h.audit(r, "refresh", err)
		writeError(w, err)
		return
	}

	out, err := h.sessions.Refresh(r.Context(), h.now(), req.RefreshToken)
	fp := token.Fingerprint(req.RefreshToken)
	if err != nil {
		h.audit(r, "refresh", err, "refresh_fp", fp)
		writeError(w, err)
		return
	}

	h.audit(r, "refresh", nil, "refresh_fp", fp, "session_id", out.SessionID, "principal_id", out.PrincipalID)
	writeJSON(w, http.StatusOK, issuedResponse(out))
}

// handleLogout runs behind RequireAuth. It deletes every session whose
// refresh token matches the body value, whether or not it belongs to the caller.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[refreshRequest](w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		h.audit(r, "logout", err)
		writeError(w, err)
		return
	}

	n, err := h.sessions.Logout(r.Context(), req.RefreshToken)
	fp := token.Fingerprint(req.RefreshToken)
	if err != nil {
		h.audit(r, "logout", err, "refresh_fp", fp)
		writeError(w, err)
		return
	}

	attrs := []any{"refresh_fp", fp, "deleted", n}
	if p, ok := PrincipalFromContext(r.Context()); ok {
		attrs = append(attrs, "principal_id", p.ID)
	}
	h.audit(r, "logout", nil, attrs...)

	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, session.TokenMissing("authapi.me"))
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: p.ID, Email: p.Email, Active: p.Active})
}

func issuedResponse(out session.Issued) tokenResponse {
	return tokenResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Expires:      out.ExpiresAt,
	}
}
