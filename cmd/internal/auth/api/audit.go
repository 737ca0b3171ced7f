package authapi

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
)

// EventRecorder receives one call per completed auth operation.
// result is "success" or the failure kind.
type EventRecorder interface {
	AuthEvent(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

const resultSuccess = "success"

// audit logs an auth outcome and forwards it to the event recorder.
// Internal failures log at error level with the underlying cause; client
// failures log at info.
func (h *Handler) audit(r *http.Request, op string, err error, attrs ...any) {
	result := resultSuccess
	if err != nil {
		result = string(session.KindOf(err))
	}
	h.events.AuthEvent(op, result)

	attrs = append(attrs,
		"result", result,
		"ip", ipString(clientIP(r, h.cfg.TrustProxy)),
		"ua", trimUA(r.UserAgent()),
	)

	switch {
	case err == nil:
		h.log.Info("auth."+op+".success", attrs...)
	case session.KindOf(err) == session.KindInternal:
		h.log.Error("auth."+op+".fail", append(attrs, "err", err)...)
	default:
		h.log.Info("auth."+op+".rejected", attrs...)
	}
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

const maxUALen = 256

// trimUA caps the user agent at maxUALen bytes without splitting a rune.
func trimUA(ua string) string {
	ua = strings.TrimSpace(ua)
	if len(ua) <= maxUALen {
		return ua
	}
	cut := maxUALen
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

