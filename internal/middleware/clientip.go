package middleware

import (
	"net/http"
	"strings"

	"github.com/archpointlabs/milo/internal/domain"
)

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, and
// "unknown" when neither header is present. RemoteAddr is not consulted.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return domain.UnknownClientValue
}

// UserAgent returns the User-Agent header or "unknown".
func UserAgent(r *http.Request) string {
	if ua := strings.TrimSpace(r.UserAgent()); ua != "" {
		return ua
	}
	return domain.UnknownClientValue
}
