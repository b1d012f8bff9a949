package auth

import (
	"net/http"
	"strings"
)

const bearerScheme = "bearer"

// ExtractBearerTokenFromHeader returns the credentials of a "Bearer <token>" Authorization value.
// The scheme is matched case-insensitively; anything else yields "".
func ExtractBearerTokenFromHeader(header string) string {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// ExtractToken prefers the Authorization header and falls back to queryParam, "token" when empty.
// Websocket upgrades from a browser can only use the query string.
func ExtractToken(r *http.Request, queryParam string) string {
	if r == nil {
		return ""
	}
	if token := ExtractBearerTokenFromHeader(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if r.URL == nil {
		return ""
	}
	if queryParam == "" {
		queryParam = "token"
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}
