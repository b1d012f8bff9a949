package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"deliveryPanel/internal/shared/auth"
	"deliveryPanel/internal/shared/httputil"
)

const sessionContextKey = "session"

// SessionMiddleware resolves the caller's Session from the bearer token and stores it on the echo
// context. Handlers read it with SessionFrom; nothing else looks the token up.
func SessionMiddleware(registry *auth.SessionRegistry) echo.MiddlewareFunc {
	mapper := newErrorMapper()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractToken(c.Request(), "token")
			if token == "" {
				return respondError(c, mapper, auth.ErrMissingToken)
			}
			session, err := registry.Resolve(token)
			if err != nil {
				return respondError(c, mapper, err)
			}
			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the Session placed by SessionMiddleware.
func SessionFrom(c echo.Context) (auth.Session, bool) {
	session, ok := c.Get(sessionContextKey).(auth.Session)
	return session, ok
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	Subject   string    `json:"subject"`
	Roles     []string  `json:"roles"`
	Merchants []string  `json:"merchants"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// SessionHandler opens and closes dashboard sessions.
type SessionHandler struct {
	registry *auth.SessionRegistry
	mapper   *httputil.ErrorMapper
}

func NewSessionHandler(registry *auth.SessionRegistry) *SessionHandler {
	return &SessionHandler{registry: registry, mapper: newErrorMapper()}
}

// Open handles POST /api/session with the access token in the Authorization header.
func (h *SessionHandler) Open(c echo.Context) error {
	token := auth.ExtractBearerTokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if strings.TrimSpace(token) == "" {
		return respondError(c, h.mapper, auth.ErrMissingToken)
	}
	session, err := h.registry.Open(token)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{
		SessionID: session.ID,
		Subject:   session.Subject,
		Roles:     nonNil(session.Roles),
		Merchants: nonNil(session.Merchants),
		ExpiresAt: session.ExpiresAt,
	})
}

// Close handles DELETE /api/session.
func (h *SessionHandler) Close(c echo.Context) error {
	session, ok := SessionFrom(c)
	if !ok {
		return respondError(c, h.mapper, auth.ErrSessionNotFound)
	}
	h.registry.Close(session.ID)
	return c.NoContent(http.StatusNoContent)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
