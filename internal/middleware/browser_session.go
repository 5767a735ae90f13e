package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/transferpeer/peerconnect/internal/session"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
)

const (
	// SessionCookieName is the name of the browser session cookie
	SessionCookieName = "pc_session"

	sessionControllerKey = "pc_session_controller"
	sessionIDKey         = "pc_session_id"
)

var (
	ErrNoSession      = pkgerrors.NotFoundError("session controller")
	ErrInvalidSession = pkgerrors.InternalError("invalid session type")
)

// SessionResolver maps a session cookie value to its controller
type SessionResolver interface {
	Resolve(token string) (*session.Controller, string, error)
}

// CookieOptions are the attributes of the session cookie
type CookieOptions struct {
	Domain string
	Secure bool
}

// BrowserSessionMiddleware loads the controller addressed by the session cookie into the context
func BrowserSessionMiddleware(resolver SessionResolver, cookie CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			_ = c.Error(fmt.Errorf("missing session cookie")) //nolint:errcheck
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		ctrl, id, err := resolver.Resolve(token)
		if errors.Is(err, pkgerrors.ErrUnauthorized) {
			_ = c.Error(fmt.Errorf("invalid session: %w", err)) //nolint:errcheck
			ClearSessionCookie(c, cookie)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}
		if err != nil {
			_ = c.Error(err) //nolint:errcheck
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			c.Abort()
			return
		}

		c.Set(sessionControllerKey, ctrl)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// GetController extracts the session controller from context
func GetController(c *gin.Context) (*session.Controller, error) {
	val, exists := c.Get(sessionControllerKey)
	if !exists {
		return nil, ErrNoSession
	}

	ctrl, ok := val.(*session.Controller)
	if !ok {
		return nil, ErrInvalidSession
	}
	return ctrl, nil
}

// GetSessionID returns the browser session ID stored by BrowserSessionMiddleware
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// SetSessionCookie sets the browser session cookie
func SetSessionCookie(c *gin.Context, token string, ttlSeconds int, cookie CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName,
		token,
		ttlSeconds,
		"/",
		cookie.Domain,
		cookie.Secure,
		true, // HttpOnly
	)
}

// ClearSessionCookie expires the browser session cookie
func ClearSessionCookie(c *gin.Context, cookie CookieOptions) {
	SetSessionCookie(c, "", -1, cookie)
}
