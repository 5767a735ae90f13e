package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/services"
	"github.com/transferpeer/peerconnect/internal/session"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error, so
// errcheck is suppressed.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondView answers an operation. Outcomes the user sees as notifications
// are 200 with the View; operations impossible in the current state are 409.
func respondView(c *gin.Context, view models.View, err error) {
	attachError(c, err)
	if services.IsConflict(err) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictMessage(err), "view": view})
		return
	}
	c.JSON(http.StatusOK, view)
}

func conflictMessage(err error) string {
	if errors.Is(err, session.ErrOperationInFlight) {
		return "Operation already in progress"
	}
	return "Operation not available on this page"
}
