package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/transferpeer/peerconnect/internal/middleware"
	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/services"
	"github.com/transferpeer/peerconnect/internal/session"
)

// AuthRequest is the body of the login and signup endpoints.
// Presence checks happen in the controller so they surface as notifications.
type AuthRequest struct {
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Name           string      `json:"name"`
	Role           models.Role `json:"role"`
	School         string      `json:"school"`
	PreviousSchool string      `json:"previousSchool"`
	AreaOfStudy    string      `json:"areaOfStudy"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type SearchRequest struct {
	TargetUniversity string `json:"targetUniversity"`
}

// SessionHandler exposes the session controller operations as JSON endpoints
type SessionHandler struct {
	service services.SessionServiceInterface
	cookie  middleware.CookieOptions
}

func NewSessionHandler(service services.SessionServiceInterface, cookie middleware.CookieOptions) *SessionHandler {
	return &SessionHandler{
		service: service,
		cookie:  cookie,
	}
}

// StartSession handles POST /api/v1/session
func (h *SessionHandler) StartSession(c *gin.Context) {
	started, err := h.service.Start()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to start session", err)
		return
	}

	middleware.SetSessionCookie(c, started.Token, h.service.TokenTTLSeconds(), h.cookie)
	c.JSON(http.StatusCreated, started.View)
}

// GetView handles GET /api/v1/session
func (h *SessionHandler) GetView(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// Login handles POST /api/v1/auth/login
func (h *SessionHandler) Login(c *gin.Context) {
	h.authenticate(c, models.AuthModeLogin)
}

// Signup handles POST /api/v1/auth/signup
func (h *SessionHandler) Signup(c *gin.Context) {
	h.authenticate(c, models.AuthModeSignup)
}

func (h *SessionHandler) authenticate(c *gin.Context, mode models.AuthMode) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req AuthRequest
	if !bindBody(c, &req) {
		return
	}

	view, err := h.service.Authenticate(operationContext(c), ctrl, mode,
		models.Credentials{Email: req.Email, Password: req.Password},
		models.ProfileFields{
			Name:           req.Name,
			Role:           normalizeRole(req.Role),
			School:         req.School,
			PreviousSchool: req.PreviousSchool,
			AreaOfStudy:    req.AreaOfStudy,
		})
	respondView(c, view, err)
}

// Logout handles POST /api/v1/auth/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.Logout(ctrl))
}

// ChangePassword handles POST /api/v1/auth/password
func (h *SessionHandler) ChangePassword(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !bindBody(c, &req) {
		return
	}

	view, err := h.service.ChangePassword(operationContext(c), ctrl, req.CurrentPassword, req.NewPassword)
	respondView(c, view, err)
}

// OpenProfile handles POST /api/v1/profile/open
func (h *SessionHandler) OpenProfile(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	view, err := h.service.OpenProfile(operationContext(c), ctrl)
	respondView(c, view, err)
}

// LoadProfile handles POST /api/v1/profile/reload
func (h *SessionHandler) LoadProfile(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	view, err := h.service.LoadProfile(operationContext(c), ctrl)
	respondView(c, view, err)
}

// EditProfile handles PUT /api/v1/profile/draft
func (h *SessionHandler) EditProfile(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var draft models.ProfileDraft
	if !bindBody(c, &draft) {
		return
	}

	view, err := h.service.EditProfile(ctrl, draft)
	respondView(c, view, err)
}

// SaveProfile handles POST /api/v1/profile/save
func (h *SessionHandler) SaveProfile(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	view, err := h.service.SaveProfile(operationContext(c), ctrl)
	respondView(c, view, err)
}

// CloseProfile handles POST /api/v1/profile/close
func (h *SessionHandler) CloseProfile(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	view, err := h.service.CloseProfile(ctrl)
	respondView(c, view, err)
}

// SearchMentors handles POST /api/v1/mentors/search
func (h *SessionHandler) SearchMentors(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req SearchRequest
	if !bindBody(c, &req) {
		return
	}

	view, err := h.service.SearchMentors(operationContext(c), ctrl, req.TargetUniversity)
	respondView(c, view, err)
}

// operationContext keeps request values such as the trace span but drops
// cancellation: a started operation completes even if the browser goes away.
func operationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *SessionHandler) controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := middleware.GetController(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return nil, false
	}
	return ctrl, true
}

func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func normalizeRole(r models.Role) models.Role {
	if r == "" {
		return ""
	}
	return models.ParseRole(string(r))
}
