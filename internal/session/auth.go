package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/models"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"go.uber.org/zap"
)

// Authenticate logs in or signs up. Validation failures and backend errors
// produce an error notification; on success the session is stored and the
// role's home page is scheduled after the navigation delay.
func (c *Controller) Authenticate(ctx context.Context, mode models.AuthMode, creds models.Credentials, fields models.ProfileFields) (models.Session, error) {
	c.mu.Lock()
	now := c.opts.Clock()
	c.advance(now)

	if c.page != models.PageAuth || c.session.Authenticated {
		c.mu.Unlock()
		return models.Session{}, ErrWrongPage
	}
	if c.busy.Authenticate {
		c.mu.Unlock()
		return models.Session{}, ErrOperationInFlight
	}
	if mode != models.AuthModeSignup {
		mode = models.AuthModeLogin
	}

	creds.Email = strings.TrimSpace(creds.Email)
	if err := validateCredentials(mode, creds); err != nil {
		err = c.fail(now, err)
		c.mu.Unlock()
		return models.Session{}, err
	}

	if fields.Role == "" {
		fields.Role = models.RoleStudent
	}
	c.busy.Authenticate = true
	generation := c.generation
	c.mu.Unlock()

	resp, err := c.callAuth(ctx, mode, creds, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy.Authenticate = false
	now = c.opts.Clock()

	if generation != c.generation {
		logSuperseded(string(mode))
		return models.Session{}, ErrSuperseded
	}
	if err != nil {
		c.notify(now, models.NotificationError, backend.Reason(err))
		return models.Session{}, err
	}
	if resp.ID == "" {
		err = fmt.Errorf("%s: %w: response has no user id", mode, backend.ErrMalformedResponse)
		c.notify(now, models.NotificationError, backend.Reason(err))
		return models.Session{}, err
	}

	role := fields.Role
	if resp.Role != "" {
		role = models.ParseRole(resp.Role)
	}
	c.session = models.Session{
		Authenticated: true,
		UserID:        resp.ID,
		Email:         creds.Email,
		Role:          role,
	}

	if mode == models.AuthModeSignup {
		c.notify(now, models.NotificationSuccess, "Account created!")
	} else {
		c.notify(now, models.NotificationSuccess, "Login successful!")
	}

	c.pending = &models.PendingNavigation{
		Page: models.HomePage(role),
		At:   now.Add(c.opts.NavigationDelay),
	}
	c.advance(now)

	logger.Info("User authenticated",
		zap.String("mode", string(mode)),
		zap.String("user_id", resp.ID.String()),
		zap.String("role", string(role)))

	return c.session, nil
}

func (c *Controller) callAuth(ctx context.Context, mode models.AuthMode, creds models.Credentials, fields models.ProfileFields) (*backend.AuthResponse, error) {
	if mode == models.AuthModeSignup {
		return c.backend.Signup(ctx, backend.SignupRequest{
			Name:           fields.Name,
			Email:          creds.Email,
			Password:       creds.Password,
			Role:           string(fields.Role),
			School:         fields.School,
			PreviousSchool: fields.PreviousSchool,
			AreaOfStudy:    fields.AreaOfStudy,
		})
	}
	return c.backend.Login(ctx, backend.LoginRequest{
		Name:        fields.Name,
		Email:       creds.Email,
		Password:    creds.Password,
		Role:        string(fields.Role),
		School:      fields.School,
		AreaOfStudy: fields.AreaOfStudy,
	})
}

// ChangePassword verifies the current password through the backend login
// contract and then stores the new one
func (c *Controller) ChangePassword(ctx context.Context, current, next string) error {
	c.mu.Lock()
	now := c.opts.Clock()
	c.advance(now)

	if !c.session.Authenticated {
		c.notify(now, models.NotificationError, "Please log in to change your password")
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.busy.ChangePassword {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	if current == "" || next == "" {
		err := c.fail(now, pkgerrors.InvalidInputError("password", "Current and new password are required"))
		c.mu.Unlock()
		return err
	}
	if current == next {
		err := c.fail(now, pkgerrors.InvalidInputError("password", "New password must be different from the current password"))
		c.mu.Unlock()
		return err
	}

	c.busy.ChangePassword = true
	generation := c.generation
	sess := c.session
	c.mu.Unlock()

	err := c.verifyAndUpdatePassword(ctx, sess, current, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy.ChangePassword = false
	now = c.opts.Clock()

	if generation != c.generation {
		logSuperseded("changePassword")
		return ErrSuperseded
	}
	if errors.Is(err, ErrPasswordChangeUnsupported) {
		c.notify(now, models.NotificationError, "Password change is not supported by the server")
		return err
	}
	if err != nil {
		c.notify(now, models.NotificationError, "Failed to change password: "+backend.Reason(err))
		return err
	}
	c.notify(now, models.NotificationSuccess, "Password updated!")
	return nil
}

func (c *Controller) verifyAndUpdatePassword(ctx context.Context, sess models.Session, current, next string) error {
	resp, err := c.backend.Login(ctx, backend.LoginRequest{
		Email:    sess.Email,
		Password: current,
		Role:     string(sess.Role),
	})
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) || backend.IsStatus(err, http.StatusBadRequest) {
			return wrongCurrentPassword()
		}
		return err
	}
	if resp.ID != sess.UserID {
		return wrongCurrentPassword()
	}

	_, err = c.backend.UpdatePassword(ctx, sess.UserID, next)
	if routeMissing(err) {
		return fmt.Errorf("%w: %v", ErrPasswordChangeUnsupported, err)
	}
	return err
}

// routeMissing matches FastAPI's answer for an unknown path or method.
// A 404 carrying any other detail is a real lookup failure.
func routeMissing(err error) bool {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusMethodNotAllowed ||
		(apiErr.StatusCode == http.StatusNotFound && apiErr.Detail == "Not Found")
}

func wrongCurrentPassword() error {
	return &backend.APIError{
		Operation:  "login",
		StatusCode: http.StatusUnauthorized,
		Status:     "401 Unauthorized",
		Detail:     "current password is incorrect",
	}
}
