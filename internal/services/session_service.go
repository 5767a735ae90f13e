package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/cache"
	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/session"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/jwt"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = fmt.Errorf("session not found or expired: %w", pkgerrors.ErrUnauthorized)
	ErrTokenIssueFailed = pkgerrors.InternalError("failed to issue session token")
)

// StartedSession is a newly created browser session
type StartedSession struct {
	ID    string
	Token string
	View  models.View
}

// SessionService owns the live controllers and the cookies that address them
type SessionService struct {
	client       backend.Client
	sessions     *cache.SessionCache
	tokenManager *jwt.TokenManager
	options      session.Options
}

// NewSessionService creates a SessionService. opts is the template applied to
// every new controller; its OnNotify is replaced by the service.
func NewSessionService(client backend.Client, sessions *cache.SessionCache, tokenManager *jwt.TokenManager, opts session.Options) *SessionService {
	return &SessionService{
		client:       client,
		sessions:     sessions,
		tokenManager: tokenManager,
		options:      opts,
	}
}

// Start creates a controller on the Auth page and a signed token for it
func (s *SessionService) Start() (*StartedSession, error) {
	id := uuid.NewString()

	token, err := s.tokenManager.GenerateToken(id)
	if err != nil {
		logger.LogError(err, "Failed to sign session token", zap.String("session_id", id))
		return nil, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}

	opts := s.options
	opts.OnNotify = notificationObserver(id)
	ctrl := session.NewController(s.client, opts)
	s.sessions.Put(id, ctrl)

	metrics.SessionsStarted.Inc()
	logger.Info("Browser session started", zap.String("session_id", id))

	return &StartedSession{ID: id, Token: token, View: ctrl.View()}, nil
}

// Resolve returns the controller addressed by a session token
func (s *SessionService) Resolve(token string) (*session.Controller, string, error) {
	if token == "" {
		return nil, "", ErrSessionNotFound
	}

	claims, err := s.tokenManager.ValidateToken(token)
	if err != nil {
		logger.Debug("Rejected session token", zap.Error(err))
		return nil, "", ErrSessionNotFound
	}

	ctrl, ok := s.sessions.Get(claims.SessionID)
	if !ok {
		return nil, "", ErrSessionNotFound
	}
	return ctrl, claims.SessionID, nil
}

// End forgets a browser session
func (s *SessionService) End(id string) {
	s.sessions.Delete(id)
}

// TokenTTLSeconds is the lifetime of issued tokens, for cookie Max-Age
func (s *SessionService) TokenTTLSeconds() int {
	return int(s.tokenManager.GetExpirationTime().Seconds())
}

func (s *SessionService) Authenticate(ctx context.Context, ctrl *session.Controller, mode models.AuthMode, creds models.Credentials, fields models.ProfileFields) (models.View, error) {
	_, err := ctrl.Authenticate(ctx, mode, creds, fields)
	record(string(mode), err)
	return ctrl.View(), err
}

func (s *SessionService) Logout(ctrl *session.Controller) models.View {
	record("logout", nil)
	return ctrl.Logout()
}

func (s *SessionService) ChangePassword(ctx context.Context, ctrl *session.Controller, current, next string) (models.View, error) {
	err := ctrl.ChangePassword(ctx, current, next)
	record("changePassword", err)
	return ctrl.View(), err
}

func (s *SessionService) OpenProfile(ctx context.Context, ctrl *session.Controller) (models.View, error) {
	_, err := ctrl.OpenProfile(ctx)
	record("openProfile", err)
	return ctrl.View(), err
}

func (s *SessionService) LoadProfile(ctx context.Context, ctrl *session.Controller) (models.View, error) {
	_, err := ctrl.LoadProfile(ctx)
	record("loadProfile", err)
	return ctrl.View(), err
}

func (s *SessionService) EditProfile(ctrl *session.Controller, draft models.ProfileDraft) (models.View, error) {
	err := ctrl.EditProfile(draft)
	record("editProfile", err)
	return ctrl.View(), err
}

func (s *SessionService) SaveProfile(ctx context.Context, ctrl *session.Controller) (models.View, error) {
	err := ctrl.SaveProfile(ctx)
	record("saveProfile", err)
	return ctrl.View(), err
}

func (s *SessionService) CloseProfile(ctrl *session.Controller) (models.View, error) {
	err := ctrl.CloseProfile()
	record("closeProfile", err)
	return ctrl.View(), err
}

func (s *SessionService) SearchMentors(ctx context.Context, ctrl *session.Controller, targetUniversity string) (models.View, error) {
	results, err := ctrl.SearchMentors(ctx, targetUniversity)
	record("searchMentors", err)
	if err == nil {
		metrics.MentorSearchResults.Observe(float64(len(results)))
	}
	return ctrl.View(), err
}

// IsConflict reports whether err means the operation could not run in the
// controller's current state
func IsConflict(err error) bool {
	return errors.Is(err, pkgerrors.ErrConflict)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsConflict(err):
		return "conflict"
	case errors.Is(err, session.ErrSuperseded):
		return "superseded"
	case errors.Is(err, pkgerrors.ErrInvalidInput), errors.Is(err, session.ErrNotAuthenticated):
		return "invalid"
	default:
		return "backend_error"
	}
}

func record(operation string, err error) {
	result := outcome(err)
	metrics.SessionOperations.WithLabelValues(operation, result).Inc()
	if result == "invalid" {
		logger.Debug("Session operation rejected",
			zap.String("operation", operation),
			zap.String("field", pkgerrors.Field(err)))
	}
}

func notificationObserver(sessionID string) func(models.Notification) {
	log := logger.With(zap.String("session_id", sessionID))
	return func(n models.Notification) {
		metrics.Notifications.WithLabelValues(string(n.Kind)).Inc()
		fields := []zap.Field{
			zap.Uint64("notification_id", n.ID),
			zap.String("message", n.Message),
		}
		if n.Kind == models.NotificationError {
			log.Warn("Error notification", fields...)
			return
		}
		log.Debug("Success notification", fields...)
	}
}
