package services

import (
	"context"

	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/session"
)

// SessionServiceInterface defines the browser session operations used by handlers
type SessionServiceInterface interface {
	Start() (*StartedSession, error)
	Resolve(token string) (*session.Controller, string, error)
	End(id string)
	TokenTTLSeconds() int

	Authenticate(ctx context.Context, ctrl *session.Controller, mode models.AuthMode, creds models.Credentials, fields models.ProfileFields) (models.View, error)
	Logout(ctrl *session.Controller) models.View
	ChangePassword(ctx context.Context, ctrl *session.Controller, current, next string) (models.View, error)
	OpenProfile(ctx context.Context, ctrl *session.Controller) (models.View, error)
	LoadProfile(ctx context.Context, ctrl *session.Controller) (models.View, error)
	EditProfile(ctrl *session.Controller, draft models.ProfileDraft) (models.View, error)
	SaveProfile(ctx context.Context, ctrl *session.Controller) (models.View, error)
	CloseProfile(ctrl *session.Controller) (models.View, error)
	SearchMentors(ctx context.Context, ctrl *session.Controller, targetUniversity string) (models.View, error)
}

var _ SessionServiceInterface = (*SessionService)(nil)
