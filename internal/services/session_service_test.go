package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/cache"
	"github.com/transferpeer/peerconnect/internal/models"
	"github.com/transferpeer/peerconnect/internal/session"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/jwt"
)

// stubBackend answers every call successfully for user 7
type stubBackend struct {
	matches []backend.Mentor
}

func (b *stubBackend) Signup(_ context.Context, req backend.SignupRequest) (*backend.AuthResponse, error) {
	return &backend.AuthResponse{ID: "7", Role: req.Role}, nil
}

func (b *stubBackend) Login(context.Context, backend.LoginRequest) (*backend.AuthResponse, error) {
	return &backend.AuthResponse{ID: "7", Role: "Student"}, nil
}

func (b *stubBackend) GetProfile(context.Context, models.UserID) (*backend.Profile, error) {
	return &backend.Profile{Name: "Ann"}, nil
}

func (b *stubBackend) UpdateProfile(context.Context, models.UserID, backend.Profile) (*backend.Ack, error) {
	return &backend.Ack{Status: "success"}, nil
}

func (b *stubBackend) UpdateDesiredSchool(_ context.Context, _ models.UserID, school string) (*backend.Ack, error) {
	return &backend.Ack{Status: "success", DesiredSchool: school}, nil
}

func (b *stubBackend) GetMatches(context.Context, models.UserID) ([]backend.Mentor, error) {
	return b.matches, nil
}

func (b *stubBackend) UpdatePassword(context.Context, models.UserID, string) (*backend.Ack, error) {
	return &backend.Ack{Status: "success"}, nil
}

func newTestService(t *testing.T) *SessionService {
	t.Helper()
	return NewSessionService(
		&stubBackend{matches: []backend.Mentor{{Name: "Bo"}}},
		cache.NewSessionCache(time.Hour),
		jwt.NewTokenManager("test-secret", "peerconnect-test", 1),
		session.Options{},
	)
}

func TestSessionService_StartAndResolve(t *testing.T) {
	svc := newTestService(t)

	started, err := svc.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)
	assert.NotEmpty(t, started.Token)
	assert.Equal(t, models.PageAuth, started.View.Page)

	ctrl, id, err := svc.Resolve(started.Token)
	require.NoError(t, err)
	assert.Equal(t, started.ID, id)
	assert.Equal(t, models.PageAuth, ctrl.View().Page)
	assert.Equal(t, 3600, svc.TokenTTLSeconds())
}

func TestSessionService_ResolveRejects(t *testing.T) {
	svc := newTestService(t)
	other := jwt.NewTokenManager("other-secret", "peerconnect-test", 1)
	forged, err := other.GenerateToken("whatever")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Resolve(tt.token)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestSessionService_ResolveUnknownSession(t *testing.T) {
	svc := newTestService(t)
	started, err := svc.Start()
	require.NoError(t, err)

	svc.End(started.ID)

	_, _, err = svc.Resolve(started.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_Operations(t *testing.T) {
	svc := newTestService(t)
	started, err := svc.Start()
	require.NoError(t, err)
	ctrl, _, err := svc.Resolve(started.Token)
	require.NoError(t, err)
	ctx := context.Background()

	view, err := svc.Authenticate(ctx, ctrl, models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})
	require.NoError(t, err)
	assert.Equal(t, models.PageMain, view.Page)

	view, err = svc.SearchMentors(ctx, ctrl, "Rowan University")
	require.NoError(t, err)
	assert.Len(t, view.Mentors, 1)
	assert.True(t, view.Searched)

	view, err = svc.OpenProfile(ctx, ctrl)
	require.NoError(t, err)
	assert.Equal(t, "Ann", view.Profile.Name)

	view, err = svc.EditProfile(ctrl, models.ProfileDraft{Name: "Ann B"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", view.Profile.Name)

	view, err = svc.SaveProfile(ctx, ctrl)
	require.NoError(t, err)
	assert.Equal(t, "Profile saved!", view.Notification.Message)

	view, err = svc.ChangePassword(ctx, ctrl, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "Password updated!", view.Notification.Message)

	view, err = svc.CloseProfile(ctrl)
	require.NoError(t, err)
	assert.Equal(t, models.PageMain, view.Page)

	view = svc.Logout(ctrl)
	assert.Equal(t, models.PageAuth, view.Page)
	assert.False(t, view.Session.Authenticated)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(session.ErrWrongPage))
	assert.True(t, IsConflict(session.ErrOperationInFlight))
	assert.False(t, IsConflict(session.ErrSuperseded))
	assert.False(t, IsConflict(errors.New("boom")))
	assert.False(t, IsConflict(nil))
	assert.True(t, IsConflict(fmt.Errorf("save: %w", session.ErrOperationInFlight)))
}

func TestSessionErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrSessionNotFound, pkgerrors.ErrUnauthorized)
	assert.ErrorIs(t, ErrTokenIssueFailed, pkgerrors.ErrInternal)
	assert.ErrorIs(t, session.ErrWrongPage, pkgerrors.ErrConflict)
	assert.ErrorIs(t, session.ErrOperationInFlight, pkgerrors.ErrConflict)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "conflict", outcome(session.ErrWrongPage))
	assert.Equal(t, "superseded", outcome(session.ErrSuperseded))
	assert.Equal(t, "invalid", outcome(session.ErrNotAuthenticated))
	assert.Equal(t, "invalid", outcome(pkgerrors.InvalidInputError("email", "Please enter a valid email address")))
	assert.Equal(t, "backend_error", outcome(&backend.APIError{StatusCode: 400}))
}
