package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/models"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
)

func badRequest(detail string) error {
	return &backend.APIError{Operation: "test", StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Detail: detail}
}

func TestNewController_StartsOnAuth(t *testing.T) {
	h := newHarness(t, nil)

	view := h.ctrl.View()

	assert.Equal(t, models.PageAuth, view.Page)
	assert.False(t, view.Session.Authenticated)
	assert.Nil(t, view.Notification)
	assert.Nil(t, view.Profile)
	assert.Nil(t, view.Criteria)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		mode  models.AuthMode
		creds models.Credentials
	}{
		{"login empty email", models.AuthModeLogin, models.Credentials{Password: "x"}},
		{"login empty password", models.AuthModeLogin, models.Credentials{Email: "a@b.co"}},
		{"login both empty", models.AuthModeLogin, models.Credentials{}},
		{"login blank email", models.AuthModeLogin, models.Credentials{Email: "   ", Password: "x"}},
		{"signup empty email", models.AuthModeSignup, models.Credentials{Password: "x"}},
		{"signup empty password", models.AuthModeSignup, models.Credentials{Email: "a@b.co"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			_, err := h.ctrl.Authenticate(context.Background(), tt.mode, tt.creds, models.ProfileFields{})

			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
			assert.Empty(t, h.backend.Calls())
			view := h.ctrl.View()
			require.NotNil(t, view.Notification)
			assert.Equal(t, models.NotificationError, view.Notification.Kind)
			assert.Equal(t, "Email and password are required", view.Notification.Message)
			assert.False(t, view.Session.Authenticated)
		})
	}
}

func TestAuthenticate_SignupEmailShape(t *testing.T) {
	t.Run("malformed email fails locally", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeSignup,
			models.Credentials{Email: "bad-email", Password: "x"}, models.ProfileFields{})

		require.Error(t, err)
		assert.Empty(t, h.backend.Calls())
		view := h.ctrl.View()
		require.NotNil(t, view.Notification)
		assert.Equal(t, "Please enter a valid email address", view.Notification.Message)
	})

	t.Run("valid email reaches backend", func(t *testing.T) {
		h := newHarness(t, nil)

		sess, err := h.ctrl.Authenticate(context.Background(), models.AuthModeSignup,
			models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{Name: "Ann"})

		require.NoError(t, err)
		assert.Equal(t, []string{"signup"}, h.backend.Calls())
		assert.True(t, sess.Authenticated)
		view := h.ctrl.View()
		assert.Equal(t, "Account created!", view.Notification.Message)
		assert.Equal(t, models.PageMain, view.Page)
	})

	t.Run("login does not check email shape", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
			models.Credentials{Email: "bad-email", Password: "x"}, models.ProfileFields{})

		require.NoError(t, err)
		assert.Equal(t, []string{"login"}, h.backend.Calls())
	})
}

func TestAuthenticate_MentorLoginLandsOnDashboard(t *testing.T) {
	fb := &fakeBackend{
		login: func(backend.LoginRequest) (*backend.AuthResponse, error) {
			return &backend.AuthResponse{ID: "7", Role: "Mentor"}, nil
		},
	}
	h := newHarness(t, fb)

	sess, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "m@x.edu", Password: "pw"}, models.ProfileFields{Role: models.RoleStudent})

	require.NoError(t, err)
	assert.Equal(t, models.UserID("7"), sess.UserID)
	assert.Equal(t, models.RoleMentor, sess.Role)
	view := h.ctrl.View()
	assert.Equal(t, models.PageMentorDashboard, view.Page)
	assert.Equal(t, models.UserID("7"), view.Session.UserID)
	assert.Equal(t, "Login successful!", view.Notification.Message)
	assert.Nil(t, view.Pending)
}

func TestAuthenticate_RoleFallsBackToRequested(t *testing.T) {
	fb := &fakeBackend{
		signup: func(backend.SignupRequest) (*backend.AuthResponse, error) {
			return &backend.AuthResponse{ID: "3"}, nil
		},
	}
	h := newHarness(t, fb)

	sess, err := h.ctrl.Authenticate(context.Background(), models.AuthModeSignup,
		models.Credentials{Email: "m@x.edu", Password: "pw"}, models.ProfileFields{Role: models.RoleMentor})

	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, sess.Role)
	assert.Equal(t, models.PageMentorDashboard, h.ctrl.View().Page)
}

func TestAuthenticate_BackendRejects(t *testing.T) {
	fb := &fakeBackend{
		login: func(backend.LoginRequest) (*backend.AuthResponse, error) {
			return nil, badRequest("bad creds")
		},
	}
	h := newHarness(t, fb)

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})

	require.Error(t, err)
	view := h.ctrl.View()
	require.NotNil(t, view.Notification)
	assert.Equal(t, models.NotificationError, view.Notification.Kind)
	assert.Contains(t, view.Notification.Message, "bad creds")
	assert.False(t, view.Session.Authenticated)
	assert.Equal(t, models.PageAuth, view.Page)
}

func TestAuthenticate_StatusLineWithoutDetail(t *testing.T) {
	fb := &fakeBackend{
		login: func(backend.LoginRequest) (*backend.AuthResponse, error) {
			return nil, &backend.APIError{StatusCode: 503, Status: "503 Service Unavailable"}
		},
	}
	h := newHarness(t, fb)

	_, _ = h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})

	assert.Equal(t, "503 Service Unavailable", h.ctrl.View().Notification.Message)
}

func TestAuthenticate_MissingUserID(t *testing.T) {
	fb := &fakeBackend{
		login: func(backend.LoginRequest) (*backend.AuthResponse, error) {
			return &backend.AuthResponse{Role: "Student"}, nil
		},
	}
	h := newHarness(t, fb)

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})

	assert.ErrorIs(t, err, backend.ErrMalformedResponse)
	assert.False(t, h.ctrl.View().Session.Authenticated)
}

func TestAuthenticate_SendsProfileFields(t *testing.T) {
	var got backend.SignupRequest
	fb := &fakeBackend{
		signup: func(req backend.SignupRequest) (*backend.AuthResponse, error) {
			got = req
			return &backend.AuthResponse{ID: "1", Role: "Student"}, nil
		},
	}
	h := newHarness(t, fb)

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeSignup,
		models.Credentials{Email: " a@b.co ", Password: "x"},
		models.ProfileFields{Name: "Ann", School: "Bergen Community College", PreviousSchool: "Kean University", AreaOfStudy: "Art"})

	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "Student", got.Role)
	assert.Equal(t, "Bergen Community College", got.School)
	assert.Equal(t, "Kean University", got.PreviousSchool)
	assert.Equal(t, "Art", got.AreaOfStudy)
}

func TestAuthenticate_OnlyFromAuthPage(t *testing.T) {
	h := newHarness(t, nil)
	h.loginStudent(t)

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})

	assert.ErrorIs(t, err, ErrWrongPage)
	assert.Equal(t, 1, h.backend.Count("login"))
}

func TestAuthenticate_NavigationDelay(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) { o.NavigationDelay = time.Second })

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})
	require.NoError(t, err)

	view := h.ctrl.View()
	assert.Equal(t, models.PageAuth, view.Page)
	require.NotNil(t, view.Pending)
	assert.Equal(t, models.PageMain, view.Pending.Page)

	h.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, models.PageAuth, h.ctrl.View().Page)

	h.clock.Advance(time.Millisecond)
	view = h.ctrl.View()
	assert.Equal(t, models.PageMain, view.Page)
	assert.Nil(t, view.Pending)
	assert.NotNil(t, view.Criteria)
}

func TestLogout_CancelsPendingNavigation(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) { o.NavigationDelay = time.Second })

	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "a@b.co", Password: "x"}, models.ProfileFields{})
	require.NoError(t, err)

	h.ctrl.Logout()
	h.clock.Advance(5 * time.Second)

	view := h.ctrl.View()
	assert.Equal(t, models.PageAuth, view.Page)
	assert.False(t, view.Session.Authenticated)
	assert.Nil(t, view.Pending)
}

func TestLogout_ClearsEverything(t *testing.T) {
	fb := &fakeBackend{
		getMatches: func(context.Context, models.UserID) ([]backend.Mentor, error) {
			return []backend.Mentor{{Name: "Bo"}}, nil
		},
	}
	h := newHarness(t, fb)
	h.loginStudent(t)
	_, err := h.ctrl.SearchMentors(context.Background(), "Rowan University")
	require.NoError(t, err)

	view := h.ctrl.Logout()

	assert.Equal(t, models.PageAuth, view.Page)
	assert.Equal(t, models.Session{}, view.Session)
	assert.Nil(t, view.Criteria)
	assert.Empty(t, view.Mentors)
	assert.False(t, view.Searched)
	require.NotNil(t, view.Notification)
	assert.Equal(t, "Logged out", view.Notification.Message)
}

func TestNotifications_ExpireAndRestart(t *testing.T) {
	h := newHarness(t, nil)

	_, _ = h.ctrl.Authenticate(context.Background(), models.AuthModeLogin, models.Credentials{}, models.ProfileFields{})
	first := h.ctrl.View().Notification
	require.NotNil(t, first)

	h.clock.Advance(2900 * time.Millisecond)
	assert.NotNil(t, h.ctrl.View().Notification)

	h.clock.Advance(100 * time.Millisecond)
	assert.Nil(t, h.ctrl.View().Notification)

	_, _ = h.ctrl.Authenticate(context.Background(), models.AuthModeLogin, models.Credentials{}, models.ProfileFields{})
	h.clock.Advance(2 * time.Second)
	_, _ = h.ctrl.Authenticate(context.Background(), models.AuthModeSignup, models.Credentials{Email: "bad", Password: "x"}, models.ProfileFields{})
	h.clock.Advance(2 * time.Second)

	current := h.ctrl.View().Notification
	require.NotNil(t, current)
	assert.Equal(t, "Please enter a valid email address", current.Message)
	assert.Greater(t, current.ID, first.ID)

	h.clock.Advance(time.Second)
	assert.Nil(t, h.ctrl.View().Notification)
}

func TestNotifications_CustomTTL(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) { o.NotificationTTL = 500 * time.Millisecond })

	h.ctrl.Logout()
	h.clock.Advance(499 * time.Millisecond)
	assert.NotNil(t, h.ctrl.View().Notification)
	h.clock.Advance(time.Millisecond)
	assert.Nil(t, h.ctrl.View().Notification)
}

func TestChangePassword_VerifiesThroughLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.loginStudent(t)

	err := h.ctrl.ChangePassword(context.Background(), "secret", "n3w")

	require.NoError(t, err)
	assert.Equal(t, []string{"login", "login", "updatePassword"}, h.backend.Calls())
	check := h.backend.logins[1]
	assert.Equal(t, "student@example.edu", check.Email)
	assert.Equal(t, "secret", check.Password)
	assert.Equal(t, "Password updated!", h.ctrl.View().Notification.Message)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	h := newHarness(t, nil)
	h.loginStudent(t)
	h.backend.login = func(backend.LoginRequest) (*backend.AuthResponse, error) {
		return nil, &backend.APIError{StatusCode: http.StatusUnauthorized, Detail: "Invalid credentials"}
	}

	err := h.ctrl.ChangePassword(context.Background(), "guess", "n3w")

	require.Error(t, err)
	assert.Zero(t, h.backend.Count("updatePassword"))
	assert.Equal(t, "Failed to change password: current password is incorrect", h.ctrl.View().Notification.Message)
}

func TestChangePassword_LoginReturnsOtherUser(t *testing.T) {
	h := newHarness(t, nil)
	h.loginStudent(t)
	h.backend.login = func(backend.LoginRequest) (*backend.AuthResponse, error) {
		return &backend.AuthResponse{ID: "8"}, nil
	}

	err := h.ctrl.ChangePassword(context.Background(), "secret", "n3w")

	require.Error(t, err)
	assert.Zero(t, h.backend.Count("updatePassword"))
}

func TestChangePassword_BackendWithoutRoute(t *testing.T) {
	tests := []struct {
		name        string
		err         *backend.APIError
		unsupported bool
		want        string
	}{
		{
			name:        "unknown path",
			err:         &backend.APIError{StatusCode: http.StatusNotFound, Status: "404 Not Found", Detail: "Not Found"},
			unsupported: true,
			want:        "Password change is not supported by the server",
		},
		{
			name:        "method not allowed",
			err:         &backend.APIError{StatusCode: http.StatusMethodNotAllowed, Status: "405 Method Not Allowed", Detail: "Method Not Allowed"},
			unsupported: true,
			want:        "Password change is not supported by the server",
		},
		{
			name: "user lookup failed",
			err:  &backend.APIError{StatusCode: http.StatusNotFound, Status: "404 Not Found", Detail: "User not found"},
			want: "Failed to change password: User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.loginStudent(t)
			h.backend.updatePassword = func(models.UserID, string) (*backend.Ack, error) {
				return nil, tt.err
			}

			err := h.ctrl.ChangePassword(context.Background(), "secret", "n3w")

			require.Error(t, err)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrPasswordChangeUnsupported))
			n := h.ctrl.View().Notification
			require.NotNil(t, n)
			assert.Equal(t, models.NotificationError, n.Kind)
			assert.Equal(t, tt.want, n.Message)
			assert.False(t, h.ctrl.View().Busy.ChangePassword)
		})
	}
}

func TestChangePassword_LocalChecks(t *testing.T) {
	t.Run("requires login", func(t *testing.T) {
		h := newHarness(t, nil)

		err := h.ctrl.ChangePassword(context.Background(), "a", "b")

		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Empty(t, h.backend.Calls())
	})

	t.Run("requires both values", func(t *testing.T) {
		h := newHarness(t, nil)
		h.loginStudent(t)

		err := h.ctrl.ChangePassword(context.Background(), "", "b")

		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.Equal(t, []string{"login"}, h.backend.Calls())
	})

	t.Run("new must differ", func(t *testing.T) {
		h := newHarness(t, nil)
		h.loginStudent(t)

		err := h.ctrl.ChangePassword(context.Background(), "same", "same")

		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		assert.Equal(t, []string{"login"}, h.backend.Calls())
	})
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.co", true},
		{"first.last@mail.school.edu", true},
		{"bad-email", false},
		{"a@b", false},
		{"@b.co", false},
		{"a@@b.co", false},
		{"a@b@c.co", false},
		{"a@.co", false},
		{"a@b.", false},
		{"a b@c.co", false},
		{"é@b.co", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}
