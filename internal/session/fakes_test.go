package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/models"
)

// fakeBackend records calls and answers with canned responses
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	signup              func(backend.SignupRequest) (*backend.AuthResponse, error)
	login               func(backend.LoginRequest) (*backend.AuthResponse, error)
	getProfile          func(context.Context, models.UserID) (*backend.Profile, error)
	updateProfile       func(models.UserID, backend.Profile) (*backend.Ack, error)
	updateDesiredSchool func(models.UserID, string) (*backend.Ack, error)
	getMatches          func(context.Context, models.UserID) ([]backend.Mentor, error)
	updatePassword      func(models.UserID, string) (*backend.Ack, error)

	logins []backend.LoginRequest
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Signup(_ context.Context, req backend.SignupRequest) (*backend.AuthResponse, error) {
	f.record("signup")
	if f.signup != nil {
		return f.signup(req)
	}
	return &backend.AuthResponse{ID: "1", Email: req.Email, Role: req.Role}, nil
}

func (f *fakeBackend) Login(_ context.Context, req backend.LoginRequest) (*backend.AuthResponse, error) {
	f.record("login")
	f.mu.Lock()
	f.logins = append(f.logins, req)
	f.mu.Unlock()
	if f.login != nil {
		return f.login(req)
	}
	return &backend.AuthResponse{ID: "7", Email: req.Email, Role: "Student"}, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, id models.UserID) (*backend.Profile, error) {
	f.record("getProfile")
	if f.getProfile != nil {
		return f.getProfile(ctx, id)
	}
	return &backend.Profile{}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, id models.UserID, p backend.Profile) (*backend.Ack, error) {
	f.record("updateProfile")
	if f.updateProfile != nil {
		return f.updateProfile(id, p)
	}
	return &backend.Ack{Status: "success", Message: "Profile updated"}, nil
}

func (f *fakeBackend) UpdateDesiredSchool(_ context.Context, id models.UserID, school string) (*backend.Ack, error) {
	f.record("updateDesiredSchool")
	if f.updateDesiredSchool != nil {
		return f.updateDesiredSchool(id, school)
	}
	return &backend.Ack{Status: "success", DesiredSchool: school}, nil
}

func (f *fakeBackend) GetMatches(ctx context.Context, id models.UserID) ([]backend.Mentor, error) {
	f.record("getMatches")
	if f.getMatches != nil {
		return f.getMatches(ctx, id)
	}
	return []backend.Mentor{}, nil
}

func (f *fakeBackend) UpdatePassword(_ context.Context, id models.UserID, password string) (*backend.Ack, error) {
	f.record("updatePassword")
	if f.updatePassword != nil {
		return f.updatePassword(id, password)
	}
	return &backend.Ack{Status: "success"}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type notificationLog struct {
	mu    sync.Mutex
	items []models.Notification
}

func (l *notificationLog) add(n models.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, n)
}

func (l *notificationLog) All() []models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Notification(nil), l.items...)
}

func (l *notificationLog) Len() int { return len(l.All()) }

type sleepLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepLog) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepLog) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type harness struct {
	ctrl    *Controller
	backend *fakeBackend
	clock   *fakeClock
	notes   *notificationLog
	sleeps  *sleepLog
}

func newHarness(t *testing.T, fb *fakeBackend, configure ...func(*Options)) *harness {
	t.Helper()
	if fb == nil {
		fb = &fakeBackend{}
	}
	h := &harness{
		backend: fb,
		clock:   newFakeClock(),
		notes:   &notificationLog{},
		sleeps:  &sleepLog{},
	}
	opts := Options{
		Clock:             h.clock.Now,
		SearchSettleDelay: DefaultSearchSettleDelay,
		OnNotify:          h.notes.add,
		Sleep:             h.sleeps.Sleep,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.ctrl = NewController(fb, opts)
	return h
}

// loginStudent authenticates as user 7 and lands on Main
func (h *harness) loginStudent(t *testing.T) {
	t.Helper()
	_, err := h.ctrl.Authenticate(context.Background(), models.AuthModeLogin,
		models.Credentials{Email: "student@example.edu", Password: "secret"},
		models.ProfileFields{Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
}
