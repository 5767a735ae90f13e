package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/catalog"
	"github.com/transferpeer/peerconnect/internal/models"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrWrongPage is returned when an operation is not allowed on the current page
	ErrWrongPage = pkgerrors.ConflictError("operation not allowed on current page")

	// ErrOperationInFlight is returned when the same operation is already awaiting the backend
	ErrOperationInFlight = pkgerrors.ConflictError("operation already in progress")

	// ErrNotAuthenticated is returned by operations that need a logged-in user
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPasswordChangeUnsupported is returned when the backend has no password update route
	ErrPasswordChangeUnsupported = errors.New("password change not supported by backend")

	// ErrSuperseded is returned when a response arrives after its page or session was left
	ErrSuperseded = errors.New("response superseded by navigation")
)

const (
	DefaultNotificationTTL   = 3 * time.Second
	DefaultSearchSettleDelay = 500 * time.Millisecond
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Clock             func() time.Time
	NotificationTTL   time.Duration
	NavigationDelay   time.Duration
	SearchSettleDelay time.Duration
	Catalog           *catalog.Catalog

	// OnNotify is called with every notification while the controller lock is
	// held. It must not call back into the Controller.
	OnNotify func(models.Notification)

	// Sleep waits for d or until ctx is done
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller is the state of one client session. Every operation is a method;
// backend calls run outside the lock and their results are applied only if the
// page (epoch) or session (generation) that issued them is still current.
type Controller struct {
	mu      sync.Mutex
	backend backend.Client
	opts    Options

	page         models.Page
	returnTo     models.Page
	session      models.Session
	draft        *models.ProfileDraft
	criteria     *models.SearchCriteria
	mentors      []models.MentorResult
	searched     bool
	notification *models.Notification
	pending      *models.PendingNavigation
	busy         models.Busy

	// profileLoad is the epoch of the in-flight profile fetch, 0 when idle
	profileLoad uint64

	lastNotificationID uint64
	epoch              uint64
	generation         uint64
}

// NewController creates a controller on the Auth page
func NewController(client backend.Client, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = DefaultNotificationTTL
	}
	if opts.NavigationDelay < 0 {
		opts.NavigationDelay = 0
	}
	if opts.SearchSettleDelay < 0 {
		opts.SearchSettleDelay = 0
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	return &Controller{
		backend: client,
		opts:    opts,
		page:    models.PageAuth,
	}
}

// View returns a snapshot of the current state
func (c *Controller) View() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock()
	c.advance(now)
	return c.viewLocked(now)
}

// Logout clears the session from any page and returns to Auth
func (c *Controller) Logout() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock()
	c.generation++
	c.session = models.Session{}
	c.pending = nil
	c.returnTo = ""
	c.enterPage(models.PageAuth)
	c.notify(now, models.NotificationSuccess, "Logged out")

	return c.viewLocked(now)
}

func (c *Controller) viewLocked(now time.Time) models.View {
	v := models.View{
		Page:     c.page,
		Session:  c.session,
		Searched: c.searched,
		Busy:     c.busy,
	}
	v.Busy.LoadProfile = c.profileLoad != 0 && c.profileLoad == c.epoch

	if c.draft != nil {
		d := *c.draft
		v.Profile = &d
	}
	if c.criteria != nil {
		sc := *c.criteria
		v.Criteria = &sc
		v.Mentors = append([]models.MentorResult(nil), c.mentors...)
	}
	if c.notification.ActiveAt(now) {
		n := *c.notification
		v.Notification = &n
	} else {
		c.notification = nil
	}
	if c.pending != nil {
		p := *c.pending
		v.Pending = &p
	}
	return v
}

// advance applies a pending navigation whose deadline has passed
func (c *Controller) advance(now time.Time) {
	if c.pending == nil || now.Before(c.pending.At) {
		return
	}
	target := c.pending.Page
	c.pending = nil
	c.enterPage(target)
}

// enterPage switches page, drops page-owned data and starts a new epoch
func (c *Controller) enterPage(p models.Page) {
	c.page = p
	c.epoch++
	c.draft = nil
	c.criteria = nil
	c.mentors = nil
	c.searched = false

	switch p {
	case models.PageMain:
		c.criteria = &models.SearchCriteria{}
	case models.PageProfile:
		c.draft = &models.ProfileDraft{}
	}
}

// notify replaces the current notification
func (c *Controller) notify(now time.Time, kind models.NotificationKind, message string) models.Notification {
	c.lastNotificationID++
	n := models.Notification{
		ID:        c.lastNotificationID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.opts.NotificationTTL),
	}
	c.notification = &n

	if c.opts.OnNotify != nil {
		c.opts.OnNotify(n)
	}
	return n
}

func (c *Controller) fail(now time.Time, err error) error {
	c.notify(now, models.NotificationError, err.Error())
	return err
}

func logSuperseded(operation string, fields ...zap.Field) {
	logger.Debug("Dropping superseded backend response", append([]zap.Field{zap.String("operation", operation)}, fields...)...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
