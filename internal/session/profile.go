package session

import (
	"context"

	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/models"
	"go.uber.org/zap"
)

// OpenProfile enters the Profile page from Main or MentorDashboard and loads
// the profile of the logged-in user into a fresh draft
func (c *Controller) OpenProfile(ctx context.Context) (models.ProfileDraft, error) {
	c.mu.Lock()
	c.advance(c.opts.Clock())

	if c.page != models.PageMain && c.page != models.PageMentorDashboard {
		c.mu.Unlock()
		return models.ProfileDraft{}, ErrWrongPage
	}
	c.returnTo = c.page
	c.enterPage(models.PageProfile)

	return c.loadProfileLocked(ctx)
}

// LoadProfile re-fetches the profile on the Profile page, discarding local edits
func (c *Controller) LoadProfile(ctx context.Context) (models.ProfileDraft, error) {
	c.mu.Lock()
	c.advance(c.opts.Clock())

	if c.page != models.PageProfile {
		c.mu.Unlock()
		return models.ProfileDraft{}, ErrWrongPage
	}
	if c.profileLoad == c.epoch {
		c.mu.Unlock()
		return models.ProfileDraft{}, ErrOperationInFlight
	}
	c.draft = &models.ProfileDraft{}

	return c.loadProfileLocked(ctx)
}

// loadProfileLocked fetches into the current draft. It is entered with the
// lock held and releases it.
func (c *Controller) loadProfileLocked(ctx context.Context) (models.ProfileDraft, error) {
	if !c.session.Authenticated {
		d := *c.draft
		c.mu.Unlock()
		return d, nil
	}

	epoch := c.epoch
	id := c.session.UserID
	c.profileLoad = epoch
	c.mu.Unlock()

	profile, err := c.backend.GetProfile(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profileLoad == epoch {
		c.profileLoad = 0
	}
	now := c.opts.Clock()

	if epoch != c.epoch {
		logSuperseded("getProfile", zap.String("user_id", id.String()))
		return models.ProfileDraft{}, ErrSuperseded
	}
	if err != nil {
		c.notify(now, models.NotificationError, "Failed to load profile: "+backend.Reason(err))
		return *c.draft, err
	}

	draft := profile.ToDraft()
	c.draft = &draft
	return draft, nil
}

// EditProfile replaces the local draft. Nothing is sent to the backend.
func (c *Controller) EditProfile(draft models.ProfileDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(c.opts.Clock())

	if c.page != models.PageProfile {
		return ErrWrongPage
	}
	c.draft = &draft
	return nil
}

// SaveProfile sends the whole draft to the backend. Page and session are never changed.
func (c *Controller) SaveProfile(ctx context.Context) error {
	c.mu.Lock()
	now := c.opts.Clock()
	c.advance(now)

	if c.page != models.PageProfile {
		c.mu.Unlock()
		return ErrWrongPage
	}
	if !c.session.Authenticated {
		c.notify(now, models.NotificationError, "Please log in to save your profile")
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.busy.SaveProfile {
		c.mu.Unlock()
		return ErrOperationInFlight
	}

	c.busy.SaveProfile = true
	generation := c.generation
	id := c.session.UserID
	payload := backend.ProfileFromDraft(*c.draft)
	c.mu.Unlock()

	_, err := c.backend.UpdateProfile(ctx, id, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy.SaveProfile = false
	now = c.opts.Clock()

	if generation != c.generation {
		logSuperseded("updateProfile", zap.String("user_id", id.String()))
		return ErrSuperseded
	}
	if err != nil {
		c.notify(now, models.NotificationError, "Failed to save profile: "+backend.Reason(err))
		return err
	}
	c.notify(now, models.NotificationSuccess, "Profile saved!")
	return nil
}

// CloseProfile discards the draft and returns to the page that opened Profile
func (c *Controller) CloseProfile() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(c.opts.Clock())

	if c.page != models.PageProfile {
		return ErrWrongPage
	}
	target := c.returnTo
	if target == "" {
		target = models.HomePage(c.session.Role)
	}
	c.returnTo = ""
	c.enterPage(target)
	return nil
}
