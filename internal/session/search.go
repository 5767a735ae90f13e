package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/models"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"go.uber.org/zap"
)

// SearchMentors stores the target university for the student and then fetches
// the matching mentors. The fetch starts right away when the backend echoes the
// stored value, otherwise after the settle delay.
func (c *Controller) SearchMentors(ctx context.Context, targetUniversity string) ([]models.MentorResult, error) {
	target := strings.TrimSpace(targetUniversity)

	c.mu.Lock()
	now := c.opts.Clock()
	c.advance(now)

	if !c.session.Authenticated {
		err := c.fail(now, pkgerrors.InvalidInputError("session", "Please log in to search for mentors"))
		c.mu.Unlock()
		return nil, err
	}
	if c.page != models.PageMain {
		c.mu.Unlock()
		return nil, ErrWrongPage
	}
	if c.busy.Search {
		c.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	c.criteria.TargetUniversity = target
	if target == "" {
		err := c.fail(now, pkgerrors.InvalidInputError("targetUniversity", "Please select a target university"))
		c.mu.Unlock()
		return nil, err
	}
	if !c.opts.Catalog.HasCollege(target) {
		logger.Debug("Target university is not in the catalog", zap.String("university", target))
	}

	c.busy.Search = true
	epoch := c.epoch
	id := c.session.UserID
	c.mu.Unlock()

	mentors, step, err := c.runSearch(ctx, id, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy.Search = false
	now = c.opts.Clock()

	if epoch != c.epoch {
		logSuperseded("searchMentors", zap.String("user_id", id.String()))
		return nil, ErrSuperseded
	}
	if err != nil {
		c.notify(now, models.NotificationError, step+": "+backend.Reason(err))
		return nil, err
	}

	results := make([]models.MentorResult, 0, len(mentors))
	for _, m := range mentors {
		results = append(results, m.ToResult())
	}
	c.mentors = results
	c.searched = true

	if len(results) == 0 {
		c.notify(now, models.NotificationSuccess, "No mentors found for "+target)
	} else {
		c.notify(now, models.NotificationSuccess, fmt.Sprintf("Found %d mentor(s)", len(results)))
	}
	return append([]models.MentorResult(nil), results...), nil
}

// runSearch performs both backend steps. On failure it returns the
// user-facing prefix of the step that failed.
func (c *Controller) runSearch(ctx context.Context, id models.UserID, target string) ([]backend.Mentor, string, error) {
	ack, err := c.backend.UpdateDesiredSchool(ctx, id, target)
	if err != nil {
		return nil, "Failed to save target university", err
	}

	if ack == nil || strings.TrimSpace(ack.DesiredSchool) != target {
		if err := c.opts.Sleep(ctx, c.opts.SearchSettleDelay); err != nil {
			return nil, "Failed to load mentors", err
		}
	}

	mentors, err := c.backend.GetMatches(ctx, id)
	if err != nil {
		return nil, "Failed to load mentors", err
	}
	return mentors, "", nil
}
