package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/transferpeer/peerconnect/internal/session"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"go.uber.org/zap"
)

const (
	sessionCacheName   = "sessions"
	defaultIdleTTL     = 60 * time.Minute
	minCleanupInterval = time.Minute
)

// SessionCache keeps live controllers keyed by browser session ID.
// An entry expires after idleTTL without a Get or Put.
type SessionCache struct {
	cache   *gocache.Cache
	idleTTL time.Duration
}

// NewSessionCache creates a session cache with the given idle TTL
func NewSessionCache(idleTTL time.Duration) *SessionCache {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	cleanup := idleTTL / 2
	if cleanup < minCleanupInterval {
		cleanup = minCleanupInterval
	}

	sc := &SessionCache{
		cache:   gocache.New(idleTTL, cleanup),
		idleTTL: idleTTL,
	}
	sc.cache.OnEvicted(func(id string, _ interface{}) {
		logger.Debug("Session evicted", zap.String("session_id", id))
		sc.reportSize()
	})
	return sc
}

// Get returns the controller for id and renews its idle deadline
func (sc *SessionCache) Get(id string) (*session.Controller, bool) {
	data, found := sc.cache.Get(id)
	if !found {
		metrics.CacheMisses.WithLabelValues(sessionCacheName).Inc()
		return nil, false
	}

	ctrl, ok := data.(*session.Controller)
	if !ok {
		logger.Error("Invalid session cache data type", zap.String("session_id", id))
		sc.cache.Delete(id)
		metrics.CacheMisses.WithLabelValues(sessionCacheName).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(sessionCacheName).Inc()
	sc.cache.Set(id, ctrl, sc.idleTTL)
	return ctrl, true
}

// Put stores ctrl under id
func (sc *SessionCache) Put(id string, ctrl *session.Controller) {
	sc.cache.Set(id, ctrl, sc.idleTTL)
	sc.reportSize()
}

// Delete removes id
func (sc *SessionCache) Delete(id string) {
	sc.cache.Delete(id)
	sc.reportSize()
}

// Count returns the number of stored sessions, including expired ones not yet cleaned up
func (sc *SessionCache) Count() int {
	return sc.cache.ItemCount()
}

func (sc *SessionCache) reportSize() {
	metrics.CacheSize.WithLabelValues(sessionCacheName).Set(float64(sc.cache.ItemCount()))
}
