package auth

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CachingProvider reuses an access token until renewalBuffer before it
// expires. Failed exchanges are never cached, and a token without a known
// expiry is used once.
type CachingProvider struct {
	source        TokenProvider
	renewalBuffer time.Duration
	logger        *logrus.Logger
	now           func() time.Time

	// mu is held across the refresh so at most one exchange is in flight.
	mu     sync.Mutex
	cached AccessToken
}

// NewCachingProvider wraps source with a time-aware cache.
func NewCachingProvider(source TokenProvider, renewalBuffer time.Duration, logger *logrus.Logger) *CachingProvider {
	return &CachingProvider{
		source:        source,
		renewalBuffer: renewalBuffer,
		logger:        logger,
		now:           time.Now,
	}
}

// AccessToken returns the cached token while it is valid and fetches a new
// one otherwise.
func (c *CachingProvider) AccessToken(ctx context.Context) (AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return c.cached, nil
	}

	tok, err := c.source.AccessToken(ctx)
	if err != nil {
		c.cached = AccessToken{}
		return AccessToken{}, err
	}

	c.cached = tok
	c.logger.WithField("expires_on", tok.ExpiresOn).Debug("Access token cached")
	return tok, nil
}

// Invalidate drops the cached token. Call it after the reporting API
// answers 401 so the next request re-authenticates.
func (c *CachingProvider) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = AccessToken{}
}

// HasValidToken reports whether a cached token would be returned without a
// network call.
func (c *CachingProvider) HasValidToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validLocked()
}

func (c *CachingProvider) validLocked() bool {
	if c.cached.Value == "" || c.cached.ExpiresOn.IsZero() {
		return false
	}
	return c.now().Before(c.cached.ExpiresOn.Add(-c.renewalBuffer))
}
