package inmemory

import (
	"time"

	dashboarddomain "ronda-app-go/internal/domain/dashboard"
)

type DashboardCache struct {
	cache *ttlCache[dashboarddomain.Summary]
}

func NewDashboardCache() *DashboardCache {
	return &DashboardCache{cache: newTTLCache[dashboarddomain.Summary]()}
}

func (c *DashboardCache) Get(key string) (dashboarddomain.Summary, bool) {
	return c.cache.get(key)
}

func (c *DashboardCache) Set(key string, summary dashboarddomain.Summary, ttl time.Duration) {
	c.cache.set(key, summary, ttl)
}

// Invalidate drops all periods cached for the contrato. Summary keys are
// "<contrato>|<from>|<to>".
func (c *DashboardCache) Invalidate(contratoID string) {
	c.cache.deletePrefix(contratoID + "|")
}

func (c *DashboardCache) Clear() {
	c.cache.clear()
}
