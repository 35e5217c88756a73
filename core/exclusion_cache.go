package core

import "strings"

type verdict struct {
	excluded  bool
	expiresAt uint64
}

// ExclusionCache memoizes the showcase check per entity for a fixed number
// of ticks. A showcase item may therefore glow for up to one TTL window
// after it becomes excluded, and vice versa.
type ExclusionCache struct {
	ttl     uint64
	radius  float64
	markers map[string]struct{}

	verdicts map[EntityID]verdict

	// queries counts spatial oracle calls; tests and metrics read it.
	queries uint64
}

// NewExclusionCache builds a cache with the given TTL (in ticks), stand
// search radius and extra showcase head item names.
func NewExclusionCache(ttl uint64, radius float64, showcaseItems []string) *ExclusionCache {
	markers := make(map[string]struct{}, len(showcaseItems))
	for _, name := range showcaseItems {
		markers[strings.ToUpper(strings.TrimSpace(name))] = struct{}{}
	}
	return &ExclusionCache{
		ttl:      ttl,
		radius:   radius,
		markers:  markers,
		verdicts: make(map[EntityID]verdict),
	}
}

// IsExcluded reports whether e sits in a showcase. A cached verdict is
// returned while tick <= its expiry; otherwise the spatial oracle is queried
// and the verdict stored until tick+TTL. A missing or failing oracle yields
// "not excluded" and nothing is cached.
func (c *ExclusionCache) IsExcluded(e TrackedEntity, tick uint64, spatial SpatialQuery) bool {
	if v, ok := c.verdicts[e.ID]; ok && tick <= v.expiresAt {
		return v.excluded
	}
	if spatial == nil {
		return false
	}

	c.queries++
	// Inflate the item's own box by the search radius.
	radius := c.radius + max(e.Width, e.Height)*0.5
	stands, err := spatial.StandsNear(e.VisualCenter(), radius)
	if err != nil {
		return false
	}

	excluded := false
	for _, s := range stands {
		if c.isShowcaseMarker(s) {
			excluded = true
			break
		}
	}
	c.verdicts[e.ID] = verdict{excluded: excluded, expiresAt: tick + c.ttl}
	return excluded
}

func (c *ExclusionCache) isShowcaseMarker(s Stand) bool {
	if s.HeadItem == "" {
		return false
	}
	if s.HeadTransparent {
		return true
	}
	_, ok := c.markers[strings.ToUpper(s.HeadItem)]
	return ok
}

// Forget drops the verdict for id.
func (c *ExclusionCache) Forget(id EntityID) {
	delete(c.verdicts, id)
}

// Has reports whether a verdict (fresh or expired) is stored for id.
func (c *ExclusionCache) Has(id EntityID) bool {
	_, ok := c.verdicts[id]
	return ok
}

// Len returns the number of stored verdicts.
func (c *ExclusionCache) Len() int { return len(c.verdicts) }

// Queries returns how many times the spatial oracle has been consulted.
func (c *ExclusionCache) Queries() uint64 { return c.queries }

// Clear drops every verdict.
func (c *ExclusionCache) Clear() {
	clear(c.verdicts)
}
