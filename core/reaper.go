package core

// trackState is what the engine remembers about an entity between visits.
type trackState struct {
	pos  Vec3
	tier Tier
	// classified is set once tier was derived from non-empty lore; until
	// then the entity is reclassified on every visible visit.
	classified bool
}

// Reaper prunes state for entities that died, left range or disappeared.
type Reaper struct {
	tracked    map[EntityID]*trackState
	shouldGlow map[EntityID]Tier
	groups     *GroupSync
	exclusion  *ExclusionCache
}

// Sweep evicts every id that live rejects or whose last-known squared
// distance from viewer exceeds maxRangeSq. Evicted members are removed from
// their group. It returns the evicted ids.
func (r *Reaper) Sweep(live func(EntityID) bool, viewer Vec3, maxRangeSq float64) []EntityID {
	var evicted []EntityID
	for id, st := range r.tracked {
		if live != nil && !live(id) {
			evicted = append(evicted, id)
			continue
		}
		if st.pos.DistanceSqTo(viewer) > maxRangeSq {
			evicted = append(evicted, id)
		}
	}
	// Membership or should-glow entries without tracking state cannot be
	// range-checked; keep them only while the host still reports them.
	for id := range r.shouldGlow {
		if _, ok := r.tracked[id]; !ok && (live == nil || !live(id)) {
			evicted = append(evicted, id)
		}
	}
	for id := range r.groups.membership {
		if _, ok := r.tracked[id]; ok {
			continue
		}
		if _, ok := r.shouldGlow[id]; ok {
			continue
		}
		if live == nil || !live(id) {
			evicted = append(evicted, id)
		}
	}

	for _, id := range evicted {
		r.evict(id)
	}
	return evicted
}

// evict drops id from every map and takes it out of its group.
func (r *Reaper) evict(id EntityID) {
	delete(r.tracked, id)
	delete(r.shouldGlow, id)
	r.exclusion.Forget(id)
	r.groups.Drop(id)
}

// clearAll drops every entry unconditionally, removing each member from its
// group once.
func (r *Reaper) clearAll() {
	r.groups.DropAll()
	clear(r.tracked)
	clear(r.shouldGlow)
	r.exclusion.Clear()
}
