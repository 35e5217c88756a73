// Package outline is the reference grouping collaborator: a registry of
// named, colored outline groups that entities can belong to, one at a time.
package outline

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/internal/logging"
)

// Group is a named outline group with a single color.
type Group struct {
	Name  string
	Color core.Color
	// Tier is set for engine-owned glow groups.
	Tier    core.Tier
	Glow    bool
	Members int
}

// Registry tracks which group every entity is in. It is safe for concurrent
// use; the engine calls it from the tick goroutine while inspection reads it
// from elsewhere.
type Registry struct {
	mu sync.RWMutex

	palette  core.Palette
	colors   map[string]core.Color
	members  map[string]map[core.EntityID]struct{}
	memberOf map[core.EntityID]string

	adds    uint64
	removes uint64

	log logging.Logger
}

var _ core.GroupingCollaborator = (*Registry)(nil)

// Option customises a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry builds an empty registry. Glow group colors come from
// palette, falling back to core.DefaultPalette.
func NewRegistry(palette core.Palette, opts ...Option) *Registry {
	if palette == nil {
		palette = core.DefaultPalette()
	}
	r := &Registry{
		palette:  palette,
		colors:   make(map[string]core.Color),
		members:  make(map[string]map[core.EntityID]struct{}),
		memberOf: make(map[core.EntityID]string),
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddToGroup places id in the glow group for tier, leaving whatever group
// it was in before. Implements core.GroupingCollaborator.
func (r *Registry) AddToGroup(id core.EntityID, tier core.Tier) {
	name := core.GroupName(tier)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.colors[name]; !ok {
		r.colors[name] = r.palette.ColorOf(tier)
	}
	r.join(id, name)
	r.adds++
}

// RemoveFromGroup takes id out of its group when that group is a glow
// group. Membership in any other group is left alone. Implements
// core.GroupingCollaborator.
func (r *Registry) RemoveFromGroup(id core.EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removes++

	name, ok := r.memberOf[id]
	if !ok {
		return
	}
	if !core.IsGlowGroup(name) {
		r.log.Debug(context.Background(), "refusing to remove entity from foreign group",
			logging.String("entity", id.String()),
			logging.String("group", name),
		)
		return
	}
	r.leave(id, name)
}

// CurrentGroupOf returns the group id is in. Implements
// core.GroupingCollaborator.
func (r *Registry) CurrentGroupOf(id core.EntityID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.memberOf[id]
	return name, ok
}

// Join places id in an arbitrary named group, as another feature of the
// host would (team colors, party members).
func (r *Registry) Join(id core.EntityID, name string, color core.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors[name] = color
	r.join(id, name)
}

// ColorOf returns the color of the group id is in.
func (r *Registry) ColorOf(id core.EntityID) (core.Color, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.memberOf[id]
	if !ok {
		return 0, false
	}
	return r.colors[name], true
}

// Members returns the ids in the named group.
func (r *Registry) Members(name string) []core.EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.members[name]
	out := make([]core.EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b core.EntityID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// Groups lists every group that has been used, ordered by name.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Group, 0, len(r.colors))
	for name, color := range r.colors {
		g := Group{Name: name, Color: color, Members: len(r.members[name])}
		if core.IsGlowGroup(name) {
			g.Glow = true
			if t, err := core.ParseTier(name[len(core.GroupPrefix):]); err == nil {
				g.Tier = t
			}
		}
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b Group) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of entities in any group.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memberOf)
}

// Calls returns the number of AddToGroup and RemoveFromGroup calls received.
func (r *Registry) Calls() (adds, removes uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adds, r.removes
}

// join moves id into name. Callers hold mu.
func (r *Registry) join(id core.EntityID, name string) {
	if prev, ok := r.memberOf[id]; ok {
		if prev == name {
			return
		}
		r.leave(id, prev)
	}
	set, ok := r.members[name]
	if !ok {
		set = make(map[core.EntityID]struct{})
		r.members[name] = set
	}
	set[id] = struct{}{}
	r.memberOf[id] = name
}

// leave removes id from name. Callers hold mu.
func (r *Registry) leave(id core.EntityID, name string) {
	delete(r.members[name], id)
	delete(r.memberOf, id)
}
