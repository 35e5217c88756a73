package kb

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/signalsfoundry/itemglow/core"
)

var (
	// ErrItemExists is returned when adding an item whose ID is taken.
	ErrItemExists = errors.New("item already exists")
	// ErrItemNotFound is returned for operations on unknown item IDs.
	ErrItemNotFound = errors.New("item not found")
	// ErrStandExists is returned when adding a stand whose ID is taken.
	ErrStandExists = errors.New("stand already exists")
)

// EventType indicates what kind of change happened in the world.
type EventType int

const (
	EventItemAdded EventType = iota
	EventItemRemoved
	EventLoreChanged
	EventItemMoved
	EventWorldUnloaded
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type EventType
	Item core.TrackedEntity
}

// Occluder is a solid sphere that blocks line of sight.
type Occluder struct {
	ID     string
	Center core.Vec3
	Radius float64
}

// World is an in-memory, thread-safe store for items, stands and occluders.
// It implements every host oracle the engine consumes.
type World struct {
	mu sync.RWMutex

	loaded    bool
	items     map[core.EntityID]*core.TrackedEntity
	stands    map[core.EntityID]core.Stand
	occluders []Occluder

	subs   map[int]func(Event)
	nextID int
}

var (
	_ core.PopulationQuery = (*World)(nil)
	_ core.SpatialQuery    = (*World)(nil)
	_ core.OcclusionTest   = (*World)(nil)
	_ core.EntityLookup    = (*World)(nil)
)

// NewWorld constructs an empty, loaded world.
func NewWorld() *World {
	return &World{
		loaded: true,
		items:  make(map[core.EntityID]*core.TrackedEntity),
		stands: make(map[core.EntityID]core.Stand),
		subs:   make(map[int]func(Event)),
	}
}

// Host returns a core.Host whose oracles are all backed by w. The grouping
// collaborator is left for the caller to fill in.
func (w *World) Host() core.Host {
	return core.Host{
		Population: w,
		Spatial:    w,
		Occlusion:  w,
		Lookup:     w,
	}
}

// AddItem stores a live copy of e and notifies subscribers.
func (w *World) AddItem(e core.TrackedEntity) error {
	w.mu.Lock()
	if _, exists := w.items[e.ID]; exists {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemExists, e.ID)
	}
	e.Alive = true
	e.Lore = slices.Clone(e.Lore)
	w.items[e.ID] = &e
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, Event{Type: EventItemAdded, Item: cloneEntity(e)})
	return nil
}

// RemoveItem despawns the item. Lookup reports it gone afterwards.
func (w *World) RemoveItem(id core.EntityID) error {
	w.mu.Lock()
	e, ok := w.items[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	delete(w.items, id)
	gone := cloneEntity(*e)
	gone.Alive = false
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, Event{Type: EventItemRemoved, Item: gone})
	return nil
}

// SetLore replaces an item's lore lines, as when the host receives the
// item's metadata after the entity itself.
func (w *World) SetLore(id core.EntityID, lore []string) error {
	w.mu.Lock()
	e, ok := w.items[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	e.Lore = slices.Clone(lore)
	event := Event{Type: EventLoreChanged, Item: cloneEntity(*e)}
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, event)
	return nil
}

// MoveItem updates an item's position.
func (w *World) MoveItem(id core.EntityID, pos core.Vec3) error {
	w.mu.Lock()
	e, ok := w.items[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	e.Position = pos
	event := Event{Type: EventItemMoved, Item: cloneEntity(*e)}
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, event)
	return nil
}

// AddStand stores a display stand.
func (w *World) AddStand(s core.Stand) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.stands[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrStandExists, s.ID)
	}
	w.stands[s.ID] = s
	return nil
}

// AddOccluder adds a solid sphere to the world.
func (w *World) AddOccluder(o Occluder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.occluders = append(w.occluders, o)
}

// Unload drops every item, stand and occluder. Until Load is called the
// oracles fail with core.ErrWorldUnavailable.
func (w *World) Unload() {
	w.mu.Lock()
	w.loaded = false
	clear(w.items)
	clear(w.stands)
	w.occluders = nil
	subs := w.subscribers()
	w.mu.Unlock()

	notify(subs, Event{Type: EventWorldUnloaded})
}

// Load marks the world as available again.
func (w *World) Load() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded = true
}

// Loaded reports whether the world is available.
func (w *World) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// ListItems returns a snapshot of all items ordered by ID.
func (w *World) ListItems() []core.TrackedEntity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	res := make([]core.TrackedEntity, 0, len(w.items))
	for _, e := range w.items {
		res = append(res, cloneEntity(*e))
	}
	slices.SortFunc(res, func(a, b core.TrackedEntity) int {
		return compareIDs(a.ID, b.ID)
	})
	return res
}

// EntitiesNear returns copies of the items within radius of center, nearest
// first. Implements core.PopulationQuery.
func (w *World) EntitiesNear(center core.Vec3, radius float64) ([]core.TrackedEntity, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return nil, core.ErrWorldUnavailable
	}

	rSq := radius * radius
	res := make([]core.TrackedEntity, 0)
	for _, e := range w.items {
		if e.Position.DistanceSqTo(center) <= rSq {
			res = append(res, cloneEntity(*e))
		}
	}
	slices.SortFunc(res, func(a, b core.TrackedEntity) int {
		da, db := a.Position.DistanceSqTo(center), b.Position.DistanceSqTo(center)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return compareIDs(a.ID, b.ID)
	})
	return res, nil
}

// StandsNear returns the stands within radius of center. Implements
// core.SpatialQuery.
func (w *World) StandsNear(center core.Vec3, radius float64) ([]core.Stand, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return nil, core.ErrWorldUnavailable
	}

	rSq := radius * radius
	var res []core.Stand
	for _, s := range w.stands {
		if s.Position.DistanceSqTo(center) <= rSq {
			res = append(res, s)
		}
	}
	return res, nil
}

// HasLineOfSight reports whether the segment from eye to the target's visual
// centre misses every occluder. Implements core.OcclusionTest.
func (w *World) HasLineOfSight(eye core.Vec3, target core.TrackedEntity) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.loaded {
		return false, core.ErrWorldUnavailable
	}

	to := target.VisualCenter()
	for _, o := range w.occluders {
		if !core.SegmentClearsSphere(eye, to, o.Center, o.Radius) {
			return false, nil
		}
	}
	return true, nil
}

// Lookup returns the current state of an item. Implements core.EntityLookup.
func (w *World) Lookup(id core.EntityID) (core.TrackedEntity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.items[id]
	if !ok {
		return core.TrackedEntity{}, false
	}
	return cloneEntity(*e), true
}

// Subscribe registers a callback for world events. It returns an unsubscribe
// function. Callbacks run outside the store's lock.
func (w *World) Subscribe(fn func(Event)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// subscribers copies the callbacks in registration order. Callers hold mu.
func (w *World) subscribers() []func(Event) {
	ids := make([]int, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, w.subs[id])
	}
	return out
}

// notify runs outside the lock to avoid deadlocks with subscribers that
// read back from the world.
func notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		sub(e)
	}
}

func cloneEntity(e core.TrackedEntity) core.TrackedEntity {
	e.Lore = slices.Clone(e.Lore)
	return e
}

func compareIDs(a, b core.EntityID) int {
	return bytes.Compare(a[:], b[:])
}
