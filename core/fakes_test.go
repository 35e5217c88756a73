package core

import (
	"errors"

	"github.com/google/uuid"
)

// fakeWorld is an in-memory host population.
type fakeWorld struct {
	order    []EntityID
	entities map[EntityID]*TrackedEntity

	populationCalls int
	populationErr   error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{entities: make(map[EntityID]*TrackedEntity)}
}

func (w *fakeWorld) add(pos Vec3, lore ...string) EntityID {
	id := uuid.New()
	w.order = append(w.order, id)
	w.entities[id] = &TrackedEntity{
		ID:       id,
		Position: pos,
		Height:   0.25,
		Width:    0.25,
		Lore:     lore,
		Alive:    true,
	}
	return id
}

func (w *fakeWorld) kill(id EntityID) {
	w.entities[id].Alive = false
}

func (w *fakeWorld) EntitiesNear(center Vec3, radius float64) ([]TrackedEntity, error) {
	w.populationCalls++
	if w.populationErr != nil {
		return nil, w.populationErr
	}
	out := make([]TrackedEntity, 0, len(w.order))
	for _, id := range w.order {
		e := w.entities[id]
		if e.Position.DistanceSqTo(center) <= radius*radius {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (w *fakeWorld) Lookup(id EntityID) (TrackedEntity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return TrackedEntity{}, false
	}
	return *e, true
}

// fakeOcclusion blocks line of sight for selected ids.
type fakeOcclusion struct {
	blocked map[EntityID]bool
	err     error
	calls   int
}

func newFakeOcclusion() *fakeOcclusion {
	return &fakeOcclusion{blocked: make(map[EntityID]bool)}
}

func (o *fakeOcclusion) HasLineOfSight(_ Vec3, target TrackedEntity) (bool, error) {
	o.calls++
	if o.err != nil {
		return false, o.err
	}
	return !o.blocked[target.ID], nil
}

// fakeSpatial returns a fixed set of stands.
type fakeSpatial struct {
	stands []Stand
	err    error
	calls  int
}

func (s *fakeSpatial) StandsNear(center Vec3, radius float64) ([]Stand, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []Stand
	for _, st := range s.stands {
		if st.Position.DistanceSqTo(center) <= radius*radius {
			out = append(out, st)
		}
	}
	return out, nil
}

type groupCall struct {
	op   string
	id   EntityID
	tier Tier
}

// recordingGroups is a GroupingCollaborator that logs every call.
type recordingGroups struct {
	members map[EntityID]string
	calls   []groupCall
}

func newRecordingGroups() *recordingGroups {
	return &recordingGroups{members: make(map[EntityID]string)}
}

func (g *recordingGroups) AddToGroup(id EntityID, tier Tier) {
	g.calls = append(g.calls, groupCall{op: "add", id: id, tier: tier})
	g.members[id] = GroupName(tier)
}

func (g *recordingGroups) RemoveFromGroup(id EntityID) {
	g.calls = append(g.calls, groupCall{op: "remove", id: id})
	delete(g.members, id)
}

func (g *recordingGroups) CurrentGroupOf(id EntityID) (string, bool) {
	name, ok := g.members[id]
	return name, ok
}

func (g *recordingGroups) count(op string, id EntityID) int {
	n := 0
	for _, c := range g.calls {
		if c.op == op && c.id == id {
			n++
		}
	}
	return n
}

func (g *recordingGroups) total(op string) int {
	n := 0
	for _, c := range g.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

var errOracleDown = errors.New("oracle down")

// standardViewer stands at the origin looking down +Z.
func standardViewer() *Viewer {
	return &Viewer{
		Position: Vec3{},
		Eye:      Vec3{Y: 1.62},
		Look:     Vec3{Z: 1},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Stride = 1
	return cfg
}
