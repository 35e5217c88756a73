package kb

import (
	"fmt"
	"slices"

	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/model"
)

// Effects are the viewer-side changes produced by scripted events. World
// changes are applied to the store directly.
type Effects struct {
	Viewer  *core.Viewer
	Context *string
}

// Script replays a scenario's events against a world as ticks advance.
type Script struct {
	world  *World
	index  *ScenarioIndex
	events []model.Event
	next   int
}

// NewScript orders events by tick. Events sharing a tick keep file order.
func NewScript(w *World, ix *ScenarioIndex, events []model.Event) *Script {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.Event) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	if ix == nil {
		ix = &ScenarioIndex{Items: make(map[string]core.EntityID)}
	}
	return &Script{world: w, index: ix, events: sorted}
}

// Pending returns the number of events not yet applied.
func (s *Script) Pending() int { return len(s.events) - s.next }

// Apply runs every event scheduled at or before tick that has not run yet.
func (s *Script) Apply(tick uint64) (Effects, error) {
	var fx Effects
	for s.next < len(s.events) && s.events[s.next].Tick <= tick {
		ev := s.events[s.next]
		s.next++
		if err := s.apply(ev, &fx); err != nil {
			return fx, fmt.Errorf("event at tick %d (%s): %w", ev.Tick, ev.Action, err)
		}
	}
	return fx, nil
}

func (s *Script) apply(ev model.Event, fx *Effects) error {
	switch ev.Action {
	case model.ActionSpawn:
		if ev.Spawn == nil {
			return fmt.Errorf("%w: spawn needs an item", ErrInvalidScenario)
		}
		_, err := s.world.SpawnItem(s.index, *ev.Spawn)
		return err
	case model.ActionContext:
		ctx := ev.Context
		fx.Context = &ctx
		return nil
	case model.ActionMoveViewer:
		if ev.Viewer == nil {
			return fmt.Errorf("%w: move_viewer needs a viewer", ErrInvalidScenario)
		}
		v := ViewerFromDefinition(*ev.Viewer)
		fx.Viewer = &v
		return nil
	}

	id, ok := s.index.Resolve(ev.Item)
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, ev.Item)
	}
	switch ev.Action {
	case model.ActionDespawn:
		return s.world.RemoveItem(id)
	case model.ActionSetLore:
		return s.world.SetLore(id, ev.Lore)
	case model.ActionMoveItem:
		return s.world.MoveItem(id, vec(ev.Position))
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidScenario, ev.Action)
	}
}
