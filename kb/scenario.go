package kb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario wraps every structural problem found in a scenario.
var ErrInvalidScenario = errors.New("invalid scenario")

const (
	defaultItemSize  = 0.25
	defaultEyeHeight = 1.62
)

// LoadScenario decodes a YAML scenario from r and validates it.
func LoadScenario(r io.Reader) (*model.Scenario, error) {
	var s model.Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}
	if err := ValidateScenario(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenarioFile reads and validates the scenario at path.
func LoadScenarioFile(path string) (*model.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScenarioFile: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

// ValidateScenario checks IDs, sizes and event references.
func ValidateScenario(s *model.Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: scenario is nil", ErrInvalidScenario)
	}

	known := make(map[string]bool, len(s.Items))
	addItem := func(def model.ItemDefinition, where string) error {
		if def.ID != "" {
			if _, err := uuid.Parse(def.ID); err != nil {
				return fmt.Errorf("%w: %s: item id %q is not a UUID", ErrInvalidScenario, where, def.ID)
			}
		}
		if def.Height < 0 || def.Width < 0 {
			return fmt.Errorf("%w: %s: item %q has a negative size", ErrInvalidScenario, where, itemKey(def))
		}
		for _, key := range []string{def.ID, def.Name} {
			if key == "" {
				continue
			}
			if known[key] {
				return fmt.Errorf("%w: %s: duplicate item %q", ErrInvalidScenario, where, key)
			}
			known[key] = true
		}
		return nil
	}

	for i, def := range s.Items {
		if err := addItem(def, fmt.Sprintf("items[%d]", i)); err != nil {
			return err
		}
	}
	for i, st := range s.Stands {
		if st.ID != "" {
			if _, err := uuid.Parse(st.ID); err != nil {
				return fmt.Errorf("%w: stands[%d]: id %q is not a UUID", ErrInvalidScenario, i, st.ID)
			}
		}
	}
	for i, o := range s.Occluders {
		if o.Radius <= 0 {
			return fmt.Errorf("%w: occluders[%d]: radius must be positive", ErrInvalidScenario, i)
		}
	}

	events := slices.Clone(s.Events)
	slices.SortStableFunc(events, func(a, b model.Event) int {
		switch {
		case a.Tick < b.Tick:
			return -1
		case a.Tick > b.Tick:
			return 1
		}
		return 0
	})
	for _, ev := range events {
		where := fmt.Sprintf("event at tick %d", ev.Tick)
		switch ev.Action {
		case model.ActionDespawn, model.ActionSetLore, model.ActionMoveItem:
			if !known[ev.Item] {
				return fmt.Errorf("%w: %s: unknown item %q", ErrInvalidScenario, where, ev.Item)
			}
		case model.ActionMoveViewer:
			if ev.Viewer == nil {
				return fmt.Errorf("%w: %s: move_viewer needs a viewer", ErrInvalidScenario, where)
			}
		case model.ActionContext:
		case model.ActionSpawn:
			if ev.Spawn == nil {
				return fmt.Errorf("%w: %s: spawn needs an item", ErrInvalidScenario, where)
			}
			if err := addItem(*ev.Spawn, where); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s: unknown action %q", ErrInvalidScenario, where, ev.Action)
		}
	}
	return nil
}

// ScenarioIndex maps scenario item keys (ID or name) onto entity IDs.
type ScenarioIndex struct {
	Items map[string]core.EntityID
}

// Resolve returns the entity ID for a scenario item key.
func (ix *ScenarioIndex) Resolve(key string) (core.EntityID, bool) {
	id, ok := ix.Items[key]
	return id, ok
}

// ApplyScenario populates w with the scenario's items, stands and occluders.
func (w *World) ApplyScenario(s *model.Scenario) (*ScenarioIndex, error) {
	if err := ValidateScenario(s); err != nil {
		return nil, err
	}
	ix := &ScenarioIndex{Items: make(map[string]core.EntityID, len(s.Items))}
	for _, def := range s.Items {
		if _, err := w.SpawnItem(ix, def); err != nil {
			return nil, err
		}
	}
	for _, def := range s.Stands {
		stand, err := StandFromDefinition(def)
		if err != nil {
			return nil, err
		}
		if err := w.AddStand(stand); err != nil {
			return nil, err
		}
	}
	for _, def := range s.Occluders {
		w.AddOccluder(Occluder{ID: def.ID, Center: vec(def.Center), Radius: def.Radius})
	}
	return ix, nil
}

// SpawnItem adds def to the world and records it in ix.
func (w *World) SpawnItem(ix *ScenarioIndex, def model.ItemDefinition) (core.EntityID, error) {
	e, err := ItemFromDefinition(def)
	if err != nil {
		return uuid.Nil, err
	}
	if err := w.AddItem(e); err != nil {
		return uuid.Nil, err
	}
	if ix != nil {
		if def.ID != "" {
			ix.Items[def.ID] = e.ID
		}
		if def.Name != "" {
			ix.Items[def.Name] = e.ID
		}
	}
	return e.ID, nil
}

// ItemFromDefinition converts a scenario item into a live entity, assigning
// a random ID and the default box size where the definition leaves them out.
func ItemFromDefinition(def model.ItemDefinition) (core.TrackedEntity, error) {
	id := uuid.New()
	if def.ID != "" {
		parsed, err := uuid.Parse(def.ID)
		if err != nil {
			return core.TrackedEntity{}, fmt.Errorf("%w: item id %q: %v", ErrInvalidScenario, def.ID, err)
		}
		id = parsed
	}
	e := core.TrackedEntity{
		ID:       id,
		Position: vec(def.Position),
		Height:   def.Height,
		Width:    def.Width,
		Lore:     slices.Clone(def.Lore),
		Alive:    true,
	}
	if e.Height == 0 {
		e.Height = defaultItemSize
	}
	if e.Width == 0 {
		e.Width = defaultItemSize
	}
	return e, nil
}

// StandFromDefinition converts a scenario stand.
func StandFromDefinition(def model.StandDefinition) (core.Stand, error) {
	id := uuid.New()
	if def.ID != "" {
		parsed, err := uuid.Parse(def.ID)
		if err != nil {
			return core.Stand{}, fmt.Errorf("%w: stand id %q: %v", ErrInvalidScenario, def.ID, err)
		}
		id = parsed
	}
	return core.Stand{
		ID:              id,
		Position:        vec(def.Position),
		HeadItem:        def.HeadItem,
		HeadTransparent: def.HeadTransparent,
	}, nil
}

// ViewerFromDefinition builds the engine viewer. The eye sits EyeHeight
// above the feet (1.62 by default) and a zero look vector faces +Z.
func ViewerFromDefinition(def model.ViewerDefinition) core.Viewer {
	h := def.EyeHeight
	if h == 0 {
		h = defaultEyeHeight
	}
	pos := vec(def.Position)
	look := vec(def.Look)
	if look.LengthSq() == 0 {
		look = core.Vec3{Z: 1}
	}
	return core.Viewer{
		Position: pos,
		Eye:      pos.Add(core.Vec3{Y: h}),
		Look:     look,
	}
}

func itemKey(def model.ItemDefinition) string {
	if def.ID != "" {
		return def.ID
	}
	return def.Name
}

func vec(c model.Coordinates) core.Vec3 {
	return core.Vec3{X: c.X, Y: c.Y, Z: c.Z}
}
