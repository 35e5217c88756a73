package kb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/model"
)

func loadShowroom(t *testing.T) (*model.Scenario, *World, *ScenarioIndex) {
	t.Helper()
	s, err := LoadScenarioFile(filepath.Join("testdata", "showroom.yaml"))
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	w := NewWorld()
	ix, err := w.ApplyScenario(s)
	if err != nil {
		t.Fatalf("ApplyScenario: %v", err)
	}
	return s, w, ix
}

func TestLoadScenarioFile(t *testing.T) {
	s, w, ix := loadShowroom(t)

	if s.Name != "showroom" || s.Context != "hub" || !s.ExclusionActive {
		t.Fatalf("scenario header = %+v", s)
	}
	if got := len(w.ListItems()); got != 4 {
		t.Fatalf("items loaded = %d, want 4", got)
	}

	want := uuid.MustParse("3f1c2f58-6f7e-4c3a-9a57-1d8a2d6c0b01")
	for _, key := range []string{"hyperion", want.String()} {
		id, ok := ix.Resolve(key)
		if !ok || id != want {
			t.Fatalf("Resolve(%q) = %v, %v", key, id, ok)
		}
	}
	dirt, ok := ix.Resolve("dirt")
	if !ok {
		t.Fatalf("item without id not indexed by name")
	}
	e, _ := w.Lookup(dirt)
	if e.Height != defaultItemSize || e.Width != defaultItemSize {
		t.Fatalf("default size not applied: %+v", e)
	}
}

func TestLoadScenarioRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "nmae: typo\n"},
		{name: "bad item id", yaml: "items:\n  - id: not-a-uuid\n"},
		{name: "duplicate name", yaml: "items:\n  - name: a\n  - name: a\n"},
		{name: "zero radius occluder", yaml: "occluders:\n  - center: {x: 1}\n"},
		{name: "unknown event item", yaml: "events:\n  - tick: 1\n    action: despawn\n    item: ghost\n"},
		{name: "unknown action", yaml: "events:\n  - tick: 1\n    action: explode\n"},
		{name: "viewer move without viewer", yaml: "events:\n  - tick: 1\n    action: move_viewer\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScenario(strings.NewReader(tt.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := LoadScenario(strings.NewReader("items:\n  - name: a\n  - name: a\n"))
	if !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("error = %v, want ErrInvalidScenario", err)
	}
}

func TestValidateScenarioEventOrder(t *testing.T) {
	// A despawn listed before the spawn it refers to is valid as long as
	// its tick is later.
	s := &model.Scenario{Events: []model.Event{
		{Tick: 5, Action: model.ActionDespawn, Item: "late"},
		{Tick: 1, Action: model.ActionSpawn, Spawn: &model.ItemDefinition{Name: "late"}},
	}}
	if err := ValidateScenario(s); err != nil {
		t.Fatalf("ValidateScenario: %v", err)
	}
}

func TestViewerFromDefinitionDefaults(t *testing.T) {
	v := ViewerFromDefinition(model.ViewerDefinition{Position: model.Coordinates{Y: 64}})
	if v.Eye.Y != 64+defaultEyeHeight {
		t.Fatalf("Eye = %+v", v.Eye)
	}
	if v.Look != (core.Vec3{Z: 1}) {
		t.Fatalf("Look = %+v", v.Look)
	}
}

func TestScriptAppliesEventsInTickOrder(t *testing.T) {
	s, w, ix := loadShowroom(t)
	script := NewScript(w, ix, s.Events)

	if fx, err := script.Apply(9); err != nil || fx.Viewer != nil || fx.Context != nil {
		t.Fatalf("Apply(9) = %+v, %v", fx, err)
	}
	if script.Pending() != 5 {
		t.Fatalf("Pending = %d, want 5", script.Pending())
	}

	if _, err := script.Apply(25); err != nil {
		t.Fatalf("Apply(25): %v", err)
	}
	dirt, _ := ix.Resolve("dirt")
	if e, _ := w.Lookup(dirt); len(e.Lore) != 1 || e.Lore[0] != "COMMON" {
		t.Fatalf("lore not updated: %+v", e)
	}
	hyperion, _ := ix.Resolve("hyperion")
	if _, ok := w.Lookup(hyperion); ok {
		t.Fatalf("hyperion should be despawned")
	}
	if _, ok := ix.Resolve("late-drop"); !ok {
		t.Fatalf("spawned item not indexed")
	}

	fx, err := script.Apply(100)
	if err != nil {
		t.Fatalf("Apply(100): %v", err)
	}
	if fx.Viewer == nil || fx.Viewer.Position.Z != 40 {
		t.Fatalf("viewer effect = %+v", fx.Viewer)
	}
	if fx.Context == nil || *fx.Context != "dungeon" {
		t.Fatalf("context effect = %v", fx.Context)
	}
	if script.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", script.Pending())
	}
}

func TestShowroomHighlights(t *testing.T) {
	s, w, ix := loadShowroom(t)
	cfg := core.DefaultConfig()
	cfg.Stride = 1
	engine, err := core.NewEngine(cfg, w.Host())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	viewer := ViewerFromDefinition(s.Viewer)
	flags := core.ContextFlags{Context: s.Context, ExclusionActive: s.ExclusionActive}
	engine.Tick(context.Background(), &viewer, flags)

	expect := map[string]bool{
		"hyperion":        true,
		"dirt":            true,
		"displayed-relic": false,
		"hidden-gem":      false,
	}
	for name, want := range expect {
		id, _ := ix.Resolve(name)
		if got := engine.IsHighlighted(id); got != want {
			t.Errorf("%s highlighted = %v, want %v", name, got, want)
		}
	}

	hyperion, _ := ix.Resolve("hyperion")
	if c, _ := engine.HighlightColorOf(hyperion); c != 0xFFAA00 {
		t.Fatalf("hyperion color = %s", c.Hex())
	}
}
