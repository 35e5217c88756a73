package kb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/signalsfoundry/itemglow/core"
)

func newItem(pos core.Vec3, lore ...string) core.TrackedEntity {
	return core.TrackedEntity{ID: uuid.New(), Position: pos, Height: 0.25, Width: 0.25, Lore: lore}
}

func TestAddAndLookupItem(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{X: 1}, "RARE")
	if err := store.AddItem(item); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	got, ok := store.Lookup(item.ID)
	if !ok || !got.Alive || got.Lore[0] != "RARE" {
		t.Fatalf("Lookup returned %#v, %v", got, ok)
	}

	// Returned copies must not alias the store.
	got.Lore[0] = "MUTATED"
	again, _ := store.Lookup(item.ID)
	if again.Lore[0] != "RARE" {
		t.Fatalf("Lookup leaked internal lore slice")
	}
}

func TestAddItemDuplicate(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{})
	if err := store.AddItem(item); err != nil {
		t.Fatalf("first AddItem error: %v", err)
	}
	if err := store.AddItem(item); !errors.Is(err, ErrItemExists) {
		t.Fatalf("duplicate AddItem error = %v, want ErrItemExists", err)
	}
}

func TestRemoveItem(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{})
	_ = store.AddItem(item)

	if err := store.RemoveItem(item.ID); err != nil {
		t.Fatalf("RemoveItem error: %v", err)
	}
	if _, ok := store.Lookup(item.ID); ok {
		t.Fatalf("removed item still found")
	}
	if err := store.RemoveItem(item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("second RemoveItem error = %v, want ErrItemNotFound", err)
	}
}

func TestEntitiesNearOrdersByDistance(t *testing.T) {
	store := NewWorld()
	far := newItem(core.Vec3{Z: 20})
	near := newItem(core.Vec3{Z: 2})
	outside := newItem(core.Vec3{Z: 50})
	for _, it := range []core.TrackedEntity{far, near, outside} {
		_ = store.AddItem(it)
	}

	got, err := store.EntitiesNear(core.Vec3{}, 24)
	if err != nil {
		t.Fatalf("EntitiesNear error: %v", err)
	}
	if len(got) != 2 || got[0].ID != near.ID || got[1].ID != far.ID {
		t.Fatalf("EntitiesNear = %+v", got)
	}
}

func TestOraclesFailWhenUnloaded(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{Z: 3})
	_ = store.AddItem(item)

	store.Unload()
	if store.Loaded() {
		t.Fatalf("world should be unloaded")
	}
	if _, err := store.EntitiesNear(core.Vec3{}, 24); !errors.Is(err, core.ErrWorldUnavailable) {
		t.Fatalf("EntitiesNear error = %v", err)
	}
	if _, err := store.StandsNear(core.Vec3{}, 2); !errors.Is(err, core.ErrWorldUnavailable) {
		t.Fatalf("StandsNear error = %v", err)
	}
	if _, err := store.HasLineOfSight(core.Vec3{}, item); !errors.Is(err, core.ErrWorldUnavailable) {
		t.Fatalf("HasLineOfSight error = %v", err)
	}

	store.Load()
	got, err := store.EntitiesNear(core.Vec3{}, 24)
	if err != nil || len(got) != 0 {
		t.Fatalf("reloaded world = %v, %v; want empty", got, err)
	}
}

func TestHasLineOfSightWithOccluders(t *testing.T) {
	store := NewWorld()
	target := newItem(core.Vec3{Z: 10})
	eye := core.Vec3{Y: 0.125}

	los, err := store.HasLineOfSight(eye, target)
	if err != nil || !los {
		t.Fatalf("empty world LoS = %v, %v", los, err)
	}

	store.AddOccluder(Occluder{ID: "pillar", Center: core.Vec3{Z: 5}, Radius: 1})
	los, _ = store.HasLineOfSight(eye, target)
	if los {
		t.Fatalf("pillar between eye and target should block")
	}

	side := newItem(core.Vec3{X: 10})
	los, _ = store.HasLineOfSight(eye, side)
	if !los {
		t.Fatalf("pillar off to the side should not block")
	}
}

func TestStandsNear(t *testing.T) {
	store := NewWorld()
	s := core.Stand{ID: uuid.New(), Position: core.Vec3{Y: 0.5}, HeadItem: "GLASS", HeadTransparent: true}
	if err := store.AddStand(s); err != nil {
		t.Fatalf("AddStand error: %v", err)
	}
	if err := store.AddStand(s); !errors.Is(err, ErrStandExists) {
		t.Fatalf("duplicate AddStand error = %v", err)
	}
	got, _ := store.StandsNear(core.Vec3{}, 1)
	if len(got) != 1 {
		t.Fatalf("StandsNear len=%d, want 1", len(got))
	}
	got, _ = store.StandsNear(core.Vec3{X: 5}, 1)
	if len(got) != 0 {
		t.Fatalf("StandsNear far away len=%d, want 0", len(got))
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	store := NewWorld()
	var got []EventType
	unsubscribe := store.Subscribe(func(e Event) {
		got = append(got, e.Type)
	})

	item := newItem(core.Vec3{})
	_ = store.AddItem(item)
	_ = store.SetLore(item.ID, []string{"EPIC"})
	_ = store.MoveItem(item.ID, core.Vec3{X: 1})
	_ = store.RemoveItem(item.ID)

	want := []EventType{EventItemAdded, EventLoreChanged, EventItemMoved, EventItemRemoved}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	unsubscribe()
	_ = store.AddItem(newItem(core.Vec3{}))
	if len(got) != len(want) {
		t.Fatalf("unsubscribed callback still invoked")
	}
}

func TestUnsubscribeKeepsOtherSubscribers(t *testing.T) {
	store := NewWorld()
	var a, b int
	unsubA := store.Subscribe(func(Event) { a++ })
	store.Subscribe(func(Event) { b++ })

	unsubA()
	unsubA()
	_ = store.AddItem(newItem(core.Vec3{}))
	if a != 0 || b != 1 {
		t.Fatalf("a=%d b=%d, want 0/1", a, b)
	}
}

func TestSubscriberMayReadBack(t *testing.T) {
	store := NewWorld()
	var seen core.TrackedEntity
	store.Subscribe(func(e Event) {
		seen, _ = store.Lookup(e.Item.ID)
	})
	item := newItem(core.Vec3{}, "MYTHIC")
	_ = store.AddItem(item)
	if seen.ID != item.ID {
		t.Fatalf("subscriber could not read the new item back")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{})
	if err := store.AddItem(item); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	var wg sync.WaitGroup
	// Concurrent readers/writers
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.EntitiesNear(core.Vec3{}, 24)
			_ = store.ListItems()
		}()
		go func() {
			defer wg.Done()
			_ = store.MoveItem(item.ID, core.Vec3{X: float64(i)})
		}()
	}
	wg.Wait()
}

func TestWorldDrivesEngine(t *testing.T) {
	store := NewWorld()
	item := newItem(core.Vec3{Z: 5}, "LEGENDARY SWORD")
	_ = store.AddItem(item)

	cfg := core.DefaultConfig()
	cfg.Stride = 1
	engine, err := core.NewEngine(cfg, store.Host())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	viewer := &core.Viewer{Eye: core.Vec3{Y: 1.62}, Look: core.Vec3{Z: 1}}

	engine.Tick(context.Background(), viewer, core.ContextFlags{})
	if !engine.IsHighlighted(item.ID) {
		t.Fatalf("expected item to glow")
	}

	_ = store.RemoveItem(item.ID)
	engine.Tick(context.Background(), viewer, core.ContextFlags{})
	if engine.IsHighlighted(item.ID) {
		t.Fatalf("removed item still glowing")
	}
}
