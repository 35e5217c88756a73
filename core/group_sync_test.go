package core

import (
	"testing"

	"github.com/google/uuid"
)

func newTestGroupSync() (*GroupSync, *recordingGroups, map[EntityID]Tier) {
	groups := newRecordingGroups()
	shouldGlow := make(map[EntityID]Tier)
	return newGroupSync(groups, shouldGlow), groups, shouldGlow
}

func TestReconcileIdempotent(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	id := uuid.New()
	shouldGlow[id] = Epic

	sync.Reconcile(id)
	if len(groups.calls) != 1 || groups.calls[0] != (groupCall{op: "add", id: id, tier: Epic}) {
		t.Fatalf("first reconcile calls = %+v", groups.calls)
	}

	sync.Reconcile(id)
	sync.Reconcile(id)
	if len(groups.calls) != 1 {
		t.Fatalf("repeated reconcile issued %d extra calls", len(groups.calls)-1)
	}
}

func TestReconcileTierChangeMovesGroup(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	id := uuid.New()
	shouldGlow[id] = Rare
	sync.Reconcile(id)

	shouldGlow[id] = Legendary
	sync.Reconcile(id)

	want := []groupCall{
		{op: "add", id: id, tier: Rare},
		{op: "remove", id: id},
		{op: "add", id: id, tier: Legendary},
	}
	if len(groups.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", groups.calls, want)
	}
	for i := range want {
		if groups.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, groups.calls[i], want[i])
		}
	}
	if tier, ok := sync.GroupOf(id); !ok || tier != Legendary {
		t.Fatalf("GroupOf = %v, %v", tier, ok)
	}
}

func TestReconcileRemovesWhenNoLongerGlowing(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	id := uuid.New()
	shouldGlow[id] = Common
	sync.Reconcile(id)

	delete(shouldGlow, id)
	sync.Reconcile(id)
	sync.Reconcile(id)

	if got := groups.count("remove", id); got != 1 {
		t.Fatalf("remove calls = %d, want 1", got)
	}
	if sync.Members() != 0 {
		t.Fatalf("Members = %d, want 0", sync.Members())
	}
}

func TestReconcileAbsentIsNoop(t *testing.T) {
	sync, groups, _ := newTestGroupSync()
	sync.Reconcile(uuid.New())
	if len(groups.calls) != 0 {
		t.Fatalf("calls = %+v, want none", groups.calls)
	}
}

func TestReconcileCorrectsForeignGlowMembership(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	id := uuid.New()
	// Someone else put the entity in the wrong glow group.
	groups.members[id] = GroupName(Mythic)
	shouldGlow[id] = Rare

	sync.Reconcile(id)
	if groups.count("remove", id) != 1 || groups.count("add", id) != 1 {
		t.Fatalf("expected corrective remove then add, got %+v", groups.calls)
	}
	if groups.calls[0].op != "remove" {
		t.Fatalf("corrective remove must come first, got %+v", groups.calls)
	}
}

func TestReconcileLeavesForeignNonGlowGroupAlone(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	id := uuid.New()
	groups.members[id] = "red_team"
	shouldGlow[id] = Rare

	sync.Reconcile(id)
	if groups.count("remove", id) != 0 {
		t.Fatalf("must not remove from non-glow groups, got %+v", groups.calls)
	}
}

func TestGroupSyncNilCollaborator(t *testing.T) {
	shouldGlow := map[EntityID]Tier{}
	sync := newGroupSync(nil, shouldGlow)
	id := uuid.New()
	shouldGlow[id] = Rare
	sync.Reconcile(id)
	sync.DropAll()
	if sync.Members() != 0 {
		t.Fatalf("nil collaborator must not record membership")
	}
}

func TestDropAllRemovesEachMemberOnce(t *testing.T) {
	sync, groups, shouldGlow := newTestGroupSync()
	for i := 0; i < 5; i++ {
		id := uuid.New()
		shouldGlow[id] = Tiers[i]
		sync.Reconcile(id)
	}
	sync.DropAll()
	if got := groups.total("remove"); got != 5 {
		t.Fatalf("remove calls = %d, want 5", got)
	}
	if sync.Members() != 0 {
		t.Fatalf("Members = %d after DropAll", sync.Members())
	}
	adds, removes := sync.Calls()
	if adds != 5 || removes != 5 {
		t.Fatalf("Calls = %d, %d", adds, removes)
	}
}
