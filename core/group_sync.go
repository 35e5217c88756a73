package core

import "strings"

// GroupPrefix prefixes the name of every outline group owned by the engine.
const GroupPrefix = "itemglow_"

// GroupName returns the outline group name used for a tier.
func GroupName(t Tier) string {
	return GroupPrefix + t.Slug()
}

// IsGlowGroup reports whether name is one of the engine's outline groups.
func IsGlowGroup(name string) bool {
	return strings.HasPrefix(name, GroupPrefix)
}

// GroupSync keeps the grouping collaborator's membership in line with the
// should-glow set. The local membership map is authoritative; external
// reads are used only to correct state the engine did not create.
type GroupSync struct {
	groups     GroupingCollaborator
	shouldGlow map[EntityID]Tier
	membership map[EntityID]Tier

	adds    uint64
	removes uint64
}

func newGroupSync(groups GroupingCollaborator, shouldGlow map[EntityID]Tier) *GroupSync {
	return &GroupSync{
		groups:     groups,
		shouldGlow: shouldGlow,
		membership: make(map[EntityID]Tier),
	}
}

// Reconcile issues the minimal add/remove calls that bring id's group
// membership in line with its should-glow entry. Calling it again without
// an intervening change issues no calls.
func (g *GroupSync) Reconcile(id EntityID) {
	if g.groups == nil {
		return
	}

	want, glow := g.shouldGlow[id]
	have, member := g.membership[id]

	switch {
	case glow && member && have == want:
		return
	case glow && member:
		// Groups are exclusive: leave the old one before joining the new.
		g.remove(id)
		g.add(id, want)
	case glow:
		if current, ok := g.groups.CurrentGroupOf(id); ok && IsGlowGroup(current) && current != GroupName(want) {
			g.remove(id)
		}
		g.add(id, want)
	case member:
		g.remove(id)
		delete(g.membership, id)
	}
}

// Drop removes id from its group, if it is a member.
func (g *GroupSync) Drop(id EntityID) {
	if _, ok := g.membership[id]; !ok {
		return
	}
	g.remove(id)
	delete(g.membership, id)
}

// DropAll removes every member from its group and forgets all membership.
func (g *GroupSync) DropAll() {
	for id := range g.membership {
		g.remove(id)
	}
	clear(g.membership)
}

// GroupOf returns the tier whose group id was placed in.
func (g *GroupSync) GroupOf(id EntityID) (Tier, bool) {
	t, ok := g.membership[id]
	return t, ok
}

// Members returns the number of ids currently placed in a group.
func (g *GroupSync) Members() int { return len(g.membership) }

// Calls returns the total add and remove calls issued so far.
func (g *GroupSync) Calls() (adds, removes uint64) { return g.adds, g.removes }

func (g *GroupSync) add(id EntityID, t Tier) {
	g.groups.AddToGroup(id, t)
	g.membership[id] = t
	g.adds++
}

func (g *GroupSync) remove(id EntityID) {
	if g.groups != nil {
		g.groups.RemoveFromGroup(id)
	}
	g.removes++
}
