package core

import (
	"errors"

	"github.com/google/uuid"
)

// EntityID is the stable identity of a world entity as reported by the host.
type EntityID = uuid.UUID

// ErrWorldUnavailable is returned by host oracles when no world is loaded.
// The engine treats it like any other oracle failure and degrades to the
// conservative answer.
var ErrWorldUnavailable = errors.New("world unavailable")

// TrackedEntity is the host's view of a dropped item. The engine copies the
// fields it needs and never keeps the value itself.
type TrackedEntity struct {
	ID       EntityID
	Position Vec3
	// Height is the bounding box height; the visual centre sits at half of it.
	Height float64
	// Width is the horizontal bounding box extent.
	Width float64
	Lore  []string
	Alive bool
}

// Stand is a nearby display entity returned by a SpatialQuery. A stand
// whose head slot holds a transparent block marks the item beneath it as a
// showcase item.
type Stand struct {
	ID              EntityID
	Position        Vec3
	HeadItem        string
	HeadTransparent bool
}

// Viewer is the camera the engine evaluates visibility against.
type Viewer struct {
	// Position is the viewer's feet position; range pruning and snapshot
	// queries are centred on it.
	Position Vec3
	// Eye is the camera origin used for the look cone and occlusion.
	Eye Vec3
	// Look is the forward vector. It does not need to be normalized.
	Look Vec3
}

// ContextFlags describe the game context the current tick runs in.
type ContextFlags struct {
	// Context identifies the connection/world the viewer is in. A change
	// between two ticks tears down every piece of engine state.
	Context string
	// ExclusionActive enables the showcase exclusion check. Outside the
	// relevant game context nothing is ever excluded.
	ExclusionActive bool
	// SeeThroughWalls skips the occlusion oracle entirely.
	SeeThroughWalls bool
}

// PopulationQuery supplies the candidate entities around the viewer. It may
// be expensive and is only called when the scan cursor needs a new snapshot.
type PopulationQuery interface {
	EntitiesNear(center Vec3, radius float64) ([]TrackedEntity, error)
}

// SpatialQuery returns stands near a position. It is used only by the
// exclusion cache.
type SpatialQuery interface {
	StandsNear(center Vec3, radius float64) ([]Stand, error)
}

// OcclusionTest reports whether there is a clear line of sight from eye to
// the target entity.
type OcclusionTest interface {
	HasLineOfSight(eye Vec3, target TrackedEntity) (bool, error)
}

// EntityLookup resolves a tracked id back to its current host state. The
// reaper uses it for liveness and position, so it is required whenever a
// PopulationQuery is set.
type EntityLookup interface {
	Lookup(id EntityID) (TrackedEntity, bool)
}

// GroupingCollaborator applies outline groups. Every call is assumed to be
// costly, so the engine only issues the minimum set of calls.
type GroupingCollaborator interface {
	AddToGroup(id EntityID, tier Tier)
	RemoveFromGroup(id EntityID)
	// CurrentGroupOf returns the name of the group id is in, if any.
	CurrentGroupOf(id EntityID) (string, bool)
}

// Host bundles the collaborators an Engine talks to. Any of them may be nil,
// except that a non-nil Population requires a non-nil Lookup.
type Host struct {
	Population PopulationQuery
	Spatial    SpatialQuery
	Occlusion  OcclusionTest
	Lookup     EntityLookup
	Groups     GroupingCollaborator
}
