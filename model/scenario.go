package model

// ViewerDefinition places the camera. Eye defaults to Position raised by
// EyeHeight.
type ViewerDefinition struct {
	Position  Coordinates `yaml:"position"`
	Look      Coordinates `yaml:"look"`
	EyeHeight float64     `yaml:"eye_height"`
}

// EventAction names what a scripted scenario event does.
type EventAction string

const (
	ActionDespawn    EventAction = "despawn"
	ActionSetLore    EventAction = "set_lore"
	ActionMoveItem   EventAction = "move_item"
	ActionMoveViewer EventAction = "move_viewer"
	ActionContext    EventAction = "context"
	ActionSpawn      EventAction = "spawn"
)

// Event is a world change applied when the simulation reaches Tick.
type Event struct {
	Tick   uint64      `yaml:"tick"`
	Action EventAction `yaml:"action"`
	// Item is the item ID for item actions.
	Item     string            `yaml:"item"`
	Lore     []string          `yaml:"lore"`
	Position Coordinates       `yaml:"position"`
	Viewer   *ViewerDefinition `yaml:"viewer"`
	Context  string            `yaml:"context"`
	Spawn    *ItemDefinition   `yaml:"spawn"`
}

// Scenario is a complete scripted world for the reference host.
type Scenario struct {
	Name string `yaml:"name"`
	// Context is the initial game context; ExclusionActive enables showcase
	// exclusion within it.
	Context         string               `yaml:"context"`
	ExclusionActive bool                 `yaml:"exclusion_active"`
	Viewer          ViewerDefinition     `yaml:"viewer"`
	Items           []ItemDefinition     `yaml:"items"`
	Stands          []StandDefinition    `yaml:"stands"`
	Occluders       []OccluderDefinition `yaml:"occluders"`
	Events          []Event              `yaml:"events"`
}
