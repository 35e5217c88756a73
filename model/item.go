package model

// Coordinates represents a point in world space, in blocks.
type Coordinates struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// ItemDefinition describes a dropped item entity.
type ItemDefinition struct {
	// ID is a UUID string; an empty ID is assigned when the item is loaded.
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Position Coordinates `yaml:"position"`
	// Height and Width default to the vanilla item box (0.25) when zero.
	Height float64  `yaml:"height"`
	Width  float64  `yaml:"width"`
	Lore   []string `yaml:"lore"`
}

// StandDefinition describes a display stand. A transparent head block marks
// the item under it as a showcase item.
type StandDefinition struct {
	ID              string      `yaml:"id"`
	Position        Coordinates `yaml:"position"`
	HeadItem        string      `yaml:"head_item"`
	HeadTransparent bool        `yaml:"head_transparent"`
}

// OccluderDefinition is a solid sphere that blocks line of sight.
type OccluderDefinition struct {
	ID     string      `yaml:"id"`
	Center Coordinates `yaml:"center"`
	Radius float64     `yaml:"radius"`
}
