package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates an engine configuration failed validation.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config holds the engine's tunables. None of them affect correctness, only
// the throughput/latency tradeoff.
type Config struct {
	// Radius is the highlight range around the viewer, in blocks.
	Radius float64
	// MaxChecksPerTick is the per-tick budget K of entities popped from the
	// scan cursor.
	MaxChecksPerTick int
	// Stride is the tick interval between scan advances.
	Stride int
	// ExclusionTTL is how many ticks a showcase verdict stays trusted.
	ExclusionTTL uint64
	// ShowcaseRadius inflates an item's bounding box when looking for stands.
	ShowcaseRadius float64
	// ShowcaseItems names head items treated as showcase markers even when
	// the host does not flag them as transparent.
	ShowcaseItems []string
	// LookDotThreshold is the minimum forward dot product.
	LookDotThreshold float64
	// RefreshDistance forces a new snapshot when the viewer has moved this
	// far from where the current one was taken. Zero disables it.
	RefreshDistance float64
	// ReapInterval is the tick cadence of the reaper, independent of Stride.
	ReapInterval int
	// HighlightUnclassified makes items without a rarity line glow in the
	// Unclassified color.
	HighlightUnclassified bool
	// Palette maps tiers to colors.
	Palette Palette
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Radius:                24,
		MaxChecksPerTick:      200,
		Stride:                3,
		ExclusionTTL:          40,
		ShowcaseRadius:        1.5,
		LookDotThreshold:      LookDotThreshold,
		RefreshDistance:       8,
		ReapInterval:          1,
		HighlightUnclassified: true,
		Palette:               DefaultPalette(),
	}
}

// Validate checks the config for values the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Radius < 0:
		return fmt.Errorf("%w: radius must not be negative (got %v)", ErrInvalidConfig, c.Radius)
	case c.MaxChecksPerTick <= 0:
		return fmt.Errorf("%w: max checks per tick must be positive (got %d)", ErrInvalidConfig, c.MaxChecksPerTick)
	case c.Stride <= 0:
		return fmt.Errorf("%w: stride must be positive (got %d)", ErrInvalidConfig, c.Stride)
	case c.ReapInterval <= 0:
		return fmt.Errorf("%w: reap interval must be positive (got %d)", ErrInvalidConfig, c.ReapInterval)
	case c.ShowcaseRadius < 0:
		return fmt.Errorf("%w: showcase radius must not be negative (got %v)", ErrInvalidConfig, c.ShowcaseRadius)
	case c.LookDotThreshold < -1 || c.LookDotThreshold > 1:
		return fmt.Errorf("%w: look dot threshold must be within [-1, 1] (got %v)", ErrInvalidConfig, c.LookDotThreshold)
	case c.RefreshDistance < 0:
		return fmt.Errorf("%w: refresh distance must not be negative (got %v)", ErrInvalidConfig, c.RefreshDistance)
	}
	return nil
}

func (c Config) maxRangeSq() float64 { return c.Radius * c.Radius }
