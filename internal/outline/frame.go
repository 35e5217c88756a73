package outline

import "github.com/signalsfoundry/itemglow/core"

// EntityKind distinguishes render states. Only items receive a rarity
// outline.
type EntityKind int

const (
	KindOther EntityKind = iota
	KindItem
)

// RenderState is the per-frame draw state of one visible entity.
type RenderState struct {
	ID   core.EntityID
	Kind EntityKind
	// OutlineColor is only meaningful when Outlined is set.
	OutlineColor core.Color
	Outlined     bool
}

// ColorSource answers the per-frame color query. *core.Engine satisfies it.
type ColorSource interface {
	HighlightColorOf(id core.EntityID) (core.Color, bool)
}

// Frame is the renderer's view of one frame.
type Frame struct {
	States []RenderState
	// HaveGlowing tells the renderer to run the outline pass.
	HaveGlowing bool
}

// ApplyFrame sets the outline color of every highlighted item in f and
// raises HaveGlowing when at least one was found. Non-item states and
// items without a highlight are left untouched, so outlines set by other
// features survive. A nil source is a no-op. It returns the number of
// outlined items.
func ApplyFrame(f *Frame, src ColorSource) int {
	if f == nil || src == nil {
		return 0
	}
	n := 0
	for i := range f.States {
		st := &f.States[i]
		if st.Kind != KindItem {
			continue
		}
		color, ok := src.HighlightColorOf(st.ID)
		if !ok {
			continue
		}
		st.OutlineColor = color
		st.Outlined = true
		n++
	}
	if n > 0 {
		f.HaveGlowing = true
	}
	return n
}
