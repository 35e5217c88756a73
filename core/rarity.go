package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Tier is the rarity classification of an item, in ascending order.
type Tier int

const (
	Unclassified Tier = iota
	Common
	Uncommon
	Rare
	Epic
	Legendary
	Mythic
	Divine
	Special
	VerySpecial
	Ultimate
	Admin
)

var tierNames = [...]string{
	Unclassified: "UNCLASSIFIED",
	Common:       "COMMON",
	Uncommon:     "UNCOMMON",
	Rare:         "RARE",
	Epic:         "EPIC",
	Legendary:    "LEGENDARY",
	Mythic:       "MYTHIC",
	Divine:       "DIVINE",
	Special:      "SPECIAL",
	VerySpecial:  "VERY SPECIAL",
	Ultimate:     "ULTIMATE",
	Admin:        "ADMIN",
}

// Tiers lists every classified tier in ascending order.
var Tiers = []Tier{Common, Uncommon, Rare, Epic, Legendary, Mythic, Divine, Special, VerySpecial, Ultimate, Admin}

// matchOrder holds the classified tiers sorted longest name first so that a
// compound name is tested before any shorter name it contains
// ("VERY SPECIAL" before "SPECIAL", "UNCOMMON" before "COMMON").
var matchOrder = func() []Tier {
	order := append([]Tier(nil), Tiers...)
	sort.SliceStable(order, func(i, j int) bool {
		return len(tierNames[order[i]]) > len(tierNames[order[j]])
	})
	return order
}()

// String returns the lore marker for the tier.
func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "Tier(" + strconv.Itoa(int(t)) + ")"
	}
	return tierNames[t]
}

// Slug returns a lower-case, underscore separated form of the tier name
// suitable for group and metric label names.
func (t Tier) Slug() string {
	return strings.ReplaceAll(strings.ToLower(t.String()), " ", "_")
}

// ParseTier accepts a tier name in any case, with spaces or underscores.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	for t, name := range tierNames {
		if name == norm {
			return Tier(t), nil
		}
	}
	return Unclassified, fmt.Errorf("unknown tier %q", s)
}

// Classify derives a tier from an item's lore lines. Lines are scanned from
// last to first because the rarity line sits at the bottom of the lore. The
// first line containing a tier name wins; no match yields Unclassified.
func Classify(lines []string) Tier {
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.ToUpper(lines[i])
		for _, t := range matchOrder {
			if strings.Contains(line, tierNames[t]) {
				return t
			}
		}
	}
	return Unclassified
}

// Color is a 24-bit RGB outline color.
type Color uint32

// Hex renders the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 {
		return 0, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Palette maps tiers to outline colors.
type Palette map[Tier]Color

// DefaultPalette returns the chat formatting color of each rarity.
// Unclassified maps to white until a configured default replaces it.
func DefaultPalette() Palette {
	return Palette{
		Unclassified: 0xFFFFFF,
		Common:       0xFFFFFF,
		Uncommon:     0x55FF55,
		Rare:         0x5555FF,
		Epic:         0xAA00AA,
		Legendary:    0xFFAA00,
		Mythic:       0xFF55FF,
		Divine:       0x55FFFF,
		Special:      0xFF5555,
		VerySpecial:  0xFF5555,
		Ultimate:     0xAA0000,
		Admin:        0xAA0000,
	}
}

// ColorOf returns the color for t, falling back to the Unclassified color.
func (p Palette) ColorOf(t Tier) Color {
	if c, ok := p[t]; ok {
		return c
	}
	return p[Unclassified]
}
