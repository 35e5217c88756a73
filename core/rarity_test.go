package core

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Tier
	}{
		{name: "empty", lines: nil, want: Unclassified},
		{name: "substring in prose", lines: []string{"a stick", "nothing special here"}, want: Special},
		{name: "plain text", lines: []string{"a stick", "damage +5"}, want: Unclassified},
		{name: "legendary", lines: []string{"a sword", "LEGENDARY SWORD"}, want: Legendary},
		{name: "lower case", lines: []string{"epic bow"}, want: Epic},
		{name: "very special before special", lines: []string{"VERY SPECIAL ACCESSORY"}, want: VerySpecial},
		{name: "uncommon before common", lines: []string{"UNCOMMON BOOTS"}, want: Uncommon},
		{name: "bottom line wins", lines: []string{"Upgrades to RARE", "MYTHIC DUNGEON ITEM"}, want: Mythic},
		{name: "skips unmarked bottom line", lines: []string{"DIVINE", "Click to view"}, want: Divine},
		{name: "admin", lines: []string{"ADMIN ITEM"}, want: Admin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.lines); got != tt.want {
				t.Fatalf("Classify(%q) = %v, want %v", tt.lines, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	lines := []string{"Some lore", "VERY SPECIAL HATCESSORY"}
	first := Classify(lines)
	for i := 0; i < 100; i++ {
		if got := Classify(lines); got != first {
			t.Fatalf("call %d: Classify = %v, first call returned %v", i, got, first)
		}
	}
	if lines[1] != "VERY SPECIAL HATCESSORY" {
		t.Fatalf("Classify modified its input: %q", lines)
	}
}

func TestMatchOrderLongestFirst(t *testing.T) {
	for i := 1; i < len(matchOrder); i++ {
		prev, cur := matchOrder[i-1].String(), matchOrder[i].String()
		if len(prev) < len(cur) {
			t.Fatalf("matchOrder[%d]=%q is shorter than matchOrder[%d]=%q", i-1, prev, i, cur)
		}
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"legendary":    Legendary,
		"VERY SPECIAL": VerySpecial,
		"very_special": VerySpecial,
		" Common ":     Common,
		"unclassified": Unclassified,
	}
	for in, want := range tests {
		got, err := ParseTier(in)
		if err != nil {
			t.Fatalf("ParseTier(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTier(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTier("shiny"); err == nil {
		t.Fatalf("ParseTier(shiny) expected error")
	}
}

func TestTierSlugAndGroupName(t *testing.T) {
	if got := VerySpecial.Slug(); got != "very_special" {
		t.Fatalf("Slug() = %q, want very_special", got)
	}
	if got := GroupName(Legendary); got != "itemglow_legendary" {
		t.Fatalf("GroupName(Legendary) = %q", got)
	}
	if !IsGlowGroup(GroupName(Rare)) || IsGlowGroup("red_team") {
		t.Fatalf("IsGlowGroup misclassifies group names")
	}
}

func TestColorRoundTrip(t *testing.T) {
	c, err := ParseColor("#ffd700")
	if err != nil {
		t.Fatalf("ParseColor error = %v", err)
	}
	if c != 0xFFD700 {
		t.Fatalf("ParseColor = %x, want ffd700", uint32(c))
	}
	if got := c.Hex(); got != "#FFD700" {
		t.Fatalf("Hex() = %q", got)
	}
	for _, bad := range []string{"", "#FFF", "#GGGGGG", "1234567"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) expected error", bad)
		}
	}
}

func TestPaletteColorOf(t *testing.T) {
	p := DefaultPalette()
	want := map[Tier]Color{
		Common:      0xFFFFFF,
		Uncommon:    0x55FF55,
		Rare:        0x5555FF,
		Epic:        0xAA00AA,
		Legendary:   0xFFAA00,
		Mythic:      0xFF55FF,
		Divine:      0x55FFFF,
		Special:     0xFF5555,
		VerySpecial: 0xFF5555,
		Ultimate:    0xAA0000,
		Admin:       0xAA0000,
	}
	for tier, c := range want {
		if got := p.ColorOf(tier); got != c {
			t.Fatalf("%s color = %s, want %s", tier, got.Hex(), c.Hex())
		}
	}
	delete(p, Admin)
	if got := p.ColorOf(Admin); got != p[Unclassified] {
		t.Fatalf("missing tier should fall back to Unclassified color, got %s", got.Hex())
	}
}
