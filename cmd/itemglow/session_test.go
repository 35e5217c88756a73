package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/internal/config"
	"github.com/signalsfoundry/itemglow/kb"
	"github.com/signalsfoundry/itemglow/timectrl"
)

func newVaultSession(t *testing.T, mutate func(*config.Config), deps sessionDeps) *session {
	t.Helper()
	scenario, err := kb.LoadScenarioFile(filepath.Join("testdata", "vault.yaml"))
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	cfg := config.Default()
	cfg.Engine.Stride = 1
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := newSession(cfg, scenario, deps)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(s.close)
	return s
}

func (s *session) mustResolve(t *testing.T, key string) core.EntityID {
	t.Helper()
	id, ok := s.index.Resolve(key)
	if !ok {
		t.Fatalf("unknown scenario item %q", key)
	}
	return id
}

func TestSessionHighlightsAndPublishes(t *testing.T) {
	s := newVaultSession(t, nil, sessionDeps{})
	ctx := context.Background()

	report, ran := s.step(ctx, 1)
	if !ran {
		t.Fatalf("step did not run")
	}
	if report.ShouldGlow != 2 {
		t.Fatalf("ShouldGlow = %d, want 2", report.ShouldGlow)
	}

	snap, _, ok := s.store.Latest()
	if !ok || snap.Tick != 1 || len(snap.Highlights) != 2 {
		t.Fatalf("published snapshot = %+v, %v", snap, ok)
	}

	aspect := s.mustResolve(t, "aspect")
	if name, _ := s.groups.CurrentGroupOf(aspect); name != core.GroupName(core.Epic) {
		t.Fatalf("aspect group = %q", name)
	}

	f := s.frame()
	if !f.HaveGlowing || countOutlined(f.States) != 2 {
		t.Fatalf("frame = %+v", f)
	}
}

func TestSessionReclassifiesOnLoreChange(t *testing.T) {
	s := newVaultSession(t, nil, sessionDeps{})
	ctx := context.Background()
	stick := s.mustResolve(t, "plain-stick")

	s.step(ctx, 1)
	if c, _ := s.engine.HighlightColorOf(stick); c != 0xFFFFFF {
		t.Fatalf("unclassified color = %s", c.Hex())
	}

	for tick := uint64(2); tick <= 4; tick++ {
		s.step(ctx, tick)
	}
	if c, _ := s.engine.HighlightColorOf(stick); c != 0xFFAA00 {
		t.Fatalf("color after lore change = %s, want #FFAA00", c.Hex())
	}
	if name, _ := s.groups.CurrentGroupOf(stick); name != core.GroupName(core.Legendary) {
		t.Fatalf("group after lore change = %q", name)
	}
}

func TestSessionDespawnRemovesOutline(t *testing.T) {
	s := newVaultSession(t, nil, sessionDeps{})
	ctx := context.Background()
	aspect := s.mustResolve(t, "aspect")

	for tick := uint64(1); tick <= 6; tick++ {
		s.step(ctx, tick)
	}
	if s.engine.IsHighlighted(aspect) {
		t.Fatalf("despawned item still highlighted")
	}
	if _, ok := s.groups.CurrentGroupOf(aspect); ok {
		t.Fatalf("despawned item still grouped")
	}
	if s.nameOf(s.mustResolve(t, "plain-stick")) != "plain-stick" {
		t.Fatalf("nameOf did not prefer the scenario name")
	}
}

func TestSessionQueuedReset(t *testing.T) {
	s := newVaultSession(t, nil, sessionDeps{})
	ctx := context.Background()

	s.step(ctx, 1)
	_, removesBefore := s.groups.Calls()

	s.store.RequestReset()
	report, _ := s.step(ctx, 2)

	_, removesAfter := s.groups.Calls()
	if removesAfter-removesBefore != 2 {
		t.Fatalf("reset removed %d members, want 2", removesAfter-removesBefore)
	}
	if report.Tick != 1 {
		t.Fatalf("tick after reset = %d, want 1", report.Tick)
	}
}

func TestSessionSummaryFollowsHostClock(t *testing.T) {
	tc := timectrl.NewTickController(0, timectrl.Accelerated)
	s := newVaultSession(t, nil, sessionDeps{Clock: tc})
	ctx := context.Background()

	var last core.TickReport
	tc.AddListener(func(tick uint64) { last, _ = s.step(ctx, tick) })
	tc.Step()
	tc.Step()
	s.store.RequestReset()
	tc.Step()

	got := s.summary(last)
	if !strings.HasPrefix(got, "tick=3 engine_tick=1 ") {
		t.Fatalf("summary = %q, want host tick 3 and engine tick 1", got)
	}
}

func TestSessionDisabled(t *testing.T) {
	s := newVaultSession(t, func(c *config.Config) { c.Enabled = false }, sessionDeps{})

	if _, ran := s.step(context.Background(), 1); ran {
		t.Fatalf("disabled session ticked the engine")
	}
	if _, _, ok := s.store.Latest(); ok {
		t.Fatalf("disabled session published a snapshot")
	}
	if f := s.frame(); f.HaveGlowing {
		t.Fatalf("disabled session drew outlines")
	}
	if s.groups.Len() != 0 {
		t.Fatalf("disabled session touched groups")
	}
}
