package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/internal/config"
	"github.com/signalsfoundry/itemglow/internal/inspect"
	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/internal/observability"
	"github.com/signalsfoundry/itemglow/internal/outline"
	"github.com/signalsfoundry/itemglow/kb"
	"github.com/signalsfoundry/itemglow/model"
	"github.com/signalsfoundry/itemglow/timectrl"
	"go.opentelemetry.io/otel/trace"
)

// sessionDeps are the optional collaborators of a session.
type sessionDeps struct {
	Log      logging.Logger
	Recorder core.MetricsRecorder
	Tracer   trace.Tracer
	Inspect  *observability.InspectCollector
	// Clock is the host tick source. The engine's own counter restarts on
	// every reset, so summaries report both.
	Clock    timectrl.TickSource
}

// session owns one scenario run: the world, the engine and everything the
// tick goroutine touches. Only the tick goroutine may call its methods,
// except for the store, which is shared with RPC handlers.
type session struct {
	cfg    config.Config
	log    logging.Logger
	world  *kb.World
	index  *kb.ScenarioIndex
	script *kb.Script
	engine *core.Engine
	groups *outline.Registry
	store  *inspect.Store
	names  map[core.EntityID]string

	viewer  core.Viewer
	flags   core.ContextFlags
	metrics *observability.InspectCollector
	clock   timectrl.TickSource

	unsubscribe func()
}

func newSession(cfg config.Config, scenario *model.Scenario, deps sessionDeps) (*session, error) {
	log := deps.Log
	if log == nil {
		log = logging.Noop()
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	world := kb.NewWorld()
	index, err := world.ApplyScenario(scenario)
	if err != nil {
		return nil, err
	}

	groups := outline.NewRegistry(engineCfg.Palette, outline.WithLogger(log))
	host := world.Host()
	host.Groups = groups

	opts := []core.Option{core.WithLogger(log)}
	if deps.Recorder != nil {
		opts = append(opts, core.WithMetricsRecorder(deps.Recorder))
	}
	if deps.Tracer != nil {
		opts = append(opts, core.WithTracer(deps.Tracer))
	}
	engine, err := core.NewEngine(engineCfg, host, opts...)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		log:    log,
		world:  world,
		index:  index,
		script: kb.NewScript(world, index, scenario.Events),
		engine: engine,
		groups: groups,
		store:  inspect.NewStore(),
		viewer: kb.ViewerFromDefinition(scenario.Viewer),
		flags: core.ContextFlags{
			Context:         scenario.Context,
			ExclusionActive: scenario.ExclusionActive,
			SeeThroughWalls: cfg.SeeThroughWalls,
		},
		metrics: deps.Inspect,
		clock:   deps.Clock,
	}
	s.unsubscribe = world.Subscribe(s.onWorldEvent)
	return s, nil
}

func (s *session) onWorldEvent(ev kb.Event) {
	switch ev.Type {
	case kb.EventLoreChanged:
		s.engine.InvalidateClassification(ev.Item.ID)
	case kb.EventWorldUnloaded:
		s.engine.ClearAll()
	}
}

// step runs scripted events for tick, drains queued commands and ticks the
// engine. It returns false when the master switch is off.
func (s *session) step(ctx context.Context, tick uint64) (core.TickReport, bool) {
	fx, err := s.script.Apply(tick)
	if err != nil {
		s.log.Warn(ctx, "scenario event failed", logging.Uint64("tick", tick), logging.Err(err))
	}
	if fx.Viewer != nil {
		s.viewer = *fx.Viewer
	}
	if fx.Context != nil {
		s.flags.Context = *fx.Context
	}
	if s.store.TakeReset() {
		s.engine.ClearAll()
		s.log.Info(ctx, "engine reset", logging.Uint64("tick", tick))
	}

	if !s.cfg.Enabled {
		return core.TickReport{}, false
	}

	report := s.engine.Tick(ctx, &s.viewer, s.flags)
	snap := s.engine.Snapshot()
	s.store.Publish(snap, report)
	s.metrics.ObserveSnapshot(snap)
	return report, true
}

// frame builds the render states of every item in the world and applies the
// outline pass to them.
func (s *session) frame() outline.Frame {
	items := s.world.ListItems()
	f := outline.Frame{States: make([]outline.RenderState, 0, len(items))}
	for _, it := range items {
		f.States = append(f.States, outline.RenderState{ID: it.ID, Kind: outline.KindItem})
	}
	if s.cfg.Enabled {
		outline.ApplyFrame(&f, s.engine)
	}
	return f
}

// nameOf returns the scenario key of id, preferring names over raw ids.
func (s *session) nameOf(id core.EntityID) string {
	if s.names == nil {
		s.names = make(map[core.EntityID]string)
	}
	if name, ok := s.names[id]; ok {
		return name
	}
	for key, kid := range s.index.Items {
		if kid != id {
			continue
		}
		if _, err := uuid.Parse(key); err != nil {
			s.names[id] = key
			return key
		}
	}
	return id.String()
}

// summary formats r. tick is the host clock when one is attached and the
// engine tick otherwise.
func (s *session) summary(r core.TickReport) string {
	tick := r.Tick
	if s.clock != nil {
		tick = s.clock.Ticks()
	}
	adds, removes := s.groups.Calls()
	return fmt.Sprintf("tick=%d engine_tick=%d gen=%d tracked=%d glowing=%d members=%d visited=%d checks=%d adds=%d removes=%d",
		tick, r.Tick, r.Generation, r.Tracked, r.ShouldGlow, r.Members, r.Visited, r.OcclusionChecks, adds, removes)
}

func (s *session) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func countOutlined(states []outline.RenderState) int {
	n := 0
	for _, st := range states {
		if st.Outlined {
			n++
		}
	}
	return n
}
