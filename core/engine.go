package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/signalsfoundry/itemglow/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TickReport summarises the work one Tick performed.
type TickReport struct {
	Tick uint64
	// Advanced is set on stride ticks where the scan cursor was advanced.
	Advanced bool
	// Generation is the scan cursor generation after the tick.
	Generation    uint64
	NewGeneration bool
	// SweepCompleted is set when the cursor ran out during this tick.
	SweepCompleted bool
	Reset          bool

	Visited         int
	Dead            int
	Excluded        int
	OcclusionChecks int
	Reaped          int

	GroupAdds    uint64
	GroupRemoves uint64

	Tracked    int
	ShouldGlow int
	Members    int
}

// MetricsRecorder receives a report after every tick.
type MetricsRecorder interface {
	ObserveTick(report TickReport, elapsed time.Duration)
}

// Option customises Engine construction.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer attaches a tracer; advancing ticks are recorded as spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMetricsRecorder attaches a recorder for per-tick reports.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine decides which nearby items glow and keeps the grouping
// collaborator in sync. It is not safe for concurrent use: every method
// must be called from the host's tick goroutine.
type Engine struct {
	cfg     Config
	palette Palette
	host    Host

	log     logging.Logger
	tracer  trace.Tracer
	metrics MetricsRecorder

	tick    uint64
	context string

	cursor     ScanCursor
	tracked    map[EntityID]*trackState
	shouldGlow map[EntityID]Tier
	exclusion  *ExclusionCache
	groups     *GroupSync
	reaper     *Reaper

	visited []EntityID
}

// NewEngine validates cfg and builds an engine bound to host.
func NewEngine(cfg Config, host Host, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if host.Population != nil && host.Lookup == nil {
		return nil, fmt.Errorf("%w: a population oracle needs an entity lookup for liveness", ErrInvalidConfig)
	}
	palette := cfg.Palette
	if palette == nil {
		palette = DefaultPalette()
	}

	e := &Engine{
		cfg:        cfg,
		palette:    palette,
		host:       host,
		log:        logging.Noop(),
		tracer:     noop.NewTracerProvider().Tracer(""),
		tracked:    make(map[EntityID]*trackState),
		shouldGlow: make(map[EntityID]Tier),
		exclusion:  NewExclusionCache(cfg.ExclusionTTL, cfg.ShowcaseRadius, cfg.ShowcaseItems),
	}
	e.groups = newGroupSync(host.Groups, e.shouldGlow)
	e.reaper = &Reaper{
		tracked:    e.tracked,
		shouldGlow: e.shouldGlow,
		groups:     e.groups,
		exclusion:  e.exclusion,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Tick advances the engine by one simulation tick.
func (e *Engine) Tick(ctx context.Context, viewer *Viewer, flags ContextFlags) TickReport {
	start := time.Now()
	adds, removes := e.groups.Calls()

	var report TickReport
	if flags.Context != e.context {
		if e.context != "" {
			e.log.Info(ctx, "game context changed; dropping highlight state",
				logging.String("from", e.context),
				logging.String("to", flags.Context),
			)
			e.ClearAll()
			report.Reset = true
		}
		e.context = flags.Context
	}

	e.tick++
	report.Tick = e.tick

	if viewer != nil {
		if (e.tick-1)%uint64(e.cfg.Stride) == 0 && e.host.Population != nil && e.cfg.Radius > 0 {
			e.advance(ctx, viewer, flags, &report)
		}
		if e.tick%uint64(e.cfg.ReapInterval) == 0 || report.SweepCompleted {
			report.Reaped = len(e.reap(viewer.Position))
		}
	}

	endAdds, endRemoves := e.groups.Calls()
	report.GroupAdds = endAdds - adds
	report.GroupRemoves = endRemoves - removes
	report.Generation = e.cursor.Generation()
	report.Tracked = len(e.tracked)
	report.ShouldGlow = len(e.shouldGlow)
	report.Members = e.groups.Members()

	if e.metrics != nil {
		e.metrics.ObserveTick(report, time.Since(start))
	}
	return report
}

func (e *Engine) advance(ctx context.Context, viewer *Viewer, flags ContextFlags, report *TickReport) {
	ctx, span := e.tracer.Start(ctx, "itemglow.scan")
	defer span.End()
	report.Advanced = true

	if e.needsSnapshot(viewer) {
		snapshot, err := e.host.Population.EntitiesNear(viewer.Position, e.cfg.Radius)
		if err != nil {
			e.log.Warn(ctx, "population query failed; skipping scan",
				logging.Uint64("tick", e.tick),
				logging.Err(err),
			)
			e.cursor.Invalidate()
			span.RecordError(err)
			return
		}
		e.cursor.Reset(snapshot, viewer.Position)
		report.NewGeneration = true
		e.log.Debug(ctx, "started scan generation",
			logging.Uint64("generation", e.cursor.Generation()),
			logging.Int("candidates", len(snapshot)),
		)
	}

	eye := viewer.Eye
	look := viewer.Look.Normalize()
	maxRangeSq := e.cfg.maxRangeSq()

	e.visited = e.visited[:0]
	for report.Visited < e.cfg.MaxChecksPerTick {
		ent, ok := e.cursor.Next()
		if !ok {
			break
		}
		report.Visited++
		e.visit(ctx, ent, eye, look, maxRangeSq, flags, report)
		e.visited = append(e.visited, ent.ID)
	}

	for _, id := range e.visited {
		e.groups.Reconcile(id)
	}

	if e.cursor.Exhausted() {
		report.SweepCompleted = true
	}

	span.SetAttributes(
		attribute.Int64("itemglow.generation", int64(e.cursor.Generation())),
		attribute.Int("itemglow.visited", report.Visited),
		attribute.Int("itemglow.remaining", e.cursor.Remaining()),
	)
}

// visit recomputes the should-glow entry for a single entity.
func (e *Engine) visit(ctx context.Context, ent TrackedEntity, eye, look Vec3, maxRangeSq float64, flags ContextFlags, report *TickReport) {
	if !ent.Alive {
		e.reaper.evict(ent.ID)
		report.Dead++
		return
	}

	st, ok := e.tracked[ent.ID]
	if !ok {
		st = &trackState{}
		e.tracked[ent.ID] = st
	}
	st.pos = ent.Position

	visible := false
	if inViewCone(eye, look, ent.VisualCenter(), maxRangeSq, e.cfg.LookDotThreshold) {
		switch {
		case flags.ExclusionActive && e.exclusion.IsExcluded(ent, e.tick, e.host.Spatial):
			report.Excluded++
		case flags.SeeThroughWalls:
			visible = true
		default:
			report.OcclusionChecks++
			visible = e.lineOfSight(ctx, eye, ent)
		}
	}

	if !visible {
		delete(e.shouldGlow, ent.ID)
		return
	}

	if !st.classified {
		st.tier = Classify(ent.Lore)
		st.classified = len(ent.Lore) > 0
	}
	if st.tier == Unclassified && !e.cfg.HighlightUnclassified {
		delete(e.shouldGlow, ent.ID)
		return
	}
	e.shouldGlow[ent.ID] = st.tier
}

func (e *Engine) lineOfSight(ctx context.Context, eye Vec3, ent TrackedEntity) bool {
	if e.host.Occlusion == nil {
		return false
	}
	los, err := e.host.Occlusion.HasLineOfSight(eye, ent)
	if err != nil {
		e.log.Debug(ctx, "occlusion test failed; treating as hidden",
			logging.String("entity", ent.ID.String()),
			logging.Err(err),
		)
		return false
	}
	return los
}

func (e *Engine) needsSnapshot(viewer *Viewer) bool {
	if e.cursor.Exhausted() {
		return true
	}
	if d := e.cfg.RefreshDistance; d > 0 {
		return viewer.Position.DistanceSqTo(e.cursor.Origin()) > d*d
	}
	return false
}

// reap runs the reaper against the host's live view, so an item that died
// after the cursor passed it is evicted on this tick rather than next sweep.
func (e *Engine) reap(viewerPos Vec3) []EntityID {
	var live func(EntityID) bool
	if lookup := e.host.Lookup; lookup != nil {
		live = func(id EntityID) bool {
			ent, ok := lookup.Lookup(id)
			if !ok || !ent.Alive {
				return false
			}
			if st, tracked := e.tracked[id]; tracked {
				st.pos = ent.Position
			}
			return true
		}
	}
	return e.reaper.Sweep(live, viewerPos, e.cfg.maxRangeSq())
}

// IsHighlighted reports whether id should be drawn with an outline.
func (e *Engine) IsHighlighted(id EntityID) bool {
	_, ok := e.shouldGlow[id]
	return ok
}

// HighlightColorOf returns the outline color for id if it is highlighted.
func (e *Engine) HighlightColorOf(id EntityID) (Color, bool) {
	t, ok := e.shouldGlow[id]
	if !ok {
		return 0, false
	}
	return e.palette.ColorOf(t), true
}

// InvalidateClassification forces id to be reclassified on its next visible
// visit. Hosts call it when they learn an item's lore changed.
func (e *Engine) InvalidateClassification(id EntityID) {
	if st, ok := e.tracked[id]; ok {
		st.classified = false
	}
}

// ClearAll drops every cache, the cursor and all group memberships. It is
// meant for context teardown (disconnect, world change).
func (e *Engine) ClearAll() {
	e.reaper.clearAll()
	e.cursor.Invalidate()
	e.tick = 0
}

// Ticks returns the number of ticks since construction or the last reset.
func (e *Engine) Ticks() uint64 { return e.tick }

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Highlight is one entry of a Snapshot.
type Highlight struct {
	ID    EntityID
	Tier  Tier
	Color Color
}

// Snapshot is an immutable copy of engine state that may be handed to other
// goroutines.
type Snapshot struct {
	Tick       uint64
	Generation uint64
	Context    string
	Highlights []Highlight
	Tracked    int
	Members    int
	Verdicts   int
}

// Snapshot copies the current state. Highlights are sorted by id.
func (e *Engine) Snapshot() Snapshot {
	hl := make([]Highlight, 0, len(e.shouldGlow))
	for id, t := range e.shouldGlow {
		hl = append(hl, Highlight{ID: id, Tier: t, Color: e.palette.ColorOf(t)})
	}
	sort.Slice(hl, func(i, j int) bool {
		return hl[i].ID.String() < hl[j].ID.String()
	})
	return Snapshot{
		Tick:       e.tick,
		Generation: e.cursor.Generation(),
		Context:    e.context,
		Highlights: hl,
		Tracked:    len(e.tracked),
		Members:    e.groups.Members(),
		Verdicts:   e.exclusion.Len(),
	}
}
