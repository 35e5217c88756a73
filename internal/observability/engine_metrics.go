package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/itemglow/core"
)

// EngineCollector exposes highlight engine metrics. It implements
// core.MetricsRecorder so an engine can feed it directly.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Ticks           prometheus.Counter
	ScanAdvances    prometheus.Counter
	Generations     prometheus.Counter
	Visited         prometheus.Counter
	OcclusionChecks prometheus.Counter
	Excluded        prometheus.Counter
	Resets          prometheus.Counter
	Evictions       *prometheus.CounterVec
	GroupCalls      *prometheus.CounterVec

	Tracked      prometheus.Gauge
	ShouldGlow   prometheus.Gauge
	GroupMembers prometheus.Gauge

	TickDuration prometheus.Histogram
}

var _ core.MetricsRecorder = (*EngineCollector)(nil)

// NewEngineCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &EngineCollector{gatherer: gatherer}
	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&c.Ticks, "itemglow_ticks_total", "Number of engine ticks processed."},
		{&c.ScanAdvances, "itemglow_scan_advances_total", "Number of ticks that advanced the scan cursor."},
		{&c.Generations, "itemglow_scan_generations_total", "Number of population snapshots taken."},
		{&c.Visited, "itemglow_entities_visited_total", "Entities popped from the scan cursor."},
		{&c.OcclusionChecks, "itemglow_occlusion_checks_total", "Line-of-sight oracle calls."},
		{&c.Excluded, "itemglow_excluded_total", "Visits that found the entity inside a showcase."},
		{&c.Resets, "itemglow_resets_total", "Full state resets caused by a context change."},
	}
	for _, ctr := range counters {
		registered, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: ctr.name,
			Help: ctr.help,
		}), ctr.name)
		if err != nil {
			return nil, err
		}
		*ctr.dst = registered
	}

	evictions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itemglow_evictions_total",
		Help: "Entities dropped from engine state, labeled by reason (dead, reaped).",
	}, []string{"reason"}), "itemglow_evictions_total")
	if err != nil {
		return nil, err
	}
	c.Evictions = evictions

	groupCalls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itemglow_group_calls_total",
		Help: "Calls issued to the grouping collaborator, labeled by op (add, remove).",
	}, []string{"op"}), "itemglow_group_calls_total")
	if err != nil {
		return nil, err
	}
	c.GroupCalls = groupCalls

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.Tracked, "itemglow_tracked_entities", "Entities the engine currently tracks."},
		{&c.ShouldGlow, "itemglow_should_glow_entities", "Entities currently selected for highlighting."},
		{&c.GroupMembers, "itemglow_group_members", "Entities currently placed in an outline group."},
	}
	for _, g := range gauges {
		registered, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = registered
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "itemglow_tick_duration_seconds",
		Help:    "Wall time spent inside Engine.Tick.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}), "itemglow_tick_duration_seconds")
	if err != nil {
		return nil, err
	}
	c.TickDuration = tickDuration

	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveTick folds one tick report into the collector.
func (c *EngineCollector) ObserveTick(r core.TickReport, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	if r.Advanced {
		c.ScanAdvances.Inc()
	}
	if r.NewGeneration {
		c.Generations.Inc()
	}
	if r.Reset {
		c.Resets.Inc()
	}
	c.Visited.Add(float64(r.Visited))
	c.OcclusionChecks.Add(float64(r.OcclusionChecks))
	c.Excluded.Add(float64(r.Excluded))
	c.Evictions.WithLabelValues("dead").Add(float64(r.Dead))
	c.Evictions.WithLabelValues("reaped").Add(float64(r.Reaped))
	c.GroupCalls.WithLabelValues("add").Add(float64(r.GroupAdds))
	c.GroupCalls.WithLabelValues("remove").Add(float64(r.GroupRemoves))

	c.Tracked.Set(float64(r.Tracked))
	c.ShouldGlow.Set(float64(r.ShouldGlow))
	c.GroupMembers.Set(float64(r.Members))

	c.TickDuration.Observe(elapsed.Seconds())
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
