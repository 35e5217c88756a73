// Package config loads the itemglow configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/itemglow/core"
	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/internal/observability"
	"github.com/signalsfoundry/itemglow/timectrl"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Environment overrides read by ApplyEnv, besides the logging and tracing
// variables owned by those packages.
const (
	EnvEnabled     = "ITEMGLOW_ENABLED"
	EnvMetricsAddr = "ITEMGLOW_METRICS_ADDR"
	EnvInspectAddr = "ITEMGLOW_INSPECT_ADDR"
)

// Config is the top-level configuration file.
type Config struct {
	// Enabled is the master switch. When off the engine is not ticked and
	// no outlines are drawn.
	Enabled          bool   `yaml:"enabled"`
	SeeThroughWalls  bool   `yaml:"see_through_walls"`
	DefaultGlowColor string `yaml:"default_glow_color"`

	Engine EngineConfig `yaml:"engine"`
	// Palette overrides tier colors, keyed by tier name.
	Palette map[string]string `yaml:"palette"`
	Tick    TickConfig        `yaml:"tick"`
	Log     LogConfig         `yaml:"log"`
	Tracing TracingConfig     `yaml:"tracing"`
	Metrics MetricsConfig     `yaml:"metrics"`
	Inspect InspectConfig     `yaml:"inspect"`
}

type EngineConfig struct {
	Radius                float64  `yaml:"radius"`
	MaxChecksPerTick      int      `yaml:"max_checks_per_tick"`
	Stride                int      `yaml:"stride"`
	ExclusionTTL          uint64   `yaml:"exclusion_ttl"`
	ShowcaseRadius        float64  `yaml:"showcase_radius"`
	ShowcaseItems         []string `yaml:"showcase_items"`
	LookDotThreshold      float64  `yaml:"look_dot_threshold"`
	RefreshDistance       float64  `yaml:"refresh_distance"`
	ReapInterval          int      `yaml:"reap_interval"`
	HighlightUnclassified bool     `yaml:"highlight_unclassified"`
}

type TickConfig struct {
	Rate int    `yaml:"rate"`
	Mode string `yaml:"mode"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type InspectConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	ec := core.DefaultConfig()
	return Config{
		Enabled:          true,
		DefaultGlowColor: ec.Palette.ColorOf(core.Unclassified).Hex(),
		Engine: EngineConfig{
			Radius:                ec.Radius,
			MaxChecksPerTick:      ec.MaxChecksPerTick,
			Stride:                ec.Stride,
			ExclusionTTL:          ec.ExclusionTTL,
			ShowcaseRadius:        ec.ShowcaseRadius,
			ShowcaseItems:         ec.ShowcaseItems,
			LookDotThreshold:      ec.LookDotThreshold,
			RefreshDistance:       ec.RefreshDistance,
			ReapInterval:          ec.ReapInterval,
			HighlightUnclassified: ec.HighlightUnclassified,
		},
		Tick: TickConfig{Rate: timectrl.DefaultRate, Mode: "realtime"},
		Log:  LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: observability.DefaultServiceName,
			SampleRatio: 1,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Inspect: InspectConfig{Addr: ":50051"},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	if c.Tick.Rate <= 0 {
		return fmt.Errorf("%w: tick rate must be positive (got %d)", ErrInvalidConfig, c.Tick.Rate)
	}
	switch strings.ToLower(c.Tick.Mode) {
	case "", "realtime", "accelerated":
	default:
		return fmt.Errorf("%w: unknown tick mode %q", ErrInvalidConfig, c.Tick.Mode)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("%w: unknown tracing exporter %q", ErrInvalidConfig, c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing sample ratio must be within [0, 1] (got %v)", ErrInvalidConfig, c.Tracing.SampleRatio)
	}
	return nil
}

// ApplyEnv overrides file values with ITEMGLOW_* environment variables.
// lookup defaults to os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvEnabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v, ok := lookup(logging.EnvLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(logging.EnvFormat); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup(observability.EnvTracingEnabled); ok {
		c.Tracing.Enabled = strings.EqualFold(v, "true")
	}
	if v, ok := lookup(observability.EnvTracingExporter); ok && v != "" {
		c.Tracing.Exporter = strings.ToLower(v)
	}
	if v, ok := lookup(observability.EnvTracingServiceName); ok && v != "" {
		c.Tracing.ServiceName = v
	}
	if v, ok := lookup(observability.EnvTracingSampleRatio); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Tracing.SampleRatio = parsed
		}
	}
	if v, ok := lookup(observability.EnvOTLPEndpoint); ok && v != "" {
		c.Tracing.Endpoint = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
	}
	if v, ok := lookup(EnvInspectAddr); ok {
		c.Inspect.Addr = v
	}
}

// EngineConfig converts the engine section, palette overrides and default
// glow color into a validated core.Config.
func (c Config) EngineConfig() (core.Config, error) {
	palette := core.DefaultPalette()
	for name, hex := range c.Palette {
		tier, err := core.ParseTier(name)
		if err != nil {
			return core.Config{}, fmt.Errorf("%w: palette: %v", ErrInvalidConfig, err)
		}
		color, err := core.ParseColor(hex)
		if err != nil {
			return core.Config{}, fmt.Errorf("%w: palette %s: %v", ErrInvalidConfig, name, err)
		}
		palette[tier] = color
	}
	if c.DefaultGlowColor != "" {
		color, err := core.ParseColor(c.DefaultGlowColor)
		if err != nil {
			return core.Config{}, fmt.Errorf("%w: default glow color: %v", ErrInvalidConfig, err)
		}
		palette[core.Unclassified] = color
	}

	e := c.Engine
	out := core.Config{
		Radius:                e.Radius,
		MaxChecksPerTick:      e.MaxChecksPerTick,
		Stride:                e.Stride,
		ExclusionTTL:          e.ExclusionTTL,
		ShowcaseRadius:        e.ShowcaseRadius,
		ShowcaseItems:         e.ShowcaseItems,
		LookDotThreshold:      e.LookDotThreshold,
		RefreshDistance:       e.RefreshDistance,
		ReapInterval:          e.ReapInterval,
		HighlightUnclassified: e.HighlightUnclassified,
		Palette:               palette,
	}
	if err := out.Validate(); err != nil {
		return core.Config{}, fmt.Errorf("%w: engine: %w", ErrInvalidConfig, err)
	}
	return out, nil
}

// TracingConfig converts the tracing section.
func (c Config) TracingConfig() observability.TracingConfig {
	service := c.Tracing.ServiceName
	if service == "" {
		service = observability.DefaultServiceName
	}
	exporter := strings.ToLower(c.Tracing.Exporter)
	if exporter == "" {
		exporter = "stdout"
	}
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: service,
		Exporter:    exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
		Attributes: []attribute.KeyValue{
			observability.AttrTickRate.Int(c.Tick.Rate),
			observability.AttrTickMode.String(strings.ToLower(c.Tick.Mode)),
			observability.AttrStride.Int(c.Engine.Stride),
			observability.AttrMaxChecksPerTick.Int(c.Engine.MaxChecksPerTick),
			observability.AttrSeeThroughWalls.Bool(c.SeeThroughWalls),
		},
	}
}

// LoggingConfig converts the log section.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// TickInterval is the wall-clock time between real-time ticks.
func (c Config) TickInterval() time.Duration {
	if c.Tick.Rate <= 0 {
		return timectrl.DefaultInterval
	}
	return time.Second / time.Duration(c.Tick.Rate)
}

// TickMode parses the tick mode.
func (c Config) TickMode() timectrl.Mode {
	return timectrl.ParseMode(strings.ToLower(c.Tick.Mode))
}
