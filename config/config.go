// Package config loads streamwatch settings from defaults, an optional
// YAML file, STREAMWATCH_* environment variables and command-line flags.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rkarmaka98/streamwatch/monitor"
)

// EnvPrefix is prepended to environment variable names, e.g.
// STREAMWATCH_DETECTOR_WINDOW.
const EnvPrefix = "STREAMWATCH"

// Config is the full runtime configuration.
type Config struct {
	Detector DetectorConfig `mapstructure:"detector"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Azure    AzureConfig    `mapstructure:"azure"`
	Share    ShareConfig    `mapstructure:"share"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// DetectorConfig sizes the z-score detector.
type DetectorConfig struct {
	Window    int     `mapstructure:"window"`
	Threshold float64 `mapstructure:"threshold"`
}

// SimulateConfig shapes the synthetic stream.
type SimulateConfig struct {
	Points         int     `mapstructure:"points"`
	Seed           uint64  `mapstructure:"seed"`
	TrendStart     float64 `mapstructure:"trend_start"`
	TrendEnd       float64 `mapstructure:"trend_end"`
	Amplitude      float64 `mapstructure:"amplitude"`
	Cycles         float64 `mapstructure:"cycles"`
	Noise          float64 `mapstructure:"noise"`
	SpikeRate      float64 `mapstructure:"spike_rate"`
	SpikeMagnitude float64 `mapstructure:"spike_magnitude"`
}

// AzureConfig selects the Azure Monitor metric to watch.
type AzureConfig struct {
	Subscription string        `mapstructure:"subscription"`
	Resource     string        `mapstructure:"resource"`
	Metric       string        `mapstructure:"metric"`
	Aggregation  string        `mapstructure:"aggregation"`
	Interval     time.Duration `mapstructure:"interval"`
	Count        int           `mapstructure:"count"`
	Retries      int           `mapstructure:"retries"`
}

// ShareConfig points score at a CSV file on an Azure file share.
type ShareConfig struct {
	Account string `mapstructure:"account"`
	Key     string `mapstructure:"key"`
	Name    string `mapstructure:"name"`
	Path    string `mapstructure:"path"`
}

// StreamConfig bounds the driving loop. A zero Limit means no limit.
type StreamConfig struct {
	Limit int `mapstructure:"limit"`
}

// OutputConfig controls the sinks.
type OutputConfig struct {
	Plot          string `mapstructure:"plot"`
	AnomaliesOnly bool   `mapstructure:"anomalies_only"`
	Quiet         bool   `mapstructure:"quiet"`
	MetricsAddr   string `mapstructure:"metrics_addr"`
	HaltOnInvalid bool   `mapstructure:"halt_on_invalid"`
	AsyncBuffer   int    `mapstructure:"async_buffer"`
	MaxAlerts     int    `mapstructure:"max_alerts"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Detector: DetectorConfig{
			Window:    100,
			Threshold: monitor.DefaultThreshold,
		},
		Simulate: SimulateConfig{
			Points:         1000,
			TrendStart:     1,
			TrendEnd:       100,
			Amplitude:      10,
			Cycles:         5,
			Noise:          5,
			SpikeRate:      0.01,
			SpikeMagnitude: 40,
		},
		Azure: AzureConfig{
			Subscription: os.Getenv("AZURE_SUBSCRIPTION_ID"),
			Metric:       "FileServerIOPS",
			Aggregation:  "Average",
			Interval:     time.Minute,
			Retries:      3,
		},
		Share: ShareConfig{
			Account: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			Key:     os.Getenv("AZURE_STORAGE_KEY"),
		},
		Output: OutputConfig{
			AsyncBuffer: 256,
			MaxAlerts:   100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// and unmarshalling see the full key set.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("detector.window", d.Detector.Window)
	v.SetDefault("detector.threshold", d.Detector.Threshold)

	v.SetDefault("simulate.points", d.Simulate.Points)
	v.SetDefault("simulate.seed", d.Simulate.Seed)
	v.SetDefault("simulate.trend_start", d.Simulate.TrendStart)
	v.SetDefault("simulate.trend_end", d.Simulate.TrendEnd)
	v.SetDefault("simulate.amplitude", d.Simulate.Amplitude)
	v.SetDefault("simulate.cycles", d.Simulate.Cycles)
	v.SetDefault("simulate.noise", d.Simulate.Noise)
	v.SetDefault("simulate.spike_rate", d.Simulate.SpikeRate)
	v.SetDefault("simulate.spike_magnitude", d.Simulate.SpikeMagnitude)

	v.SetDefault("azure.subscription", d.Azure.Subscription)
	v.SetDefault("azure.resource", d.Azure.Resource)
	v.SetDefault("azure.metric", d.Azure.Metric)
	v.SetDefault("azure.aggregation", d.Azure.Aggregation)
	v.SetDefault("azure.interval", d.Azure.Interval)
	v.SetDefault("azure.count", d.Azure.Count)
	v.SetDefault("azure.retries", d.Azure.Retries)

	v.SetDefault("share.account", d.Share.Account)
	v.SetDefault("share.key", d.Share.Key)
	v.SetDefault("share.name", d.Share.Name)
	v.SetDefault("share.path", d.Share.Path)

	v.SetDefault("stream.limit", d.Stream.Limit)

	v.SetDefault("output.plot", d.Output.Plot)
	v.SetDefault("output.anomalies_only", d.Output.AnomaliesOnly)
	v.SetDefault("output.quiet", d.Output.Quiet)
	v.SetDefault("output.metrics_addr", d.Output.MetricsAddr)
	v.SetDefault("output.halt_on_invalid", d.Output.HaltOnInvalid)
	v.SetDefault("output.async_buffer", d.Output.AsyncBuffer)
	v.SetDefault("output.max_alerts", d.Output.MaxAlerts)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// New returns a viper instance wired for streamwatch: defaults plus
// STREAMWATCH_ environment overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the config file at path, if one is given, into v and
// unmarshals the merged result. An explicit path that cannot be read is an
// error; only an empty path falls back to defaults and the environment.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

type problems []error

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Errorf(format+": %w", append(args, monitor.ErrInvalidConfig)...))
}

// Validate returns every problem found in the settings shared by all
// commands: detector, stream, output and log. Source sections are checked
// by the command that reads them.
func (c Config) Validate() []error {
	var errs problems

	if c.Detector.Window < 1 {
		errs.add("detector.window must be at least 1, got %d", c.Detector.Window)
	}
	if c.Detector.Threshold < 0 || math.IsNaN(c.Detector.Threshold) || math.IsInf(c.Detector.Threshold, 0) {
		errs.add("detector.threshold must be a finite non-negative number, got %v", c.Detector.Threshold)
	}

	if c.Stream.Limit < 0 {
		errs.add("stream.limit must not be negative, got %d", c.Stream.Limit)
	}

	if c.Output.AsyncBuffer < 0 {
		errs.add("output.async_buffer must not be negative, got %d", c.Output.AsyncBuffer)
	}
	if c.Output.MaxAlerts < 0 {
		errs.add("output.max_alerts must not be negative, got %d", c.Output.MaxAlerts)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs.add("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs.add("log.format %q is not one of json, console", c.Log.Format)
	}
	return errs
}

// Validate returns every problem in the synthetic stream settings.
func (s SimulateConfig) Validate() []error {
	var errs problems
	if s.Points < 1 {
		errs.add("simulate.points must be at least 1, got %d", s.Points)
	}
	if s.Noise < 0 {
		errs.add("simulate.noise must not be negative, got %v", s.Noise)
	}
	if s.SpikeRate < 0 || s.SpikeRate > 1 {
		errs.add("simulate.spike_rate must be within [0, 1], got %v", s.SpikeRate)
	}
	return errs
}

// Validate returns every problem in the Azure Monitor settings.
func (a AzureConfig) Validate() []error {
	var errs problems
	if a.Subscription == "" {
		errs.add("azure.subscription is required (or set AZURE_SUBSCRIPTION_ID)")
	}
	if a.Resource == "" {
		errs.add("azure.resource is required")
	}
	switch a.Aggregation {
	case "Average", "Maximum", "Minimum", "Total", "Count":
	default:
		errs.add("azure.aggregation %q is not one of Average, Maximum, Minimum, Total, Count", a.Aggregation)
	}
	if a.Interval <= 0 {
		errs.add("azure.interval must be positive, got %s", a.Interval)
	}
	if a.Count < 0 || a.Retries < 0 {
		errs.add("azure.count and azure.retries must not be negative")
	}
	return errs
}

// Enabled reports whether score should read from a file share.
func (s ShareConfig) Enabled() bool {
	return s.Name != ""
}

// Validate returns every problem in the file share settings. A disabled
// share has none.
func (s ShareConfig) Validate() []error {
	var errs problems
	if !s.Enabled() {
		return nil
	}
	if s.Path == "" {
		errs.add("share.path is required when share.name is set")
	}
	if s.Account == "" {
		errs.add("share.account is required (or set AZURE_STORAGE_ACCOUNT)")
	}
	if s.Key == "" {
		errs.add("share.key is required (or set AZURE_STORAGE_KEY)")
	}
	return errs
}

// Err folds Validate into a single error, or nil.
func (c Config) Err() error {
	return Fold(c.Validate())
}

// Fold joins validation problems into one error wrapping
// monitor.ErrInvalidConfig, or returns nil when there are none.
func Fold(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("configuration validation failed:\n  - %s: %w", strings.Join(msgs, "\n  - "), monitor.ErrInvalidConfig)
}
