package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aevon-lab/salescope/internal/analysis"
	"github.com/aevon-lab/salescope/internal/core/aggregation"
	"github.com/aevon-lab/salescope/internal/report"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config represents the top-level application config.
type Config struct {
	Source   SourceConfig   `koanf:"source"`
	Database DatabaseConfig `koanf:"database"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Report   ReportConfig   `koanf:"report"`
	Server   ServerConfig   `koanf:"server"`
}

type SourceConfig struct {
	Type      string `koanf:"type"` // csv | postgres
	Path      string `koanf:"path"`
	Delimiter string `koanf:"delimiter"`
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type AnalysisConfig struct {
	TopStores            int     `koanf:"top_stores"`
	TopCategories        int     `koanf:"top_categories"`
	StrugglingPercentile float64 `koanf:"struggling_percentile"`
	AnomalyZ             float64 `koanf:"anomaly_z"`
	TrendGranularity     string  `koanf:"trend_granularity"` // month | quarter
	WorkerCount          int     `koanf:"worker_count"`
	ParallelThreshold    int     `koanf:"parallel_threshold"`
	RulesDir             string  `koanf:"rules_dir"` // *.yaml reduction rules; a missing dir is an empty catalog
}

type ReportConfig struct {
	OutputDir string   `koanf:"output_dir"`
	Formats   []string `koanf:"formats"`
}

type ServerConfig struct {
	Port           int    `koanf:"port"`
	Host           string `koanf:"host"`
	MaxBodySizeMB  int    `koanf:"max_body_size_mb"`
	Mode           string `koanf:"mode"`            // debug | release
	ReloadInterval string `koanf:"reload_interval"` // parsed and validated on startup
}

// EngineOptions maps the analysis section onto engine options.
func (c AnalysisConfig) EngineOptions() analysis.Options {
	return analysis.Options{
		TopStores:            c.TopStores,
		TopCategories:        c.TopCategories,
		StrugglingPercentile: c.StrugglingPercentile,
		AnomalyZ:             c.AnomalyZ,
		TrendGranularity:     aggregation.Period(strings.ToLower(strings.TrimSpace(c.TrendGranularity))),
		WorkerCount:          c.WorkerCount,
		ParallelThreshold:    c.ParallelThreshold,
	}
}

// DelimiterRune returns the configured field delimiter, comma when unset.
func (c SourceConfig) DelimiterRune() rune {
	if c.Delimiter == "" {
		return ','
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// ReloadEvery returns the parsed reload interval; zero disables reloading.
func (c ServerConfig) ReloadEvery() time.Duration {
	d, _ := time.ParseDuration(c.ReloadInterval)
	return d
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceCSV:
		if strings.TrimSpace(c.Source.Path) == "" {
			return fmt.Errorf("source.path is required for csv sources")
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unsupported source.type %q (must be csv or postgres)", c.Source.Type)
	}
	if c.Source.Delimiter != "" && c.Source.Delimiter != `\t` && utf8.RuneCountInString(c.Source.Delimiter) != 1 {
		return fmt.Errorf("source.delimiter must be a single character, got %q", c.Source.Delimiter)
	}

	if c.Source.Type == SourcePostgres && strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required for postgres sources")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}

	if err := c.Analysis.EngineOptions().Validate(); err != nil {
		return fmt.Errorf("invalid analysis config: %w", err)
	}

	if strings.TrimSpace(c.Report.OutputDir) == "" {
		return fmt.Errorf("report.output_dir is required")
	}
	if _, err := report.ParseFormats(c.Report.Formats); err != nil {
		return fmt.Errorf("invalid report.formats: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}
	interval, err := time.ParseDuration(c.Server.ReloadInterval)
	if err != nil {
		return fmt.Errorf("invalid server.reload_interval %q: %w", c.Server.ReloadInterval, err)
	}
	if interval < 0 {
		return fmt.Errorf("server.reload_interval must be >= 0")
	}

	return nil
}

// Load parses config from defaults, an optional YAML file and SALESCOPE_ env
// vars (double underscore separates sections), then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"source.type":                    SourceCSV,
		"source.path":                    "./data/retail_sales.csv",
		"source.delimiter":               ",",
		"database.dsn":                   "",
		"database.max_open_conns":        10,
		"database.max_idle_conns":        5,
		"database.auto_migrate":          true,
		"analysis.top_stores":            analysis.DefaultTopStores,
		"analysis.top_categories":        analysis.DefaultTopCategories,
		"analysis.struggling_percentile": analysis.DefaultStrugglingPercentile,
		"analysis.anomaly_z":             analysis.DefaultAnomalyZ,
		"analysis.trend_granularity":     string(analysis.DefaultTrendGranularity),
		"analysis.worker_count":          1,
		"analysis.parallel_threshold":    analysis.DefaultParallelThreshold,
		"analysis.rules_dir":             "./rules",
		"report.output_dir":              "./reports",
		"report.formats":                 []string{"markdown"},
		"server.port":                    8080,
		"server.host":                    "0.0.0.0",
		"server.max_body_size_mb":        10,
		"server.mode":                    "release",
		"server.reload_interval":         "5m",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("SALESCOPE_", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// listKeys are config keys holding lists; their env values are comma-separated.
var listKeys = map[string]bool{
	"report.formats": true,
}

// envValue maps SALESCOPE_SECTION__KEY to section.key and splits list values.
func envValue(name, value string) (string, interface{}) {
	key := strings.Replace(strings.ToLower(strings.TrimPrefix(name, "SALESCOPE_")), "__", ".", -1)
	if !listKeys[key] {
		return key, value
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return key, items
}
