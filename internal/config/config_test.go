package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/AMS-QF/TAQ-Data/internal/window"
)

func validConfig() *Config {
	cfg := &Config{
		ClickHouse: ClickHouseConfig{DSN: "clickhouse://localhost:9000/taq"},
		Postgres:   PostgresConfig{DSN: "postgres://localhost:5432/taq"},
		Windows: []WindowConfig{
			{Mode: "calendar", Delta1: 0, Delta2: 60},
			{Mode: "transaction", Delta1: 0, Delta2: 100},
		},
		Run: RunConfig{
			Symbols:   []string{"AAPL"},
			StartDate: "2024-01-02",
			EndDate:   "2024-01-31",
		},
	}
	cfg.setDefaults()
	return cfg
}

func TestLoadValidFile(t *testing.T) {
	content := `
app:
  name: taq-pipeline
  log_level: debug
clickhouse:
  dsn: clickhouse://localhost:9000/taq
postgres:
  dsn: postgres://localhost:5432/taq
session:
  market_open: "09:30:00"
  market_close: "16:00:00"
windows:
  - mode: calendar
    delta1: 0
    delta2: 60
  - mode: volume
    delta1: 1000
    delta2: 5000
features:
  statistics: [Breadth, VolumeAll]
  forward_horizons: [5, 60]
run:
  symbols: [AAPL, MSFT]
  start_date: "2024-01-02"
  end_date: "2024-01-31"
  parallelism: 8
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.App.LogLevel)
	}
	if got := len(cfg.Windows); got != 2 {
		t.Fatalf("len(Windows) = %d, want 2", got)
	}
	specs := cfg.WindowSpecs()
	if specs[1] != (window.Spec{Mode: window.ModeVolume, Delta1: 1000, Delta2: 5000}) {
		t.Errorf("WindowSpecs()[1] = %+v", specs[1])
	}
	if cfg.Run.Parallelism != 8 {
		t.Errorf("Parallelism = %d, want 8", cfg.Run.Parallelism)
	}
	if len(cfg.Features.Statistics) != 2 {
		t.Errorf("Statistics = %v, want the two configured", cfg.Features.Statistics)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() on a missing file should fail")
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	if cfg.App.Name != "taq-pipeline" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("App.LogLevel = %q", cfg.App.LogLevel)
	}
	if cfg.Session.MarketOpen != "09:30:00" || cfg.Session.MarketClose != "16:00:00" {
		t.Errorf("market session = %s..%s", cfg.Session.MarketOpen, cfg.Session.MarketClose)
	}
	if cfg.Session.RegularOpen != "09:15:00" || cfg.Session.RegularClose != "15:45:00" {
		t.Errorf("regular session = %s..%s", cfg.Session.RegularOpen, cfg.Session.RegularClose)
	}
	if len(cfg.Features.Statistics) == 0 {
		t.Error("Statistics should default to all")
	}
	if cfg.Run.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", cfg.Run.Parallelism)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing clickhouse dsn",
			mutate: func(c *Config) { c.ClickHouse.DSN = "" },
			want:   "clickhouse.dsn",
		},
		{
			name:   "missing postgres dsn",
			mutate: func(c *Config) { c.Postgres.DSN = "" },
			want:   "postgres.dsn",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.App.LogLevel = "verbose" },
			want:   "app.log_level",
		},
		{
			name:   "no windows",
			mutate: func(c *Config) { c.Windows = nil },
			want:   "windows",
		},
		{
			name:   "unknown window mode",
			mutate: func(c *Config) { c.Windows[0].Mode = "lunar" },
			want:   "windows[0]",
		},
		{
			name:   "inverted bounds",
			mutate: func(c *Config) { c.Windows[1].Delta1 = 200 },
			want:   "windows[1]",
		},
		{
			name:   "unknown statistic",
			mutate: func(c *Config) { c.Features.Statistics = []string{"Kurtosis"} },
			want:   "features.statistics[0]",
		},
		{
			name:   "zero horizon",
			mutate: func(c *Config) { c.Features.ForwardHorizons = []float64{0} },
			want:   "features.forward_horizons[0]",
		},
		{
			name:   "no symbols",
			mutate: func(c *Config) { c.Run.Symbols = nil },
			want:   "run.symbols",
		},
		{
			name:   "bad start date",
			mutate: func(c *Config) { c.Run.StartDate = "01/02/2024" },
			want:   "run.start_date",
		},
		{
			name:   "end before start",
			mutate: func(c *Config) { c.Run.EndDate = "2023-12-29" },
			want:   "run.end_date",
		},
		{
			name:   "session close before open",
			mutate: func(c *Config) { c.Session.MarketClose = "08:00:00" },
			want:   "session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestWindowBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("delta1 below delta2 validates", prop.ForAll(
		func(d1, width float64) bool {
			cfg := validConfig()
			cfg.Windows = []WindowConfig{{Mode: "calendar", Delta1: d1, Delta2: d1 + width}}
			return cfg.Validate() == nil
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0.001, 1e6),
	))

	properties.Property("delta1 at or above delta2 fails", prop.ForAll(
		func(d2, excess float64) bool {
			cfg := validConfig()
			cfg.Windows = []WindowConfig{{Mode: "calendar", Delta1: d2 + excess, Delta2: d2}}
			return cfg.Validate() != nil
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 1e6),
	))

	properties.TestingRun(t)
}
