// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

// Source kinds understood by the loader.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
	SourceMySQL  = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SourceKind is one of csv, sqlite, mysql.
	SourceKind string `koanf:"source_kind"`

	// SourcePath is the CSV file (optionally .gz) or the SQLite database file.
	SourcePath string `koanf:"source_path"`

	// SourceDSN is the MySQL data source name.
	SourceDSN string `koanf:"source_dsn"`

	// SourceTable names the table read by SQL sources.
	SourceTable string `koanf:"source_table"`

	// Column names of the raw dataset.
	DateColumn     string `koanf:"date_column"`
	MedalColumn    string `koanf:"medal_column"`
	CountryColumn  string `koanf:"country_column"`
	CategoryColumn string `koanf:"category_column"`

	// Warmup loads the dataset at startup instead of on first request.
	Warmup bool `koanf:"warmup"`

	// Default view parameters used when a request omits them.
	BarTopN          int    `koanf:"bar_top_n"`
	StreamTopN       int    `koanf:"stream_top_n"`
	WaffleCountry    string `koanf:"waffle_country"`
	WaffleTopK       int    `koanf:"waffle_top_k"`
	MaxViewLimit     int    `koanf:"max_view_limit"`
	SnapshotPath     string `koanf:"snapshot_path"`
	SnapshotOnReload bool   `koanf:"snapshot_on_reload"`

	// Metric name prefix and the dataset label attached to every metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	Dataset          string `koanf:"dataset"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		SourceKind:     SourceCSV,
		SourcePath:     "data/medallists.csv",
		SourceTable:    "medallists",
		DateColumn:     "medal_date",
		MedalColumn:    "medal_type",
		CountryColumn:  "country",
		CategoryColumn: "discipline",
		BarTopN:        12,
		StreamTopN:     8,
		WaffleCountry:  "United States",
		WaffleTopK:     12,
		MaxViewLimit:   250,

		MetricsNamespace: "podium",
		MetricsSubsystem: "etl",
	}
}
