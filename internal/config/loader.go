package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PODIUM_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PODIUM_CONFIG is set
//  3. env (prefix PODIUM_), including values from a local .env file
func Load(ctx context.Context) (*Config, error) {
	return LoadWithEnvFiles(ctx)
}

// LoadWithEnvFiles is Load with explicit dotenv files. Without arguments it
// reads ./.env if present. Variables already set in the process win.
func LoadWithEnvFiles(_ context.Context, envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// PODIUM_SOURCE_PATH -> source_path; underscores are kept to match koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(files...)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.SourceKind {
	case SourceCSV, SourceSQLite:
		if strings.TrimSpace(c.SourcePath) == "" {
			return fmt.Errorf("%w: source_path must not be empty for %s source", ErrInvalidConfig, c.SourceKind)
		}
	case SourceMySQL:
		if strings.TrimSpace(c.SourceDSN) == "" {
			return fmt.Errorf("%w: source_dsn must not be empty for mysql source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source_kind %q", ErrInvalidConfig, c.SourceKind)
	}
	if c.SourceKind != SourceCSV && strings.TrimSpace(c.SourceTable) == "" {
		return fmt.Errorf("%w: source_table must not be empty for %s source", ErrInvalidConfig, c.SourceKind)
	}
	for name, col := range map[string]string{
		"date_column":     c.DateColumn,
		"medal_column":    c.MedalColumn,
		"country_column":  c.CountryColumn,
		"category_column": c.CategoryColumn,
	} {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, name)
		}
	}
	if c.MaxViewLimit < 1 {
		return fmt.Errorf("%w: max_view_limit must be positive", ErrInvalidConfig)
	}
	if c.SnapshotOnReload && strings.TrimSpace(c.SnapshotPath) == "" {
		return fmt.Errorf("%w: snapshot_on_reload requires snapshot_path", ErrInvalidConfig)
	}
	return nil
}
