package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the top-level devinsight configuration.
type Config struct {
	Analysis Analysis `mapstructure:"analysis"`
	Archive  Archive  `mapstructure:"archive"`
	Log      Log      `mapstructure:"log"`
	Output   Output   `mapstructure:"output"`
	Watch    Watch    `mapstructure:"watch"`
}

// Analysis controls the analysis pipeline bounds.
type Analysis struct {
	BudgetMS         int      `mapstructure:"budget_ms"`
	MaxDepth         int      `mapstructure:"max_depth"`
	PartialDepth     int      `mapstructure:"partial_depth"`
	MaxFileBytes     int64    `mapstructure:"max_file_bytes"`
	IgnoreGlobs      []string `mapstructure:"ignore_globs"`
	TextCacheEntries int      `mapstructure:"text_cache_entries"`
}

// Budget returns the analysis budget as a duration.
func (a Analysis) Budget() time.Duration {
	return time.Duration(a.BudgetMS) * time.Millisecond
}

// Archive controls where analysis results are stored.
type Archive struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// Log controls logging verbosity.
type Log struct {
	Level string `mapstructure:"level"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch controls the watch command.
type Watch struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with DEVINSIGHT_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("analysis.budget_ms", DefaultAnalysis.BudgetMS)
	v.SetDefault("analysis.max_depth", DefaultAnalysis.MaxDepth)
	v.SetDefault("analysis.partial_depth", DefaultAnalysis.PartialDepth)
	v.SetDefault("analysis.max_file_bytes", DefaultAnalysis.MaxFileBytes)
	v.SetDefault("analysis.ignore_globs", DefaultAnalysis.IgnoreGlobs)
	v.SetDefault("analysis.text_cache_entries", DefaultAnalysis.TextCacheEntries)
	v.SetDefault("archive.enabled", DefaultArchive.Enabled)
	v.SetDefault("archive.db_path", DefaultArchive.DBPath)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("watch.debounce", DefaultWatch.Debounce)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Archive.DBPath = expandPath(cfg.Archive.DBPath)

	return &cfg, nil
}

// Validate reports configuration problems as human-readable messages.
// An empty result means the configuration is usable.
func (c *Config) Validate() []string {
	var problems []string
	a := c.Analysis
	if a.BudgetMS <= 0 {
		problems = append(problems, fmt.Sprintf("analysis.budget_ms must be positive, got %d", a.BudgetMS))
	}
	if a.MaxDepth < 1 {
		problems = append(problems, fmt.Sprintf("analysis.max_depth must be at least 1, got %d", a.MaxDepth))
	}
	if a.PartialDepth < 1 || a.PartialDepth > a.MaxDepth {
		problems = append(problems, fmt.Sprintf("analysis.partial_depth must be between 1 and max_depth, got %d", a.PartialDepth))
	}
	if a.MaxFileBytes <= 0 {
		problems = append(problems, fmt.Sprintf("analysis.max_file_bytes must be positive, got %d", a.MaxFileBytes))
	}
	for _, g := range a.IgnoreGlobs {
		if !doublestar.ValidatePattern(g) {
			problems = append(problems, fmt.Sprintf("analysis.ignore_globs: invalid pattern %q", g))
		}
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}
	if c.Archive.Enabled && c.Archive.DBPath == "" {
		problems = append(problems, "archive.db_path is empty while archive.enabled is true")
	}
	return problems
}

// DBPath returns the full path to the default SQLite archive.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
