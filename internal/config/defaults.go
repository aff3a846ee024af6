// Package config provides configuration loading and defaults for devinsight.
package config

import "time"

// DefaultConfigDir is the default location for devinsight configuration.
const DefaultConfigDir = "~/.config/devinsight"

// DefaultDBName is the filename for the SQLite analysis archive.
const DefaultDBName = "devinsight.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix is the prefix for environment variable overrides
// (e.g. DEVINSIGHT_ANALYSIS_BUDGET_MS).
const EnvPrefix = "DEVINSIGHT"

// DefaultBudgetMS is the wall-clock budget for one analysis, in milliseconds.
const DefaultBudgetMS = 60000

// DefaultMaxFileBytes is the size ceiling above which files are left out
// of the folder tree and never read.
const DefaultMaxFileBytes = 2 * 1024 * 1024

// DefaultAnalysis holds the default analysis settings.
var DefaultAnalysis = Analysis{
	BudgetMS:         DefaultBudgetMS,
	MaxDepth:         6,
	PartialDepth:     2,
	MaxFileBytes:     DefaultMaxFileBytes,
	IgnoreGlobs:      []string{},
	TextCacheEntries: 512,
}

// DefaultArchive holds the default archive settings.
var DefaultArchive = Archive{
	Enabled: true,
	DBPath:  DefaultConfigDir + "/" + DefaultDBName,
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level: "warn",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultWatch holds the default watch settings.
var DefaultWatch = Watch{
	Debounce: 2 * time.Second,
}
