// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of matching workers per run.
	WorkerCount int `koanf:"worker_count"`

	// DataDir is the directory holding instructor snapshots and provider
	// dataset exports.
	DataDir string `koanf:"data_dir"`

	// StoreBackend selects the link store: "memory" or "sqlite".
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath locates the sqlite database when store_backend=sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// Weights maps the four signal names to their aggregation weights.
	// They must sum to exactly 1.0; violation fails at startup.
	Weights map[string]float64 `koanf:"weights"`

	// AcceptFloor is the minimum aggregate score for link creation.
	AcceptFloor float64 `koanf:"accept_floor"`

	// ConfidenceFloor is the minimum aggregate score for a confident link;
	// stricter than AcceptFloor.
	ConfidenceFloor float64 `koanf:"confidence_floor"`

	// MinSamples maps provider ids to the minimum rating count for a
	// confident link.
	MinSamples map[string]int `koanf:"min_samples"`

	// VolumePivot is the rating count at which the volume signal reaches 0.5.
	VolumePivot int `koanf:"volume_pivot"`

	// BlockScanCap bounds the blocking fallback full scan.
	BlockScanCap int `koanf:"block_scan_cap"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		WorkerCount:  runtime.NumCPU() * 2,
		DataDir:      "data",
		StoreBackend: StoreMemory,
		SQLitePath:   "proflink.db",
		Weights: map[string]float64{
			"name":       0.50,
			"subject":    0.30,
			"uniqueness": 0.15,
			"volume":     0.05,
		},
		AcceptFloor:     0.65,
		ConfidenceFloor: 0.75,
		MinSamples: map[string]int{
			"rmp":      5,
			"bluebook": 10,
		},
		VolumePivot:  8,
		BlockScanCap: 1000,
	}
}
