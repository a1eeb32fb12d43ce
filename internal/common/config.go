package common

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration for the shader toolkit.
type Config struct {
	Compiler  CompilerConfig  `toml:"compiler" validate:"required"`
	Cache     CacheConfig     `toml:"cache"`
	HotReload HotReloadConfig `toml:"hotreload"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Shaders   ShadersConfig   `toml:"shaders"`
	Logging   LoggingConfig   `toml:"logging"`
}

// CompilerConfig selects and tunes the backend compiler.
type CompilerConfig struct {
	Backend          string   `toml:"backend" validate:"required,oneof=naga"`
	ShaderModel      string   `toml:"shader_model"`   // "major.minor", default "6.0"
	GlobalDefines    []string `toml:"global_defines"` // "NAME=VALUE" or bare "NAME" (value "1")
	WarningsAsErrors bool     `toml:"warnings_as_errors"`
	RowMajorPacking  bool     `toml:"row_major_packing"`
}

// CacheConfig controls the shader cache and its persistence.
type CacheConfig struct {
	Enabled             bool   `toml:"enabled"`
	Path                string `toml:"path"` // badger database directory
	ResetOnStartup      bool   `toml:"reset_on_startup"`
	MaintenanceSchedule string `toml:"maintenance_schedule"` // cron expression, empty disables
}

// HotReloadConfig controls the file watcher.
type HotReloadConfig struct {
	Enabled         bool   `toml:"enabled"`
	PollInterval    string `toml:"poll_interval"`     // duration string, default "500ms"
	NotifyPerSecond int    `toml:"notify_per_second"` // change-notification rate limit, default 4
	NotifyBurst     int    `toml:"notify_burst"`      // rate limiter burst, default 8
}

// SchedulerConfig sizes the async compilation worker pool.
type SchedulerConfig struct {
	Workers   int `toml:"workers"`    // 0 = max(NumCPU, 4)
	QueueSize int `toml:"queue_size"` // default 256
}

// ShadersConfig lists shader source search paths.
type ShadersConfig struct {
	SearchPaths []string `toml:"search_paths"`
}

// LoggingConfig mirrors the arbor writer setup.
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "trace", "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	File   string   `toml:"file"`   // log file path when file output enabled
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Backend:     "naga",
			ShaderModel: "6.0",
		},
		Cache: CacheConfig{
			Enabled:             true,
			Path:                "./data/shadercache",
			MaintenanceSchedule: "@every 10m",
		},
		HotReload: HotReloadConfig{
			Enabled:         true,
			PollInterval:    "500ms",
			NotifyPerSecond: 4,
			NotifyBurst:     8,
		},
		Scheduler: SchedulerConfig{
			Workers:   0,
			QueueSize: 256,
		},
		Shaders: ShadersConfig{
			SearchPaths: []string{"./shaders"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from defaults, then each TOML file in
// order (later files override earlier ones), then environment overrides,
// then validates the result.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyEnvOverrides applies AKSHADER_* environment variables over the loaded
// configuration. Only the operationally useful knobs are exposed.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("AKSHADER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("AKSHADER_CACHE_PATH"); v != "" {
		config.Cache.Path = v
	}
	if v := os.Getenv("AKSHADER_CACHE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Cache.Enabled = enabled
		}
	}
	if v := os.Getenv("AKSHADER_HOTRELOAD_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.HotReload.Enabled = enabled
		}
	}
	if v := os.Getenv("AKSHADER_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			config.Scheduler.Workers = workers
		}
	}
	if v := os.Getenv("AKSHADER_SEARCH_PATHS"); v != "" {
		config.Shaders.SearchPaths = strings.Split(v, string(os.PathListSeparator))
	}
}

// PollInterval parses the hot-reload poll interval, defaulting to 500ms.
func (c HotReloadConfig) Interval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// WorkerCount resolves the configured pool size: explicit value, otherwise
// hardware concurrency with a floor of 4.
func (c SchedulerConfig) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	workers := runtime.NumCPU()
	if workers < 4 {
		workers = 4
	}
	return workers
}

// QueueCapacity resolves the task queue capacity with its default.
func (c SchedulerConfig) QueueCapacity() int {
	if c.QueueSize > 0 {
		return c.QueueSize
	}
	return 256
}
