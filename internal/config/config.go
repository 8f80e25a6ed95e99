// Package config handles loading todolist.toml configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ImL1s/TodoListDemo-sub002/internal/paths"
)

// ProjectFileName is the per-directory configuration file.
const ProjectFileName = "todolist.toml"

// EnvConfig names the environment variable that points at an alternative
// global configuration file.
const EnvConfig = "TODOLIST_CONFIG"

// Backends lists the storage backends understood by storage.Open.
var Backends = []string{"file", "jsonl", "sqlite", "automerge", "memory"}

// Config represents the todolist.toml configuration file.
type Config struct {
	Storage Storage `toml:"storage"`
	Todo    Todo    `toml:"todo"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
}

// Storage selects where todos are persisted.
type Storage struct {
	// Backend is one of Backends. Defaults to "file".
	Backend string `toml:"backend"`

	// Path is the data file. Relative paths are resolved against the
	// directory of the file that sets them. Empty means the default
	// location under ~/.local/share/todolist.
	Path string `toml:"path"`
}

// Todo configures repository behaviour.
type Todo struct {
	// Order is "append" or "prepend".
	Order string `toml:"order"`

	// EditCompleted is "allow" or "forbid-completed".
	EditCompleted string `toml:"edit-completed"`

	// IDStrategy is "hash", "counter" or "uuid".
	IDStrategy string `toml:"id-strategy"`

	// DefaultPriority applies to todos added without one.
	DefaultPriority string `toml:"default-priority"`

	// Seed lists sample todos created when storage is empty.
	Seed []string `toml:"seed"`
}

// Server configures the HTTP API.
type Server struct {
	// Addr is the listen address for `todo serve`.
	Addr string `toml:"addr"`

	// URL points the CLI at a running server instead of local storage.
	URL string `toml:"url"`
}

// Log configures diagnostic output.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`

	// Format is text, json or logfmt.
	Format string `toml:"format"`
}

// Defaults used when no configuration sets a value.
const (
	DefaultBackend  = "file"
	DefaultAddr     = "127.0.0.1:8080"
	DefaultLogLevel = "warn"
	DefaultLogFmt   = "text"
)

// Load loads configuration from the global config file and the project
// directory. When explicitPath is set it replaces the project file and
// must exist. Returns defaults if no config files exist.
func Load(projectDir, explicitPath string) (*Config, error) {
	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath, false)
	if err != nil {
		return nil, err
	}

	projectPath := filepath.Join(projectDir, ProjectFileName)
	required := false
	if explicitPath != "" {
		projectPath = explicitPath
		required = true
	}
	projectCfg, projectMeta, err := loadConfigFile(projectPath, required)
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	merged.applyDefaults()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func globalConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return path, nil
	}
	dir, err := paths.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadConfigFile(path string, required bool) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %q", path, undecoded[0].String())
	}

	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(filepath.Dir(path), cfg.Storage.Path)
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	pick := func(key ...string) func(projectValue, globalValue string) string {
		return func(projectValue, globalValue string) string {
			return mergeString(projectMeta.IsDefined(key...), projectValue, globalValue)
		}
	}

	merged := Config{}
	merged.Storage.Backend = pick("storage", "backend")(projectCfg.Storage.Backend, globalCfg.Storage.Backend)
	merged.Storage.Path = pick("storage", "path")(projectCfg.Storage.Path, globalCfg.Storage.Path)
	merged.Todo.Order = pick("todo", "order")(projectCfg.Todo.Order, globalCfg.Todo.Order)
	merged.Todo.EditCompleted = pick("todo", "edit-completed")(projectCfg.Todo.EditCompleted, globalCfg.Todo.EditCompleted)
	merged.Todo.IDStrategy = pick("todo", "id-strategy")(projectCfg.Todo.IDStrategy, globalCfg.Todo.IDStrategy)
	merged.Todo.DefaultPriority = pick("todo", "default-priority")(projectCfg.Todo.DefaultPriority, globalCfg.Todo.DefaultPriority)
	merged.Server.Addr = pick("server", "addr")(projectCfg.Server.Addr, globalCfg.Server.Addr)
	merged.Server.URL = pick("server", "url")(projectCfg.Server.URL, globalCfg.Server.URL)
	merged.Log.Level = pick("log", "level")(projectCfg.Log.Level, globalCfg.Log.Level)
	merged.Log.Format = pick("log", "format")(projectCfg.Log.Format, globalCfg.Log.Format)
	if projectMeta.IsDefined("todo", "seed") {
		merged.Todo.Seed = append([]string(nil), projectCfg.Todo.Seed...)
	} else if globalMeta.IsDefined("todo", "seed") {
		merged.Todo.Seed = append([]string(nil), globalCfg.Todo.Seed...)
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFmt
	}
}

// Validate checks enumerated settings. Repository settings are parsed
// where they are used.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("storage.backend: unknown backend %q (want one of %s)", c.Storage.Backend, strings.Join(Backends, ", "))
	}
	if !slices.Contains([]string{"", "text", "json", "logfmt"}, c.Log.Format) {
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}
