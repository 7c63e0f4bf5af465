package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultStorageKey     = "todoapp-tasks"
	DefaultTimeoutMS      = 2000
	appDirName            = "taskpad"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Filter  string `toml:"filter"`
	Clear   string `toml:"clear"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
}

type StorageConfig struct {
	Backend       string `toml:"backend"`
	Key           string `toml:"key"`
	DBPath        string `toml:"db_path"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix"`
	MaxValueBytes int    `toml:"max_value_bytes"`
	TimeoutMS     int    `toml:"timeout_ms"`
}

func (s StorageConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type DebugConfig struct {
	// Addr enables the inspection server when set, e.g. "127.0.0.1:6060".
	Addr string `toml:"addr"`
}

type Config struct {
	DefaultFilter string        `toml:"default_filter"`
	Storage       StorageConfig `toml:"storage"`
	Log           LogConfig     `toml:"log"`
	Debug         DebugConfig   `toml:"debug"`
	Keys          Keymap        `toml:"keys"`
}

// ResolveConfigPath returns $TASKPAD_CONFIG if set, otherwise config.toml in
// the user config directory, falling back to the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv("TASKPAD_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative storage paths resolve against the config
// file's directory.
func LoadOrCreate(path string) (Config, error) {
	baseDir := filepath.Dir(path)
	cfg := defaultConfig(baseDir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults(baseDir)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.DefaultFilter) {
	case "all", "active", "completed":
	default:
		return fmt.Errorf("default_filter must be all, active or completed, got %q", c.DefaultFilter)
	}
	switch c.Storage.Backend {
	case "sqlite", "file", "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.MaxValueBytes < 0 {
		return errors.New("storage.max_value_bytes must not be negative")
	}
	if c.Storage.TimeoutMS <= 0 {
		return errors.New("storage.timeout_ms must be positive")
	}
	return nil
}

func (c *Config) fillDefaults(baseDir string) {
	def := defaultConfig(baseDir)
	if c.DefaultFilter == "" {
		c.DefaultFilter = def.DefaultFilter
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = def.Storage.Key
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = def.Storage.DBPath
	} else if !filepath.IsAbs(c.Storage.DBPath) {
		c.Storage.DBPath = filepath.Join(baseDir, c.Storage.DBPath)
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	} else if !filepath.IsAbs(c.Storage.Dir) {
		c.Storage.Dir = filepath.Join(baseDir, c.Storage.Dir)
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = def.Storage.RedisPrefix
	}
	if c.Storage.TimeoutMS == 0 {
		c.Storage.TimeoutMS = def.Storage.TimeoutMS
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	c.Keys = c.Keys.withDefaults(def.Keys)
}

func (k Keymap) withDefaults(def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:    pick(k.Quit, def.Quit),
		Add:     pick(k.Add, def.Add),
		Up:      pick(k.Up, def.Up),
		Down:    pick(k.Down, def.Down),
		Toggle:  pick(k.Toggle, def.Toggle),
		Delete:  pick(k.Delete, def.Delete),
		Filter:  pick(k.Filter, def.Filter),
		Clear:   pick(k.Clear, def.Clear),
		Confirm: pick(k.Confirm, def.Confirm),
		Cancel:  pick(k.Cancel, def.Cancel),
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Default(baseDir string) Config {
	return defaultConfig(baseDir)
}

func defaultConfig(baseDir string) Config {
	return Config{
		DefaultFilter: "all",
		Storage: StorageConfig{
			Backend:     "sqlite",
			Key:         DefaultStorageKey,
			DBPath:      filepath.Join(baseDir, DefaultDBName),
			Dir:         filepath.Join(baseDir, "data"),
			RedisPrefix: "taskpad:",
			TimeoutMS:   DefaultTimeoutMS,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(baseDir, "taskpad.log"),
		},
		Keys: Keymap{
			Quit:    "q",
			Add:     "a",
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Delete:  "d",
			Filter:  "f",
			Clear:   "C",
			Confirm: "enter",
			Cancel:  "esc",
		},
	}
}
