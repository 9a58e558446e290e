// Package config loads the storage backend's runtime settings from a
// spf13/viper instance: YAML-typed, with a three-tier search path and
// environment variable binding, reloaded live via viper's fsnotify-backed
// WatchConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "SNTR"

// Config is the resolved runtime configuration (§6).
type Config struct {
	DBPath        string
	EnableWAL     bool
	BusyTimeoutMs int
	LogFile       string
}

// Loader wraps a viper instance and supports live reload. Get() returns a
// cached snapshot refreshed on each file change rather than reading viper
// directly, since viper's Get* methods are not safe to call concurrently
// with a reload triggered by WatchConfig.
type Loader struct {
	mu       sync.RWMutex
	v        *viper.Viper
	snapshot Config
}

// Load locates and reads config.yaml along the search path:
//  1. project `.sessiontree/config.yaml`, found by walking up from CWD
//  2. `$XDG_CONFIG_HOME/sessiontree/config.yaml`
//  3. `~/.sessiontree/config.yaml`
//
// Environment variables are bound under the SNTR_ prefix (e.g.
// SNTR_DBPATH, SNTR_ENABLEWAL, SNTR_BUSYTIMEOUTMS) and take precedence
// over the file. If no config file is found, defaults and env vars apply.
func Load() (*Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("config")

	if path := findProjectConfig(); path != "" {
		v.SetConfigFile(path)
	} else if path := xdgConfigPath(); path != "" {
		v.SetConfigFile(path)
	} else if path := homeConfigPath(); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dbpath", defaultDBPath())
	v.SetDefault("enablewal", true)
	v.SetDefault("busytimeoutms", 5000)
	v.SetDefault("logfile", "")

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}

	l := &Loader{v: v}
	l.refresh()
	v.OnConfigChange(func(fsnotify.Event) { l.refresh() })
	v.WatchConfig()
	return l, nil
}

func (l *Loader) refresh() {
	snap := Config{
		DBPath:        l.v.GetString("dbpath"),
		EnableWAL:     l.v.GetBool("enablewal"),
		BusyTimeoutMs: l.v.GetInt("busytimeoutms"),
		LogFile:       l.v.GetString("logfile"),
	}
	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()
}

// Get returns the currently effective configuration, safe to call
// concurrently with a reload triggered by WatchConfig.
func (l *Loader) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		path := filepath.Join(dir, ".sessiontree", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func xdgConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path := filepath.Join(xdg, "sessiontree", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".sessiontree", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessiontree.db"
	}
	return filepath.Join(home, ".sessiontree", "sessiontree.db")
}
