package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads and validates the topology file at path.
func Load(path string) (*Topology, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var topo Topology
	if err := v.Unmarshal(&topo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&topo)

	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology %s: %w", path, err)
	}
	return &topo, nil
}

// Watcher re-parses path every time it changes on disk and hands the
// fresh Topology to onChange, mirroring the teacher's propagation step
// but applied at runtime instead of once at boot. Parse or validation
// failures are reported through onChange's error rather than crashing the
// watch loop, so one bad edit doesn't kill the running harness. viper
// doesn't expose a way to stop an fsnotify watch once started; it runs
// for the life of the process, which is fine for a CLI that watches its
// own config for its own lifetime.
type Watcher struct {
	v *viper.Viper
}

// Watch starts watching path for changes and returns a Watcher.
func Watch(path string, onChange func(*Topology, error)) (*Watcher, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	v.OnConfigChange(func(fsnotify.Event) {
		var topo Topology
		if err := v.Unmarshal(&topo); err != nil {
			onChange(nil, fmt.Errorf("failed to unmarshal config: %w", err))
			return
		}
		applyDefaults(&topo)
		if err := topo.Validate(); err != nil {
			onChange(nil, fmt.Errorf("invalid topology %s: %w", path, err))
			return
		}
		onChange(&topo, nil)
	})
	v.WatchConfig()

	return &Watcher{v: v}, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	v.SetConfigName(name)
	v.SetConfigType(strings.TrimPrefix(ext, "."))
	v.AddConfigPath(dir)

	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	return v
}

func applyDefaults(topo *Topology) {
	if topo.Logger.Level == "" {
		topo.Logger.Level = "info"
	}
}
