package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"dcatool/internal/logger"
)

// presetSchema guards the preset file before decoding: a typo'd percent
// or a string lot size should fail loudly at load time, not surface as a
// zero watermark mid-replay.
const presetSchema = `{
	"type": "object",
	"required": ["lot_size_usd"],
	"properties": {
		"lot_size_usd":         {"type": "number", "exclusiveMinimum": 0},
		"max_positions":        {"type": "integer", "minimum": 0},
		"mode":                 {"type": "string"},
		"entry_activation_pct": {"type": "number", "minimum": 0, "exclusiveMaximum": 1},
		"entry_pullback_pct":   {"type": "number", "minimum": 0, "exclusiveMaximum": 1},
		"exit_activation_pct":  {"type": "number", "minimum": 0, "exclusiveMaximum": 1},
		"exit_pullback_pct":    {"type": "number", "minimum": 0, "exclusiveMaximum": 1}
	}
}`

type fileConfig struct {
	Presets map[string]map[string]any `mapstructure:"presets"`
}

// Snapshot is one immutable view of the preset set.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Presets  map[string]Strategy
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

// Registry manages named strategy presets from a watched YAML file.
type Registry struct {
	path   string
	v      *viper.Viper
	schema *jsonschema.Schema

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry reads the preset file and watches it for updates. A broken
// rewrite of the file keeps the previous snapshot in place.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("preset registry requires a path")
	}
	schema, err := jsonschema.CompileString("preset.json", presetSchema)
	if err != nil {
		return nil, fmt.Errorf("compiling preset schema failed: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading preset file failed: %w", err)
	}
	r := &Registry{path: path, v: v, schema: schema}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("preset reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current preset set.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Preset returns a named preset.
func (r *Registry) Preset(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshot.Presets[strings.TrimSpace(name)]
	return s, ok
}

// Names lists preset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.snapshot.Presets))
	for name := range r.snapshot.Presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OnChange registers a reload listener.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	if err := r.v.ReadInConfig(); err != nil {
		return fmt.Errorf("re-reading preset file failed: %w", err)
	}
	var fc fileConfig
	if err := r.v.Unmarshal(&fc, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return fmt.Errorf("parsing preset file failed: %w", err)
	}
	presets := make(map[string]Strategy, len(fc.Presets))
	for name, raw := range fc.Presets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := r.validateRaw(raw); err != nil {
			return fmt.Errorf("preset %q rejected by schema: %w", name, err)
		}
		var s Strategy
		if err := mapstructure.WeakDecode(raw, &s); err != nil {
			return fmt.Errorf("preset %q decode failed: %w", name, err)
		}
		norm, err := s.Normalized()
		if err != nil {
			return fmt.Errorf("preset %q invalid: %w", name, err)
		}
		presets[name] = norm
	}
	if len(presets) == 0 {
		return fmt.Errorf("preset file %s defines no presets", r.path)
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Presets:  presets,
	}
	r.mu.Unlock()
	logger.Infof("loaded %d strategy presets from %s", len(presets), r.path)
	return nil
}

// validateRaw round-trips the preset through YAML-to-JSON so the schema
// sees plain JSON types.
func (r *Registry) validateRaw(raw map[string]any) error {
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	var norm any
	if err := yaml.NewDecoder(bytes.NewReader(buf)).Decode(&norm); err != nil {
		return err
	}
	jsonBuf, err := json.Marshal(norm)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(jsonBuf, &doc); err != nil {
		return err
	}
	return r.schema.Validate(doc)
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	listeners := append([]ChangeListener(nil), r.listeners...)
	snap := cloneSnapshot(r.snapshot)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := Snapshot{Version: s.Version, LoadedAt: s.LoadedAt, Presets: make(map[string]Strategy, len(s.Presets))}
	for k, v := range s.Presets {
		out.Presets[k] = v
	}
	return out
}
