package config

import "sync/atomic"

// Holder provides atomic access to the active Config and supports
// reloading it from the YAML file it was originally loaded from.
// A failed reload keeps the previous config in place.
type Holder struct {
	current  atomic.Pointer[Config]
	yamlPath string
}

// NewHolder wraps cfg for atomic access. yamlPath is re-read on Reload.
func NewHolder(cfg *Config, yamlPath string) *Holder {
	h := &Holder{yamlPath: yamlPath}
	h.current.Store(cfg)
	return h
}

// Get returns the active config. Callers must not mutate the result.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Reload re-runs the full load hierarchy (defaults < YAML < ENV) and
// swaps in the result. On error the active config is unchanged.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.yamlPath)
	if err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}
