package receipts

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Feature registers the operations slice the first time a surface activates
// it. Each surface owns its own Feature value.
type Feature struct {
	reg    store.Registrar
	logger *slog.Logger

	mu       sync.Mutex
	injected bool
	hooks    []func()
}

// NewFeature returns an inactive feature bound to reg.
func NewFeature(reg store.Registrar, logger *slog.Logger) *Feature {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feature{reg: reg, logger: logger}
}

// OnActivate adds a hook that runs once, right after the slice is registered.
func (f *Feature) OnActivate(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fn)
}

// Activate registers the slice unless this surface already did.
func (f *Feature) Activate() error {
	f.mu.Lock()
	if f.injected {
		f.mu.Unlock()
		return nil
	}
	if err := f.reg.RegisterModule(ModuleKey, Slice); err != nil {
		f.mu.Unlock()
		return err
	}
	f.injected = true
	hooks := append([]func(){}, f.hooks...)
	f.mu.Unlock()

	f.logger.Info("Goods-receipt feature activated", logfields.ModuleKey(string(ModuleKey)))
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Active reports whether Activate succeeded on this surface.
func (f *Feature) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.injected
}
