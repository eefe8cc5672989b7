package autosplit

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// ModuleSource is a module as read from disk.
type ModuleSource struct {
	Path string
	Code []byte
}

// Name returns the module file name.
func (s ModuleSource) Name() string {
	return filepath.Base(s.Path)
}

// Digest returns a stable content hash used as program cache key.
func (s ModuleSource) Digest() string {
	sum := sha256.Sum256(s.Code)
	return hex.EncodeToString(sum[:])
}

// LoadRequest is everything an engine needs to instantiate a module.
type LoadRequest struct {
	Source       ModuleSource
	Capabilities *CapabilityRegistry
	// Cache is optional.
	Cache ProgramCache
}

// Engine loads modules of one language into an isolated instance. The
// instance may only reach the host through the request's capabilities.
type Engine interface {
	Name() string
	Load(exec *Execution, req LoadRequest) (Instance, error)
}

// Instance is a loaded module.
type Instance interface {
	// Has reports whether the module defines entry.
	Has(entry EntryPoint) bool
	// Call runs entry within exec's limits. Calling an entry the module does
	// not define is a no-op.
	Call(exec *Execution, entry EntryPoint) error
	Close() error
}

// ProgramCache stores compiled module programs keyed by engine and source
// digest so reloading an unchanged module skips compilation.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by engines that compile.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *runtimeConfig) {
		cfg.programCache = cache
	}
}

func defaultEngines() map[string]Engine {
	rules := NewRulesEngine()
	return map[string]Engine{
		".js":   NewJSEngine(),
		".lua":  NewLuaEngine(),
		".yaml": rules,
		".yml":  rules,
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func engineFor(engines map[string]Engine, path string) (Engine, bool) {
	engine, ok := engines[normalizeExt(filepath.Ext(path))]
	return engine, ok && engine != nil
}

func cacheKey(engine string, source ModuleSource) string {
	return engine + ":" + source.Digest()
}
