package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds named strategy definitions
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
	logger      *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		definitions: make(map[string]*Definition),
		logger:      l,
	}
}

// NewRegistryWithPresets creates a registry seeded with the built-in strategies
func NewRegistryWithPresets(logger ...*zap.Logger) *Registry {
	r := NewRegistry(logger...)
	for _, d := range Presets() {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a definition under its name
func (r *Registry) Register(d *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[d.Name]; exists {
		r.logger.Info("replacing strategy definition", zap.String("strategy", d.Name))
	}
	r.definitions[d.Name] = d
}

// Get retrieves a definition by name
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.definitions[name]
	return d, ok
}

// List returns all definitions sorted by name
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Definition, 0, len(r.definitions))
	for _, d := range r.definitions {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// LoadDir registers every .json, .yaml and .yml document in dir. Invalid documents
// are logged and skipped. Returns the number of definitions loaded.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading strategies dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, e.Name())
		d, err := LoadFile(path)
		if err != nil {
			r.logger.Warn("skipping strategy document",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		r.Register(d)
		loaded++
	}

	r.logger.Debug("loaded strategy documents", zap.String("dir", dir), zap.Int("count", loaded))
	return loaded, nil
}
