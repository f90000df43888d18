package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Registry is a concurrency-safe in-memory template source. Registering an
// existing id replaces the template for sessions started afterwards only.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds or replaces a template.
func (r *Registry) Register(t *Template) error {
	if t == nil || t.ID() == "" {
		return &domain.DefinitionError{Ref: "id", Reason: "required"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID()] = t
	return nil
}

// FindTemplateByID implements ports.TemplateSource.
func (r *Registry) FindTemplateByID(ctx context.Context, id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return t, nil
}

// IDs returns registered template ids in deterministic order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadFile parses, builds, and registers a template document from disk.
func (r *Registry) LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		// Fall back to the file name, as graph directories do for node ids.
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	t, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", doc.ID, err)
	}
	if err := r.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadDir loads every *.json, *.yaml, and *.yml document in a directory.
// It returns the number of templates registered.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read template dir: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		if _, err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
