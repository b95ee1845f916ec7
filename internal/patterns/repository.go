package patterns

import (
	"context"
	"sort"
	"sync"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Repository is the read surface of the externally persisted pattern
// library. Implementations must return active patterns in ascending priority
// order; matching relies on it.
type Repository interface {
	FindActiveByCategory(ctx context.Context, category invoice.PatternCategory) ([]invoice.ExtractionPattern, error)
	Count(ctx context.Context) (int, error)
}

// MemoryRepository is an in-memory Repository used for tests and for running
// without the external persistence collaborator. Writes notify the
// registered invalidation hooks, standing in for the persistence layer's
// patterns-changed signal.
type MemoryRepository struct {
	mu       sync.RWMutex
	patterns map[string]invoice.ExtractionPattern
	hooks    []func()
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patterns: make(map[string]invoice.ExtractionPattern)}
}

// NewDefaultRepository creates a repository seeded with the built-in invoice
// pattern library.
func NewDefaultRepository() *MemoryRepository {
	repo := NewMemoryRepository()
	for _, p := range DefaultPatterns() {
		repo.patterns[p.ID] = p
	}
	return repo
}

// FindActiveByCategory implements Repository.
func (r *MemoryRepository) FindActiveByCategory(ctx context.Context, category invoice.PatternCategory) ([]invoice.ExtractionPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []invoice.ExtractionPattern
	for _, p := range r.patterns {
		if p.Category == category && p.IsActive {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority < matched[j].Priority })
	return matched, nil
}

// Count implements Repository.
func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns), nil
}

// Save inserts or replaces a pattern and fires the invalidation hooks.
func (r *MemoryRepository) Save(p invoice.ExtractionPattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.CaptureGroup == 0 {
		p.CaptureGroup = 1
	}
	r.mu.Lock()
	r.patterns[p.ID] = p
	r.mu.Unlock()
	r.notify()
	return nil
}

// Delete removes a pattern and fires the invalidation hooks.
func (r *MemoryRepository) Delete(id string) {
	r.mu.Lock()
	delete(r.patterns, id)
	r.mu.Unlock()
	r.notify()
}

// OnChange registers a hook called after every pattern write.
func (r *MemoryRepository) OnChange(hook func()) {
	r.mu.Lock()
	r.hooks = append(r.hooks, hook)
	r.mu.Unlock()
}

func (r *MemoryRepository) notify() {
	r.mu.RLock()
	hooks := make([]func(), len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()
	for _, hook := range hooks {
		hook()
	}
}
