package httphandler

import (
	"sync"

	"github.com/ericfisherdev/reviewanchor/internal/application"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// Compile-time interface satisfaction check.
var _ application.ChangeSink = (*ChangeBuffer)(nil)

// ChangeBuffer collects redraw sets published by reconciliation passes until
// the front-end drains them over the changes endpoint. Duplicate coordinates
// from successive passes collapse so the drained set stays minimal.
type ChangeBuffer struct {
	mu      sync.Mutex
	pending map[string][]model.LineChange
	seen    map[string]map[model.LineChange]struct{}
}

// NewChangeBuffer creates an empty buffer.
func NewChangeBuffer() *ChangeBuffer {
	return &ChangeBuffer{
		pending: make(map[string][]model.LineChange),
		seen:    make(map[string]map[model.LineChange]struct{}),
	}
}

// Publish appends a change set for a file, preserving arrival order and
// dropping coordinates already pending for it.
func (b *ChangeBuffer) Publish(path string, changes []model.LineChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.seen[path]
	if set == nil {
		set = make(map[model.LineChange]struct{})
		b.seen[path] = set
	}

	for _, c := range changes {
		if _, dup := set[c]; dup {
			continue
		}
		set[c] = struct{}{}
		b.pending[path] = append(b.pending[path], c)
	}
}

// Drain returns and clears the pending change set for a file. The result is
// never nil.
func (b *ChangeBuffer) Drain(path string) []model.LineChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	changes := b.pending[path]
	delete(b.pending, path)
	delete(b.seen, path)

	if changes == nil {
		return []model.LineChange{}
	}
	return changes
}
