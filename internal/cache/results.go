// Package cache holds generated haiku for the lifetime of the process.
package cache

import (
	"errors"
	"sync"

	"github.com/eldtechnologies/haikunft/internal/models"
)

var (
	// ErrAlreadyGenerated is returned by Claim when content exists for the token.
	ErrAlreadyGenerated = errors.New("content already generated")
	// ErrInProgress is returned by Claim when another request is generating for the token.
	ErrInProgress = errors.New("generation already in progress")
)

// Results maps token ids to the content generated for them. Entries are
// write-once and never evicted; the map starts empty on every process start.
type Results struct {
	mu      sync.Mutex
	items   map[models.TokenID]models.Content
	pending map[models.TokenID]struct{}
}

// NewResults creates an empty cache.
func NewResults() *Results {
	return &Results{
		items:   make(map[models.TokenID]models.Content),
		pending: make(map[models.TokenID]struct{}),
	}
}

// Get returns the content stored for id.
func (r *Results) Get(id models.TokenID) (models.Content, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.items[id]
	if !ok {
		return nil, false
	}
	return append(models.Content(nil), content...), true
}

// Put stores content for id unless an entry already exists.
// It reports whether the content was stored.
func (r *Results) Put(id models.TokenID, content models.Content) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; ok {
		return false
	}
	r.items[id] = append(models.Content(nil), content...)
	return true
}

// Delete removes the entry for id. Only used to roll back a tentative Put.
func (r *Results) Delete(id models.TokenID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// Claim marks id as being generated. It fails when content already exists or
// another claim is outstanding, so at most one generation runs per token.
// Every successful Claim must be followed by Release.
func (r *Results) Claim(id models.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; ok {
		return ErrAlreadyGenerated
	}
	if _, ok := r.pending[id]; ok {
		return ErrInProgress
	}
	r.pending[id] = struct{}{}
	return nil
}

// Release clears the in-flight marker set by Claim.
func (r *Results) Release(id models.TokenID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// Len returns the number of cached tokens.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
