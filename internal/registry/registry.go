// Package registry keeps the client-side view of all processing items. It
// reconciles optimistic inserts from uploads with list summaries and lazily
// fetched detail payloads.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// Registry is an in-memory keyed store of items. Entry order is not
// meaningful; presentation layers sort by CreatedAt as they see fit. All
// mutations go through Reload, SelectItem and RecordUpload.
type Registry struct {
	backend backend.Backend

	mu       sync.Mutex
	items    map[string]*models.Item
	selected string
	loading  bool
}

func New(b backend.Backend) *Registry {
	return &Registry{
		backend: b,
		items:   make(map[string]*models.Item),
		loading: true,
	}
}

// Reload fetches the full list and replaces the registry with fresh
// summaries, none of them detail-loaded. Concurrent calls are not
// coalesced; each runs its own fetch and the last replace wins. A failed
// reload leaves the previous entries in place.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	items, err := r.backend.GetAllItems(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	fresh := make(map[string]*models.Item, len(items))
	for _, summary := range items {
		fresh[summary.ID] = &models.Item{ProcessingItem: summary}
	}
	r.items = fresh
	return nil
}

// SelectItem toggles the selection. Selecting the currently selected id
// deselects it without any fetch. Newly selecting an id fetches details
// when the entry is stale: never loaded, or still in progress on the last
// look. The detail response is shallow-merged into the entry; a fetch
// failure reports the error and leaves the entry untouched.
//
// The returned item is a snapshot of the selected entry, nil when the call
// deselected.
func (r *Registry) SelectItem(ctx context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	if r.selected == id {
		r.selected = ""
		r.mu.Unlock()
		return nil, nil
	}

	item, ok := r.items[id]
	if !ok {
		// The selection stays where it was; an unknown id never becomes
		// the selected one.
		r.mu.Unlock()
		return nil, fmt.Errorf("unknown item %q", id)
	}
	r.selected = id
	stale := !item.DetailsLoaded || item.ProcessingStatus == models.StatusInProgress
	if !stale {
		snapshot := *item
		r.mu.Unlock()
		return &snapshot, nil
	}
	r.mu.Unlock()

	details, err := r.backend.GetItemDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load item details: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The entry may have been replaced by a reload while the fetch was in
	// flight; merge into whatever is present now, keyed by id.
	item, ok = r.items[id]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", id)
	}
	item.ApplyDetails(details)
	snapshot := *item
	return &snapshot, nil
}

// RecordUpload inserts a freshly uploaded item. Details are fetched lazily
// on first selection, so the entry starts out not detail-loaded.
func (r *Registry) RecordUpload(summary models.ProcessingItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[summary.ID] = &models.Item{ProcessingItem: summary}
}

// Get returns a snapshot of one entry.
func (r *Registry) Get(id string) (models.Item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return models.Item{}, false
	}
	return *item, true
}

// Items returns snapshots of all entries in no particular order.
func (r *Registry) Items() []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, *item)
	}
	return out
}

// Selected returns the currently selected id, if any.
func (r *Registry) Selected() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected, r.selected != ""
}

// Loading reports whether the initial or a subsequent reload is in flight.
func (r *Registry) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}
