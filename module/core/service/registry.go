package service

import (
	"context"
	"log"
	"sync"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
)

// Registry owns the set of monitored geofences. The in-memory set is
// authoritative for the running session: every mutation snapshots the
// set and hands it to the store on a goroutine, so a slow or broken
// store never delays a caller and a failed write only costs durability.
//
// Iteration order is insertion order. Re-adding an existing id replaces
// the definition in place, keeping its position, so event batches stay
// deterministic across replacements.
type Registry struct {
	store store.Store

	mu    sync.RWMutex
	order []string
	byID  map[string]domain.Geofence
}

// NewRegistry builds a registry and loads the persisted set. A load
// failure is logged and the registry starts empty.
func NewRegistry(st store.Store) *Registry {
	r := &Registry{store: st, byID: make(map[string]domain.Geofence)}
	r.Reload()
	return r
}

// Reload replaces the in-memory set with the stored snapshot. On error
// the current set is kept untouched.
func (r *Registry) Reload() {
	fences, err := r.store.LoadGeofences(context.Background())
	if err != nil {
		log.Printf("geofence registry: load failed: %v", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = r.order[:0]
	r.byID = make(map[string]domain.Geofence, len(fences))
	for _, f := range fences {
		if _, ok := r.byID[f.ID]; !ok {
			r.order = append(r.order, f.ID)
		}
		r.byID[f.ID] = f
	}
}

// Add inserts or replaces the definition for fence.ID and persists the
// new set asynchronously.
func (r *Registry) Add(fence domain.Geofence) {
	r.mu.Lock()
	if _, ok := r.byID[fence.ID]; !ok {
		r.order = append(r.order, fence.ID)
	}
	r.byID[fence.ID] = fence
	snapshot := r.listLocked()
	r.mu.Unlock()

	r.persistAsync(snapshot)
}

// Remove deletes the definition for id. It reports whether the id was
// present; removing an unknown id changes nothing and is not persisted.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	snapshot := r.listLocked()
	r.mu.Unlock()

	r.persistAsync(snapshot)
	return true
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (domain.Geofence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fence, ok := r.byID[id]
	return fence, ok
}

// List returns a copy of the set in insertion order.
func (r *Registry) List() []domain.Geofence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []domain.Geofence {
	fences := make([]domain.Geofence, 0, len(r.order))
	for _, id := range r.order {
		fences = append(fences, r.byID[id])
	}
	return fences
}

func (r *Registry) persistAsync(snapshot []domain.Geofence) {
	go func() {
		if err := r.store.SaveGeofences(context.Background(), snapshot); err != nil {
			log.Printf("geofence registry: persist failed: %v", err)
		}
	}()
}
