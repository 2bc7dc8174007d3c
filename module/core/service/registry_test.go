package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

type mockStore struct {
	loadGeofencesFn    func(ctx context.Context) ([]domain.Geofence, error)
	saveGeofencesFn    func(ctx context.Context, fences []domain.Geofence) error
	appendEventFn      func(ctx context.Context, event domain.GeofenceEvent) error
	loadRecentEventsFn func(ctx context.Context, limit int) ([]domain.GeofenceEvent, error)
}

func (m *mockStore) LoadGeofences(ctx context.Context) ([]domain.Geofence, error) {
	if m.loadGeofencesFn != nil {
		return m.loadGeofencesFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) SaveGeofences(ctx context.Context, fences []domain.Geofence) error {
	if m.saveGeofencesFn != nil {
		return m.saveGeofencesFn(ctx, fences)
	}
	return nil
}

func (m *mockStore) AppendEvent(ctx context.Context, event domain.GeofenceEvent) error {
	if m.appendEventFn != nil {
		return m.appendEventFn(ctx, event)
	}
	return nil
}

func (m *mockStore) LoadRecentEvents(ctx context.Context, limit int) ([]domain.GeofenceEvent, error) {
	if m.loadRecentEventsFn != nil {
		return m.loadRecentEventsFn(ctx, limit)
	}
	return nil, nil
}

func TestNewRegistry_LoadsStoredSet(t *testing.T) {
	st := &mockStore{loadGeofencesFn: func(context.Context) ([]domain.Geofence, error) {
		return []domain.Geofence{
			circleFence("a", 1, 1, 100),
			circleFence("b", 2, 2, 100),
		}, nil
	}}

	r := NewRegistry(st)

	fences := r.List()
	if len(fences) != 2 {
		t.Fatalf("expected 2 geofences, got %d", len(fences))
	}
	if fences[0].ID != "a" || fences[1].ID != "b" {
		t.Errorf("order changed: %s, %s", fences[0].ID, fences[1].ID)
	}
}

func TestNewRegistry_LoadFailureStartsEmpty(t *testing.T) {
	st := &mockStore{loadGeofencesFn: func(context.Context) ([]domain.Geofence, error) {
		return nil, errors.New("store down")
	}}

	r := NewRegistry(st)

	if len(r.List()) != 0 {
		t.Fatal("expected an empty registry after a failed load")
	}
}

func TestAdd_PersistsSnapshotAsync(t *testing.T) {
	saved := make(chan []domain.Geofence, 1)
	st := &mockStore{saveGeofencesFn: func(_ context.Context, fences []domain.Geofence) error {
		saved <- fences
		return nil
	}}

	r := NewRegistry(st)
	r.Add(circleFence("a", 1, 1, 100))

	select {
	case snapshot := <-saved:
		if len(snapshot) != 1 || snapshot[0].ID != "a" {
			t.Fatalf("unexpected snapshot: %+v", snapshot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an async persist after add")
	}
}

func TestAdd_ReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry(&mockStore{})
	r.Add(circleFence("a", 1, 1, 100))
	r.Add(circleFence("b", 2, 2, 100))

	replacement := circleFence("a", 1, 1, 100)
	replacement.Name = "renamed"
	r.Add(replacement)

	fences := r.List()
	if len(fences) != 2 {
		t.Fatalf("expected 2 geofences, got %d", len(fences))
	}
	if fences[0].ID != "a" || fences[1].ID != "b" {
		t.Errorf("replacement moved position: %s, %s", fences[0].ID, fences[1].ID)
	}
	if fences[0].Name != "renamed" {
		t.Errorf("replacement not applied, name is %q", fences[0].Name)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry(&mockStore{})
	r.Add(circleFence("a", 1, 1, 100))
	r.Add(circleFence("b", 2, 2, 100))

	if !r.Remove("a") {
		t.Fatal("expected true for a registered id")
	}
	if r.Remove("a") {
		t.Fatal("expected false for an already removed id")
	}
	if r.Remove("ghost") {
		t.Fatal("expected false for an unknown id")
	}

	fences := r.List()
	if len(fences) != 1 || fences[0].ID != "b" {
		t.Fatalf("unexpected set after remove: %+v", fences)
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(&mockStore{})
	r.Add(circleFence("a", 1, 1, 100))

	fence, ok := r.Get("a")
	if !ok || fence.ID != "a" {
		t.Fatalf("expected to find a, got %+v ok=%v", fence, ok)
	}
	if _, ok := r.Get("ghost"); ok {
		t.Fatal("expected false for an unknown id")
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	r := NewRegistry(&mockStore{})
	r.Add(circleFence("a", 1, 1, 100))

	fences := r.List()
	fences[0].ID = "mutated"

	if fence, _ := r.Get("a"); fence.ID != "a" {
		t.Fatal("mutating the returned slice must not affect the registry")
	}
}

func TestReload_ReplacesSet(t *testing.T) {
	stored := []domain.Geofence{circleFence("a", 1, 1, 100)}
	st := &mockStore{loadGeofencesFn: func(context.Context) ([]domain.Geofence, error) {
		return stored, nil
	}}

	r := NewRegistry(st)
	if len(r.List()) != 1 {
		t.Fatal("expected the stored fence after construction")
	}

	stored = []domain.Geofence{circleFence("b", 2, 2, 100), circleFence("c", 3, 3, 100)}
	r.Reload()

	fences := r.List()
	if len(fences) != 2 || fences[0].ID != "b" || fences[1].ID != "c" {
		t.Fatalf("expected the reloaded set, got %+v", fences)
	}
}

func TestReload_FailureKeepsCurrentSet(t *testing.T) {
	fail := false
	st := &mockStore{loadGeofencesFn: func(context.Context) ([]domain.Geofence, error) {
		if fail {
			return nil, errors.New("store down")
		}
		return []domain.Geofence{circleFence("a", 1, 1, 100)}, nil
	}}

	r := NewRegistry(st)
	fail = true
	r.Reload()

	if len(r.List()) != 1 {
		t.Fatal("a failed reload must keep the current set")
	}
}
