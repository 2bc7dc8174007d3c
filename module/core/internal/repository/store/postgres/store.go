package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
)

var _ store.Store = (*Store)(nil)

// Store persists geofences and events as JSON documents. Expected schema:
//
//	CREATE TABLE geofences (id TEXT PRIMARY KEY, doc JSONB NOT NULL);
//	CREATE TABLE geofence_events (
//	    id BIGSERIAL PRIMARY KEY,
//	    geofence_id TEXT NOT NULL,
//	    occurred_at BIGINT NOT NULL,
//	    doc JSONB NOT NULL
//	);
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadGeofences(ctx context.Context) ([]domain.Geofence, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM geofences ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fences []domain.Geofence
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var fence domain.Geofence
		if err := json.Unmarshal(doc, &fence); err != nil {
			return nil, fmt.Errorf("decode geofence document: %w", err)
		}
		fences = append(fences, fence)
	}
	return fences, rows.Err()
}

func (s *Store) SaveGeofences(ctx context.Context, fences []domain.Geofence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM geofences`); err != nil {
		return err
	}
	for _, fence := range fences {
		doc, err := json.Marshal(fence)
		if err != nil {
			return fmt.Errorf("encode geofence %s: %w", fence.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO geofences (id, doc) VALUES ($1, $2)`,
			fence.ID, doc,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) AppendEvent(ctx context.Context, event domain.GeofenceEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO geofence_events (geofence_id, occurred_at, doc) VALUES ($1, $2, $3)`,
		event.GeofenceID, event.Timestamp, doc,
	)
	return err
}

func (s *Store) LoadRecentEvents(ctx context.Context, limit int) ([]domain.GeofenceEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM geofence_events ORDER BY occurred_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []domain.GeofenceEvent
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var event domain.GeofenceEvent
		if err := json.Unmarshal(doc, &event); err != nil {
			return nil, fmt.Errorf("decode event document: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query walks newest to oldest; callers want chronological order.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
