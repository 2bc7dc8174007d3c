package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
)

var _ store.Store = (*Store)(nil)

const (
	geofencesKey   = "geofences"
	eventKeyPrefix = "event:"
)

// Store keeps the geofence set under a single key and events under
// zero-padded sequence keys, so a forward scan over the event prefix is
// chronological. The sequence counter is recovered from the highest
// existing key on open.
type Store struct {
	db  *badger.DB
	seq atomic.Uint64
}

func NewStore(db *badger.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSeq(); err != nil {
		return nil, fmt.Errorf("recover event sequence: %w", err)
	}
	return s, nil
}

func (s *Store) initSeq() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(eventSeekEnd())
		if it.ValidForPrefix([]byte(eventKeyPrefix)) {
			key := it.Item().Key()
			var seq uint64
			if _, err := fmt.Sscanf(string(key[len(eventKeyPrefix):]), "%016d", &seq); err == nil {
				s.seq.Store(seq)
			}
		}
		return nil
	})
}

func (s *Store) LoadGeofences(ctx context.Context) ([]domain.Geofence, error) {
	var fences []domain.Geofence
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(geofencesKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &fences); err != nil {
				return fmt.Errorf("decode geofence set: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return fences, nil
}

func (s *Store) SaveGeofences(ctx context.Context, fences []domain.Geofence) error {
	if fences == nil {
		fences = []domain.Geofence{}
	}
	doc, err := json.Marshal(fences)
	if err != nil {
		return fmt.Errorf("encode geofence set: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(geofencesKey), doc)
	})
}

func (s *Store) AppendEvent(ctx context.Context, event domain.GeofenceEvent) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	key := eventKey(s.seq.Add(1))
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, doc)
	})
}

func (s *Store) LoadRecentEvents(ctx context.Context, limit int) ([]domain.GeofenceEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	var events []domain.GeofenceEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(eventSeekEnd()); it.ValidForPrefix([]byte(eventKeyPrefix)) && len(events) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var event domain.GeofenceEvent
				if err := json.Unmarshal(val, &event); err != nil {
					return fmt.Errorf("decode event document: %w", err)
				}
				events = append(events, event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected newest first; callers want chronological order.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func eventKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", eventKeyPrefix, seq))
}

// eventSeekEnd is a key past every possible event key, used to start
// reverse iteration at the newest event.
func eventSeekEnd() []byte {
	return append([]byte(eventKeyPrefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
}
