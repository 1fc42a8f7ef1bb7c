// Package memory is an in-process store for development and tests. It keeps
// the same uniqueness and cascade rules as the SQL schema.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/parcel-notify/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	apartments    map[domain.ApartmentKey]domain.Apartment
	members       map[domain.ApartmentKey]map[string]time.Time
	notifications []domain.NotificationRecord
	nextID        int64
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		apartments: map[domain.ApartmentKey]domain.Apartment{},
		members:    map[domain.ApartmentKey]map[string]time.Time{},
		now:        time.Now,
	}
}

func (s *Store) ListApartments(_ context.Context) ([]domain.Apartment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Apartment, 0, len(s.apartments))
	for _, a := range s.apartments {
		if a.DisplayName == "" {
			a.DisplayName = string(a.Key)
		}
		out = append(out, a)
	}
	domain.SortApartments(out)
	return out, nil
}

func (s *Store) CountApartments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apartments), nil
}

func (s *Store) ApartmentExists(_ context.Context, key domain.ApartmentKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apartments[key]
	return ok, nil
}

func (s *Store) UpsertApartment(_ context.Context, apt domain.Apartment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apartments[apt.Key]; ok {
		return false, nil
	}
	s.apartments[apt.Key] = apt
	return true, nil
}

// DeleteApartment removes the apartment, its bindings, and the apartment
// reference on its ledger rows.
func (s *Store) DeleteApartment(_ context.Context, key domain.ApartmentKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apartments[key]; !ok {
		return false, nil
	}
	delete(s.apartments, key)
	delete(s.members, key)
	for i := range s.notifications {
		if k := s.notifications[i].ApartmentKey; k != nil && *k == key {
			s.notifications[i].ApartmentKey = nil
		}
	}
	return true, nil
}

func (s *Store) BindApartmentToUser(_ context.Context, key domain.ApartmentKey, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apartments[key]; !ok {
		return false, nil
	}
	if s.members[key] == nil {
		s.members[key] = map[string]time.Time{}
	}
	if _, ok := s.members[key][userID]; !ok {
		s.members[key][userID] = s.now().UTC()
	}
	return true, nil
}

func (s *Store) GetUserIDsByApartment(_ context.Context, key domain.ApartmentKey) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.members[key]))
	for uid := range s.members[key] {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids, nil
}

// Bindings returns every binding, for tests and the CLI.
func (s *Store) Bindings() []domain.Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Binding
	for key, users := range s.members {
		for uid, at := range users {
			out = append(out, domain.Binding{ApartmentKey: key, RecipientID: uid, BoundAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApartmentKey != out[j].ApartmentKey {
			return out[i].ApartmentKey < out[j].ApartmentKey
		}
		return out[i].RecipientID < out[j].RecipientID
	})
	return out
}

func (s *Store) AddNotification(_ context.Context, rec *domain.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = strconv.FormatInt(s.nextID, 10)
	if rec.SentAt.IsZero() {
		rec.SentAt = s.now().UTC()
	}
	s.notifications = append(s.notifications, *rec)
	return nil
}

// Notifications returns a copy of the ledger in insertion order.
func (s *Store) Notifications() []domain.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NotificationRecord, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) ListNotificationsBefore(_ context.Context, cutoff time.Time) ([]domain.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.NotificationRecord
	for _, n := range s.notifications {
		if n.SentAt.Before(cutoff) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) PurgeNotificationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	var deleted int64
	for _, n := range s.notifications {
		if n.SentAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return deleted, nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
