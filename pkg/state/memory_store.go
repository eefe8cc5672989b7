package state

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps profiles in process memory, for tests and hosts that
// persist elsewhere. Each Save bumps the profile's revision; a missing ETag
// or UpdatedAt is filled in from the snapshot and the store clock.
type MemoryStore struct {
	now func() time.Time

	mu       sync.RWMutex
	profiles map[string]*memoryProfile
}

type memoryProfile struct {
	values   Snapshot
	meta     Meta
	revision int
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock sets the clock used to stamp Meta.UpdatedAt.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{now: time.Now, profiles: map[string]*memoryProfile{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context, ref Ref) (Snapshot, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, false, err
	}
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[key]
	if !ok {
		return nil, Meta{}, false, nil
	}
	return maps.Clone(profile.values), copyMeta(profile.meta), true, nil
}

func (s *MemoryStore) Save(ctx context.Context, ref Ref, snapshot Snapshot, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	values := maps.Clone(snapshot)
	if values == nil {
		values = Snapshot{}
	}
	stored := copyMeta(meta)
	if stored.ETag == "" {
		stored.ETag = values.ETag()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.profiles[key]
	if profile == nil {
		profile = &memoryProfile{}
		s.profiles[key] = profile
	}
	profile.values = values
	profile.meta = stored
	profile.revision++
	return copyMeta(stored), nil
}

// Revision reports how many times ref was saved.
func (s *MemoryStore) Revision(ref Ref) int {
	key, err := ref.Identifier()
	if err != nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if profile, ok := s.profiles[key]; ok {
		return profile.revision
	}
	return 0
}

func copyMeta(meta Meta) Meta {
	meta.Extra = maps.Clone(meta.Extra)
	return meta
}
