package store

import (
	"context"
	"sort"
	"sync"

	"github.com/walkgoal/apiserver/types"
)

// MemoryStore keeps users, entries and settings in process memory. Like a
// document store it has no cross-collection constraints; the only multi-record
// operation, the cascading user delete, runs under a single write lock.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]types.User
	entries  map[string]types.Entry
	settings map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]types.User),
		entries:  make(map[string]types.Entry),
		settings: make(map[string]string),
	}
}

func (m *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{m: m} }

func (m *MemoryStore) Entries() *MemoryEntryRepository { return &MemoryEntryRepository{m: m} }

func (m *MemoryStore) Settings() *MemorySettingsRepository { return &MemorySettingsRepository{m: m} }

type MemoryUserRepository struct{ m *MemoryStore }

func (r *MemoryUserRepository) List(ctx context.Context) ([]types.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	users := make([]types.User, 0, len(r.m.users))
	for _, user := range r.m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	user, ok := r.m.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, user := range r.m.users {
		if user.Name == name {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.users[user.ID]; ok {
		return types.User{}, ErrConflict
	}
	for _, existing := range r.m.users {
		if existing.Name == user.Name {
			return types.User{}, ErrConflict
		}
	}
	r.m.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) DeleteCascade(ctx context.Context, id string) (types.UserDeletion, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return types.UserDeletion{}, ErrNotFound
	}

	removed := 0
	for entryID, entry := range r.m.entries {
		if entry.UserName == user.Name {
			delete(r.m.entries, entryID)
			removed++
		}
	}
	delete(r.m.users, id)
	return types.UserDeletion{UserName: user.Name, EntriesRemoved: removed}, nil
}

type MemoryEntryRepository struct{ m *MemoryStore }

func (r *MemoryEntryRepository) List(ctx context.Context) ([]types.Entry, error) {
	return r.filter(func(types.Entry) bool { return true }), nil
}

func (r *MemoryEntryRepository) ListByUser(ctx context.Context, userName string) ([]types.Entry, error) {
	return r.filter(func(e types.Entry) bool { return e.UserName == userName }), nil
}

func (r *MemoryEntryRepository) ListByWeek(ctx context.Context, weekStartDate string) ([]types.Entry, error) {
	return r.filter(func(e types.Entry) bool { return e.WeekStartDate == weekStartDate }), nil
}

func (r *MemoryEntryRepository) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.entries[entry.ID]; ok {
		return types.Entry{}, ErrConflict
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	r.m.entries[entry.ID] = entry
	return entry, nil
}

func (r *MemoryEntryRepository) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.entries, id)
	return nil
}

// filter returns matching entries newest first, mirroring the SQL ordering.
func (r *MemoryEntryRepository) filter(keep func(types.Entry) bool) []types.Entry {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	entries := make([]types.Entry, 0)
	for _, entry := range r.m.entries {
		if keep(entry) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries
}

type MemorySettingsRepository struct{ m *MemoryStore }

func (r *MemorySettingsRepository) All(ctx context.Context) (map[string]string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make(map[string]string, len(r.m.settings))
	for k, v := range r.m.settings {
		out[k] = v
	}
	return out, nil
}

func (r *MemorySettingsRepository) Get(ctx context.Context, key string) (string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	value, ok := r.m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (r *MemorySettingsRepository) Set(ctx context.Context, key, value string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.settings[key] = value
	return nil
}

func (r *MemorySettingsRepository) SetDefault(ctx context.Context, key, value string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.settings[key]; !ok {
		r.m.settings[key] = value
	}
	return nil
}
