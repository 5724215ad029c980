package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walkgoal/apiserver/internal/logging"
	"github.com/walkgoal/apiserver/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Wednesday.
var fixedNow = time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.msgs = append(p.msgs, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.attrs["type"])
	}
	return out
}

type fixture struct {
	store    *store.MemoryStore
	pub      *fakePublisher
	users    *UserService
	settings *SettingsService
	entries  *EntryService
	progress *ProgressService
}

func newFixture(t *testing.T, opts EntryOptions) *fixture {
	t.Helper()

	mem := store.NewMemoryStore()
	pub := &fakePublisher{}
	events := NewEvents(pub, "walkgoal-events", logging.Discard())

	settings := NewSettingsService(mem.Settings())
	settings.cost = bcrypt.MinCost

	users := NewUserService(mem.Users(), events)

	opts.Events = events
	opts.Logger = logging.Discard()
	entries := NewEntryService(mem.Entries(), users, settings, opts)
	entries.now = func() time.Time { return fixedNow }

	prog := NewProgressService(mem.Entries(), settings, time.UTC, nil)
	prog.now = func() time.Time { return fixedNow }

	return &fixture{
		store:    mem,
		pub:      pub,
		users:    users,
		settings: settings,
		entries:  entries,
		progress: prog,
	}
}

func (f *fixture) addUsers(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.users.Add(context.Background(), name)
		require.NoError(t, err)
	}
}

var errBoom = errors.New("boom")
