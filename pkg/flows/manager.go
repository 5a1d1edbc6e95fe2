package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/codec"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a flow's distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Flow is a stored flow decoded into a graph.
type Flow struct {
	Record domain.FlowRecord
	Graph  *domain.Graph
}

// Manager orchestrates flow access, ensuring safe concurrent saves.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithHooks registers lifecycle hooks; OnSave fires after every save attempt.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(h)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces the time source used for UpdatedAt.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		m.now = fn
	}
}

// WithIDGenerator replaces the uuid generator used for new flow ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a flow Manager over the given store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Create stores g as a new flow at version 1.
func (m *Manager) Create(ctx context.Context, name, owner string, g *domain.Graph) (*domain.FlowRecord, error) {
	doc, err := codec.MarshalJSON(g)
	if err != nil {
		return nil, err
	}
	rec := &domain.FlowRecord{
		ID:        m.newID(),
		Name:      name,
		Owner:     owner,
		Version:   1,
		Document:  doc,
		UpdatedAt: m.now().UTC(),
	}

	start := m.now()
	err = m.WithLock(ctx, rec.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, rec)
	})
	m.emitSave(ctx, rec.ID, start, rec.Version, err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Load retrieves a flow and decodes its document.
func (m *Manager) Load(ctx context.Context, id string) (*Flow, error) {
	rec, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := codec.UnmarshalJSON(rec.Document)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", id, err)
	}
	return &Flow{Record: *rec, Graph: g}, nil
}

// Save replaces the flow's graph if the stored version still equals expected.
// On success the stored version becomes expected+1.
func (m *Manager) Save(ctx context.Context, id string, g *domain.Graph, expected uint64) (*domain.FlowRecord, error) {
	doc, err := codec.MarshalJSON(g)
	if err != nil {
		return nil, err
	}

	start := m.now()
	var saved *domain.FlowRecord
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		cur, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if cur.Version != expected {
			return fmt.Errorf("%w: flow %s is at version %d, save was based on %d",
				domain.ErrStaleVersion, id, cur.Version, expected)
		}
		cur.Version = expected + 1
		cur.Document = doc
		cur.UpdatedAt = m.now().UTC()
		if err := m.store.Save(ctx, cur); err != nil {
			return err
		}
		saved = cur
		return nil
	})

	var version uint64
	if saved != nil {
		version = saved.Version
	}
	m.emitSave(ctx, id, start, version, err)
	if err != nil {
		if errors.Is(err, domain.ErrStaleVersion) {
			m.logger.Info("rejected stale save", "flow_id", id, "expected", expected)
		}
		return nil, err
	}
	return saved, nil
}

// Rename changes a flow's display name without touching its version.
func (m *Manager) Rename(ctx context.Context, id, name string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		rec, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		rec.Name = name
		return m.store.Save(ctx, rec)
	})
}

// Delete removes the flow. It returns domain.ErrFlowNotFound for a missing id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, id); err != nil {
			return err
		}
		return m.store.Delete(ctx, id)
	})
}

// List returns every stored flow without its document, ordered by id.
func (m *Manager) List(ctx context.Context) ([]domain.FlowRecord, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FlowRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := m.store.Load(ctx, id)
		if errors.Is(err, domain.ErrFlowNotFound) {
			// Deleted or expired between List and Load.
			continue
		}
		if err != nil {
			return nil, err
		}
		rec.Document = nil
		out = append(out, *rec)
	}
	return out, nil
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// WithLock executes fn while holding the lock for the flow id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) emitSave(ctx context.Context, id string, start time.Time, version uint64, err error) {
	if m.hooks.OnSave == nil {
		return
	}
	m.hooks.OnSave(ctx, &domain.SaveEvent{
		EventBase: domain.EventBase{
			Timestamp: m.now(),
			Type:      domain.EventSave,
			FlowID:    id,
			Duration:  m.now().Sub(start),
		},
		Version: version,
		Err:     err,
	})
}
