// internal/split/store.go
package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftKey identifies a draft: one edit session, one schedule.
type DraftKey struct {
	SessionID  string
	ScheduleID uint
}

func (k DraftKey) String() string {
	return fmt.Sprintf("splitdraft:%s:%d", k.SessionID, k.ScheduleID)
}

// DraftStore keeps drafts for the lifetime of an edit session.
type DraftStore interface {
	Get(ctx context.Context, key DraftKey) (*Draft, bool, error)
	Put(ctx context.Context, key DraftKey, d *Draft) error
	Delete(ctx context.Context, key DraftKey) error
}

/* ============================== Memory ============================== */

type memoryEntry struct {
	draft   Draft
	expires time.Time
}

// MemoryStore is a process-local DraftStore with expiry.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[DraftKey]memoryEntry
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[DraftKey]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key DraftKey) (*Draft, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.data, key)
		return nil, false, nil
	}
	d := copyDraft(e.draft)
	return &d, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key DraftKey, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = memoryEntry{draft: copyDraft(*d), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key DraftKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Purge drops expired drafts and returns how many were removed.
func (m *MemoryStore) Purge(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl <= 0 {
		return 0
	}
	now := m.now()
	n := 0
	for k, e := range m.data {
		if now.After(e.expires) {
			delete(m.data, k)
			n++
		}
	}
	return n
}

func copyDraft(d Draft) Draft {
	d.Rows = append([]Split(nil), d.Rows...)
	d.States = append([]RowState(nil), d.States...)
	if d.Backup != nil {
		b := *d.Backup
		d.Backup = &b
	}
	return d
}

/* ============================== Redis ============================== */

// RedisStore keeps drafts in Redis so several API instances share sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, key DraftKey) (*Draft, bool, error) {
	val, err := r.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	d, err := unmarshalDraft(val)
	if err != nil {
		return nil, false, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return d, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key DraftKey, d *Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key.String(), b, r.ttl).Err()
}

func unmarshalDraft(b []byte) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if len(d.States) != len(d.Rows) {
		return nil, fmt.Errorf("draft has %d states for %d rows", len(d.States), len(d.Rows))
	}
	return &d, nil
}

func (r *RedisStore) Delete(ctx context.Context, key DraftKey) error {
	return r.client.Del(ctx, key.String()).Err()
}

// Ping checks the connection at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
