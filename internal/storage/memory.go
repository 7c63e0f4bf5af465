package storage

import (
	"context"
	"sync"
)

// Memory is an in-process backend. SetWriteError lets tests simulate a
// storage medium that refuses writes.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	limit    int
	writeErr error
	writes   int
}

func NewMemory(maxValueBytes int) *Memory {
	return &Memory{data: make(map[string][]byte), limit: maxValueBytes}
}

// SetWriteError makes every following Set and Delete fail with err. A nil err
// restores normal writes.
func (m *Memory) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes reports how many Set and Delete calls succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := checkQuota(m.limit, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.data, key)
	m.writes++
	return nil
}

func (m *Memory) Close() error { return nil }
