package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"taskpad/internal/logging"
	"taskpad/internal/metrics"
	"taskpad/internal/storage"
	"taskpad/internal/task"
)

// ErrNotLoaded is reported for saves refused because the persisted list could
// not be read.
var ErrNotLoaded = errors.New("store: persisted tasks not loaded")

const (
	DefaultKey     = "todoapp-tasks"
	DefaultTimeout = 2 * time.Second
)

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

type SaveStatus struct {
	Unsaved   bool
	LastError error
	LastSaved time.Time
}

type Store struct {
	kv      storage.KV
	key     string
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	timeout time.Duration
	ids     *task.IDGenerator

	mu      sync.RWMutex
	tasks   []task.Task
	filter  Filter
	status  SaveStatus
	loaded  bool
	loadErr error
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithFilter sets the initial filter. Invalid values leave FilterAll.
func WithFilter(f Filter) Option {
	return func(s *Store) {
		if f.Valid() {
			s.filter = f
		}
	}
}

// New loads the persisted list. A failed load is logged; see Load.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultKey,
		logger:  logging.Discard(),
		now:     time.Now,
		timeout: DefaultTimeout,
		filter:  FilterAll,
		tasks:   []task.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = task.NewIDGenerator(s.now)
	_ = s.Load()
	return s
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

// Load replaces the in-memory list with the persisted one. A corrupt value
// leaves the list empty and lets the next save overwrite it. Any other read
// failure leaves the store unloaded: saves are refused with ErrNotLoaded
// until a later Load succeeds.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	tasks, err := s.read()
	s.metrics.Persistence("load", started, err)
	switch {
	case err == nil:
	case errors.Is(err, task.ErrCorruptBlob):
		s.logger.Error("stored tasks are corrupt, starting empty", "key", s.key, "err", err)
		tasks = []task.Task{}
	default:
		if !s.loaded {
			s.loadErr = err
		}
		s.logger.Error("load tasks failed", "key", s.key, "loaded", s.loaded, "err", err)
		return err
	}

	s.tasks = tasks
	s.loaded = true
	s.loadErr = nil
	s.status = SaveStatus{LastSaved: s.status.LastSaved}
	for _, t := range tasks {
		s.ids.Observe(t.ID)
	}
	s.logger.Info("tasks loaded", "key", s.key, "count", len(tasks))
	s.publishCounts()
	return err
}

func (s *Store) read() ([]task.Task, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []task.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	return task.DecodeBlob(data)
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	return s.persistLocked(s.write)
}

func (s *Store) persistLocked(write func() error) error {
	if !s.loaded {
		err := fmt.Errorf("%w: %w", ErrNotLoaded, s.loadErr)
		s.status.Unsaved = true
		s.status.LastError = err
		s.logger.Warn("save refused, stored tasks were never read", "key", s.key, "err", s.loadErr)
		return err
	}
	started := time.Now()
	err := write()
	s.metrics.Persistence("save", started, err)
	if err != nil {
		s.status.Unsaved = true
		s.status.LastError = err
		s.logger.Error("save tasks failed, changes kept in memory only", "key", s.key, "count", len(s.tasks), "err", err)
		return err
	}
	s.status = SaveStatus{LastSaved: s.now()}
	s.logger.Debug("tasks saved", "key", s.key, "count", len(s.tasks))
	return nil
}

func (s *Store) write() error {
	data, err := task.EncodeBlob(s.tasks)
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// remove drops the key, which reads back as an empty list.
func (s *Store) remove() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete %s: %w", s.key, err)
	}
	return nil
}

// AddTask prepends a task with the trimmed text. Blank text is rejected
// without touching the list or storage.
func (s *Store) AddTask(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		s.metrics.Operation("add", false)
		s.logger.Debug("rejected blank task")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := task.New(s.ids.Next(), text, s.now())
	s.tasks = append([]task.Task{t}, s.tasks...)
	s.logger.Info("task added", "id", t.ID)
	_ = s.saveLocked()

	s.metrics.Operation("add", true)
	s.metrics.TextLength(len(text))
	s.publishCounts()
	return true
}

func (s *Store) ToggleTask(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.metrics.Operation("toggle", false)
		s.logger.Warn("toggle: task not found", "id", id)
		return false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.logger.Info("task toggled", "id", id, "completed", s.tasks[i].Completed)
	_ = s.saveLocked()

	s.metrics.Operation("toggle", true)
	s.publishCounts()
	return true
}

func (s *Store) DeleteTask(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.metrics.Operation("delete", false)
		s.logger.Warn("delete: task not found", "id", id)
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.logger.Info("task deleted", "id", id)
	_ = s.saveLocked()

	s.metrics.Operation("delete", true)
	s.publishCounts()
	return true
}

// ClearAllTasks empties the list and removes the stored value.
func (s *Store) ClearAllTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	s.tasks = []task.Task{}
	s.logger.Info("tasks cleared", "count", n)
	_ = s.persistLocked(s.remove)

	s.metrics.Operation("clear", true)
	s.publishCounts()
}

func (s *Store) SetFilter(f Filter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, string(f))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	return nil
}

func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Store) FilteredTasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if s.filter.match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]task.Task(nil), s.tasks...)
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	st := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Active = st.Total - st.Completed
	return st
}

func (s *Store) SaveStatus() SaveStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publishCounts() {
	st := s.statsLocked()
	s.metrics.TaskCounts(st.Active, st.Completed)
}
