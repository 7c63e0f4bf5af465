package store

import (
	"time"

	"taskpad/internal/task"
)

type Snapshot struct {
	Filter    Filter        `json:"filter"`
	Stats     Stats         `json:"stats"`
	Tasks     []task.Record `json:"tasks"`
	Unsaved   bool          `json:"unsaved"`
	LastError string        `json:"lastError,omitempty"`
	LastSaved *time.Time    `json:"lastSaved,omitempty"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Filter:  s.filter,
		Stats:   s.statsLocked(),
		Tasks:   task.Records(s.tasks),
		Unsaved: s.status.Unsaved,
	}
	if s.status.LastError != nil {
		snap.LastError = s.status.LastError.Error()
	}
	if !s.status.LastSaved.IsZero() {
		saved := s.status.LastSaved
		snap.LastSaved = &saved
	}
	return snap
}
