package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrMalformedRecord is returned when a persisted record cannot become a Task.
var ErrMalformedRecord = errors.New("malformed task record")

type Task struct {
	ID        int64
	Text      string
	Completed bool
	CreatedAt time.Time
}

type Record struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

func New(id int64, text string, createdAt time.Time) Task {
	return Task{
		ID:        id,
		Text:      text,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

func (t Task) Record() Record {
	return Record{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(TimeLayout),
	}
}

// FromRecord deserializes r. Missing or invalid fields are reported as
// ErrMalformedRecord.
func FromRecord(r Record) (Task, error) {
	if r.ID == 0 {
		return Task{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if strings.TrimSpace(r.Text) == "" {
		return Task{}, fmt.Errorf("%w: task %d has empty text", ErrMalformedRecord, r.ID)
	}
	created, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("%w: task %d createdAt: %v", ErrMalformedRecord, r.ID, err)
	}
	return Task{
		ID:        r.ID,
		Text:      r.Text,
		Completed: r.Completed,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}, nil
}

func Records(tasks []Task) []Record {
	out := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Record())
	}
	return out
}
