package store

import (
	"errors"
	"fmt"
	"strings"

	"taskpad/internal/task"
)

// ErrInvalidFilter is returned for filter values outside the enumeration.
var ErrInvalidFilter = errors.New("invalid filter")

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var filterCycle = []Filter{FilterAll, FilterActive, FilterCompleted}

func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, name)
	}
	return f, nil
}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// Next returns the filter after f in the order all, active, completed.
func (f Filter) Next() Filter {
	for i, c := range filterCycle {
		if c == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return FilterAll
}

func (f Filter) match(t task.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}
