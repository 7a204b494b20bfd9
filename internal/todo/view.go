package todo

import (
	"fmt"
	"strings"
)

// Filter selects which tasks a view shows.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterDone Filter = "done"
	FilterOpen Filter = "open"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterDone, FilterOpen}

// ParseFilter parses a filter name. An empty name means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterDone:
		return FilterDone, nil
	case FilterOpen:
		return FilterOpen, nil
	default:
		return "", &ValidationError{
			Field: "filter",
			Err:   fmt.Errorf("invalid filter %q, must be one of: all, done, open", s),
		}
	}
}

// Next returns the filter after f, wrapping around.
func (f Filter) Next() Filter {
	for i, cur := range Filters {
		if cur == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Match reports whether t belongs in a view filtered by f.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterDone:
		return t.Done
	case FilterOpen:
		return !t.Done
	default:
		return true
	}
}

// View returns the tasks matching f in their original order. The result is
// a new slice; tasks is not modified.
func View(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
