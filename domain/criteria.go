package domain

import "strings"

// FilterAll disables a status or priority criterion.
const FilterAll = "all"

// Criteria holds the board's search and filter inputs. An empty or
// whitespace-only Query disables the text criterion; Status and Priority use
// FilterAll (or empty) to match everything.
type Criteria struct {
	Query    string
	Status   string
	Priority string
}

// Filter returns the tasks matching every active criterion, preserving the
// relative order of the input.
func Filter(tasks []Task, c Criteria) []Task {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !matches(t, query, c) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t Task, query string, c Criteria) bool {
	if query != "" && !matchesQuery(t, query) {
		return false
	}
	if c.Status != "" && c.Status != FilterAll && string(t.Status) != c.Status {
		return false
	}
	if c.Priority != "" && c.Priority != FilterAll && string(t.Priority) != c.Priority {
		return false
	}
	return true
}

func matchesQuery(t Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query) ||
		strings.Contains(string(t.Status), query) ||
		strings.Contains(string(t.Priority), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
