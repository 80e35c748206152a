package model

import (
	"fmt"
	"strings"
)

// GoalFilter selects goals by completion state.
type GoalFilter string

const (
	// FilterAll keeps every goal.
	FilterAll GoalFilter = "all"
	// FilterOngoing keeps goals that have not reached their target.
	FilterOngoing GoalFilter = "ongoing"
	// FilterCompleted keeps goals that reached their target.
	FilterCompleted GoalFilter = "completed"
)

// ParseGoalFilter converts a user-supplied name into a GoalFilter.
func ParseGoalFilter(s string) (GoalFilter, error) {
	switch GoalFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterOngoing:
		return FilterOngoing, nil
	case FilterCompleted:
		return FilterCompleted, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, ongoing or completed)", s)
	}
}

// EmptyMessage is shown when the filter matches nothing.
func (f GoalFilter) EmptyMessage() string {
	switch f {
	case FilterOngoing:
		return "No ongoing goals"
	case FilterCompleted:
		return "No completed goals"
	default:
		return "No goals yet"
	}
}

// FilterGoals applies f to goals. When a state filter matches nothing, ok is
// false and the caller is expected to keep showing its current list.
func FilterGoals(goals []Goal, f GoalFilter) (filtered []Goal, ok bool) {
	if f == FilterAll || f == "" {
		return goals, true
	}

	for _, g := range goals {
		switch f {
		case FilterOngoing:
			if !g.IsCompleted() {
				filtered = append(filtered, g)
			}
		case FilterCompleted:
			if g.IsCompleted() {
				filtered = append(filtered, g)
			}
		}
	}

	return filtered, len(filtered) > 0
}

// SearchGoals returns goals whose title contains query, ignoring case.
func SearchGoals(goals []Goal, query string) []Goal {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return goals
	}

	matches := make([]Goal, 0, len(goals))
	for _, g := range goals {
		if strings.Contains(strings.ToLower(g.Title), query) {
			matches = append(matches, g)
		}
	}
	return matches
}
