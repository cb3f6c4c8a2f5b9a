package domain

import "strings"

// Repeat is the recurrence cadence of a task.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// Valid reports whether r is one of the known cadences.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Task represents a single board item.
type Task struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsCompleted bool   `json:"isCompleted"`
	Repeat      Repeat `json:"repeat"`
	SeriesID    string `json:"seriesId,omitempty"`
}

// Category represents a board row. Position determines render order;
// Collapsed is view state carried with the row.
type Category struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Color     Color  `json:"color"`
	Collapsed bool   `json:"collapsed"`
	Position  int    `json:"position"`
}

// Board is the aggregate of all categories and tasks. It is the unit of
// undo/redo snapshotting, so all methods treat it as an immutable value
// and return copies.
type Board struct {
	Categories []Category `json:"categories"`
	Tasks      []Task     `json:"tasks"`
}

// Clone returns a deep copy of the board. Tasks and categories are plain
// value types, so copying the slices is sufficient.
func (b Board) Clone() Board {
	out := Board{}
	if b.Categories != nil {
		out.Categories = make([]Category, len(b.Categories))
		copy(out.Categories, b.Categories)
	}
	if b.Tasks != nil {
		out.Tasks = make([]Task, len(b.Tasks))
		copy(out.Tasks, b.Tasks)
	}
	return out
}

// TaskByID returns the task with the given id, if present.
func (b Board) TaskByID(id string) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// CategoryByID returns the category with the given id, if present.
func (b Board) CategoryByID(id string) (Category, bool) {
	for _, c := range b.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ReplaceTask returns a board with the task of the same id swapped for t.
func (b Board) ReplaceTask(t Task) Board {
	out := b.Clone()
	for i := range out.Tasks {
		if out.Tasks[i].ID == t.ID {
			out.Tasks[i] = t
			break
		}
	}
	return out
}

// VisibleTasks returns the tasks whose category still exists. Tasks with a
// dangling category reference are hidden from views, never deleted.
func (b Board) VisibleTasks() []Task {
	known := make(map[string]struct{}, len(b.Categories))
	for _, c := range b.Categories {
		known[c.ID] = struct{}{}
	}
	out := make([]Task, 0, len(b.Tasks))
	for _, t := range b.Tasks {
		if _, ok := known[t.CategoryID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// OverdueCount counts incomplete tasks dated strictly before today. Date
// keys compare lexicographically in chronological order.
func (b Board) OverdueCount(todayKey string) int {
	n := 0
	for _, t := range b.Tasks {
		if !t.IsCompleted && t.Date < todayKey {
			n++
		}
	}
	return n
}

// SearchTasks returns tasks whose title contains the query,
// case-insensitively. An empty query matches nothing.
func (b Board) SearchTasks(query string) []Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	query = strings.ToLower(query)
	var out []Task
	for _, t := range b.Tasks {
		if strings.Contains(strings.ToLower(t.Title), query) {
			out = append(out, t)
		}
	}
	return out
}
