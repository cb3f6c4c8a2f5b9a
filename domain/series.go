package domain

import "github.com/google/uuid"

// SeriesLength is the number of future instances generated for a
// recurring task.
const SeriesLength = 12

// UpdateScope is the caller's decision on how far a series edit reaches.
type UpdateScope string

const (
	// ScopeNone means no decision was supplied.
	ScopeNone UpdateScope = ""
	// ScopeSingle applies an edit to one task and detaches it from its series.
	ScopeSingle UpdateScope = "single"
	// ScopeFuture propagates an edit to the edited task and all later siblings.
	ScopeFuture UpdateScope = "future"
)

// GenerateSeries expands base into a recurring series. It returns the base
// task with its repeat and series fields set, plus exactly SeriesLength
// sibling tasks at cadence offsets 1..SeriesLength from the base date.
// Siblings copy title, description and category from the base and start
// incomplete. A none cadence is a no-op.
//
// Calling this twice for the same logical edit produces a second batch of
// siblings; it never merges with an existing series.
func GenerateSeries(base Task, cadence Repeat) (Task, []Task, error) {
	if cadence == RepeatNone {
		return base, nil, nil
	}
	if !cadence.Valid() {
		return Task{}, nil, ErrInvalidRepeat
	}
	if !ValidDateKey(base.Date) {
		return Task{}, nil, ErrInvalidDate
	}

	seriesID := base.SeriesID
	if seriesID == "" {
		seriesID = uuid.NewString()
	}
	base.SeriesID = seriesID
	base.Repeat = cadence

	siblings := make([]Task, 0, SeriesLength)
	for i := 1; i <= SeriesLength; i++ {
		var date string
		var err error
		switch cadence {
		case RepeatDaily:
			date, err = AddDaysKey(base.Date, i)
		case RepeatWeekly:
			date, err = AddDaysKey(base.Date, i*7)
		case RepeatMonthly:
			date, err = AddMonthsKey(base.Date, i)
		}
		if err != nil {
			return Task{}, nil, err
		}
		siblings = append(siblings, Task{
			ID:          uuid.NewString(),
			CategoryID:  base.CategoryID,
			Date:        date,
			Title:       base.Title,
			Description: base.Description,
			IsCompleted: false,
			Repeat:      cadence,
			SeriesID:    seriesID,
		})
	}
	return base, siblings, nil
}

// NeedsScopeDecision reports whether applying updated over original
// requires the caller to choose between single and future scope: the task
// belongs to a series and a tracked field changed.
func NeedsScopeDecision(original, updated Task) bool {
	inSeries := original.SeriesID != "" || original.Repeat != RepeatNone
	if !inSeries {
		return false
	}
	return original.Title != updated.Title ||
		original.Description != updated.Description ||
		original.Date != updated.Date ||
		original.Repeat != updated.Repeat ||
		original.CategoryID != updated.CategoryID
}

// ResolveUpdate applies updated over original on the board, honoring the
// series propagation policy. When the edit touches a series and scope is
// ScopeNone, it returns ErrScopeRequired so the caller can prompt.
//
// Future-scope edits never touch siblings dated strictly before the
// original task's date. A date shift that reorders siblings within the
// series leaves them unsorted; series membership does not imply ordering.
func ResolveUpdate(b Board, original, updated Task, scope UpdateScope) (Board, error) {
	if !NeedsScopeDecision(original, updated) {
		return b.ReplaceTask(updated), nil
	}

	switch scope {
	case ScopeSingle:
		updated.SeriesID = ""
		return b.ReplaceTask(updated), nil
	case ScopeFuture:
		if updated.Repeat != original.Repeat {
			return resolveCadenceChange(b, original, updated)
		}
		return resolveSeriesShift(b, original, updated)
	case ScopeNone:
		return Board{}, ErrScopeRequired
	default:
		return Board{}, ErrScopeRequired
	}
}

// resolveCadenceChange truncates the series after the original's date and,
// when the new cadence is not none, regenerates a fresh run of siblings
// from the updated task.
func resolveCadenceChange(b Board, original, updated Task) (Board, error) {
	out := b.Clone()
	kept := out.Tasks[:0]
	for _, t := range out.Tasks {
		if t.SeriesID != "" && t.SeriesID == original.SeriesID && t.ID != original.ID && t.Date > original.Date {
			continue
		}
		kept = append(kept, t)
	}
	out.Tasks = kept

	if updated.Repeat == RepeatNone {
		updated.SeriesID = ""
		return out.ReplaceTask(updated), nil
	}

	base, siblings, err := GenerateSeries(updated, updated.Repeat)
	if err != nil {
		return Board{}, err
	}
	out = out.ReplaceTask(base)
	out.Tasks = append(out.Tasks, siblings...)
	return out, nil
}

// resolveSeriesShift moves the edited task and every sibling dated on or
// after the original date by the same day offset, copying the edited
// content onto the shifted siblings.
func resolveSeriesShift(b Board, original, updated Task) (Board, error) {
	offset := 0
	if original.Date != updated.Date {
		var err error
		offset, err = DayOffset(original.Date, updated.Date)
		if err != nil {
			return Board{}, err
		}
	}

	out := b.Clone()
	for i, t := range out.Tasks {
		if t.ID == original.ID {
			out.Tasks[i] = updated
			continue
		}
		if t.SeriesID == "" || t.SeriesID != original.SeriesID || t.Date < original.Date {
			continue
		}
		if offset != 0 {
			shifted, err := AddDaysKey(t.Date, offset)
			if err != nil {
				return Board{}, err
			}
			t.Date = shifted
		}
		t.Title = updated.Title
		t.Description = updated.Description
		t.CategoryID = updated.CategoryID
		t.Repeat = updated.Repeat
		out.Tasks[i] = t
	}
	return out, nil
}
