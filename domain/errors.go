package domain

import "errors"

var (
	// ErrEmptyTitle rejects task creation with a blank title.
	ErrEmptyTitle = errors.New("task title is empty")
	// ErrUnknownCategory rejects mutations naming a category the board does not hold.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrTaskNotFound is returned when a mutation names a missing task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrCategoryNotFound is returned when a mutation names a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidDate rejects date values not in canonical YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date key")
	// ErrInvalidRepeat rejects unknown recurrence cadences.
	ErrInvalidRepeat = errors.New("invalid repeat cadence")
	// ErrScopeRequired signals that an edit touches a series and the caller
	// must decide between single and future scope before it can be applied.
	ErrScopeRequired = errors.New("series update requires a scope decision")
)
