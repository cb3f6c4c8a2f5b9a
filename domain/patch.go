package domain

// TaskPatch carries partial task fields for row-level updates at the
// persistence boundary. Nil fields are left untouched.
type TaskPatch struct {
	CategoryID  *string `json:"categoryId,omitempty"`
	Date        *string `json:"date,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
	Repeat      *Repeat `json:"repeat,omitempty"`
	SeriesID    *string `json:"seriesId,omitempty"`
}

// CategoryPatch carries partial category fields.
type CategoryPatch struct {
	Title     *string `json:"title,omitempty"`
	Color     *Color  `json:"color,omitempty"`
	Collapsed *bool   `json:"collapsed,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

// ApplyTo merges the patch onto t and returns the result.
func (p TaskPatch) ApplyTo(t Task) Task {
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.Repeat != nil {
		t.Repeat = *p.Repeat
	}
	if p.SeriesID != nil {
		t.SeriesID = *p.SeriesID
	}
	return t
}

// ApplyTo merges the patch onto c and returns the result.
func (p CategoryPatch) ApplyTo(c Category) Category {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Collapsed != nil {
		c.Collapsed = *p.Collapsed
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	return c
}

// PatchFromTasks computes the field-level patch turning before into after.
func PatchFromTasks(before, after Task) TaskPatch {
	var p TaskPatch
	if before.CategoryID != after.CategoryID {
		p.CategoryID = &after.CategoryID
	}
	if before.Date != after.Date {
		p.Date = &after.Date
	}
	if before.Title != after.Title {
		p.Title = &after.Title
	}
	if before.Description != after.Description {
		p.Description = &after.Description
	}
	if before.IsCompleted != after.IsCompleted {
		p.IsCompleted = &after.IsCompleted
	}
	if before.Repeat != after.Repeat {
		p.Repeat = &after.Repeat
	}
	if before.SeriesID != after.SeriesID {
		p.SeriesID = &after.SeriesID
	}
	return p
}

// PatchFromCategories computes the field-level patch turning before into after.
func PatchFromCategories(before, after Category) CategoryPatch {
	var p CategoryPatch
	if before.Title != after.Title {
		p.Title = &after.Title
	}
	if before.Color != after.Color {
		p.Color = &after.Color
	}
	if before.Collapsed != after.Collapsed {
		p.Collapsed = &after.Collapsed
	}
	if before.Position != after.Position {
		p.Position = &after.Position
	}
	return p
}
