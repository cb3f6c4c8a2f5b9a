package storage

import (
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"planflow-api/domain"
)

// Row shapes use the flattened persistence naming (snake_case, palette
// color by name). The wire names never leak past this package; taskToDomain
// and friends are the only crossing points.

type taskRow struct {
	aztables.Entity
	CategoryID  string `json:"category_id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	Repeat      string `json:"repeat"`
	SeriesID    string `json:"series_id,omitempty"`
}

type categoryRow struct {
	aztables.Entity
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
	Position  int    `json:"position"`
}

// taskRowPatch carries only the fields present in a partial update.
type taskRowPatch struct {
	aztables.Entity
	CategoryID  *string `json:"category_id,omitempty"`
	Date        *string `json:"date,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
	Repeat      *string `json:"repeat,omitempty"`
	SeriesID    *string `json:"series_id,omitempty"`
}

type categoryRowPatch struct {
	aztables.Entity
	Title     *string `json:"title,omitempty"`
	Color     *string `json:"color,omitempty"`
	Collapsed *bool   `json:"collapsed,omitempty"`
	Position  *int    `json:"position,omitempty"`
}

func taskToRow(userID string, t domain.Task) taskRow {
	return taskRow{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: t.ID},
		CategoryID:  t.CategoryID,
		Date:        t.Date,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		Repeat:      string(t.Repeat),
		SeriesID:    t.SeriesID,
	}
}

func taskToDomain(r taskRow) domain.Task {
	repeat := domain.Repeat(r.Repeat)
	if !repeat.Valid() {
		repeat = domain.RepeatNone
	}
	return domain.Task{
		ID:          r.RowKey,
		CategoryID:  r.CategoryID,
		Date:        r.Date,
		Title:       r.Title,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
		Repeat:      repeat,
		SeriesID:    r.SeriesID,
	}
}

func categoryToRow(userID string, c domain.Category) categoryRow {
	return categoryRow{
		Entity:    aztables.Entity{PartitionKey: userID, RowKey: c.ID},
		Title:     c.Title,
		Color:     c.Color.Name,
		Collapsed: c.Collapsed,
		Position:  c.Position,
	}
}

func categoryToDomain(r categoryRow) domain.Category {
	return domain.Category{
		ID:        r.RowKey,
		Title:     r.Title,
		Color:     domain.ColorByName(r.Color),
		Collapsed: r.Collapsed,
		Position:  r.Position,
	}
}

func taskPatchToRow(userID, id string, p domain.TaskPatch) taskRowPatch {
	row := taskRowPatch{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: id},
		CategoryID:  p.CategoryID,
		Date:        p.Date,
		Title:       p.Title,
		Description: p.Description,
		IsCompleted: p.IsCompleted,
	}
	if p.Repeat != nil {
		r := string(*p.Repeat)
		row.Repeat = &r
	}
	if p.SeriesID != nil {
		row.SeriesID = p.SeriesID
	}
	return row
}

func categoryPatchToRow(userID, id string, p domain.CategoryPatch) categoryRowPatch {
	row := categoryRowPatch{
		Entity:    aztables.Entity{PartitionKey: userID, RowKey: id},
		Title:     p.Title,
		Collapsed: p.Collapsed,
		Position:  p.Position,
	}
	if p.Color != nil {
		name := p.Color.Name
		row.Color = &name
	}
	return row
}
