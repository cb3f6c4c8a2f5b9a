package board

import "planflow-api/domain"

// Diff captures the entity-level changes between two board values. It
// drives both the persistence calls for a mutation and the targeted
// rollback applied when persistence fails.
type Diff struct {
	TasksCreated      []domain.Task
	TasksDeleted      []domain.Task
	TasksChanged      []taskChange
	CategoriesCreated []domain.Category
	CategoriesDeleted []domain.Category
	CategoriesChanged []categoryChange
}

type taskChange struct {
	Before domain.Task
	After  domain.Task
}

type categoryChange struct {
	Before domain.Category
	After  domain.Category
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.TasksCreated) == 0 && len(d.TasksDeleted) == 0 && len(d.TasksChanged) == 0 &&
		len(d.CategoriesCreated) == 0 && len(d.CategoriesDeleted) == 0 && len(d.CategoriesChanged) == 0
}

// diffBoards compares prev and next by entity id.
func diffBoards(prev, next domain.Board) Diff {
	var d Diff

	prevTasks := make(map[string]domain.Task, len(prev.Tasks))
	for _, t := range prev.Tasks {
		prevTasks[t.ID] = t
	}
	nextTasks := make(map[string]domain.Task, len(next.Tasks))
	for _, t := range next.Tasks {
		nextTasks[t.ID] = t
		before, ok := prevTasks[t.ID]
		if !ok {
			d.TasksCreated = append(d.TasksCreated, t)
		} else if before != t {
			d.TasksChanged = append(d.TasksChanged, taskChange{Before: before, After: t})
		}
	}
	for _, t := range prev.Tasks {
		if _, ok := nextTasks[t.ID]; !ok {
			d.TasksDeleted = append(d.TasksDeleted, t)
		}
	}

	prevCats := make(map[string]domain.Category, len(prev.Categories))
	for _, c := range prev.Categories {
		prevCats[c.ID] = c
	}
	nextCats := make(map[string]domain.Category, len(next.Categories))
	for _, c := range next.Categories {
		nextCats[c.ID] = c
		before, ok := prevCats[c.ID]
		if !ok {
			d.CategoriesCreated = append(d.CategoriesCreated, c)
		} else if before != c {
			d.CategoriesChanged = append(d.CategoriesChanged, categoryChange{Before: before, After: c})
		}
	}
	for _, c := range prev.Categories {
		if _, ok := nextCats[c.ID]; !ok {
			d.CategoriesDeleted = append(d.CategoriesDeleted, c)
		}
	}

	return d
}

// revert produces the compensating update for this diff: created entities
// are removed, deleted entities reinstated, changed entities restored to
// their pre-change value. It only touches the slice of state this diff
// covers, so a later overlapping edit is not clobbered wholesale; where
// both touched the same entity the compensation wins (last write wins).
func (d Diff) revert(cur domain.Board) domain.Board {
	out := cur.Clone()

	if len(d.TasksCreated) > 0 || len(d.TasksDeleted) > 0 || len(d.TasksChanged) > 0 {
		created := make(map[string]struct{}, len(d.TasksCreated))
		for _, t := range d.TasksCreated {
			created[t.ID] = struct{}{}
		}
		restored := make(map[string]domain.Task, len(d.TasksChanged))
		for _, ch := range d.TasksChanged {
			restored[ch.Before.ID] = ch.Before
		}

		tasks := out.Tasks[:0]
		present := make(map[string]struct{}, len(out.Tasks))
		for _, t := range out.Tasks {
			if _, ok := created[t.ID]; ok {
				continue
			}
			if before, ok := restored[t.ID]; ok {
				t = before
			}
			present[t.ID] = struct{}{}
			tasks = append(tasks, t)
		}
		for _, t := range d.TasksDeleted {
			if _, ok := present[t.ID]; !ok {
				tasks = append(tasks, t)
			}
		}
		out.Tasks = tasks
	}

	if len(d.CategoriesCreated) > 0 || len(d.CategoriesDeleted) > 0 || len(d.CategoriesChanged) > 0 {
		created := make(map[string]struct{}, len(d.CategoriesCreated))
		for _, c := range d.CategoriesCreated {
			created[c.ID] = struct{}{}
		}
		restored := make(map[string]domain.Category, len(d.CategoriesChanged))
		for _, ch := range d.CategoriesChanged {
			restored[ch.Before.ID] = ch.Before
		}

		cats := out.Categories[:0]
		present := make(map[string]struct{}, len(out.Categories))
		for _, c := range out.Categories {
			if _, ok := created[c.ID]; ok {
				continue
			}
			if before, ok := restored[c.ID]; ok {
				c = before
			}
			present[c.ID] = struct{}{}
			cats = append(cats, c)
		}
		for _, c := range d.CategoriesDeleted {
			if _, ok := present[c.ID]; !ok {
				cats = append(cats, c)
			}
		}
		out.Categories = cats
	}

	return out
}
