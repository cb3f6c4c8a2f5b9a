package board

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"planflow-api/domain"
)

var tracer = otel.Tracer("planflow-api/board")

// Persister is the row-level persistence collaborator behind the board.
type Persister interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error
	InsertCategories(ctx context.Context, userID string, cats []domain.Category) error
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) error
	UpdateCategory(ctx context.Context, userID, id string, patch domain.CategoryPatch) error
	DeleteTask(ctx context.Context, userID, id string) error
	DeleteCategory(ctx context.Context, userID, id string) error
	UpsertCategories(ctx context.Context, userID string, cats []domain.Category) error
}

// Publisher emits board events for downstream consumers. Publishing is
// best-effort and never rolls a mutation back.
type Publisher interface {
	PublishEvents(ctx context.Context, userID string, events []domain.Event) error
}

// Service owns the per-user board sessions and implements the mutation
// handlers: validate, apply optimistically through the undoable store,
// persist off-lock, compensate on failure.
type Service struct {
	store  Persister
	events Publisher
	pool   *persistPool
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a Service. events may be nil when no downstream
// consumers exist.
func NewService(store Persister, events Publisher, logger *log.Logger, cfg PoolConfig) *Service {
	if store == nil {
		panic("board.NewService: persister is required")
	}
	if logger == nil {
		panic("board.NewService: logger is required")
	}
	return &Service{
		store:    store,
		events:   events,
		pool:     newPersistPool(cfg, logger),
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Close stops the persistence workers.
func (s *Service) Close() { s.pool.close() }

// Session returns the user's live session, loading the board from the
// persistence store on first access.
func (s *Service) Session(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Service.Session")
	defer span.End()
	span.SetAttributes(attribute.String("board.user", userID))

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}
	sess := NewSession(userID, domain.Board{Categories: cats, Tasks: tasks}, s.now())
	s.sessions[userID] = sess
	return sess, nil
}

// commit applies a validated mutation through the session's undoable store
// and returns the entity diff it produced. Validation errors leave the
// store untouched.
func (s *Service) commit(sess *Session, apply func(domain.Board) (domain.Board, error)) (Diff, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	prev := sess.hist.Current()
	next, err := apply(prev)
	if err != nil {
		return Diff{}, err
	}
	sess.hist.Replace(next)
	return diffBoards(prev, next), nil
}

// persistAsync hands the diff to the worker pool. On failure the pool
// applies the compensating update and notifies the user; callers never see
// the error.
func (s *Service) persistAsync(sess *Session, d Diff, failure string) {
	s.persistAsyncWith(sess, d, failure, func(ctx context.Context) error {
		return s.persistDiff(ctx, sess.UserID, d)
	})
}

func (s *Service) persistAsyncWith(sess *Session, d Diff, failure string, run func(context.Context) error) {
	if d.Empty() {
		return
	}
	s.pool.dispatch(persistJob{
		sess:    sess,
		run:     run,
		diff:    d,
		failure: failure,
	})
}

// persistDiff maps an entity diff onto the row-level store operations:
// inserts before updates, deletes last, categories before the tasks that
// reference them.
func (s *Service) persistDiff(ctx context.Context, userID string, d Diff) error {
	if len(d.CategoriesCreated) > 0 {
		if err := s.store.InsertCategories(ctx, userID, d.CategoriesCreated); err != nil {
			return err
		}
	}
	if len(d.TasksCreated) > 0 {
		if err := s.store.InsertTasks(ctx, userID, d.TasksCreated); err != nil {
			return err
		}
	}
	for _, ch := range d.CategoriesChanged {
		if err := s.store.UpdateCategory(ctx, userID, ch.After.ID, domain.PatchFromCategories(ch.Before, ch.After)); err != nil {
			return err
		}
	}
	for _, ch := range d.TasksChanged {
		if err := s.store.UpdateTask(ctx, userID, ch.After.ID, domain.PatchFromTasks(ch.Before, ch.After)); err != nil {
			return err
		}
	}
	for _, t := range d.TasksDeleted {
		if err := s.store.DeleteTask(ctx, userID, t.ID); err != nil {
			return err
		}
	}
	for _, c := range d.CategoriesDeleted {
		if err := s.store.DeleteCategory(ctx, userID, c.ID); err != nil {
			return err
		}
	}
	s.publishDiff(ctx, userID, d)
	return nil
}

// AddTaskParams are the inputs for a single task creation. A non-empty
// NewCategoryTitle creates the category in the same undo step.
type AddTaskParams struct {
	Title            string
	Description      string
	Date             string
	CategoryID       string
	NewCategoryTitle string
}

// AddTask validates and creates one task, optionally with its category.
func (s *Service) AddTask(ctx context.Context, sess *Session, p AddTaskParams) (domain.Task, error) {
	_, span := tracer.Start(ctx, "Service.AddTask")
	defer span.End()

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return domain.Task{}, domain.ErrEmptyTitle
	}
	if !domain.ValidDateKey(p.Date) {
		return domain.Task{}, domain.ErrInvalidDate
	}

	var created domain.Task
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		out := b.Clone()
		categoryID := p.CategoryID
		if newTitle := strings.TrimSpace(p.NewCategoryTitle); newTitle != "" {
			cat := domain.Category{
				ID:       uuid.NewString(),
				Title:    newTitle,
				Color:    domain.RandomColor(),
				Position: len(out.Categories),
			}
			out.Categories = append(out.Categories, cat)
			categoryID = cat.ID
		} else if _, ok := out.CategoryByID(categoryID); !ok {
			return domain.Board{}, domain.ErrUnknownCategory
		}
		created = domain.Task{
			ID:         uuid.NewString(),
			CategoryID: categoryID,
			Date:       p.Date,
			Title:      title,
			Repeat:     domain.RepeatNone,
		}
		created.Description = p.Description
		out.Tasks = append(out.Tasks, created)
		return out, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.persistAsync(sess, d, "Could not save the new task")
	return created, nil
}

// AddTasksBatch pastes several titles into one category/date cell as a
// single undo step. Blank titles are dropped.
func (s *Service) AddTasksBatch(ctx context.Context, sess *Session, categoryID, date string, titles []string) ([]domain.Task, error) {
	_, span := tracer.Start(ctx, "Service.AddTasksBatch")
	defer span.End()

	cleaned := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, domain.ErrEmptyTitle
	}
	if !domain.ValidDateKey(date) {
		return nil, domain.ErrInvalidDate
	}

	var created []domain.Task
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		if _, ok := b.CategoryByID(categoryID); !ok {
			return domain.Board{}, domain.ErrUnknownCategory
		}
		out := b.Clone()
		created = created[:0]
		for _, title := range cleaned {
			t := domain.Task{
				ID:         uuid.NewString(),
				CategoryID: categoryID,
				Date:       date,
				Title:      title,
				Repeat:     domain.RepeatNone,
			}
			created = append(created, t)
			out.Tasks = append(out.Tasks, t)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	s.persistAsync(sess, d, "Could not save the pasted tasks")
	return created, nil
}

// UpdateTask applies an edit. When the edit touches a series and no scope
// was supplied it returns domain.ErrScopeRequired without mutating, so the
// caller can prompt for single versus future.
func (s *Service) UpdateTask(ctx context.Context, sess *Session, updated domain.Task, scope domain.UpdateScope) error {
	_, span := tracer.Start(ctx, "Service.UpdateTask")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", updated.ID), attribute.String("task.scope", string(scope)))

	if strings.TrimSpace(updated.Title) == "" {
		return domain.ErrEmptyTitle
	}
	if !domain.ValidDateKey(updated.Date) {
		return domain.ErrInvalidDate
	}
	if !updated.Repeat.Valid() {
		return domain.ErrInvalidRepeat
	}

	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		original, ok := b.TaskByID(updated.ID)
		if !ok {
			return domain.Board{}, domain.ErrTaskNotFound
		}
		if updated.CategoryID != original.CategoryID {
			if _, ok := b.CategoryByID(updated.CategoryID); !ok {
				return domain.Board{}, domain.ErrUnknownCategory
			}
		}
		if domain.NeedsScopeDecision(original, updated) && scope == domain.ScopeNone {
			return domain.Board{}, domain.ErrScopeRequired
		}
		return domain.ResolveUpdate(b, original, updated, scope)
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not save the task update")
	return nil
}

// MoveTask handles a drag: the task takes the drop cell's category and
// date directly, without the series scope flow.
func (s *Service) MoveTask(ctx context.Context, sess *Session, id, categoryID, date string) error {
	_, span := tracer.Start(ctx, "Service.MoveTask")
	defer span.End()

	if !domain.ValidDateKey(date) {
		return domain.ErrInvalidDate
	}
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		t, ok := b.TaskByID(id)
		if !ok {
			return domain.Board{}, domain.ErrTaskNotFound
		}
		if _, ok := b.CategoryByID(categoryID); !ok {
			return domain.Board{}, domain.ErrUnknownCategory
		}
		t.CategoryID = categoryID
		t.Date = date
		return b.ReplaceTask(t), nil
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not move the task")
	return nil
}

// ToggleComplete flips a task's completion state.
func (s *Service) ToggleComplete(ctx context.Context, sess *Session, id string) (domain.Task, error) {
	_, span := tracer.Start(ctx, "Service.ToggleComplete")
	defer span.End()

	var toggled domain.Task
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		t, ok := b.TaskByID(id)
		if !ok {
			return domain.Board{}, domain.ErrTaskNotFound
		}
		t.IsCompleted = !t.IsCompleted
		toggled = t
		return b.ReplaceTask(t), nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.persistAsync(sess, d, "Could not save the completion change")
	return toggled, nil
}

// DeleteTask removes a single task.
func (s *Service) DeleteTask(ctx context.Context, sess *Session, id string) error {
	_, span := tracer.Start(ctx, "Service.DeleteTask")
	defer span.End()

	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		if _, ok := b.TaskByID(id); !ok {
			return domain.Board{}, domain.ErrTaskNotFound
		}
		out := b.Clone()
		kept := out.Tasks[:0]
		for _, t := range out.Tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		out.Tasks = kept
		return out, nil
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not delete the task")
	return nil
}

// MoveOverdueToToday re-dates every incomplete task older than today onto
// today as one undo step. It returns the number of tasks moved.
func (s *Service) MoveOverdueToToday(ctx context.Context, sess *Session, today string) (int, error) {
	_, span := tracer.Start(ctx, "Service.MoveOverdueToToday")
	defer span.End()

	if !domain.ValidDateKey(today) {
		return 0, domain.ErrInvalidDate
	}

	moved := 0
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		out := b.Clone()
		moved = 0
		for i := range out.Tasks {
			t := out.Tasks[i]
			if !t.IsCompleted && t.Date < today {
				out.Tasks[i].Date = today
				moved++
			}
		}
		return out, nil
	})
	if err != nil {
		return 0, err
	}
	s.persistAsync(sess, d, "Could not move the overdue tasks")
	return moved, nil
}

// GenerateSeries expands a task into a recurring series.
func (s *Service) GenerateSeries(ctx context.Context, sess *Session, id string, cadence domain.Repeat) ([]domain.Task, error) {
	_, span := tracer.Start(ctx, "Service.GenerateSeries")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", id), attribute.String("task.cadence", string(cadence)))

	if !cadence.Valid() || cadence == domain.RepeatNone {
		return nil, domain.ErrInvalidRepeat
	}

	var siblings []domain.Task
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		t, ok := b.TaskByID(id)
		if !ok {
			return domain.Board{}, domain.ErrTaskNotFound
		}
		base, sibs, err := domain.GenerateSeries(t, cadence)
		if err != nil {
			return domain.Board{}, err
		}
		siblings = sibs
		out := b.ReplaceTask(base)
		out.Tasks = append(out.Tasks, sibs...)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	s.persistAsync(sess, d, "Could not save the recurring series")
	return siblings, nil
}

// AddCategory creates a category with a random palette color at the end
// of the board.
func (s *Service) AddCategory(ctx context.Context, sess *Session, title string) (domain.Category, error) {
	_, span := tracer.Start(ctx, "Service.AddCategory")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Category{}, domain.ErrEmptyTitle
	}

	var created domain.Category
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		out := b.Clone()
		created = domain.Category{
			ID:       uuid.NewString(),
			Title:    title,
			Color:    domain.RandomColor(),
			Position: len(out.Categories),
		}
		out.Categories = append(out.Categories, created)
		return out, nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	s.persistAsync(sess, d, "Could not save the new category")
	return created, nil
}

// UpdateCategory edits a category's title, color or collapsed state.
// Position is owned by ReorderCategories and preserved here.
func (s *Service) UpdateCategory(ctx context.Context, sess *Session, updated domain.Category) error {
	_, span := tracer.Start(ctx, "Service.UpdateCategory")
	defer span.End()

	if strings.TrimSpace(updated.Title) == "" {
		return domain.ErrEmptyTitle
	}

	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		existing, ok := b.CategoryByID(updated.ID)
		if !ok {
			return domain.Board{}, domain.ErrCategoryNotFound
		}
		updated.Position = existing.Position
		out := b.Clone()
		for i := range out.Categories {
			if out.Categories[i].ID == updated.ID {
				out.Categories[i] = updated
				break
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not save the category update")
	return nil
}

// ToggleCollapse flips a category's collapsed view state.
func (s *Service) ToggleCollapse(ctx context.Context, sess *Session, id string) error {
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		c, ok := b.CategoryByID(id)
		if !ok {
			return domain.Board{}, domain.ErrCategoryNotFound
		}
		out := b.Clone()
		for i := range out.Categories {
			if out.Categories[i].ID == id {
				out.Categories[i].Collapsed = !c.Collapsed
				break
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not save the collapse change")
	return nil
}

// DeleteCategory removes a category and every task referencing it in one
// undo step.
func (s *Service) DeleteCategory(ctx context.Context, sess *Session, id string) error {
	_, span := tracer.Start(ctx, "Service.DeleteCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", id))

	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		if _, ok := b.CategoryByID(id); !ok {
			return domain.Board{}, domain.ErrCategoryNotFound
		}
		out := b.Clone()
		cats := out.Categories[:0]
		for _, c := range out.Categories {
			if c.ID != id {
				cats = append(cats, c)
			}
		}
		out.Categories = cats
		tasks := out.Tasks[:0]
		for _, t := range out.Tasks {
			if t.CategoryID != id {
				tasks = append(tasks, t)
			}
		}
		out.Tasks = tasks
		return out, nil
	})
	if err != nil {
		return err
	}
	s.persistAsync(sess, d, "Could not delete the category")
	return nil
}

// ReorderCategories moves the category at from to index to and reassigns
// dense zero-based positions in one undo step. The bulk position rewrite
// persists through a single upsert.
func (s *Service) ReorderCategories(ctx context.Context, sess *Session, from, to int) error {
	_, span := tracer.Start(ctx, "Service.ReorderCategories")
	defer span.End()

	var reordered []domain.Category
	d, err := s.commit(sess, func(b domain.Board) (domain.Board, error) {
		n := len(b.Categories)
		if from < 0 || from >= n || to < 0 || to >= n {
			return domain.Board{}, domain.ErrCategoryNotFound
		}
		out := b.Clone()
		moved := out.Categories[from]
		out.Categories = append(out.Categories[:from], out.Categories[from+1:]...)
		out.Categories = append(out.Categories[:to], append([]domain.Category{moved}, out.Categories[to:]...)...)
		for i := range out.Categories {
			out.Categories[i].Position = i
		}
		reordered = append([]domain.Category(nil), out.Categories...)
		return out, nil
	})
	if err != nil {
		return err
	}
	s.persistAsyncWith(sess, d, "Could not save the category order", func(ctx context.Context) error {
		if err := s.store.UpsertCategories(ctx, sess.UserID, reordered); err != nil {
			return err
		}
		s.publishDiff(ctx, sess.UserID, d)
		return nil
	})
	return nil
}

// Undo steps the board back one edit and persists the resulting diff. It
// reports false when there was nothing to undo.
func (s *Service) Undo(ctx context.Context, sess *Session) (domain.Board, bool) {
	_, span := tracer.Start(ctx, "Service.Undo")
	defer span.End()
	return s.timeTravel(sess, true)
}

// Redo re-applies the most recently undone edit and persists the diff.
func (s *Service) Redo(ctx context.Context, sess *Session) (domain.Board, bool) {
	_, span := tracer.Start(ctx, "Service.Redo")
	defer span.End()
	return s.timeTravel(sess, false)
}

func (s *Service) timeTravel(sess *Session, back bool) (domain.Board, bool) {
	sess.mu.Lock()
	prev := sess.hist.Current()
	var moved bool
	if back {
		moved = sess.hist.Undo()
	} else {
		moved = sess.hist.Redo()
	}
	next := sess.hist.Current()
	sess.mu.Unlock()
	if !moved {
		return next, false
	}

	failure := "Could not sync the undo"
	if !back {
		failure = "Could not sync the redo"
	}
	s.persistAsync(sess, diffBoards(prev, next), failure)
	return next, true
}
