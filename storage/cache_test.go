package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"planflow-api/domain"
)

// stubBackend counts calls and serves canned data.
type stubBackend struct {
	tasks []domain.Task
	cats  []domain.Category

	listTaskCalls int
	listCatCalls  int
	published     int
}

func (s *stubBackend) ListTasks(context.Context, string) ([]domain.Task, error) {
	s.listTaskCalls++
	return s.tasks, nil
}

func (s *stubBackend) ListCategories(context.Context, string) ([]domain.Category, error) {
	s.listCatCalls++
	return s.cats, nil
}

func (s *stubBackend) InsertTasks(_ context.Context, _ string, tasks []domain.Task) error {
	s.tasks = append(s.tasks, tasks...)
	return nil
}

func (s *stubBackend) InsertCategories(_ context.Context, _ string, cats []domain.Category) error {
	s.cats = append(s.cats, cats...)
	return nil
}

func (s *stubBackend) UpdateTask(context.Context, string, string, domain.TaskPatch) error { return nil }

func (s *stubBackend) UpdateCategory(context.Context, string, string, domain.CategoryPatch) error {
	return nil
}

func (s *stubBackend) DeleteTask(context.Context, string, string) error     { return nil }
func (s *stubBackend) DeleteCategory(context.Context, string, string) error { return nil }

func (s *stubBackend) UpsertCategories(_ context.Context, _ string, cats []domain.Category) error {
	s.cats = cats
	return nil
}

func (s *stubBackend) PublishEvents(_ context.Context, _ string, events []domain.Event) error {
	s.published += len(events)
	return nil
}

func newTestCache(t *testing.T, base backend) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(base, client, time.Minute), mr
}

func TestCacheServesSecondListFromRedis(t *testing.T) {
	base := &stubBackend{
		tasks: []domain.Task{{ID: "t1", CategoryID: "c1", Date: "2025-03-10", Title: "a", Repeat: domain.RepeatNone}},
		cats:  []domain.Category{{ID: "c1", Title: "Home", Color: domain.Palette[0]}},
	}
	c, _ := newTestCache(t, base)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		tasks, err := c.ListTasks(ctx, "u1")
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != "t1" {
			t.Fatalf("tasks: %+v", tasks)
		}
		cats, err := c.ListCategories(ctx, "u1")
		if err != nil {
			t.Fatalf("ListCategories: %v", err)
		}
		if len(cats) != 1 || cats[0].Color != domain.Palette[0] {
			t.Fatalf("categories: %+v", cats)
		}
	}
	if base.listTaskCalls != 1 || base.listCatCalls != 1 {
		t.Fatalf("backend hit on cached read: tasks=%d cats=%d", base.listTaskCalls, base.listCatCalls)
	}
}

func TestCacheWriteEvictsUser(t *testing.T) {
	base := &stubBackend{tasks: []domain.Task{{ID: "t1", Date: "2025-03-10", Repeat: domain.RepeatNone}}}
	c, _ := newTestCache(t, base)
	ctx := context.Background()

	if _, err := c.ListTasks(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertTasks(ctx, "u1", []domain.Task{{ID: "t2", Date: "2025-03-11", Repeat: domain.RepeatNone}}); err != nil {
		t.Fatal(err)
	}

	tasks, err := c.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("stale read after write: %+v", tasks)
	}
	if base.listTaskCalls != 2 {
		t.Fatalf("expected a backend reload after eviction, calls=%d", base.listTaskCalls)
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	base := &stubBackend{tasks: []domain.Task{{ID: "t1", Date: "2025-03-10", Repeat: domain.RepeatNone}}}
	c, mr := newTestCache(t, base)
	ctx := context.Background()

	if err := mr.Set(tasksCacheKey("u1"), "{not json"); err != nil {
		t.Fatal(err)
	}
	tasks, err := c.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("tasks: %+v", tasks)
	}
	if base.listTaskCalls != 1 {
		t.Fatal("corrupt cache entry should fall through to the backend")
	}
	if mr.Exists(tasksCacheKey("u1")) {
		got, _ := mr.Get(tasksCacheKey("u1"))
		if got == "{not json" {
			t.Fatal("corrupt entry not replaced")
		}
	}
}

func TestCacheWithoutRedisDelegates(t *testing.T) {
	base := &stubBackend{tasks: []domain.Task{{ID: "t1", Date: "2025-03-10", Repeat: domain.RepeatNone}}}
	c := NewCache(base, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.ListTasks(ctx, "u1"); err != nil {
			t.Fatal(err)
		}
	}
	if base.listTaskCalls != 2 {
		t.Fatalf("nil redis should always delegate, calls=%d", base.listTaskCalls)
	}
}

func TestCachePublishPassesThrough(t *testing.T) {
	base := &stubBackend{}
	c, _ := newTestCache(t, base)
	if err := c.PublishEvents(context.Background(), "u1", []domain.Event{{ID: "e1"}}); err != nil {
		t.Fatal(err)
	}
	if base.published != 1 {
		t.Fatalf("published = %d", base.published)
	}
}
