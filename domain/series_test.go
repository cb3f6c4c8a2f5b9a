package domain

import "testing"

func seriesBoard() (Board, Task) {
	base := Task{ID: "t1", CategoryID: "c1", Date: "2025-03-10", Title: "water plants", Repeat: RepeatNone}
	b := Board{
		Categories: []Category{{ID: "c1", Title: "Home", Position: 0}},
		Tasks:      []Task{base},
	}
	return b, base
}

func TestGenerateSeriesNoneIsNoOp(t *testing.T) {
	_, base := seriesBoard()
	got, siblings, err := GenerateSeries(base, RepeatNone)
	if err != nil {
		t.Fatal(err)
	}
	if len(siblings) != 0 {
		t.Fatalf("expected no siblings, got %d", len(siblings))
	}
	if got != base {
		t.Fatalf("base changed: %+v", got)
	}
}

func TestGenerateSeriesWeekly(t *testing.T) {
	_, base := seriesBoard()
	base.Description = "back garden too"
	base.IsCompleted = true

	got, siblings, err := GenerateSeries(base, RepeatWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if len(siblings) != SeriesLength {
		t.Fatalf("expected %d siblings, got %d", SeriesLength, len(siblings))
	}
	if got.SeriesID == "" || got.Repeat != RepeatWeekly {
		t.Fatalf("base not marked as series member: %+v", got)
	}

	want := []string{
		"2025-03-17", "2025-03-24", "2025-03-31", "2025-04-07",
		"2025-04-14", "2025-04-21", "2025-04-28", "2025-05-05",
		"2025-05-12", "2025-05-19", "2025-05-26", "2025-06-02",
	}
	for i, s := range siblings {
		if s.Date != want[i] {
			t.Errorf("sibling %d date = %s, want %s", i, s.Date, want[i])
		}
		if s.SeriesID != got.SeriesID || s.Repeat != RepeatWeekly {
			t.Errorf("sibling %d not in series: %+v", i, s)
		}
		if s.Title != base.Title || s.Description != base.Description || s.CategoryID != base.CategoryID {
			t.Errorf("sibling %d did not copy content: %+v", i, s)
		}
		if s.IsCompleted {
			t.Errorf("sibling %d starts completed", i)
		}
		if s.ID == base.ID {
			t.Errorf("sibling %d reuses the base id", i)
		}
	}
}

func TestGenerateSeriesDailyAndMonthlyOffsets(t *testing.T) {
	_, base := seriesBoard()

	_, daily, err := GenerateSeries(base, RepeatDaily)
	if err != nil {
		t.Fatal(err)
	}
	if daily[0].Date != "2025-03-11" || daily[11].Date != "2025-03-22" {
		t.Fatalf("daily offsets wrong: first %s last %s", daily[0].Date, daily[11].Date)
	}

	_, monthly, err := GenerateSeries(base, RepeatMonthly)
	if err != nil {
		t.Fatal(err)
	}
	if monthly[0].Date != "2025-04-10" || monthly[11].Date != "2026-03-10" {
		t.Fatalf("monthly offsets wrong: first %s last %s", monthly[0].Date, monthly[11].Date)
	}
}

func TestGenerateSeriesKeepsExistingSeriesID(t *testing.T) {
	_, base := seriesBoard()
	base.SeriesID = "s1"
	got, siblings, err := GenerateSeries(base, RepeatDaily)
	if err != nil {
		t.Fatal(err)
	}
	if got.SeriesID != "s1" {
		t.Fatalf("series id replaced: %s", got.SeriesID)
	}
	for _, s := range siblings {
		if s.SeriesID != "s1" {
			t.Fatalf("sibling got a new series id: %s", s.SeriesID)
		}
	}
}

func TestNeedsScopeDecision(t *testing.T) {
	_, base := seriesBoard()

	plain := base
	edited := plain
	edited.Title = "new title"
	if NeedsScopeDecision(plain, edited) {
		t.Error("non-series task should never need a scope decision")
	}

	member := base
	member.SeriesID = "s1"
	member.Repeat = RepeatWeekly

	same := member
	same.IsCompleted = true
	if NeedsScopeDecision(member, same) {
		t.Error("completion toggles are not tracked fields")
	}

	for name, mutate := range map[string]func(*Task){
		"title":       func(u *Task) { u.Title = "x" },
		"description": func(u *Task) { u.Description = "x" },
		"date":        func(u *Task) { u.Date = "2025-03-11" },
		"repeat":      func(u *Task) { u.Repeat = RepeatDaily },
		"category":    func(u *Task) { u.CategoryID = "c2" },
	} {
		updated := member
		mutate(&updated)
		if !NeedsScopeDecision(member, updated) {
			t.Errorf("%s change should need a scope decision", name)
		}
	}
}

// buildSeries expands a base task into a board carrying the full series.
func buildSeries(t *testing.T, cadence Repeat) (Board, Task) {
	t.Helper()
	b, base := seriesBoard()
	expanded, siblings, err := GenerateSeries(base, cadence)
	if err != nil {
		t.Fatal(err)
	}
	b = b.ReplaceTask(expanded)
	b.Tasks = append(b.Tasks, siblings...)
	return b, expanded
}

func TestResolveUpdateScopeRequired(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.Title = "renamed"
	if _, err := ResolveUpdate(b, base, updated, ScopeNone); err != ErrScopeRequired {
		t.Fatalf("expected ErrScopeRequired, got %v", err)
	}
}

func TestResolveUpdateSingleDetaches(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.Title = "renamed"

	out, err := ResolveUpdate(b, base, updated, ScopeSingle)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out.TaskByID(base.ID)
	if !ok {
		t.Fatal("edited task missing")
	}
	if got.Title != "renamed" || got.SeriesID != "" {
		t.Fatalf("single edit should rename and detach: %+v", got)
	}
	for _, task := range out.Tasks {
		if task.ID == base.ID {
			continue
		}
		if task.Title != base.Title {
			t.Fatalf("sibling touched by single edit: %+v", task)
		}
	}
	if len(out.Tasks) != len(b.Tasks) {
		t.Fatalf("task count changed: %d -> %d", len(b.Tasks), len(out.Tasks))
	}
}

func TestResolveUpdateFutureShift(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.Date = "2025-03-12" // +2 days
	updated.Title = "renamed"

	out, err := ResolveUpdate(b, base, updated, ScopeFuture)
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range out.Tasks {
		if task.SeriesID != base.SeriesID {
			continue
		}
		if task.ID == base.ID {
			if task.Date != "2025-03-12" || task.Title != "renamed" {
				t.Fatalf("edited task wrong: %+v", task)
			}
			continue
		}
		if task.Title != "renamed" {
			t.Fatalf("sibling content not copied: %+v", task)
		}
	}
	// First sibling was 2025-03-17; shifted by the same two days.
	shifted := 0
	for _, task := range out.Tasks {
		if task.Date == "2025-03-19" {
			shifted++
		}
	}
	if shifted != 1 {
		t.Fatalf("expected exactly one sibling on 2025-03-19, got %d", shifted)
	}
}

func TestResolveUpdateFutureShiftLeavesEarlierSiblings(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	// Edit the third instance so two siblings predate it.
	var mid Task
	for _, task := range b.Tasks {
		if task.Date == "2025-03-24" {
			mid = task
		}
	}
	if mid.ID == "" {
		t.Fatal("mid task not found")
	}
	updated := mid
	updated.Title = "renamed"

	out, err := ResolveUpdate(b, mid, updated, ScopeFuture)
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range out.Tasks {
		if task.SeriesID != base.SeriesID {
			continue
		}
		if task.Date < mid.Date && task.Title != base.Title {
			t.Fatalf("earlier sibling touched: %+v", task)
		}
		if task.Date >= mid.Date && task.Title != "renamed" {
			t.Fatalf("later sibling not updated: %+v", task)
		}
	}
}

func TestResolveUpdateCadenceChangeRegenerates(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.Repeat = RepeatDaily

	out, err := ResolveUpdate(b, base, updated, ScopeFuture)
	if err != nil {
		t.Fatal(err)
	}
	// Old weekly siblings (all strictly later than base) are gone,
	// replaced by a fresh daily run plus the base itself.
	if len(out.Tasks) != 1+SeriesLength {
		t.Fatalf("expected %d tasks, got %d", 1+SeriesLength, len(out.Tasks))
	}
	daily := 0
	for _, task := range out.Tasks {
		if task.Repeat != RepeatDaily {
			t.Fatalf("stale cadence survived: %+v", task)
		}
		if task.ID != base.ID {
			daily++
		}
	}
	if daily != SeriesLength {
		t.Fatalf("expected %d regenerated siblings, got %d", SeriesLength, daily)
	}
}

func TestResolveUpdateCadenceChangeToNoneTerminates(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.Repeat = RepeatNone

	out, err := ResolveUpdate(b, base, updated, ScopeFuture)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Tasks) != 1 {
		t.Fatalf("expected only the edited task to remain, got %d", len(out.Tasks))
	}
	got := out.Tasks[0]
	if got.ID != base.ID || got.SeriesID != "" || got.Repeat != RepeatNone {
		t.Fatalf("series not terminated: %+v", got)
	}
}

func TestResolveUpdateUntrackedFieldSkipsScope(t *testing.T) {
	b, base := buildSeries(t, RepeatWeekly)
	updated := base
	updated.IsCompleted = true

	out, err := ResolveUpdate(b, base, updated, ScopeNone)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.TaskByID(base.ID)
	if !got.IsCompleted || got.SeriesID != base.SeriesID {
		t.Fatalf("untracked edit misapplied: %+v", got)
	}
}
