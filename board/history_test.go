package board

import (
	"testing"

	"planflow-api/domain"
)

func boardWithTitle(title string) domain.Board {
	return domain.Board{Tasks: []domain.Task{{ID: "t1", Title: title, Date: "2025-03-10"}}}
}

func currentTitle(h *History) string {
	return h.Current().Tasks[0].Title
}

func TestHistoryUndoRedoAreExactInverses(t *testing.T) {
	h := NewHistory(boardWithTitle("a"), 0)
	h.Replace(boardWithTitle("b"))
	h.Replace(boardWithTitle("c"))

	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("after edits: CanUndo=%v CanRedo=%v", h.CanUndo(), h.CanRedo())
	}

	if !h.Undo() || currentTitle(h) != "b" {
		t.Fatalf("first undo: %s", currentTitle(h))
	}
	if !h.Undo() || currentTitle(h) != "a" {
		t.Fatalf("second undo: %s", currentTitle(h))
	}
	if h.Undo() {
		t.Fatal("undo past the beginning should report false")
	}
	if h.CanUndo() {
		t.Fatal("CanUndo at the beginning")
	}

	if !h.Redo() || currentTitle(h) != "b" {
		t.Fatalf("first redo: %s", currentTitle(h))
	}
	if !h.Redo() || currentTitle(h) != "c" {
		t.Fatalf("second redo: %s", currentTitle(h))
	}
	if h.Redo() {
		t.Fatal("redo past the end should report false")
	}
}

func TestHistoryEditClearsRedo(t *testing.T) {
	h := NewHistory(boardWithTitle("a"), 0)
	h.Replace(boardWithTitle("b"))
	if !h.Undo() {
		t.Fatal("undo failed")
	}
	if !h.CanRedo() {
		t.Fatal("expected redo availability after undo")
	}

	h.Replace(boardWithTitle("c"))
	if h.CanRedo() {
		t.Fatal("redo availability survived an intervening edit")
	}
	if !h.Undo() || currentTitle(h) != "a" {
		t.Fatalf("undo after diverging edit: %s", currentTitle(h))
	}
}

func TestHistoryCapEvictsOldestOnly(t *testing.T) {
	h := NewHistory(boardWithTitle("a"), 2)
	h.Replace(boardWithTitle("b"))
	h.Replace(boardWithTitle("c"))
	h.Replace(boardWithTitle("d"))

	if !h.Undo() || currentTitle(h) != "c" {
		t.Fatalf("first undo: %s", currentTitle(h))
	}
	if !h.Undo() || currentTitle(h) != "b" {
		t.Fatalf("second undo: %s", currentTitle(h))
	}
	// "a" was evicted; the stack bottoms out at "b".
	if h.Undo() {
		t.Fatal("undo reached an evicted entry")
	}
}

func TestHistorySetUpdaterReceivesACopy(t *testing.T) {
	h := NewHistory(boardWithTitle("a"), 0)
	h.Set(func(b domain.Board) domain.Board {
		b.Tasks[0].Title = "b"
		return b
	})
	if currentTitle(h) != "b" {
		t.Fatalf("current: %s", currentTitle(h))
	}
	// The updater mutated its argument; the pushed snapshot must not see it.
	if !h.Undo() || currentTitle(h) != "a" {
		t.Fatalf("undo: %s", currentTitle(h))
	}
}
