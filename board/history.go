// Package board holds the undoable board store and the mutation handlers
// that sit between the HTTP surface and persistence.
package board

import "planflow-api/domain"

// History is a linear two-stack snapshot store over a Board value. Every
// board edit goes through Set so undo and redo stay exact inverses over
// any sequence of edits. Each entry snapshots the whole board; there is no
// coalescing of rapid edits.
//
// History is not safe for concurrent use; Session serializes access.
type History struct {
	current  domain.Board
	history  []domain.Board
	future   []domain.Board
	maxDepth int
}

// NewHistory creates a store with the given initial board. maxDepth bounds
// the undo stack by evicting the oldest entries only; zero means unbounded.
func NewHistory(initial domain.Board, maxDepth int) *History {
	return &History{current: initial.Clone(), maxDepth: maxDepth}
}

// Current returns the present board value.
func (h *History) Current() domain.Board { return h.current }

// Set pushes the current board onto the undo stack, clears the redo stack
// and replaces the current value with update's result. Redo availability
// therefore never survives an intervening edit.
func (h *History) Set(update func(domain.Board) domain.Board) {
	h.history = append(h.history, h.current)
	if h.maxDepth > 0 && len(h.history) > h.maxDepth {
		h.history = h.history[len(h.history)-h.maxDepth:]
	}
	h.future = nil
	h.current = update(h.current.Clone()).Clone()
}

// Replace is Set with a ready value.
func (h *History) Replace(next domain.Board) {
	h.Set(func(domain.Board) domain.Board { return next })
}

// Undo steps back one edit. It reports false when there is nothing to undo.
func (h *History) Undo() bool {
	if len(h.history) == 0 {
		return false
	}
	prev := h.history[len(h.history)-1]
	h.history = h.history[:len(h.history)-1]
	h.future = append([]domain.Board{h.current}, h.future...)
	h.current = prev
	return true
}

// Redo re-applies the most recently undone edit. It reports false when the
// redo stack is empty.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	next := h.future[0]
	h.future = h.future[1:]
	h.history = append(h.history, h.current)
	h.current = next
	return true
}

// CanUndo reports undo availability.
func (h *History) CanUndo() bool { return len(h.history) > 0 }

// CanRedo reports redo availability.
func (h *History) CanRedo() bool { return len(h.future) > 0 }
