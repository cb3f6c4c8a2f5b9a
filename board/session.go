package board

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"planflow-api/domain"
	"planflow-api/window"
)

// Notification is a transient user-visible message, raised when an
// optimistic mutation had to be rolled back. The client drains them.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one user's live board: the undoable store, the scroll window
// controller and pending notifications. All mutations for a user run under
// the session lock, giving the single-threaded execution model of the
// original event loop; only persistence happens off-lock.
type Session struct {
	UserID string

	mu    sync.Mutex
	hist  *History
	win   *window.Controller
	notes []Notification
}

// NewSession builds a session around an initial board, anchored on now.
func NewSession(userID string, initial domain.Board, now time.Time) *Session {
	return &Session{
		UserID: userID,
		hist:   NewHistory(initial, 0),
		win:    window.New(now),
	}
}

// Snapshot returns the current board plus undo/redo availability.
func (s *Session) Snapshot() (domain.Board, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Current(), s.hist.CanUndo(), s.hist.CanRedo()
}

// Window runs fn with the session's scroll window controller. The
// controller itself is not goroutine-safe, so access stays under the
// session lock.
func (s *Session) Window(fn func(*window.Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.win)
}

func (s *Session) notify(kind, message string) {
	s.notes = append(s.notes, Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
}

// Notify records a transient notification.
func (s *Session) Notify(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify(kind, message)
}

// DrainNotifications returns and clears pending notifications.
func (s *Session) DrainNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notes
	s.notes = nil
	return out
}
