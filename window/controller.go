// Package window maintains the 21-day sliding calendar buffer behind the
// infinite horizontal week scroll. Only three weeks of days are ever
// materialized; the controller re-centers the buffer under the user when
// scrolling approaches either edge and tells the view how to compensate so
// the move is invisible.
package window

import (
	"time"

	"planflow-api/domain"
)

// State is the controller's pending-service state.
type State string

const (
	// StateIdle means no scroll adjustment is owed to the view.
	StateIdle State = "idle"
	// StateJumpPending means the view must reset scroll to the anchor offset.
	StateJumpPending State = "jump-pending"
	// StateMaintainPending means the view must apply a relative offset so the
	// re-centered window stays visually still.
	StateMaintainPending State = "maintain-pending"
)

const (
	// Days is the number of materialized days.
	Days = 21
	// anchorIndex is the day index where the reference week begins.
	anchorIndex = 7
)

// ZoomWidths are the discrete day pixel widths offered by the zoom slider.
var ZoomWidths = []int{120, 160, 200, 240, 280}

// Controller tracks the reference date and the window derived from it.
// It is not safe for concurrent use; callers serialize access per client.
type Controller struct {
	reference time.Time
	state     State

	// pendingWeeks is the signed week shift the view still has to absorb
	// while in StateMaintainPending: -1 when the window moved a week
	// earlier, +1 when it moved later.
	pendingWeeks int

	// centerDayIndex preserves the day under the viewport center across a
	// zoom change. Negative when unset.
	centerDayIndex float64
}

// New creates a controller anchored on ref.
func New(ref time.Time) *Controller {
	return &Controller{reference: ref, state: StateIdle, centerDayIndex: -1}
}

// Reference returns the current reference date.
func (c *Controller) Reference() time.Time { return c.reference }

// State returns the pending-service state.
func (c *Controller) State() State { return c.state }

// Days returns the materialized window: the three consecutive weeks
// centered on the reference week, Monday-aligned.
func (c *Controller) Days() []time.Time {
	start := domain.Monday(c.reference).AddDate(0, 0, -anchorIndex)
	out := make([]time.Time, Days)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// Navigate moves the reference date for an explicit jump: week paging,
// "today", a date pick, or a search result. The view must then reset its
// scroll offset to anchorIndex day widths.
func (c *Controller) Navigate(ref time.Time) {
	c.reference = ref
	c.state = StateJumpPending
	c.pendingWeeks = 0
}

// NextWeek pages the reference one week later.
func (c *Controller) NextWeek() { c.Navigate(c.reference.AddDate(0, 0, 7)) }

// PrevWeek pages the reference one week earlier.
func (c *Controller) PrevWeek() { c.Navigate(c.reference.AddDate(0, 0, -7)) }

// ObserveScroll maps the viewport's horizontal center to a day index and
// silently re-centers the window when the index leaves the middle week.
// It returns true when the window shifted. Observations are ignored while
// an adjustment is still pending, matching the view suppressing scroll
// events it raised itself.
func (c *Controller) ObserveScroll(centerPx float64, dayWidth int) bool {
	if c.state != StateIdle || dayWidth <= 0 || centerPx < 0 {
		return false
	}
	idx := int(centerPx) / dayWidth
	if idx >= Days {
		return false
	}
	switch {
	case idx < anchorIndex:
		c.reference = domain.Monday(c.reference).AddDate(0, 0, -7)
		c.pendingWeeks = -1
	case idx >= 2*anchorIndex:
		c.reference = domain.Monday(c.reference).AddDate(0, 0, 7)
		c.pendingWeeks = 1
	default:
		return false
	}
	c.state = StateMaintainPending
	return true
}

// Adjustment describes the scroll correction the view owes the controller.
type Adjustment struct {
	// Absolute is the target scroll offset in pixels for a jump; valid when
	// Relative is false.
	Absolute float64 `json:"absolute"`
	// Delta is the signed pixel change to apply for a maintain; valid when
	// Relative is true.
	Delta float64 `json:"delta"`
	// Relative distinguishes the two.
	Relative bool `json:"relative"`
}

// PendingAdjustment computes the correction for the current pending state.
// A jump aligns the reference week's first day at the window's eighth day;
// a maintain counteracts the week shift exactly, so the visual position is
// unchanged. The second return is false while idle.
func (c *Controller) PendingAdjustment(dayWidth int) (Adjustment, bool) {
	switch c.state {
	case StateJumpPending:
		return Adjustment{Absolute: float64(anchorIndex * dayWidth)}, true
	case StateMaintainPending:
		// Window moved a week earlier: the same day now sits seven indexes
		// later, so scroll grows by seven day widths. Later is the mirror.
		return Adjustment{Delta: float64(-c.pendingWeeks * anchorIndex * dayWidth), Relative: true}, true
	default:
		return Adjustment{}, false
	}
}

// Serviced tells the controller the view applied the pending adjustment.
func (c *Controller) Serviced() {
	c.state = StateIdle
	c.pendingWeeks = 0
}

// BeginZoom records the fractional day index at the viewport center before
// a day-width change.
func (c *Controller) BeginZoom(scrollLeft, viewportWidth float64, dayWidth int) {
	if dayWidth <= 0 {
		return
	}
	c.centerDayIndex = (scrollLeft + viewportWidth/2) / float64(dayWidth)
}

// CompleteZoom returns the scroll offset that keeps the recorded center
// day centered at the new width. Without a recorded center it reports
// false and the view leaves scroll untouched.
func (c *Controller) CompleteZoom(newDayWidth int, viewportWidth float64) (float64, bool) {
	if c.centerDayIndex < 0 {
		return 0, false
	}
	offset := c.centerDayIndex*float64(newDayWidth) - viewportWidth/2
	c.centerDayIndex = -1
	return offset, true
}
