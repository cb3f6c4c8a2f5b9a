package api

import (
	"planflow-api/board"
	"planflow-api/domain"
	"planflow-api/window"
)

const requestBodyMaxSize = 256 * 1024 // 256 KiB

type errorResponse struct {
	Error string `json:"error"`
	// ScopeRequired signals that a series edit needs a single/future
	// decision; the client re-submits with scope set.
	ScopeRequired bool `json:"scopeRequired,omitempty"`
}

type boardResponse struct {
	Categories   []domain.Category `json:"categories"`
	Tasks        []domain.Task     `json:"tasks"`
	CanUndo      bool              `json:"canUndo"`
	CanRedo      bool              `json:"canRedo"`
	OverdueCount int               `json:"overdueCount"`
}

type addTaskRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Date             string `json:"date"`
	CategoryID       string `json:"categoryId"`
	NewCategoryTitle string `json:"newCategoryTitle"`
}

type addTasksBatchRequest struct {
	CategoryID string   `json:"categoryId"`
	Date       string   `json:"date"`
	Titles     []string `json:"titles"`
}

// updateTaskRequest is a partial edit; absent fields keep their value.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	CategoryID  *string `json:"categoryId"`
	Repeat      *string `json:"repeat"`
	Scope       string  `json:"scope"`
}

type generateSeriesRequest struct {
	Repeat string `json:"repeat"`
}

type moveTaskRequest struct {
	CategoryID string `json:"categoryId"`
	Date       string `json:"date"`
}

type addCategoryRequest struct {
	Title string `json:"title"`
}

type updateCategoryRequest struct {
	Title *string `json:"title"`
	Color *string `json:"color"`
}

type reorderCategoriesRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type movedResponse struct {
	Moved int `json:"moved"`
}

type calendarLinkResponse struct {
	URL string `json:"url"`
}

type notificationsResponse struct {
	Notifications []board.Notification `json:"notifications"`
}

type navigateWindowRequest struct {
	// Action is one of next, prev, today or date.
	Action string `json:"action"`
	Date   string `json:"date"`
}

type observeScrollRequest struct {
	Center   float64 `json:"center"`
	DayWidth int     `json:"dayWidth"`
}

type zoomRequest struct {
	ScrollLeft    float64 `json:"scrollLeft"`
	ViewportWidth float64 `json:"viewportWidth"`
	OldDayWidth   int     `json:"oldDayWidth"`
	NewDayWidth   int     `json:"newDayWidth"`
}

type zoomResponse struct {
	Offset float64 `json:"offset"`
}

type windowResponse struct {
	Reference  string             `json:"reference"`
	State      window.State       `json:"state"`
	Days       []string           `json:"days"`
	Shifted    bool               `json:"shifted,omitempty"`
	Adjustment *window.Adjustment `json:"adjustment,omitempty"`
	ZoomWidths []int              `json:"zoomWidths,omitempty"`
}
