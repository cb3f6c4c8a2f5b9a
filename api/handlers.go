package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"planflow-api/board"
	"planflow-api/domain"
	"planflow-api/window"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc *board.Service, auth Authenticator, deduper Deduper, logger *log.Logger) {
	h := &handlers{svc: svc, auth: auth, deduper: deduper, logger: logger, now: time.Now}

	e.GET("/api/board", h.getBoard)
	e.POST("/api/board/undo", h.undo)
	e.POST("/api/board/redo", h.redo)
	e.GET("/api/notifications", h.getNotifications)

	e.POST("/api/tasks", h.addTask)
	e.POST("/api/tasks/batch", h.addTasksBatch)
	e.POST("/api/tasks/move-overdue", h.moveOverdue)
	e.PATCH("/api/tasks/:id", h.updateTask)
	e.POST("/api/tasks/:id/series", h.generateSeries)
	e.PATCH("/api/tasks/:id/move", h.moveTask)
	e.PATCH("/api/tasks/:id/complete", h.toggleComplete)
	e.DELETE("/api/tasks/:id", h.deleteTask)
	e.GET("/api/tasks/:id/calendar-link", h.calendarLink)

	e.POST("/api/categories", h.addCategory)
	e.POST("/api/categories/reorder", h.reorderCategories)
	e.PATCH("/api/categories/:id", h.updateCategory)
	e.PATCH("/api/categories/:id/collapse", h.toggleCollapse)
	e.DELETE("/api/categories/:id", h.deleteCategory)

	e.GET("/api/window", h.getWindow)
	e.POST("/api/window/navigate", h.navigateWindow)
	e.POST("/api/window/scroll", h.observeScroll)
	e.POST("/api/window/serviced", h.windowServiced)
	e.POST("/api/window/zoom", h.zoomWindow)

	e.GET("/healthz", h.healthz)
}

type handlers struct {
	svc     *board.Service
	auth    Authenticator
	deduper Deduper
	logger  *log.Logger
	now     func() time.Time
}

func (h *handlers) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// session authenticates the request and returns the caller's live session.
// On failure the response has already been written and the error returned.
func (h *handlers) session(c echo.Context) (*board.Session, error) {
	userID, err := h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, c.String(http.StatusUnauthorized, err.Error())
	}
	sess, err := h.svc.Session(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Error(err)
		return nil, c.String(http.StatusInternalServerError, "failed to load board")
	}
	return sess, nil
}

// decodeBody decodes a size-capped JSON request body, rejecting unknown
// fields.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// beginIdempotent records the request's Idempotency-Key. It returns a
// release func for the failure path and reports whether the request is a
// duplicate that must be short-circuited.
func (h *handlers) beginIdempotent(c echo.Context, userID string) (release func(), duplicate bool) {
	noop := func() {}
	key := c.Request().Header.Get("Idempotency-Key")
	if h.deduper == nil || key == "" {
		return noop, false
	}
	ctx := c.Request().Context()
	fresh, err := h.deduper.Add(ctx, userID, key)
	if err != nil {
		// Redis being down must not block mutations; skip deduplication.
		h.logger.WithError(err).Warn("idempotency check failed; continuing without")
		return noop, false
	}
	if !fresh {
		return noop, true
	}
	return func() {
		if err := h.deduper.Remove(ctx, userID, key); err != nil {
			h.logger.WithError(err).Warnf("failed to release idempotency key %s", key)
		}
	}, false
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrScopeRequired):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), ScopeRequired: true})
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidRepeat):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *handlers) boardResponse(sess *board.Session, query string) boardResponse {
	b, canUndo, canRedo := sess.Snapshot()
	tasks := b.VisibleTasks()
	if query != "" {
		tasks = b.SearchTasks(query)
	}
	return boardResponse{
		Categories:   b.Categories,
		Tasks:        tasks,
		CanUndo:      canUndo,
		CanRedo:      canRedo,
		OverdueCount: b.OverdueCount(domain.FormatDateKey(h.now())),
	}
}

func (h *handlers) getBoard(c echo.Context) (err error) {
	metrics := newBoardRequestMetrics(h.logger)
	defer func() {
		metrics.Log(c.Path(), c.Response().Status, err)
	}()

	authStart := time.Now()
	userID, authErr := h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	metrics.ObserveAuth(time.Since(authStart))
	if authErr != nil {
		metrics.SetErrorStage("auth")
		err = c.String(http.StatusUnauthorized, authErr.Error())
		return err
	}

	loadStart := time.Now()
	sess, loadErr := h.svc.Session(c.Request().Context(), userID)
	metrics.ObserveLoad(time.Since(loadStart))
	if loadErr != nil {
		metrics.SetErrorStage("storage")
		c.Logger().Error(loadErr)
		err = c.String(http.StatusInternalServerError, "failed to load board")
		return err
	}

	query := c.QueryParam("q")
	metrics.SetQueryProvided(query != "")
	resp := h.boardResponse(sess, query)
	metrics.SetTasksReturned(len(resp.Tasks))

	encodeStart := time.Now()
	err = c.JSON(http.StatusOK, resp)
	metrics.ObserveEncode(time.Since(encodeStart))
	if err != nil {
		metrics.SetErrorStage("encode_response")
	}
	return err
}

func (h *handlers) addTask(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req addTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	created, err := h.svc.AddTask(c.Request().Context(), sess, board.AddTaskParams{
		Title:            req.Title,
		Description:      req.Description,
		Date:             req.Date,
		CategoryID:       req.CategoryID,
		NewCategoryTitle: req.NewCategoryTitle,
	})
	if err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) addTasksBatch(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req addTasksBatchRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	created, err := h.svc.AddTasksBatch(c.Request().Context(), sess, req.CategoryID, req.Date, req.Titles)
	if err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateTask(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req updateTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}

	b, _, _ := sess.Snapshot()
	original, ok := b.TaskByID(c.Param("id"))
	if !ok {
		return writeDomainError(c, domain.ErrTaskNotFound)
	}
	updated := original
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Date != nil {
		updated.Date = *req.Date
	}
	if req.CategoryID != nil {
		updated.CategoryID = *req.CategoryID
	}
	if req.Repeat != nil {
		updated.Repeat = domain.Repeat(*req.Repeat)
	}

	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	scope := domain.UpdateScope(req.Scope)
	if err := h.svc.UpdateTask(c.Request().Context(), sess, updated, scope); err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handlers) generateSeries(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req generateSeriesRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	siblings, err := h.svc.GenerateSeries(c.Request().Context(), sess, c.Param("id"), domain.Repeat(req.Repeat))
	if err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, siblings)
}

func (h *handlers) moveTask(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req moveTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	if err := h.svc.MoveTask(c.Request().Context(), sess, c.Param("id"), req.CategoryID, req.Date); err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) toggleComplete(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	toggled, err := h.svc.ToggleComplete(c.Request().Context(), sess, c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toggled)
}

func (h *handlers) deleteTask(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	if err := h.svc.DeleteTask(c.Request().Context(), sess, c.Param("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) moveOverdue(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	moved, err := h.svc.MoveOverdueToToday(c.Request().Context(), sess, domain.FormatDateKey(h.now()))
	if err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, movedResponse{Moved: moved})
}

func (h *handlers) calendarLink(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	b, _, _ := sess.Snapshot()
	t, ok := b.TaskByID(c.Param("id"))
	if !ok {
		return writeDomainError(c, domain.ErrTaskNotFound)
	}
	return c.JSON(http.StatusOK, calendarLinkResponse{URL: domain.GoogleCalendarLink(t)})
}

func (h *handlers) addCategory(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req addCategoryRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	created, err := h.svc.AddCategory(c.Request().Context(), sess, req.Title)
	if err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateCategory(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req updateCategoryRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}

	b, _, _ := sess.Snapshot()
	existing, ok := b.CategoryByID(c.Param("id"))
	if !ok {
		return writeDomainError(c, domain.ErrCategoryNotFound)
	}
	updated := existing
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Color != nil {
		updated.Color = domain.ColorByName(*req.Color)
	}

	if err := h.svc.UpdateCategory(c.Request().Context(), sess, updated); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *handlers) toggleCollapse(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	if err := h.svc.ToggleCollapse(c.Request().Context(), sess, c.Param("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteCategory(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	release, duplicate := h.beginIdempotent(c, sess.UserID)
	if duplicate {
		return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
	}
	if err := h.svc.DeleteCategory(c.Request().Context(), sess, c.Param("id")); err != nil {
		release()
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) reorderCategories(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req reorderCategoriesRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := h.svc.ReorderCategories(c.Request().Context(), sess, req.From, req.To); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, h.boardResponse(sess, ""))
}

func (h *handlers) undo(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	h.svc.Undo(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, h.boardResponse(sess, ""))
}

func (h *handlers) redo(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	h.svc.Redo(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, h.boardResponse(sess, ""))
}

func (h *handlers) getNotifications(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	notes := sess.DrainNotifications()
	if notes == nil {
		notes = []board.Notification{}
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: notes})
}

func windowSnapshot(win *window.Controller, dayWidth int, shifted bool) windowResponse {
	days := win.Days()
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = domain.FormatDateKey(d)
	}
	resp := windowResponse{
		Reference: domain.FormatDateKey(win.Reference()),
		State:     win.State(),
		Days:      keys,
		Shifted:   shifted,
	}
	if dayWidth > 0 {
		if adj, ok := win.PendingAdjustment(dayWidth); ok {
			resp.Adjustment = &adj
		}
	}
	return resp
}

func (h *handlers) getWindow(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var resp windowResponse
	sess.Window(func(win *window.Controller) {
		resp = windowSnapshot(win, intQueryParam(c, "dayWidth"), false)
	})
	resp.ZoomWidths = window.ZoomWidths
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) navigateWindow(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req navigateWindowRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}

	var resp windowResponse
	var badReq error
	sess.Window(func(win *window.Controller) {
		switch req.Action {
		case "next":
			win.NextWeek()
		case "prev":
			win.PrevWeek()
		case "today":
			win.Navigate(h.now())
		case "date":
			ref, err := domain.ParseDateKey(req.Date)
			if err != nil {
				badReq = domain.ErrInvalidDate
				return
			}
			win.Navigate(ref)
		default:
			badReq = errors.New("unknown navigation action")
			return
		}
		resp = windowSnapshot(win, intQueryParam(c, "dayWidth"), false)
	})
	if badReq != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: badReq.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) observeScroll(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req observeScrollRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	var resp windowResponse
	sess.Window(func(win *window.Controller) {
		shifted := win.ObserveScroll(req.Center, req.DayWidth)
		resp = windowSnapshot(win, req.DayWidth, shifted)
	})
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) windowServiced(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	sess.Window(func(win *window.Controller) { win.Serviced() })
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) zoomWindow(c echo.Context) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	var req zoomRequest
	if err := decodeBody(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if req.OldDayWidth <= 0 || req.NewDayWidth <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid day width"})
	}
	var resp zoomResponse
	var ok bool
	sess.Window(func(win *window.Controller) {
		win.BeginZoom(req.ScrollLeft, req.ViewportWidth, req.OldDayWidth)
		resp.Offset, ok = win.CompleteZoom(req.NewDayWidth, req.ViewportWidth)
	})
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid zoom request"})
	}
	return c.JSON(http.StatusOK, resp)
}
