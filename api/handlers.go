package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"boardsync/board"
	"boardsync/calendar"
	"boardsync/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, sessions *Sessions, auth Authenticator, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(sessions, auth, logger))
	e.GET("/api/board", getBoard(sessions, auth))
	e.GET("/api/board/stream", streamBoard(sessions, auth))
	e.GET("/api/calendar", getCalendar(sessions, auth))
	e.POST("/api/tasks", createTask(sessions, auth))
	e.PATCH("/api/tasks/:id", updateTask(sessions, auth))
	e.DELETE("/api/tasks/:id", deleteTask(sessions, auth))
	e.POST("/api/tasks/:id/status", changeStatus(sessions, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func criteriaFromQuery(c echo.Context) domain.Criteria {
	return domain.Criteria{
		Query:    c.QueryParam("q"),
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
	}
}

func getTasks(sessions *Sessions, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newBoardRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		owner, authErr := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
			return err
		}

		engine := sessions.engineFor(owner)
		if engine == nil {
			err = c.NoContent(http.StatusServiceUnavailable)
			return err
		}

		loadStart := time.Now()
		loadErr := engine.Load(ctx)
		metrics.ObserveLoad(time.Since(loadStart))

		resp := tasksResponse{}
		if loadErr != nil {
			// Keep serving the last good snapshot rather than blanking
			// the board.
			metrics.SetErrorStage("storage")
			metrics.SetStale(true)
			resp.Notice = "failed to load tasks"
		}
		resp.Tasks = domain.Filter(engine.Snapshot(), criteriaFromQuery(c))
		metrics.SetTasksReturned(len(resp.Tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getBoard(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		resp := boardResponse{}
		if err := engine.Load(ctx); err != nil {
			c.Logger().Error(err)
			resp.Notice = "failed to load tasks"
		}
		visible := domain.Filter(engine.Snapshot(), criteriaFromQuery(c))
		resp.Buckets = board.GroupByStatus(visible)
		return c.JSON(http.StatusOK, resp)
	}
}

func getCalendar(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		selected := time.Now()
		if raw := c.QueryParam("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid date"})
			}
			selected = parsed
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := engine.Load(ctx); err != nil {
			c.Logger().Error(err)
		}
		visible := domain.Filter(engine.Snapshot(), criteriaFromQuery(c))
		day := calendar.DayOf(selected)
		dates := make([]string, 0)
		for d := range calendar.ByDate(visible) {
			dates = append(dates, time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
		}
		sort.Strings(dates)
		return c.JSON(http.StatusOK, calendarResponse{
			Date:  selected.Format("2006-01-02"),
			Tasks: calendar.ForDate(visible, day),
			Dates: dates,
		})
	}
}

func createTask(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var fields domain.NewTask
		if err := decodeBody(c, &fields); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := engine.CreateTask(ctx, fields); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, tasksResponse{Tasks: engine.Snapshot()})
	}
}

func updateTask(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var upd domain.TaskUpdate
		if err := decodeBody(c, &upd); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := engine.UpdateTask(ctx, c.Param("id"), upd); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: engine.Snapshot()})
	}
}

func deleteTask(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := engine.DeleteTask(ctx, c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: engine.Snapshot()})
	}
}

type statusChangeRequest struct {
	Status domain.Status `json:"status"`
}

func changeStatus(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		owner, err := auth.OwnerFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req statusChangeRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := engine.ApplyStatusChange(ctx, c.Param("id"), req.Status); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, boardResponse{Buckets: engine.Grouped()})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, taskBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondError maps the engine's error taxonomy onto HTTP statuses. Store
// failures surface as transient, user-retryable notices.
func respondError(c echo.Context, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: vErr.Error()})
	}
	if errors.Is(err, domain.ErrAuthRequired) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	}
	if errors.Is(err, domain.ErrTaskNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
