package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const streamRefreshInterval = 5 * time.Second

// streamBoard pushes grouped board snapshots over SSE so the presentation
// layer can re-render without polling. EventSource cannot set headers, so a
// token query parameter substitutes for the Authorization header.
func streamBoard(sessions *Sessions, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if token := c.QueryParam("token"); token != "" {
				header = "Bearer " + token
			}
		}
		owner, err := auth.OwnerFromAuthHeader(header)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "stream unsupported"})
		}

		engine := sessions.engineFor(owner)
		if engine == nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		ctx := c.Request().Context()
		ticker := time.NewTicker(streamRefreshInterval)
		defer ticker.Stop()
		for {
			if err := engine.Load(ctx); err != nil {
				c.Logger().Error(err)
			}
			data, _ := json.Marshal(engine.Grouped())
			if _, err := c.Response().Write([]byte("data: ")); err != nil {
				return nil
			}
			if _, err := c.Response().Write(data); err != nil {
				return nil
			}
			if _, err := c.Response().Write([]byte("\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				continue
			}
		}
	}
}
