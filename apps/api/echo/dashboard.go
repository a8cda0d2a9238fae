package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/dashboard"
)

type dashboardApi struct {
	svc      dashboard.Service
	logger   core.Logger
	location *time.Location
}

func registerDashboardAPI(
	g *echo.Group,
	auth, streamAuth []echo.MiddlewareFunc,
	svc dashboard.Service,
	logger core.Logger,
	location *time.Location,
) {
	api := dashboardApi{svc: svc, logger: logger, location: location}

	g.GET("/dashboard", api.summary, auth...)
	g.GET("/dashboard/stream", api.stream, streamAuth...)
}

// requestLocation returns the time zone of the "tz" query param, or `def`.
func requestLocation(ctx echo.Context, def *time.Location) (*time.Location, error) {
	tz := core.CleanString(ctx.QueryParam("tz"))
	if tz == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "tz", Error: "tz must be an IANA time zone name"})
	}
	return loc, nil
}

func isCanceled(err error) bool {
	cause := errors.Cause(err)
	return cause == context.Canceled || cause == context.DeadlineExceeded
}

// Handlers

func (api *dashboardApi) summary(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}
	loc, err := requestLocation(ctx, api.location)
	if err != nil {
		return err
	}

	state, err := api.svc.Summary(ctx.Request().Context(), owner.ID, loc)
	if err != nil {
		return errors.Wrap(err, "loading dashboard")
	}
	return ctx.JSON(http.StatusOK, state)
}

// stream serves the dashboard as server-sent "summary" events.
func (api *dashboardApi) stream(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}
	loc, err := requestLocation(ctx, api.location)
	if err != nil {
		return err
	}

	res := ctx.Response()
	send := func(state dashboard.State) error {
		data, err := json.Marshal(state)
		if err != nil {
			return errors.Wrap(err, "encoding dashboard")
		}
		if !res.Committed {
			res.Header().Set(echo.HeaderContentType, "text/event-stream")
			res.Header().Set("Cache-Control", "no-cache")
			res.Header().Set("Connection", "keep-alive")
			res.WriteHeader(http.StatusOK)
		}
		if _, err := fmt.Fprintf(res, "event: summary\ndata: %s\n\n", data); err != nil {
			return err
		}
		res.Flush()
		return nil
	}

	err = api.svc.Stream(ctx.Request().Context(), owner.ID, loc, send)
	if err != nil && res.Committed {
		// headers are gone, the error handler cannot answer anymore
		if !isCanceled(err) {
			api.logger.Warn(fmt.Sprintf("dashboard stream: %v", err), err, owner)
		}
		return nil
	}
	return err
}
