package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
)

type analyticsApi struct {
	svc      analytics.Service
	validate *validator.Validate
	location *time.Location
}

func registerAnalyticsAPI(
	g *echo.Group,
	auth []echo.MiddlewareFunc,
	svc analytics.Service,
	validate *validator.Validate,
	location *time.Location,
) {
	api := analyticsApi{svc: svc, validate: validate, location: location}

	ag := g.Group("/analytics", auth...)
	ag.GET("", api.snapshot)
	ag.GET("/report", api.report)
	ag.POST("/report/email", api.emailReport)
}

func (api *analyticsApi) bindQuery(ctx echo.Context) (analytics.Query, error) {
	var q analytics.Query
	if err := ctx.Bind(&q); err != nil {
		return q, errors.Wrap(err, "binding to analytics.Query")
	}
	if err := q.Validate(api.validate); err != nil {
		return q, err
	}
	if q.TZ == "" {
		q.TZ = api.location.String()
	}
	return q, nil
}

// loadingError hides fetch failures behind a friendly message.
func loadingError(err error) error {
	switch errors.Cause(err) {
	case analytics.ErrSuperseded, analytics.ErrDocument:
		return err
	}
	if core.IsValidationError(err) || isCanceled(err) {
		return err
	}
	return echo.NewHTTPError(http.StatusInternalServerError, errAnalyticsLoading).SetInternal(err)
}

// Handlers

func (api *analyticsApi) snapshot(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}
	q, err := api.bindQuery(ctx)
	if err != nil {
		return err
	}

	snap, err := api.svc.Snapshot(ctx.Request().Context(), owner.ID, q)
	if err != nil {
		return loadingError(err)
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *analyticsApi) report(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}
	q, err := api.bindQuery(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.Report(ctx.Request().Context(), owner.ID, q)
	if err != nil {
		return loadingError(err)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return ctx.Blob(http.StatusOK, report.ContentType, report.Content)
}

func (api *analyticsApi) emailReport(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}
	q, err := api.bindQuery(ctx)
	if err != nil {
		return err
	}

	to := mail.Address{Address: owner.Email}
	if err := api.svc.EmailReport(ctx.Request().Context(), owner.ID, to, q); err != nil {
		return loadingError(err)
	}
	return ctx.NoContent(http.StatusAccepted)
}
