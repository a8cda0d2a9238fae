package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core/contact"
)

type contactApi struct {
	svc      contact.Service
	validate *validator.Validate
	location *time.Location
}

func registerContactAPI(
	g *echo.Group,
	auth []echo.MiddlewareFunc,
	svc contact.Service,
	validate *validator.Validate,
	location *time.Location,
) {
	api := contactApi{svc: svc, validate: validate, location: location}

	cg := g.Group("/contacts", auth...)
	cg.POST("", api.create)
	cg.GET("", api.recent)
	cg.GET("/options", api.options)
	cg.GET("/export", api.export)
	cg.GET("/:id", api.retrieve)

	g.GET("/students/:id/contacts/export", api.exportStudent, auth...)
}

// sendCSV renders `contacts` as a CSV attachment named `filename`.
func (api *contactApi) sendCSV(ctx echo.Context, filename string, contacts []contact.Contact) error {
	loc, err := requestLocation(ctx, api.location)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := contact.WriteCSV(&buf, contacts, loc); err != nil {
		return errors.Wrap(err, "exporting contacts")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, contact.ExportContentType, buf.Bytes())
}

// Handlers

func (api *contactApi) create(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var data contact.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), owner.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating contact")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *contactApi) recent(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var filter contact.RecentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to RecentFilter")
	}

	contacts, err := api.svc.Recent(ctx.Request().Context(), owner.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying recent contacts")
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *contactApi) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"methods": contact.Methods,
		"reasons": contact.Categories,
	})
}

func (api *contactApi) retrieve(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Get(ctx.Request().Context(), owner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting contact")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contactApi) export(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var filter contact.RecentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to RecentFilter")
	}
	filter.Clean()

	contacts, err := api.svc.History(ctx.Request().Context(), owner.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying contact history")
	}
	return api.sendCSV(ctx, contact.ExportFilename(filter, contact.NowFunc()), contacts)
}

func (api *contactApi) exportStudent(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	stu, contacts, err := api.svc.StudentContacts(ctx.Request().Context(), owner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student contacts")
	}
	return api.sendCSV(ctx, contact.StudentExportFilename(stu, contact.NowFunc()), contacts)
}
