package echoapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/student"
)

// maxRosterSize bounds roster uploads.
const maxRosterSize = 1 << 20

type studentApi struct {
	svc      student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, auth []echo.MiddlewareFunc, svc student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students", auth...)
	sg.POST("", api.create)
	sg.POST("/bulk", api.createMany)
	sg.POST("/import", api.importRoster)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), owner.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) createMany(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var data student.BulkNewStudents
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkNewStudents")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	students, err := api.svc.CreateMany(ctx.Request().Context(), owner.ID, data.Students...)
	if err != nil {
		return errors.Wrap(err, "creating students")
	}
	return ctx.JSON(http.StatusCreated, students)
}

// importRoster accepts a multipart "file" upload or a raw CSV body.
func (api *studentApi) importRoster(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var r io.Reader
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile("file")
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "file", Error: "a roster file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening roster")
		}
		defer func() { _ = f.Close() }()
		r = f
	} else {
		r = ctx.Request().Body
	}

	res, err := api.svc.ImportRoster(ctx.Request().Context(), owner.ID, io.LimitReader(r, maxRosterSize))
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *studentApi) query(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var ordering Ordering
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), owner.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	s, err := api.svc.Get(ctx.Request().Context(), owner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, s)
}
