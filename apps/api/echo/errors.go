package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/student"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpSuperseded   = echo.NewHTTPError(http.StatusConflict, analytics.ErrSuperseded.Error())
	errAnalyticsLoading = "Failed to load analytics."
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch cause {
		case context.Canceled:
			// the client went away
			return
		case analytics.ErrSuperseded:
			cause = errHttpSuperseded
		case contact.ErrNotFound, student.ErrNotFound:
			cause = errHttpNotFound
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			internal := origErr.Internal
			if herr, ok := internal.(*echo.HTTPError); ok {
				origErr, internal = herr, herr.Internal
			}
			code = origErr.Code
			message = origErr.Message
			if code >= http.StatusInternalServerError && internal != nil {
				logger.Error(http.StatusText(code), internal, contextPerson(ctx))
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if cause == analytics.ErrDocument {
				// already logged when encoding
				message = cause.Error()
			} else {
				logger.Error(msg, errors.Wrap(err, msg), contextPerson(ctx))
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func contextPerson(ctx echo.Context) core.Person {
	p, _ := getContextOwner(ctx)
	return p
}
