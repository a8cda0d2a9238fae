package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/dashboard"
	"github.com/trezcool/educonnect/core/student"
)

type (
	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		Validate     *validator.Validate
		Translator   ut.Translator
		AnalyticsSvc analytics.Service
		ContactSvc   contact.Service
		StudentSvc   student.Service
		DashboardSvc dashboard.Service

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		location *time.Location // default time zone of requests
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		location: deps.Conf.Analytics.Location(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwtConfig := newJWTConfig(conf)
	auth := []echo.MiddlewareFunc{middleware.JWTWithConfig(jwtConfig), ownerMiddleware(conf.Server.JWTAudience)}

	// EventSource clients cannot set headers
	jwtConfig.TokenLookup = "query:" + streamTokenParam
	streamAuth := []echo.MiddlewareFunc{middleware.JWTWithConfig(jwtConfig), ownerMiddleware(conf.Server.JWTAudience)}

	registerAnalyticsAPI(v1, auth, s.deps.AnalyticsSvc, s.deps.Validate, s.location)
	registerContactAPI(v1, auth, s.deps.ContactSvc, s.deps.Validate, s.location)
	registerStudentAPI(v1, auth, s.deps.StudentSvc, s.deps.Validate)
	registerDashboardAPI(v1, auth, streamAuth, s.deps.DashboardSvc, s.deps.Logger, s.location)
}

// Start serves HTTP until the server is shut down; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to stop gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
