package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/educonnect/apps/api/echo"
	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/dashboard"
	"github.com/trezcool/educonnect/core/student"
	"github.com/trezcool/educonnect/services/broadcast"
	emailsvc "github.com/trezcool/educonnect/services/email"
	logsvc "github.com/trezcool/educonnect/services/logger"
	"github.com/trezcool/educonnect/storage/database"
	sqlxrepos "github.com/trezcool/educonnect/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf         *core.Config
	Logger       core.Logger
	Validate     *validator.Validate
	Translator   ut.Translator
	AnalyticsSvc analytics.Service
	ContactSvc   contact.Service
	StudentSvc   student.Service
	DashboardSvc dashboard.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

// newBroadcaster uses Redis when configured, an in-process bus otherwise.
func newBroadcaster(conf *core.Config, logger core.Logger) core.Broadcaster {
	if conf.Redis.Address == "" {
		logger.Info("broadcasting in-process: no redis configured")
		return broadcast.NewMemoryBroadcaster()
	}
	rdb, err := broadcast.NewRedisClient(context.Background(), conf.Redis)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return broadcast.NewRedisBroadcaster(rdb, conf.Redis.Channel, logger)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "EMAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newContactRepository(db *sqlx.DB, loggerParam DBLoggerParam) contact.Repository {
	return sqlxrepos.NewContactRepository(db, loggerParam.Logger)
}

func newAnalyticsService(conf *core.Config, repo contact.Repository, mailSvc core.EmailService, logger core.Logger) analytics.Service {
	return analytics.NewService(repo, mailSvc, logger, analytics.Options{
		Location:     conf.Analytics.Location(),
		ReportPrefix: conf.Analytics.ReportPrefix,
	})
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:         p.Conf,
		Logger:       p.Logger,
		Validate:     p.Validate,
		Translator:   p.Translator,
		AnalyticsSvc: p.AnalyticsSvc,
		ContactSvc:   p.ContactSvc,
		StudentSvc:   p.StudentSvc,
		DashboardSvc: p.DashboardSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newBroadcaster))
	must(c.Provide(newEmailService))
	must(c.Provide(newContactRepository))
	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(contact.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newAnalyticsService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
