package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	emailsvc "github.com/trezcool/educonnect/services/email"
	logsvc "github.com/trezcool/educonnect/services/logger"
	"github.com/trezcool/educonnect/storage/database"
	sqlxrepos "github.com/trezcool/educonnect/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	contact.InitValidators(validate, translator)
	analytics.InitValidators(validate, translator)

	cli := commandLine{
		conf:     conf,
		validate: validate,
		out:      os.Stdout,
		ctx:      context.Background(),
	}

	// the database may not exist yet
	if len(os.Args) < 2 || os.Args[1] != "createdb" {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer func() { _ = db.Close() }()

		cli.db = db.DB
		cli.analyticsSvc = analytics.NewService(
			sqlxrepos.NewContactRepository(db, logger),
			emailsvc.NewConsoleService(conf, std),
			logger,
			analytics.Options{Location: conf.Analytics.Location(), ReportPrefix: conf.Analytics.ReportPrefix},
		)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
