package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/storage/database"
)

var (
	createDBFunc = database.CreateIfNotExist // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	ctx          context.Context
	conf         *core.Config
	db           *sql.DB
	validate     *validator.Validate
	analyticsSvc analytics.Service
	out          io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createdb - create the app database and user if they do not exist")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.out, "  report -owner ID [-range R] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-tz ZONE] [-method M,...] [-reason R,...] [-out FILE] - export the analytics PDF")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	reportCmd := flag.NewFlagSet("report", flag.ContinueOnError)
	reportCmd.SetOutput(cli.out)
	reportOwner := reportCmd.String("owner", "", "The teacher (owner) ID.")
	reportRange := reportCmd.String("range", string(analytics.PresetWeek), "Time range: "+presetNames()+".")
	reportStart := reportCmd.String("start", "", "Custom range start date (YYYY-MM-DD).")
	reportEnd := reportCmd.String("end", "", "Custom range end date (YYYY-MM-DD).")
	reportTZ := reportCmd.String("tz", "", "IANA time zone of the range (defaults to the configured one).")
	reportMethods := reportCmd.String("method", "", "Comma separated contact methods to keep.")
	reportReasons := reportCmd.String("reason", "", "Comma separated contact reasons to keep.")
	reportOut := reportCmd.String("out", "", "Output file, '-' for stdout (defaults to the report's file name).")

	switch args[1] {
	case "createdb":
		return createDBFunc(cli.conf)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			if err == flag.ErrHelp {
				return errHelp
			}
			return err
		}
		if strings.TrimSpace(*reportOwner) == "" {
			reportCmd.Usage()
			return errHelp
		}
		q := analytics.Query{
			Range:   *reportRange,
			Start:   *reportStart,
			End:     *reportEnd,
			TZ:      *reportTZ,
			Methods: []string{*reportMethods},
			Reasons: []string{*reportReasons},
		}
		return cli.report(strings.TrimSpace(*reportOwner), q, *reportOut)
	default:
		cli.printUsage()
		return errHelp
	}
}

func presetNames() string {
	names := make([]string, 0, len(analytics.Presets))
	for _, p := range analytics.Presets {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
