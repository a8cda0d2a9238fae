package main

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core/analytics"
)

func (cli *commandLine) report(ownerID string, q analytics.Query, out string) error {
	if err := q.Validate(cli.validate); err != nil {
		return err
	}

	report, err := cli.analyticsSvc.Report(cli.ctx, ownerID, q)
	if err != nil {
		return err
	}

	if out == "-" {
		_, err = cli.out.Write(report.Content)
		return errors.Wrap(err, "writing report")
	}
	if out == "" {
		out = report.Filename
	}
	if err := ioutil.WriteFile(out, report.Content, 0o644); err != nil {
		return errors.Wrap(err, "writing report")
	}

	snap := report.Snapshot
	fmt.Fprintf(cli.out, "%s: %s, %d contact(s), %d student(s) reached\n",
		out, snap.RangeLabel, snap.KPIs.TotalContacts, snap.KPIs.StudentsReached)
	return nil
}
