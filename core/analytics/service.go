package analytics

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

const ReportContentType = "application/pdf"

var (
	// errors
	ErrDocument = errors.New("We couldn't prepare the PDF. Please try again.")

	NowFunc    = time.Now       // mockable
	EncodeFunc = EncodeSnapshot // mockable
)

type (
	// Fetcher returns the owner's contact records within a time range, both ends inclusive.
	Fetcher interface {
		FetchRecords(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error)
	}

	// Report is a rendered analytics document.
	Report struct {
		Filename    string
		ContentType string
		Content     []byte
		Snapshot    Snapshot
	}

	Options struct {
		Location     *time.Location // default time zone of requests without one
		ReportPrefix string
	}

	Service interface {
		// Snapshot computes the analytics of `ownerID`. A newer Snapshot call for the same owner
		// supersedes this one, which then returns ErrSuperseded.
		Snapshot(ctx context.Context, ownerID string, q Query) (Snapshot, error)
		Report(ctx context.Context, ownerID string, q Query) (Report, error)
		EmailReport(ctx context.Context, ownerID string, to mail.Address, q Query) error
	}

	service struct {
		fetcher Fetcher
		loader  *Loader
		mailSvc core.EmailService
		logger  core.Logger
		opts    Options
	}
)

var _ Service = (*service)(nil)

func NewService(fetcher Fetcher, mailSvc core.EmailService, logger core.Logger, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.ReportPrefix == "" {
		opts.ReportPrefix = "educonnect-analytics"
	}
	return &service{
		fetcher: fetcher,
		loader:  NewLoader(),
		mailSvc: mailSvc,
		logger:  logger,
		opts:    opts,
	}
}

func (svc *service) Snapshot(ctx context.Context, ownerID string, q Query) (Snapshot, error) {
	return svc.loader.Load(ctx, ownerID, func(ctx context.Context) (Snapshot, error) {
		return svc.compute(ctx, ownerID, q)
	})
}

func (svc *service) compute(ctx context.Context, ownerID string, q Query) (Snapshot, error) {
	q.Clean()
	now := NowFunc().In(q.Location(svc.opts.Location))
	rng := Resolve(q.Preset(), now, q.Start, q.End)
	filters := q.Filters()

	records, err := svc.fetcher.FetchRecords(ctx, contact.RecordQuery{
		OwnerID:    ownerID,
		Start:      rng.Start,
		End:        rng.End,
		Methods:    filters.Methods,
		Categories: filters.Categories,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		// drivers report cancellation with their own errors
		return Snapshot{}, ctxErr
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "fetching records")
	}
	return NewSnapshot(Aggregate(records, rng), rng, filters, now), nil
}

func (svc *service) Report(ctx context.Context, ownerID string, q Query) (Report, error) {
	snap, err := svc.compute(ctx, ownerID, q)
	if err != nil {
		return Report{}, err
	}

	doc, err := encodeSnapshot(snap)
	if err != nil {
		svc.logger.Error("encoding analytics report", err, core.Person{ID: ownerID})
		return Report{}, ErrDocument
	}
	return Report{
		Filename:    ReportFilename(svc.opts.ReportPrefix, snap.GeneratedAt),
		ContentType: ReportContentType,
		Content:     doc,
		Snapshot:    snap,
	}, nil
}

func (svc *service) EmailReport(ctx context.Context, ownerID string, to mail.Address, q Query) error {
	if to.Address == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "no email address to send the report to"})
	}
	report, err := svc.Report(ctx, ownerID, q)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{to},
		Subject: ReportTitle + " (" + report.Snapshot.RangeLabel + ")",
		TextContent: fmt.Sprintf(
			"Your analytics summary for %s is attached.\n\nTotal contacts: %d\nStudents reached: %d\n",
			report.Snapshot.RangeLabel, report.Snapshot.KPIs.TotalContacts, report.Snapshot.KPIs.StudentsReached,
		),
	}
	if err := msg.Attach(bytes.NewReader(report.Content), report.Filename, report.ContentType); err != nil {
		return errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// encodeSnapshot is EncodeFunc turning panics into errors.
func encodeSnapshot(s Snapshot) (doc []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, errors.Errorf("panic: %v", r)
		}
	}()
	return EncodeFunc(s)
}
