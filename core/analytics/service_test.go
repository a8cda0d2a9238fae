package analytics

import (
	"context"
	"encoding/base64"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

type fetcherFunc func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error)

func (f fetcherFunc) FetchRecords(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
	return f(ctx, q)
}

type mailOutbox struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

func (o *mailOutbox) SendMessages(messages ...*core.EmailMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, messages...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// errorLogger counts the Error calls.
type errorLogger struct {
	nopLogger
	mu     sync.Mutex
	errors []string
}

func (l *errorLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func mockNow(t *testing.T, now time.Time) {
	NowFunc = func() time.Time { return now }
	t.Cleanup(func() { NowFunc = time.Now })
}

func TestService_Snapshot(t *testing.T) {
	mockNow(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))

	var got contact.RecordQuery
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		got = q
		return []contact.Record{
			rec(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), contact.MethodEmail, contact.CategoryAcademic, "s1"),
		}, nil
	})
	svc := NewService(fetcher, new(mailOutbox), nopLogger{}, Options{Location: time.UTC})

	snap, err := svc.Snapshot(context.Background(), "owner", Query{
		Range:   "custom",
		Start:   "2024-01-01",
		End:     "2024-01-02",
		Methods: []string{"email,phone"},
		Reasons: []string{"Academic"},
	})
	require.NoError(t, err)

	assert.Equal(t, contact.RecordQuery{
		OwnerID:    "owner",
		Start:      date(2024, 1, 1),
		End:        endOf(2024, 1, 2),
		Methods:    []contact.Method{contact.MethodEmail, contact.MethodPhone},
		Categories: []contact.Category{contact.CategoryAcademic},
	}, got)
	assert.Equal(t, "Jan 1, 2024 – Jan 2, 2024", snap.RangeLabel)
	assert.Equal(t, []string{"Method: Email", "Method: Phone", "Reason: Academic"}, snap.Filters)
	assert.Equal(t, 1, snap.KPIs.TotalContacts)
	assert.Len(t, snap.Trend, 2)
}

func TestService_Snapshot_timeZone(t *testing.T) {
	mockNow(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC))
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}

	var got contact.RecordQuery
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		got = q
		return nil, nil
	})
	svc := NewService(fetcher, new(mailOutbox), nopLogger{}, Options{Location: time.UTC})

	_, err = svc.Snapshot(context.Background(), "owner", Query{TZ: "America/New_York"})
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(date(2023, 12, 25, loc)), "start = %v", got.Start)
}

func TestService_Snapshot_fetchError(t *testing.T) {
	errDown := errors.New("database is down")
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		return nil, errDown
	})
	svc := NewService(fetcher, new(mailOutbox), nopLogger{}, Options{})

	_, err := svc.Snapshot(context.Background(), "owner", Query{})
	assert.Equal(t, errDown, errors.Cause(err))
}

func TestService_Report(t *testing.T) {
	mockNow(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		return nil, nil
	})
	svc := NewService(fetcher, new(mailOutbox), nopLogger{}, Options{Location: time.UTC, ReportPrefix: "educonnect-analytics"})

	report, err := svc.Report(context.Background(), "owner", Query{Range: "month"})
	require.NoError(t, err)
	assert.Equal(t, "educonnect-analytics-2024-01-03.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)

	want, err := EncodeSnapshot(report.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, want, report.Content)
}

func TestService_EmailReport(t *testing.T) {
	mockNow(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		return nil, nil
	})
	outbox := new(mailOutbox)
	svc := NewService(fetcher, outbox, nopLogger{}, Options{Location: time.UTC})

	err := svc.EmailReport(context.Background(), "owner", mail.Address{}, Query{})
	assert.True(t, core.IsValidationError(err))

	to := mail.Address{Name: "Ms. Teacher", Address: "teacher@school.test"}
	require.NoError(t, svc.EmailReport(context.Background(), "owner", to, Query{}))
	require.Len(t, outbox.messages, 1)

	msg := outbox.messages[0]
	assert.Equal(t, []mail.Address{to}, msg.To)
	assert.Equal(t, "EduConnect Analytics Summary (Jan 1, 2024 – Jan 3, 2024)", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "educonnect-analytics-2024-01-03.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	content, err := base64.StdEncoding.DecodeString(msg.Attachments[0].Content.String())
	require.NoError(t, err)
	assert.Contains(t, string(content), "%PDF-1.4")
}

func TestService_Snapshot_canceledFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		cancel()
		return nil, errors.New("pq: canceling statement due to user request")
	})
	svc := NewService(fetcher, new(mailOutbox), nopLogger{}, Options{})

	_, err := svc.Report(ctx, "owner", Query{})
	assert.Equal(t, context.Canceled, err)
}

func TestService_Report_encodingFailure(t *testing.T) {
	mockNow(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))
	EncodeFunc = func(Snapshot) ([]byte, error) { panic("font table exploded") }
	t.Cleanup(func() { EncodeFunc = EncodeSnapshot })

	fetcher := fetcherFunc(func(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
		return nil, nil
	})
	logger := new(errorLogger)
	outbox := new(mailOutbox)
	svc := NewService(fetcher, outbox, logger, Options{Location: time.UTC})

	_, err := svc.Report(context.Background(), "owner", Query{})
	assert.Equal(t, ErrDocument, err)
	assert.Equal(t, "We couldn't prepare the PDF. Please try again.", err.Error())
	assert.Equal(t, []string{"encoding analytics report"}, logger.errors)

	to := mail.Address{Address: "teacher@school.test"}
	assert.Equal(t, ErrDocument, svc.EmailReport(context.Background(), "owner", to, Query{}))
	assert.Empty(t, outbox.messages)
}
