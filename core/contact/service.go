package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/student"
)

const (
	// MaxRecent is the length of the recent activity list.
	MaxRecent = 20
	// MaxHistory bounds the contact history searched by filters and exports.
	MaxHistory = 200
)

var (
	// errors
	ErrNotFound = errors.New("contact not found")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateContact(ctx context.Context, c Contact) (Contact, error)
		GetContact(ctx context.Context, ownerID, id string) (Contact, error)
		// QueryRecentContacts returns the owner's latest contacts by creation time, newest first,
		// with their Student names filled in.
		QueryRecentContacts(ctx context.Context, ownerID string, limit int) ([]Contact, error)
		// QueryStudentContacts returns every contact of one student, newest first by creation time.
		QueryStudentContacts(ctx context.Context, ownerID, studentID string) ([]Contact, error)
		// CountContacts counts the owner's contacts that occurred at or after `since` (all of them if zero).
		CountContacts(ctx context.Context, ownerID string, since time.Time) (int, error)
		// FetchRecords returns every Record matching q, both ends inclusive.
		FetchRecords(ctx context.Context, q RecordQuery) ([]Record, error)
	}

	Service interface {
		Create(ctx context.Context, ownerID string, nc NewContact) (Contact, error)
		Get(ctx context.Context, ownerID, id string) (Contact, error)
		// Recent filters the owner's history (the last MaxHistory contacts), then keeps filter.Limit of them.
		Recent(ctx context.Context, ownerID string, filter RecentFilter) ([]Contact, error)
		// History is Recent with the whole history as limit.
		History(ctx context.Context, ownerID string, filter RecentFilter) ([]Contact, error)
		StudentContacts(ctx context.Context, ownerID, studentID string) (student.Student, []Contact, error)
		Count(ctx context.Context, ownerID string, since time.Time) (int, error)
	}

	service struct {
		repo     Repository
		students student.Repository
		bus      core.Broadcaster
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Repository, bus core.Broadcaster, logger core.Logger) Service {
	return &service{
		repo:     repo,
		students: students,
		bus:      bus,
		logger:   logger,
	}
}

func (svc *service) Create(ctx context.Context, ownerID string, nc NewContact) (Contact, error) {
	stu, err := svc.students.GetStudent(ctx, ownerID, nc.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Contact{}, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student not found"})
		}
		return Contact{}, errors.Wrap(err, "finding student")
	}

	now := NowFunc().UTC()
	occurredAt := nc.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}
	c := Contact{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		StudentID:  stu.ID,
		Student:    &StudentName{FirstName: stu.FirstName, LastName: stu.LastName},
		Method:     Method(nc.Method),
		Category:   Category(nc.Category),
		Subject:    nc.Subject,
		Summary:    nc.Summary,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now,
	}
	created, err := svc.repo.CreateContact(ctx, c)
	if err != nil {
		return Contact{}, errors.Wrap(err, "creating contact")
	}
	if created.Student == nil {
		created.Student = c.Student
	}
	svc.publish(ctx, created)
	return created, nil
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Contact, error) {
	return svc.repo.GetContact(ctx, ownerID, id)
}

func (svc *service) Recent(ctx context.Context, ownerID string, filter RecentFilter) ([]Contact, error) {
	filter.Clean()
	contacts, err := svc.repo.QueryRecentContacts(ctx, ownerID, MaxHistory)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent contacts")
	}
	out := make([]Contact, 0, filter.Limit)
	for _, c := range contacts {
		if len(out) == filter.Limit {
			break
		}
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (svc *service) History(ctx context.Context, ownerID string, filter RecentFilter) ([]Contact, error) {
	filter.Limit = MaxHistory
	return svc.Recent(ctx, ownerID, filter)
}

func (svc *service) StudentContacts(ctx context.Context, ownerID, studentID string) (student.Student, []Contact, error) {
	stu, err := svc.students.GetStudent(ctx, ownerID, studentID)
	if err != nil {
		return student.Student{}, nil, errors.Wrap(err, "finding student")
	}
	contacts, err := svc.repo.QueryStudentContacts(ctx, ownerID, stu.ID)
	if err != nil {
		return student.Student{}, nil, errors.Wrap(err, "querying student contacts")
	}
	return stu, contacts, nil
}

func (svc *service) Count(ctx context.Context, ownerID string, since time.Time) (int, error) {
	return svc.repo.CountContacts(ctx, ownerID, since)
}

func (svc *service) publish(ctx context.Context, c Contact) {
	if svc.bus == nil {
		return
	}
	payload, err := json.Marshal(c)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("encoding %s payload: %v", core.EventContactCreated, err), err)
		return
	}
	evt := core.Event{
		ID:         c.ID,
		Name:       core.EventContactCreated,
		OwnerID:    c.OwnerID,
		Payload:    payload,
		OccurredAt: c.CreatedAt,
	}
	if err := svc.bus.Publish(ctx, evt); err != nil {
		svc.logger.Warn(fmt.Sprintf("publishing %s: %v", core.EventContactCreated, err), err)
	}
}
