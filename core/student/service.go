package student

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")

	// sortable fields
	orderableFields = map[string]bool{"first_name": true, "last_name": true, "created_at": true, "grade": true}

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateStudents(ctx context.Context, students ...Student) ([]Student, error)
		GetStudent(ctx context.Context, ownerID, id string) (Student, error)
		// QueryStudents returns the owner's students, by last name when no ordering is given.
		QueryStudents(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]Student, error)
		CountStudents(ctx context.Context, ownerID string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ownerID string, ns NewStudent) (Student, error)
		CreateMany(ctx context.Context, ownerID string, nss ...NewStudent) ([]Student, error)
		// ImportRoster parses a CSV roster and creates the valid rows.
		ImportRoster(ctx context.Context, ownerID string, r io.Reader) (ImportResult, error)
		Get(ctx context.Context, ownerID, id string) (Student, error)
		Query(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]Student, error)
		Count(ctx context.Context, ownerID string) (int, error)
	}

	ImportResult struct {
		Created []Student  `json:"created"`
		Errors  []RowError `json:"errors"`
	}

	service struct {
		repo   Repository
		bus    core.Broadcaster
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, bus core.Broadcaster, logger core.Logger) Service {
	return &service{repo: repo, bus: bus, logger: logger}
}

func (svc *service) Create(ctx context.Context, ownerID string, ns NewStudent) (Student, error) {
	created, err := svc.CreateMany(ctx, ownerID, ns)
	if err != nil {
		return Student{}, err
	}
	return created[0], nil
}

func (svc *service) CreateMany(ctx context.Context, ownerID string, nss ...NewStudent) ([]Student, error) {
	if len(nss) == 0 {
		return []Student{}, nil
	}
	now := NowFunc().UTC()
	students := make([]Student, 0, len(nss))
	for _, ns := range nss {
		ns.Clean()
		students = append(students, Student{
			ID:        uuid.New().String(),
			OwnerID:   ownerID,
			FirstName: ns.FirstName,
			LastName:  ns.LastName,
			Email:     ns.Email,
			Grade:     ns.Grade,
			Homeroom:  ns.Homeroom,
			CreatedAt: now,
		})
	}

	created, err := svc.repo.CreateStudents(ctx, students...)
	if err != nil {
		return nil, errors.Wrap(err, "creating students")
	}
	for _, s := range created {
		svc.publish(ctx, s)
	}
	return created, nil
}

func (svc *service) ImportRoster(ctx context.Context, ownerID string, r io.Reader) (ImportResult, error) {
	roster, err := ParseRoster(r)
	if err != nil {
		return ImportResult{}, core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}
	created, err := svc.CreateMany(ctx, ownerID, roster.Students...)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Created: created, Errors: roster.Errors}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}
	return res, nil
}

func (svc *service) Get(ctx context.Context, ownerID, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, ownerID, id)
}

func (svc *service) Query(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]Student, error) {
	for _, ord := range orderings {
		if !orderableFields[ord.Field] {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "ordering",
				Error: fmt.Sprintf("cannot order by %q", ord.Field),
			})
		}
	}
	return svc.repo.QueryStudents(ctx, ownerID, orderings...)
}

func (svc *service) Count(ctx context.Context, ownerID string) (int, error) {
	return svc.repo.CountStudents(ctx, ownerID)
}

func (svc *service) publish(ctx context.Context, s Student) {
	if svc.bus == nil {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("encoding %s payload: %v", core.EventStudentCreated, err), err)
		return
	}
	evt := core.Event{
		ID:         s.ID,
		Name:       core.EventStudentCreated,
		OwnerID:    s.OwnerID,
		Payload:    payload,
		OccurredAt: s.CreatedAt,
	}
	if err := svc.bus.Publish(ctx, evt); err != nil {
		// realtime is best effort; the student is already stored
		svc.logger.Warn(fmt.Sprintf("publishing %s: %v", core.EventStudentCreated, err), err)
	}
}
