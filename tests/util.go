package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/student"
	logsvc "github.com/trezcool/educonnect/services/logger"
)

// NewLogger returns a Logger that discards everything.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "TEST : ", 0), core.NewTestConfig())
}

func CreateStudent(t *testing.T, repo student.Repository, ownerID, first, last string, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	stu := student.Student{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		FirstName: first,
		LastName:  last,
		CreatedAt: tstamp,
	}
	if _, err := repo.CreateStudents(context.Background(), stu); err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return stu
}

func CreateContact(
	t *testing.T,
	repo contact.Repository,
	stu student.Student,
	method contact.Method,
	category contact.Category,
	occurredAt time.Time,
	createdAt ...time.Time,
) contact.Contact {
	tstamp := occurredAt.UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c := contact.Contact{
		ID:         uuid.New().String(),
		OwnerID:    stu.OwnerID,
		StudentID:  stu.ID,
		Method:     method,
		Category:   category,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  tstamp,
	}
	c, err := repo.CreateContact(context.Background(), c)
	if err != nil {
		t.Fatalf("createContact() failed: %v", err)
	}
	c.Student = &contact.StudentName{FirstName: stu.FirstName, LastName: stu.LastName}
	return c
}
