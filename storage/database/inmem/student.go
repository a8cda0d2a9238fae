package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query(ownerID string) []student.Student {
	students := make([]student.Student, 0)
	for _, s := range repo.db.table {
		if s.OwnerID == ownerID {
			students = append(students, *s)
		}
	}
	return students
}

func (repo *studentRepository) CreateStudents(_ context.Context, students ...student.Student) ([]student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range students {
		s := students[i]
		repo.db.table[s.ID] = &s
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, ownerID, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok && s.OwnerID == ownerID {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, ownerID string, orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
	}
	students := repo.query(ownerID)
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareStudents(students[i], students[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo *studentRepository) CountStudents(_ context.Context, ownerID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(ownerID)), nil
}

func compareStudents(a, b student.Student, field string) int {
	switch field {
	case "first_name":
		return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
	case "last_name":
		return strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName))
	case "grade":
		return strings.Compare(a.Grade, b.Grade)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}
