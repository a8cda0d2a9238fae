package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/student"
)

var studentColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"created_at": "created_at",
	"grade":      "grade",
}

type studentRow struct {
	ID        string      `db:"id"`
	OwnerID   string      `db:"owner_id"`
	FirstName string      `db:"first_name"`
	LastName  string      `db:"last_name"`
	Email     null.String `db:"email"`
	Grade     null.String `db:"grade"`
	Homeroom  null.String `db:"homeroom"`
	CreatedAt time.Time   `db:"created_at"`
}

func newStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     nullString(s.Email),
		Grade:     nullString(s.Grade),
		Homeroom:  nullString(s.Homeroom),
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email.String,
		Grade:     r.Grade.String,
		Homeroom:  r.Homeroom.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

const insertStudent = `
INSERT INTO students (id, owner_id, first_name, last_name, email, grade, homeroom, created_at)
VALUES (:id, :owner_id, :first_name, :last_name, :email, :grade, :homeroom, :created_at)`

func (repo *studentRepository) CreateStudents(ctx context.Context, students ...student.Student) ([]student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range students {
		if _, err = tx.NamedExecContext(ctx, insertStudent, newStudentRow(s)); err != nil {
			return nil, errors.Wrap(err, "inserting student")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing students")
	}
	return students, nil
}

const selectStudents = `SELECT id, owner_id, first_name, last_name, email, grade, homeroom, created_at FROM students`

func (repo *studentRepository) GetStudent(ctx context.Context, ownerID, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, selectStudents+` WHERE owner_id = $1 AND id = $2`, ownerID, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, ownerID string, orderings ...core.DBOrdering) ([]student.Student, error) {
	var rows []studentRow
	q := selectStudents + ` WHERE owner_id = $1 ORDER BY ` + orderBy(orderings)
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *studentRepository) CountStudents(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT count(*) FROM students WHERE owner_id = $1`, ownerID); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

// orderBy renders the ORDER BY terms; unknown fields are ignored.
func orderBy(orderings []core.DBOrdering) string {
	terms := make([]string, 0, len(orderings)+2)
	for _, ord := range orderings {
		if col, ok := studentColumns[ord.Field]; ok {
			terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(terms) == 0 {
		terms = append(terms, "last_name ASC", "first_name ASC")
	}
	return strings.Join(terms, ", ")
}
