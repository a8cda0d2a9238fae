package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

type contactRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	StudentID  null.String `db:"student_id"`
	Method     string      `db:"method"`
	Category   null.String `db:"category"`
	Subject    null.String `db:"subject"`
	Summary    null.String `db:"summary"`
	OccurredAt time.Time   `db:"occurred_at"`
	CreatedAt  time.Time   `db:"created_at"`

	// joined from students
	FirstName null.String `db:"first_name"`
	LastName  null.String `db:"last_name"`
}

func newContactRow(c contact.Contact) contactRow {
	return contactRow{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		StudentID:  nullString(c.StudentID),
		Method:     string(c.Method),
		Category:   nullString(string(c.Category)),
		Subject:    nullString(c.Subject),
		Summary:    nullString(c.Summary),
		OccurredAt: c.OccurredAt.UTC(),
		CreatedAt:  c.CreatedAt.UTC(),
	}
}

func (r contactRow) contact() contact.Contact {
	c := contact.Contact{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		StudentID:  r.StudentID.String,
		Method:     contact.Method(r.Method),
		Category:   contact.Category(r.Category.String),
		Subject:    r.Subject.String,
		Summary:    r.Summary.String,
		OccurredAt: r.OccurredAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.FirstName.Valid || r.LastName.Valid {
		c.Student = &contact.StudentName{FirstName: r.FirstName.String, LastName: r.LastName.String}
	}
	return c
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

type contactRepository struct {
	db     *sqlx.DB
	logger core.Logger
}

var _ contact.Repository = (*contactRepository)(nil)

func NewContactRepository(db *sqlx.DB, logger core.Logger) contact.Repository {
	return &contactRepository{db: db, logger: logger}
}

const insertContact = `
INSERT INTO contacts (id, owner_id, student_id, method, category, subject, summary, occurred_at, created_at)
VALUES (:id, :owner_id, :student_id, :method, :category, :subject, :summary, :occurred_at, :created_at)`

func (repo *contactRepository) CreateContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	if _, err := repo.db.NamedExecContext(ctx, insertContact, newContactRow(c)); err != nil {
		return contact.Contact{}, errors.Wrap(err, "inserting contact")
	}
	return c, nil
}

const selectContacts = `
SELECT c.id, c.owner_id, c.student_id, c.method, c.category, c.subject, c.summary, c.occurred_at, c.created_at,
       s.first_name, s.last_name
FROM contacts c
LEFT JOIN students s ON s.id = c.student_id`

func (repo *contactRepository) GetContact(ctx context.Context, ownerID, id string) (contact.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return contact.Contact{}, contact.ErrNotFound
	}
	var row contactRow
	err := repo.db.GetContext(ctx, &row, selectContacts+` WHERE c.owner_id = $1 AND c.id = $2`, ownerID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return contact.Contact{}, contact.ErrNotFound
		}
		return contact.Contact{}, errors.Wrap(err, "selecting contact")
	}
	return row.contact(), nil
}

func (repo *contactRepository) QueryRecentContacts(ctx context.Context, ownerID string, limit int) ([]contact.Contact, error) {
	var rows []contactRow
	q := selectContacts + ` WHERE c.owner_id = $1 ORDER BY c.created_at DESC LIMIT $2`
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID, limit); err != nil {
		return nil, errors.Wrap(err, "selecting recent contacts")
	}
	contacts := make([]contact.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.contact())
	}
	return contacts, nil
}

func (repo *contactRepository) QueryStudentContacts(ctx context.Context, ownerID, studentID string) ([]contact.Contact, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return []contact.Contact{}, nil
	}
	var rows []contactRow
	q := selectContacts + ` WHERE c.owner_id = $1 AND c.student_id = $2 ORDER BY c.created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, ownerID, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting student contacts")
	}
	contacts := make([]contact.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.contact())
	}
	return contacts, nil
}

func (repo *contactRepository) CountContacts(ctx context.Context, ownerID string, since time.Time) (int, error) {
	q := `SELECT count(*) FROM contacts WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if !since.IsZero() {
		q += ` AND occurred_at >= $2`
		args = append(args, since.UTC())
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting contacts")
	}
	return count, nil
}

func (repo *contactRepository) FetchRecords(ctx context.Context, rq contact.RecordQuery) ([]contact.Record, error) {
	q, args := recordsQuery(rq)
	var rows []contactRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting contact records")
	}

	records := make([]contact.Record, 0, len(rows))
	for _, row := range rows {
		rec := row.contact().Record()
		if err := rec.Check(); err != nil {
			repo.logger.Warn(fmt.Sprintf("skipping malformed contact row: %v", err), err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// recordsQuery builds the analytics records query; both time bounds are inclusive.
func recordsQuery(rq contact.RecordQuery) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT id, owner_id, student_id, method, category, occurred_at, created_at FROM contacts`)
	b.WriteString(` WHERE owner_id = $1 AND occurred_at >= $2 AND occurred_at <= $3`)
	args := []interface{}{rq.OwnerID, rq.Start.UTC(), rq.End.UTC()}

	if len(rq.Methods) > 0 {
		methods := make([]string, len(rq.Methods))
		for i, m := range rq.Methods {
			methods[i] = string(m)
		}
		args = append(args, pq.Array(methods))
		b.WriteString(` AND method = ANY($` + strconv.Itoa(len(args)) + `)`)
	}
	if len(rq.Categories) > 0 {
		categories := make([]string, len(rq.Categories))
		for i, c := range rq.Categories {
			categories[i] = string(c)
		}
		args = append(args, pq.Array(categories))
		b.WriteString(` AND category = ANY($` + strconv.Itoa(len(args)) + `)`)
	}

	b.WriteString(` ORDER BY occurred_at`)
	return b.String(), args
}
