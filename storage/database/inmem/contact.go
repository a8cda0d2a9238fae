package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/educonnect/core/contact"
)

type contactRepository struct {
	db       *contactTable
	students *studentTable
}

var _ contact.Repository = (*contactRepository)(nil)

func NewContactRepository(db *DB) contact.Repository {
	return &contactRepository{db: db.contact, students: db.student}
}

// query returns the owner's contacts; the caller holds the read lock.
func (repo *contactRepository) query(ownerID string) []contact.Contact {
	contacts := make([]contact.Contact, 0)
	for _, c := range repo.db.table {
		if c.OwnerID == ownerID {
			contacts = append(contacts, *c)
		}
	}
	return contacts
}

func (repo *contactRepository) withStudent(c contact.Contact) contact.Contact {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	c.Student = nil
	if s, ok := repo.students.table[c.StudentID]; ok {
		c.Student = &contact.StudentName{FirstName: s.FirstName, LastName: s.LastName}
	}
	return c
}

func (repo *contactRepository) CreateContact(_ context.Context, c contact.Contact) (contact.Contact, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored := c
	stored.Student = nil
	repo.db.table[c.ID] = &stored
	return c, nil
}

func (repo *contactRepository) GetContact(_ context.Context, ownerID, id string) (contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok && c.OwnerID == ownerID {
		return repo.withStudent(*c), nil
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (repo *contactRepository) QueryRecentContacts(_ context.Context, ownerID string, limit int) ([]contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := repo.query(ownerID)
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].CreatedAt.After(contacts[j].CreatedAt) })
	if limit > 0 && len(contacts) > limit {
		contacts = contacts[:limit]
	}
	for i := range contacts {
		contacts[i] = repo.withStudent(contacts[i])
	}
	return contacts, nil
}

func (repo *contactRepository) QueryStudentContacts(_ context.Context, ownerID, studentID string) ([]contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := make([]contact.Contact, 0)
	for _, c := range repo.query(ownerID) {
		if c.StudentID == studentID {
			contacts = append(contacts, repo.withStudent(c))
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].CreatedAt.After(contacts[j].CreatedAt) })
	return contacts, nil
}

func (repo *contactRepository) CountContacts(_ context.Context, ownerID string, since time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, c := range repo.query(ownerID) {
		if since.IsZero() || !c.OccurredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (repo *contactRepository) FetchRecords(ctx context.Context, q contact.RecordQuery) ([]contact.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	methods := make(map[contact.Method]bool, len(q.Methods))
	for _, m := range q.Methods {
		methods[m] = true
	}
	categories := make(map[contact.Category]bool, len(q.Categories))
	for _, c := range q.Categories {
		categories[c] = true
	}

	records := make([]contact.Record, 0)
	for _, c := range repo.query(q.OwnerID) {
		if c.OccurredAt.Before(q.Start) || c.OccurredAt.After(q.End) {
			continue
		}
		if len(methods) > 0 && !methods[c.Method] {
			continue
		}
		if len(categories) > 0 && !categories[c.Category] {
			continue
		}
		records = append(records, c.Record())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].OccurredAt.Before(records[j].OccurredAt) })
	return records, nil
}
