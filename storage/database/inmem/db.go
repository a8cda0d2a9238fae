package inmemdb

import (
	"sync"

	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/student"
)

type (
	DB struct {
		contact *contactTable
		student *studentTable
	}

	contactTable struct {
		table map[string]*contact.Contact
		mutex sync.RWMutex
	}

	studentTable struct {
		table map[string]*student.Student
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		contact: &contactTable{table: make(map[string]*contact.Contact)},
		student: &studentTable{table: make(map[string]*student.Student)},
	}
}

// Flush empties every table.
func (db *DB) Flush() {
	db.contact.mutex.Lock()
	db.contact.table = make(map[string]*contact.Contact)
	db.contact.mutex.Unlock()

	db.student.mutex.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.mutex.Unlock()
}
