package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
)

// Student is a pupil tracked by a teacher (the owner).
type Student struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Grade     string    `json:"grade,omitempty"`
	Homeroom  string    `json:"homeroom,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// DisplayName renders the student as "Last, First".
func (s Student) DisplayName() string {
	return s.LastName + ", " + s.FirstName
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Grade     string `json:"grade" validate:"omitempty,max=20,alphanum_"`
	Homeroom  string `json:"homeroom" validate:"omitempty,max=50"`
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Homeroom = core.CleanString(ns.Homeroom)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

// BulkNewStudents is the payload of a bulk creation.
type BulkNewStudents struct {
	Students []NewStudent `json:"students" validate:"required,min=1,max=500,dive"`
}

func (bs *BulkNewStudents) Validate(validate *validator.Validate) error {
	for i := range bs.Students {
		bs.Students[i].Clean()
	}
	return validate.Struct(bs)
}
