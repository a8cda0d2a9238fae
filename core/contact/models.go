package contact

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
)

// Method is the channel a contact happened through.
type Method string

const (
	MethodEmail    Method = "email"
	MethodPhone    Method = "phone"
	MethodInPerson Method = "in_person"
	MethodVideo    Method = "video"
	MethodMessage  Method = "message"
	MethodOther    Method = "other"
)

// Category is the reason of a contact. The zero value means uncategorized.
type Category string

const (
	CategoryAcademic   Category = "academic"
	CategoryBehavior   Category = "behavior"
	CategoryAttendance Category = "attendance"
	CategoryPositive   Category = "positive"
	CategoryAdmin      Category = "admin"
	CategoryOther      Category = "other"

	// Uncategorized is the reason key used for contacts without a Category.
	Uncategorized Category = "uncategorized"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var (
	Methods = []Option{
		{Value: string(MethodEmail), Label: "Email"},
		{Value: string(MethodPhone), Label: "Phone"},
		{Value: string(MethodInPerson), Label: "In person"},
		{Value: string(MethodVideo), Label: "Video"},
		{Value: string(MethodMessage), Label: "Message"},
		{Value: string(MethodOther), Label: "Other"},
	}

	Categories = []Option{
		{Value: string(CategoryAcademic), Label: "Academic"},
		{Value: string(CategoryBehavior), Label: "Behavior"},
		{Value: string(CategoryAttendance), Label: "Attendance"},
		{Value: string(CategoryPositive), Label: "Positive"},
		{Value: string(CategoryAdmin), Label: "Admin"},
		{Value: string(CategoryOther), Label: "Other"},
	}
)

func lookup(opts []Option, value string) (string, bool) {
	for _, o := range opts {
		if o.Value == value {
			return o.Label, true
		}
	}
	return "", false
}

// MethodLabel returns the display label of `m`; unknown values are returned as is.
func MethodLabel(m Method) string {
	if label, ok := lookup(Methods, string(m)); ok {
		return label
	}
	return string(m)
}

// CategoryLabel returns the display label of `c`; unknown values are returned as is.
func CategoryLabel(c Category) string {
	if c == Uncategorized {
		return "Uncategorized"
	}
	if label, ok := lookup(Categories, string(c)); ok {
		return label
	}
	return string(c)
}

func IsMethod(value string) bool {
	_, ok := lookup(Methods, value)
	return ok
}

func IsCategory(value string) bool {
	_, ok := lookup(Categories, value)
	return ok
}

// Record is the read model of a contact used by analytics.
type Record struct {
	ID         string
	OwnerID    string
	StudentID  string // empty when the contact is not linked to a student
	OccurredAt time.Time
	CreatedAt  time.Time
	Method     Method
	Category   Category // empty when uncategorized
}

var (
	errRecordNoID       = errors.New("record has no id")
	errRecordNoOwner    = errors.New("record has no owner")
	errRecordNoMethod   = errors.New("record has no method")
	errRecordNoOccurred = errors.New("record has no occurrence time")
)

// Check validates the shape of a Record read from storage.
// Unknown method or category values are accepted; they are labelled with their raw value.
func (r Record) Check() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errRecordNoID
	case strings.TrimSpace(r.OwnerID) == "":
		return errRecordNoOwner
	case strings.TrimSpace(string(r.Method)) == "":
		return errors.Wrap(errRecordNoMethod, r.ID)
	case r.OccurredAt.IsZero():
		return errors.Wrap(errRecordNoOccurred, r.ID)
	}
	return nil
}

// ReasonKey returns the Category, or Uncategorized when empty.
func (r Record) ReasonKey() Category {
	if r.Category == "" {
		return Uncategorized
	}
	return r.Category
}

type StudentName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Contact is a logged communication with a student's family.
type Contact struct {
	ID         string       `json:"id"`
	OwnerID    string       `json:"owner_id"`
	StudentID  string       `json:"student_id,omitempty"`
	Student    *StudentName `json:"student"`
	Method     Method       `json:"method"`
	Category   Category     `json:"category,omitempty"`
	Subject    string       `json:"subject,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"` // UTC
	CreatedAt  time.Time    `json:"created_at"`  // UTC
}

func (c Contact) Record() Record {
	return Record{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		StudentID:  c.StudentID,
		OccurredAt: c.OccurredAt,
		CreatedAt:  c.CreatedAt,
		Method:     c.Method,
		Category:   c.Category,
	}
}

// NewContact contains information needed to log a new Contact.
type NewContact struct {
	StudentID  string    `json:"student_id" validate:"required"`
	Method     string    `json:"method" validate:"required,contact_method"`
	Category   string    `json:"category" validate:"omitempty,contact_category"`
	Subject    string    `json:"subject" validate:"omitempty,max=200"`
	Summary    string    `json:"summary" validate:"omitempty,max=5000"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (nc *NewContact) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	nc.Method = core.CleanString(nc.Method, true /* lower */)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Summary = core.CleanString(nc.Summary)
	return validate.Struct(nc)
}

// RecordQuery selects the records of one owner that occurred within [Start, End].
// Empty Methods or Categories mean no restriction.
type RecordQuery struct {
	OwnerID    string
	Start      time.Time
	End        time.Time
	Methods    []Method
	Categories []Category
}

// RecentFilter narrows a recent activity list, case-insensitively.
type RecentFilter struct {
	Student string `query:"student"`
	Reason  string `query:"reason"`
	Method  string `query:"method"`
	Limit   int    `query:"limit"`
}

func (f *RecentFilter) Clean() {
	f.Student = core.CleanString(f.Student, true /* lower */)
	f.Reason = core.CleanString(f.Reason, true /* lower */)
	f.Method = core.CleanString(f.Method, true /* lower */)
	switch {
	case f.Limit <= 0:
		f.Limit = MaxRecent
	case f.Limit > MaxHistory:
		f.Limit = MaxHistory
	}
}

// Match reports whether `c` passes the filter.
func (f RecentFilter) Match(c Contact) bool {
	if f.Student != "" {
		if c.Student == nil {
			return false
		}
		name := strings.ToLower(c.Student.LastName + ", " + c.Student.FirstName)
		if !strings.Contains(name, f.Student) {
			return false
		}
	}
	if f.Reason != "" && !strings.Contains(strings.ToLower(string(c.Category)), f.Reason) {
		return false
	}
	if f.Method != "" && !strings.Contains(strings.ToLower(string(c.Method)), f.Method) {
		return false
	}
	return true
}
