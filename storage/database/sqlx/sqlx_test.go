package sqlxrepos

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

func Test_recordsQuery(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 23, 59, 59, 999000000, time.UTC)
	base := `SELECT id, owner_id, student_id, method, category, occurred_at, created_at FROM contacts` +
		` WHERE owner_id = $1 AND occurred_at >= $2 AND occurred_at <= $3`

	tests := []struct {
		name     string
		rq       contact.RecordQuery
		wantQ    string
		wantArgs []interface{}
	}{
		{
			name:     "no filters",
			rq:       contact.RecordQuery{OwnerID: "o", Start: start, End: end},
			wantQ:    base + ` ORDER BY occurred_at`,
			wantArgs: []interface{}{"o", start, end},
		},
		{
			name:     "methods",
			rq:       contact.RecordQuery{OwnerID: "o", Start: start, End: end, Methods: []contact.Method{"email", "phone"}},
			wantQ:    base + ` AND method = ANY($4) ORDER BY occurred_at`,
			wantArgs: []interface{}{"o", start, end, pq.Array([]string{"email", "phone"})},
		},
		{
			name:     "reasons",
			rq:       contact.RecordQuery{OwnerID: "o", Start: start, End: end, Categories: []contact.Category{"academic"}},
			wantQ:    base + ` AND category = ANY($4) ORDER BY occurred_at`,
			wantArgs: []interface{}{"o", start, end, pq.Array([]string{"academic"})},
		},
		{
			name: "both",
			rq: contact.RecordQuery{
				OwnerID: "o", Start: start, End: end,
				Methods: []contact.Method{"video"}, Categories: []contact.Category{"academic", "positive"},
			},
			wantQ:    base + ` AND method = ANY($4) AND category = ANY($5) ORDER BY occurred_at`,
			wantArgs: []interface{}{"o", start, end, pq.Array([]string{"video"}), pq.Array([]string{"academic", "positive"})},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := recordsQuery(tt.rq)
			assert.Equal(t, tt.wantQ, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_contactRow(t *testing.T) {
	at := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	c := contact.Contact{ID: "c1", OwnerID: "o", Method: contact.MethodEmail, OccurredAt: at, CreatedAt: at}

	row := newContactRow(c)
	assert.False(t, row.StudentID.Valid)
	assert.False(t, row.Category.Valid)
	assert.Equal(t, c, row.contact())

	row.FirstName.SetValid("Ada")
	row.LastName.SetValid("Lovelace")
	assert.Equal(t, &contact.StudentName{FirstName: "Ada", LastName: "Lovelace"}, row.contact().Student)
}

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name      string
		orderings []core.DBOrdering
		want      string
	}{
		{name: "default", want: "last_name ASC, first_name ASC"},
		{name: "grade desc", orderings: []core.DBOrdering{{Field: "grade"}}, want: "grade DESC"},
		{
			name:      "unknown ignored",
			orderings: []core.DBOrdering{{Field: "id; DROP TABLE students"}, {Field: "created_at", Ascending: true}},
			want:      "created_at ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.orderings); got != tt.want {
				t.Errorf("orderBy() = %q; want %q", got, tt.want)
			}
		})
	}
}
