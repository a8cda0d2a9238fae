package contact

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educonnect/core"
)

func TestLabels(t *testing.T) {
	assert.Equal(t, "In person", MethodLabel(MethodInPerson))
	assert.Equal(t, "carrier_pigeon", MethodLabel("carrier_pigeon"))
	assert.Equal(t, "Behavior", CategoryLabel(CategoryBehavior))
	assert.Equal(t, "Uncategorized", CategoryLabel(Uncategorized))
	assert.Equal(t, "gossip", CategoryLabel("gossip"))
}

func TestRecord_Check(t *testing.T) {
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	valid := Record{ID: "c1", OwnerID: "o1", Method: MethodEmail, OccurredAt: at}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr error
	}{
		{name: "valid", mutate: func(r *Record) {}},
		{name: "unknown method is fine", mutate: func(r *Record) { r.Method = "fax" }},
		{name: "no id", mutate: func(r *Record) { r.ID = " " }, wantErr: errRecordNoID},
		{name: "no owner", mutate: func(r *Record) { r.OwnerID = "" }, wantErr: errRecordNoOwner},
		{name: "no method", mutate: func(r *Record) { r.Method = "" }, wantErr: errRecordNoMethod},
		{name: "no occurrence", mutate: func(r *Record) { r.OccurredAt = time.Time{} }, wantErr: errRecordNoOccurred},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			err := r.Check()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.wantErr, errors.Cause(err))
		})
	}
}

func TestRecord_ReasonKey(t *testing.T) {
	assert.Equal(t, Uncategorized, Record{}.ReasonKey())
	assert.Equal(t, CategoryPositive, Record{Category: CategoryPositive}.ReasonKey())
}

func TestRecentFilter(t *testing.T) {
	c := Contact{
		Student:  &StudentName{FirstName: "Ada", LastName: "Lovelace"},
		Method:   MethodPhone,
		Category: CategoryAttendance,
	}

	tests := []struct {
		name   string
		filter RecentFilter
		c      Contact
		want   bool
	}{
		{name: "no filter", filter: RecentFilter{}, c: c, want: true},
		{name: "student name", filter: RecentFilter{Student: "  LOVE"}, c: c, want: true},
		{name: "student display name", filter: RecentFilter{Student: "lovelace, ada"}, c: c, want: true},
		{name: "other student", filter: RecentFilter{Student: "turing"}, c: c, want: false},
		{name: "no student", filter: RecentFilter{Student: "ada"}, c: Contact{Method: MethodPhone}, want: false},
		{name: "reason", filter: RecentFilter{Reason: "attend"}, c: c, want: true},
		{name: "other reason", filter: RecentFilter{Reason: "academic"}, c: c, want: false},
		{name: "method", filter: RecentFilter{Method: "Phone"}, c: c, want: true},
		{name: "other method", filter: RecentFilter{Method: "email"}, c: c, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.filter
			f.Clean()
			assert.Equal(t, tc.want, f.Match(tc.c))
		})
	}
}

func TestRecentFilter_Clean_limit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{limit: -1, want: MaxRecent},
		{limit: 0, want: MaxRecent},
		{limit: 5, want: 5},
		{limit: MaxRecent + 1, want: MaxRecent + 1},
		{limit: MaxHistory + 1, want: MaxHistory},
	}
	for _, tc := range tests {
		f := RecentFilter{Limit: tc.limit}
		f.Clean()
		assert.Equal(t, tc.want, f.Limit, "limit %d", tc.limit)
	}
}

func TestNewContact_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name       string
		nc         NewContact
		wantFields []string
	}{
		{
			name: "valid",
			nc:   NewContact{StudentID: " s1 ", Method: " EMAIL ", Category: "Academic"},
		},
		{
			name:       "missing",
			nc:         NewContact{},
			wantFields: []string{"student_id", "method"},
		},
		{
			name:       "unknown vocabulary",
			nc:         NewContact{StudentID: "s1", Method: "fax", Category: "gossip"},
			wantFields: []string{"method", "category"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nc := tc.nc
			err := nc.Validate(validate)
			if tc.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "email", nc.Method)
				assert.Equal(t, "academic", nc.Category)
				assert.Equal(t, "s1", nc.StudentID)
				return
			}

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.Equal(t, tc.wantFields, fields)
		})
	}
}
