package tests

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/dashboard"
	testutil "github.com/trezcool/educonnect/tests"
)

func seedDashboard(t *testing.T, a *app) []contact.Contact {
	ada := testutil.CreateStudent(t, a.studentRepo, ownerID, "Ada", "Lovelace")
	testutil.CreateStudent(t, a.studentRepo, ownerID, "Alan", "Turing")
	grace := testutil.CreateStudent(t, a.studentRepo, "someone-else", "Grace", "Hopper")

	old := testutil.CreateContact(t, a.contactRepo, ada, contact.MethodEmail, "", time.Date(2023, 12, 29, 10, 0, 0, 0, time.UTC))
	recent := testutil.CreateContact(t, a.contactRepo, ada, contact.MethodPhone, contact.CategoryPositive, now.Add(-time.Hour))
	testutil.CreateContact(t, a.contactRepo, grace, contact.MethodEmail, "", now)
	return []contact.Contact{recent, old}
}

func Test_dashboardApi_summary(t *testing.T) {
	a := setup(t)
	recent := seedDashboard(t, a)

	want := map[string]interface{}{
		"total_students":     2,
		"total_contacts":     2,
		"contacts_this_week": 1,
		"recent":             recent,
		"week_start":         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "invalid time zone",
			method:   http.MethodGet,
			path:     "/v1/dashboard?tz=Mars/Olympus",
			token:    a.token,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"tz": "tz must be an IANA time zone name"}),
		},
		{
			name:     "summary",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			token:    a.token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, want),
		},
	}
	runHTTPTests(t, a, tests)
}

type sseReader struct {
	t *testing.T
	r *bufio.Reader
}

// next returns the data of the next "summary" event.
func (sr sseReader) next() dashboard.State {
	var event, data string
	for {
		line, err := sr.r.ReadString('\n')
		require.NoError(sr.t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			assert.Equal(sr.t, "summary", event)
			var state dashboard.State
			require.NoError(sr.t, json.Unmarshal([]byte(data), &state))
			return state
		}
	}
}

func Test_dashboardApi_stream(t *testing.T) {
	a := setup(t)
	seedDashboard(t, a)
	ada := testutil.CreateStudent(t, a.studentRepo, ownerID, "Ada", "Byron")

	srv := httptest.NewServer(a.server)
	defer srv.Close()

	t.Run("no token", func(t *testing.T) {
		req := newAuthRequest(http.MethodGet, "/v1/dashboard/stream", a.token)
		rec := a.serve(req) // header tokens are not looked up
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/dashboard/stream?access_token="+a.token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	sr := sseReader{t: t, r: bufio.NewReader(resp.Body)}

	initial := sr.next()
	assert.Equal(t, 3, initial.TotalStudents)
	assert.Equal(t, 2, initial.TotalContacts)
	assert.Equal(t, 1, initial.ContactsThisWeek)

	created, err := a.contactSvc.Create(ctx, ownerID, contact.NewContact{StudentID: ada.ID, Method: "video"})
	require.NoError(t, err)

	updated := sr.next()
	assert.Equal(t, 3, updated.TotalContacts)
	assert.Equal(t, 2, updated.ContactsThisWeek)
	require.Len(t, updated.Recent, 3)
	assert.Equal(t, created.ID, updated.Recent[0].ID)
	assert.Equal(t, "Byron", updated.Recent[0].Student.LastName)
}
