package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/educonnect/apps/api/echo"
	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/analytics"
	"github.com/trezcool/educonnect/core/contact"
	"github.com/trezcool/educonnect/core/dashboard"
	"github.com/trezcool/educonnect/core/student"
	"github.com/trezcool/educonnect/services/broadcast"
	emailsvc "github.com/trezcool/educonnect/services/email"
	inmemdb "github.com/trezcool/educonnect/storage/database/inmem"
	testutil "github.com/trezcool/educonnect/tests"
)

const (
	ownerID    = "3f0c9a52-7f7e-4a53-9e55-2d8f7d0d1a01"
	ownerEmail = "teacher@school.test"
)

var (
	// Wednesday Jan 3rd, 2024
	now = time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)

	errMissingToken  = httpErr{Error: "missing or malformed jwt"}
	errUnauthorized  = httpErr{Error: "user not authenticated"}
	errNotFound      = httpErr{Error: "not found"}
	errLoadAnalytics = httpErr{Error: "Failed to load analytics."}
)

type app struct {
	conf        *core.Config
	server      *Server
	contactRepo contact.Repository
	studentRepo student.Repository
	contactSvc  contact.Service
	mailSvc     *emailsvc.ConsoleServiceMock
	token       string
}

type setupOptions struct {
	fetcher analytics.Fetcher // defaults to the contact repository
}

func setup(t *testing.T, opts ...setupOptions) *app {
	analytics.NowFunc = func() time.Time { return now }
	contact.NowFunc = func() time.Time { return now }
	student.NowFunc = func() time.Time { return now }
	dashboard.NowFunc = func() time.Time { return now }
	t.Cleanup(func() {
		analytics.NowFunc = time.Now
		contact.NowFunc = time.Now
		student.NowFunc = time.Now
		dashboard.NowFunc = time.Now
	})

	conf := core.NewTestConfig()
	logger := testutil.NewLogger()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	contact.InitValidators(validate, translator)
	analytics.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	a := &app{
		conf:        conf,
		contactRepo: inmemdb.NewContactRepository(db),
		studentRepo: inmemdb.NewStudentRepository(db),
		mailSvc:     emailsvc.NewConsoleServiceMock(conf),
	}

	// set up services
	bus := broadcast.NewMemoryBroadcaster()
	t.Cleanup(func() { _ = bus.Close() })

	var fetcher analytics.Fetcher = a.contactRepo
	if len(opts) > 0 && opts[0].fetcher != nil {
		fetcher = opts[0].fetcher
	}
	a.contactSvc = contact.NewService(a.contactRepo, a.studentRepo, bus, logger)
	studentSvc := student.NewService(a.studentRepo, bus, logger)
	analyticsSvc := analytics.NewService(fetcher, a.mailSvc, logger, analytics.Options{
		Location:     conf.Analytics.Location(),
		ReportPrefix: conf.Analytics.ReportPrefix,
	})

	// set up server
	a.server = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		AnalyticsSvc:   analyticsSvc,
		ContactSvc:     a.contactSvc,
		StudentSvc:     studentSvc,
		DashboardSvc:   dashboard.NewService(a.contactSvc, studentSvc, bus, logger),
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = a.server.Shutdown(context.Background()) })

	a.token = getToken(t, conf, ownerID, ownerEmail)
	return a
}

func (a *app) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func getToken(t *testing.T, conf *core.Config, owner, email string) string {
	token, err := GenerateToken(conf, NewClaims(conf, owner, email, time.Hour))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, a *app, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.serve(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
