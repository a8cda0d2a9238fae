package logsvc

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/educonnect/core"
)

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "API : ", 0), core.NewTestConfig())

	logger.Warn("publishing contact:created", errors.New("redis is down"), core.Person{ID: "owner"})

	got := buf.String()
	for _, want := range []string{"API : publishing contact:created\n", "API : redis is down\n", "API : {ID:owner Email:}\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output = %q; want it to contain %q", got, want)
		}
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), core.NewTestConfig())
	err := errors.New("boom")
	meta := map[string]interface{}{"id": "c1"}

	args := logger.prepare("msg", []interface{}{err, core.Person{ID: "owner"}, meta, core.Person{ID: "other"}})

	if len(args) != 3 || args[0] != "msg" || args[1] != err {
		t.Errorf("prepare() = %v; want [msg boom map[id:c1]]", args)
	}
}
