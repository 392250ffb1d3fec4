package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/caredata/internal/core"
)

// counterValue returns the value of the counter name whose labels include
// every pair in want, or -1 when no such series exists.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestCollector_RecordLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New("test", reg)

	c.RecordLoad(core.KindProvider, 4, 1, 3*time.Millisecond)
	c.RecordLoad(core.KindProvider, 2, 0, time.Millisecond)

	if got := counterValue(t, reg, "test_records_loaded_total", map[string]string{"kind": "providers"}); got != 6 {
		t.Errorf("loaded_total = %v, want 6", got)
	}
	if got := counterValue(t, reg, "test_records_rejected_total", map[string]string{"kind": "providers"}); got != 1 {
		t.Errorf("rejected_total = %v, want 1", got)
	}
}

func TestCollector_RecordSaveAndEdit(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New("test", reg)

	c.RecordSave(nil)
	c.RecordSave(errors.New("disk full"))
	c.RecordSave(nil)
	c.RecordEdit(core.EditOutcome{Action: core.ActionEdit, Applied: false})
	c.RecordEdit(core.EditOutcome{Action: core.ActionAppend, Applied: true})

	if got := counterValue(t, reg, "test_treatments_saves_total", map[string]string{"result": "ok"}); got != 2 {
		t.Errorf("saves_total{ok} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "test_treatments_saves_total", map[string]string{"result": "error"}); got != 1 {
		t.Errorf("saves_total{error} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "test_treatments_edits_total", map[string]string{"action": "edit", "applied": "false"}); got != 1 {
		t.Errorf("edits_total{edit,false} = %v, want 1", got)
	}
}

func TestCollector_MiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New("test", reg)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/treatments/{index}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/api/treatments/1", "/api/treatments/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	labels := map[string]string{"method": "GET", "route": "/api/treatments/{index}", "status": "204"}
	if got := counterValue(t, reg, "test_http_requests_total", labels); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New("test", nil)
	c.RecordLoad(core.KindHospital, 3, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_records_loaded_total{kind="hospitals"} 3`) {
		t.Errorf("exposition missing hospitals counter:\n%s", body)
	}
}
