package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	if m.Registry() == nil {
		t.Error("Registry() returned nil")
	}

	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPRequestDurationSeconds == nil {
		t.Error("HTTPRequestDurationSeconds is nil")
	}
	if m.APIRequestsTotal == nil {
		t.Error("APIRequestsTotal is nil")
	}
	if m.SessionsActive == nil {
		t.Error("SessionsActive is nil")
	}
}

func TestObserveAPIRequest(t *testing.T) {
	m := New()

	m.ObserveAPIRequest("/api/workflows/", 200)
	m.ObserveAPIRequest("/api/workflows/", 200)
	m.ObserveAPIRequest("/api/workflows/", 401)
	m.ObserveAPIRequest("/token", 0)

	counter, err := m.APIRequestsTotal.GetMetricWithLabelValues("/api/workflows/", "ok")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}

	counter, err = m.APIRequestsTotal.GetMetricWithLabelValues("/token", "transport_error")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}
	metric.Reset()
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/workflows/1", "/workflows/2", "/workflows/99"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	counter, err := m.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/workflows/{id}", "200")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 3 {
		t.Errorf("Expected counter value 3, got %f", metric.Counter.GetValue())
	}
}

func TestHandlerServesScrape(t *testing.T) {
	m := New()
	m.ObserveAPIRequest("/token", 200)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("scrape body is empty")
	}
}
