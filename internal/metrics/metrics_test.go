package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/students/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/students/"+id, nil))
	}

	body := scrape(t, m)
	want := `candidates_http_requests_total{method="GET",route="/api/students/{id}",status="404"} 2`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %q in metrics output", want)
	}
}

func TestObservePoolAndViews(t *testing.T) {
	m := New()
	m.ObservePool(10, 7, 3)
	m.ObserveView("logged")

	body := scrape(t, m)
	for _, want := range []string{
		`candidates_db_pool_connections{state="idle"} 7`,
		`candidates_db_pool_connections{state="acquired"} 3`,
		`candidates_candidate_views_total{outcome="logged"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
