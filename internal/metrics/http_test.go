package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// requestsByPath junta las series de http_requests_total por etiqueta path.
func requestsByPath(t *testing.T, m *HTTP) map[string]float64 {
	t.Helper()
	mfs, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, s := range mf.GetMetric() {
			var path string
			for _, l := range s.GetLabel() {
				if l.GetName() == "path" {
					path = l.GetValue()
				}
			}
			out[path] += s.GetCounter().GetValue()
		}
	}
	return out
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m, err := NewHTTP()
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/api/user/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Dos ids distintos tienen que caer en la MISMA serie: la etiqueta
	// es el patrón de ruta, no la URL.
	for _, p := range []string{"/api/user/111", "/api/user/222"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := requestsByPath(t, m)
	if got["/api/user/{id}"] != 2 {
		t.Fatalf("series por patrón: got %v", got)
	}
	if got["/api/user/111"] != 0 || got["/api/user/222"] != 0 {
		t.Fatalf("la URL cruda no puede ser etiqueta: %v", got)
	}
}

func TestMiddlewareUnmatchedRequestsShareOneSeries(t *testing.T) {
	m, err := NewHTTP()
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Un escáner de paths no puede acuñar una serie por URL probada.
	for _, p := range []string{"/wp-admin", "/.env", "/admin/config.php"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	got := requestsByPath(t, m)
	if got[pathUnmatched] != 3 {
		t.Fatalf("unmatched: got %v", got)
	}
	if got["/wp-admin"] != 0 {
		t.Fatalf("la URL cruda no puede ser etiqueta: %v", got)
	}
}
