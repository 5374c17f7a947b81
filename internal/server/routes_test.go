package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/config"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/pokeapi/pokeapitest"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/session"
)

func newTestServer(t *testing.T) (*Server, *pokeapitest.Server, *service.PokedexService) {
	t.Helper()

	upstream := pokeapitest.NewServer(t)
	client := pokeapi.NewClient(upstream.BaseURL(), 5*time.Second, zap.NewNop())
	pokedex := service.NewPokedexService(client, cache.New(cache.DefaultStaleness, zap.NewNop()), zap.NewNop())

	cfg := &config.Config{
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	srv := New(cfg, Deps{
		Pokedex:  pokedex,
		Sessions: session.NewMemoryStore[*controller.Controller](),
	}, zap.NewNop())
	return srv, upstream, pokedex
}

func serve(t *testing.T, srv *Server, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes_Preflight(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/sessions", "/api/v1/sessions/abc/actions", "/api/v1/pokemon/pikachu"} {
		w := serve(t, srv, http.MethodOptions, path, nil, map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "X-API-Key, Content-Type",
		})

		if w.Code != http.StatusNoContent {
			t.Errorf("%s: expected 204, got %d", path, w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("%s: unexpected Access-Control-Allow-Origin %q", path, got)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
			t.Errorf("%s: unexpected Access-Control-Allow-Methods %q", path, got)
		}
	}
}

func TestRoutes_PreflightDisallowedOrigin(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := serve(t, srv, http.MethodOptions, "/api/v1/sessions", nil, map[string]string{
		"Origin": "http://evil.example",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header, got %q", got)
	}
}

func TestRoutes_SessionRetryKeepsSharedCache(t *testing.T) {
	srv, upstream, pokedex := newTestServer(t)

	// Another client warms the index and the generation page.
	if w := serve(t, srv, http.MethodGet, "/api/v1/pokemon?q=pika", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", w.Code, w.Body)
	}
	if w := serve(t, srv, http.MethodGet, "/api/v1/generations/1/pokemon", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("generation list: expected 200, got %d: %s", w.Code, w.Body)
	}
	warm := pokedex.CacheStats().Ready

	w := serve(t, srv, http.MethodPost, "/api/v1/sessions", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding session: %v", err)
	}

	w = serve(t, srv, http.MethodPost, "/api/v1/sessions/"+created.ID+"/actions", controller.Retry(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d: %s", w.Code, w.Body)
	}

	if got := pokedex.CacheStats().Ready; got != warm {
		t.Errorf("expected %d warm entries to survive retry, got %d", warm, got)
	}
	if q := upstream.Queries(); len(q) != 2 {
		t.Errorf("expected no re-fetch after retry, got queries %v", q)
	}
}

func TestRoutes_AdminResetNeedsKey(t *testing.T) {
	srv, _, pokedex := newTestServer(t)
	serve(t, srv, http.MethodGet, "/api/v1/pokemon?q=pika", nil, nil)

	w := serve(t, srv, http.MethodPost, "/api/v1/admin/cache/reset", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without admin keys, got %d", w.Code)
	}
	if pokedex.CacheStats().Ready == 0 {
		t.Error("expected cache to be left alone")
	}
}
