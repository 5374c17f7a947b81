package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/cache"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/pokeapi"
	"github.com/fleveque/poke-finder/internal/pokeapi/pokeapitest"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/service"
	"github.com/fleveque/poke-finder/internal/session"
	"github.com/fleveque/poke-finder/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSprites struct {
	data []byte
	err  error
}

func (f *fakeSprites) GetSprite(_ context.Context, _ int, _ model.SpriteSize) ([]byte, error) {
	return f.data, f.err
}

type fakeEntries struct {
	entry *model.PokedexEntry
	err   error
}

func (f *fakeEntries) GetEntry(_ context.Context, _ string) (*model.PokedexEntry, error) {
	return f.entry, f.err
}

type fakeSpriteAdmin struct {
	imported []string
}

func (f *fakeSpriteAdmin) Stats(_ context.Context) (*service.SpriteStats, error) {
	return &service.SpriteStats{Total: 3, Processed: 2, Failed: 1}, nil
}

func (f *fakeSpriteAdmin) ImportGeneration(ctx context.Context, gen model.Generation, lister provider.Lister) (*provider.ImportStats, error) {
	list, err := lister.Range(ctx, gen)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		f.imported = append(f.imported, r.Name)
	}
	return &provider.ImportStats{Total: len(list), Imported: len(list)}, nil
}

type testEnv struct {
	router   *gin.Engine
	upstream *pokeapitest.Server
	pokedex  *service.PokedexService
	sprites  *fakeSprites
	entries  *fakeEntries
	admin    *fakeSpriteAdmin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	upstream := pokeapitest.NewServer(t)
	client := pokeapi.NewClient(upstream.BaseURL(), 5*time.Second, zap.NewNop())
	pokedex := service.NewPokedexService(client, cache.New(cache.DefaultStaleness, zap.NewNop()), zap.NewNop())

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		upstream: upstream,
		pokedex:  pokedex,
		sprites:  &fakeSprites{data: []byte("png")},
		entries:  &fakeEntries{},
		admin:    &fakeSpriteAdmin{},
	}

	logger := zap.NewNop()
	store := session.NewMemoryStore[*controller.Controller]()
	pokemon := NewPokemonHandler(pokedex, "https://sprites.example", logger)
	sprites := NewSpriteHandler(env.sprites, logger)
	entries := NewEntryHandler(env.entries, logger)
	sessions := NewSessionHandler(store, func() *controller.Controller {
		return controller.New(pokedex, "https://sprites.example", logger)
	}, logger)
	admin := NewAdminHandler(pokedex, env.admin, storage.NewEntryRepository(db), storage.NewLLMCallRepository(db), store, logger)

	r := gin.New()
	r.GET("/healthz", NewHealthHandler().Healthz)
	r.GET("/generations", pokemon.Generations)
	r.GET("/generations/:gen/pokemon", pokemon.GenerationList)
	r.GET("/pokemon", pokemon.Search)
	r.GET("/pokemon/:name", pokemon.Get)
	r.GET("/pokemon/:name/entry", entries.Get)
	r.GET("/sprites/:id", sprites.GetSprite)
	r.POST("/sessions", sessions.Create)
	r.GET("/sessions/:id", sessions.Get)
	r.POST("/sessions/:id/actions", sessions.Dispatch)
	r.DELETE("/sessions/:id", sessions.Delete)
	r.GET("/admin/stats", admin.Stats)
	r.POST("/admin/cache/reset", admin.ResetCache)
	r.POST("/admin/sprites/import", admin.ImportSprites)
	env.router = r

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/healthz", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["status"] != "ok" || body["service"] != "poke-finder" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestGenerations(t *testing.T) {
	env := newTestEnv(t)
	body := decode[struct {
		Generations []model.Generation `json:"generations"`
	}](t, env.do(t, "GET", "/generations", nil))

	if len(body.Generations) != 9 || body.Generations[8].End != 1010 {
		t.Errorf("unexpected generations %+v", body.Generations)
	}
}

func TestGenerationList(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/generations/1/pokemon", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	body := decode[struct {
		Generation model.Generation `json:"generation"`
		Pokemon    []model.ListCard `json:"pokemon"`
	}](t, w)
	if body.Generation.Key != "genOne" {
		t.Errorf("expected genOne, got %s", body.Generation.Key)
	}
	if len(body.Pokemon) == 0 || body.Pokemon[0].ArtworkURL != "https://sprites.example/other/official-artwork/1.png" {
		t.Errorf("unexpected cards %+v", body.Pokemon)
	}
	if q := env.upstream.Queries(); len(q) != 1 || q[0] != "offset=0&limit=151" {
		t.Errorf("expected offset=0&limit=151, got %v", q)
	}
}

func TestGenerationList_Unknown(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, "GET", "/generations/genTen/pokemon", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	body := decode[struct {
		Suggestions []model.NamedResource `json:"suggestions"`
	}](t, env.do(t, "GET", "/pokemon?q=RAI", nil))
	if len(body.Suggestions) != 2 || body.Suggestions[0].Name != "raichu" || body.Suggestions[1].Name != "raichu-alola" {
		t.Errorf("unexpected suggestions %+v", body.Suggestions)
	}

	w := env.do(t, "GET", "/pokemon?q=", nil)
	if !strings.Contains(w.Body.String(), `"suggestions":[]`) {
		t.Errorf("expected empty suggestions, got %s", w.Body)
	}
	if q := env.upstream.Queries(); len(q) != 1 {
		t.Errorf("expected one index fetch, got %v", q)
	}
}

func TestGetPokemon(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/pokemon/Raichu", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	body := decode[struct {
		Pokemon  model.EntityDetail `json:"pokemon"`
		ImageURL string             `json:"image_url"`
		Forms    []model.FormOption `json:"forms"`
	}](t, w)
	if body.Pokemon.ID != 26 {
		t.Errorf("expected id 26, got %d", body.Pokemon.ID)
	}
	if body.ImageURL != "https://sprites.example/other/official-artwork/26.png" {
		t.Errorf("unexpected image url %s", body.ImageURL)
	}
	if len(body.Forms) != 1 || body.Forms[0].Name != "raichu-alola" {
		t.Errorf("unexpected forms %+v", body.Forms)
	}
}

func TestGetPokemon_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.FailPath("/api/v2/pokemon/squirtle", http.StatusInternalServerError)

	tests := []struct {
		path string
		want int
	}{
		{"/pokemon/missingno", http.StatusNotFound},
		{"/pokemon/squirtle", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := env.do(t, "GET", tt.path, nil); w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
		})
	}
}

func TestGetSprite(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/sprites/25?size=l", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "image/png" || w.Body.String() != "png" {
		t.Errorf("unexpected response %s %q", w.Header().Get("Content-Type"), w.Body)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/sprites/abc", http.StatusBadRequest},
		{"/sprites/0", http.StatusBadRequest},
		{"/sprites/25?size=huge", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := env.do(t, "GET", tt.path, nil); w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.want, w.Code)
		}
	}

	env.sprites.err = errors.New("no sprite")
	if w := env.do(t, "GET", "/sprites/9999", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetEntry(t *testing.T) {
	env := newTestEnv(t)
	env.entries.entry = &model.PokedexEntry{Name: "pikachu", Category: "Mouse Pokémon", Text: "It sparks."}

	w := env.do(t, "GET", "/pokemon/pikachu/entry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode[model.PokedexEntry](t, w); got.Category != "Mouse Pokémon" {
		t.Errorf("unexpected entry %+v", got)
	}

	env.entries.err = service.ErrEntriesDisabled
	if w := env.do(t, "GET", "/pokemon/pikachu/entry", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}

	env.entries.err = &pokeapi.NotFoundError{Resource: "pokemon", Name: "missingno"}
	if w := env.do(t, "GET", "/pokemon/missingno/entry", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	env.entries.err = errors.New("disk on fire")
	w = env.do(t, "GET", "/pokemon/pikachu/entry", nil)
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "disk") {
		t.Errorf("expected opaque 500, got %d %s", w.Code, w.Body)
	}
}

type sessionResponse struct {
	ID   string          `json:"id"`
	View controller.View `json:"view"`
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	id := decode[sessionResponse](t, w).ID
	if id == "" {
		t.Fatal("expected a session id")
	}
	actions := "/sessions/" + id + "/actions"

	w = env.do(t, "POST", actions, controller.TextInput("pika"))
	if w.Code != http.StatusOK {
		t.Fatalf("text_input: expected 200, got %d: %s", w.Code, w.Body)
	}
	view := decode[sessionResponse](t, w).View
	if len(view.Suggestions) != 1 || view.Suggestions[0].Name != "pikachu" {
		t.Fatalf("unexpected suggestions %+v", view.Suggestions)
	}

	env.do(t, "POST", actions, controller.NextSuggestion())
	w = env.do(t, "POST", actions, controller.Enter())
	view = decode[sessionResponse](t, w).View
	if view.SelectedName != "pikachu" || view.Detail == nil || view.Detail.ID != 25 {
		t.Fatalf("expected pikachu detail, got %+v", view)
	}
	if view.SearchTerm != "" || len(view.List) == 0 {
		t.Errorf("expected cleared search and a list page, got %+v", view)
	}

	w = env.do(t, "GET", "/sessions/"+id, nil)
	if got := decode[sessionResponse](t, w).View.SelectedName; got != "pikachu" {
		t.Errorf("expected selection to persist, got %q", got)
	}

	if w := env.do(t, "DELETE", "/sessions/"+id, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := env.do(t, "GET", "/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestSessionMissingPokemonClearsSelection(t *testing.T) {
	env := newTestEnv(t)
	id := decode[sessionResponse](t, env.do(t, "POST", "/sessions", nil)).ID

	w := env.do(t, "POST", "/sessions/"+id+"/actions", controller.Select("missingno"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	view := decode[sessionResponse](t, w).View
	if view.SelectedName != "" || view.Detail != nil {
		t.Errorf("expected silent clear, got %+v", view)
	}
}

func TestSessionBadRequests(t *testing.T) {
	env := newTestEnv(t)
	id := decode[sessionResponse](t, env.do(t, "POST", "/sessions", nil)).ID
	actions := "/sessions/" + id + "/actions"

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing type", map[string]string{"text": "pi"}, http.StatusBadRequest},
		{"unknown type", map[string]string{"type": "dance"}, http.StatusBadRequest},
		{"unknown generation", controller.SelectGeneration("genTen"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, "POST", actions, tt.body); w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
		})
	}

	if w := env.do(t, "POST", "/sessions/nope/actions", controller.Close()); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestAdminStatsAndReset(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/pokemon/pikachu", nil)
	env.do(t, "POST", "/sessions", nil)

	body := decode[struct {
		Cache    cache.Stats         `json:"cache"`
		Sprites  service.SpriteStats `json:"sprites"`
		Sessions int                 `json:"sessions"`
	}](t, env.do(t, "GET", "/admin/stats", nil))
	if body.Cache.Entries == 0 || body.Sprites.Processed != 2 || body.Sessions != 1 {
		t.Errorf("unexpected stats %+v", body)
	}

	if w := env.do(t, "POST", "/admin/cache/reset", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if n := env.pokedex.CacheStats().Entries; n != 0 {
		t.Errorf("expected empty cache after reset, got %d", n)
	}
}

func TestAdminImportSprites(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/admin/sprites/import?gen=1&wait=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if len(env.admin.imported) == 0 || env.admin.imported[0] != "bulbasaur" {
		t.Errorf("expected generation one to be imported, got %v", env.admin.imported)
	}

	if w := env.do(t, "POST", "/admin/sprites/import?gen=42", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSessionCreate_StoreFull(t *testing.T) {
	env := newTestEnv(t)
	store := session.NewMemoryStore[*controller.Controller](session.WithMaxSessions(1))
	sessions := NewSessionHandler(store, func() *controller.Controller {
		return controller.New(env.pokedex, "https://sprites.example", zap.NewNop())
	}, zap.NewNop())

	r := gin.New()
	r.POST("/sessions", sessions.Create)
	env.router = r

	if w := env.do(t, "POST", "/sessions", nil); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	w := env.do(t, "POST", "/sessions", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}
