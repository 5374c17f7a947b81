package service

import (
	"context"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h2non/bimg"
	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/model"
	"github.com/fleveque/poke-finder/internal/provider"
	"github.com/fleveque/poke-finder/internal/storage"
)

type spriteFixture struct {
	svc  *SpriteService
	repo storage.SpriteRepository
	hits *atomic.Int32
	cdn  *httptest.Server
}

// newSpriteFixture serves official artwork for ids 1 and 25 only.
func newSpriteFixture(t *testing.T) *spriteFixture {
	t.Helper()

	png := createTestPNG(120, 120, color.NRGBA{R: 250, G: 200, B: 0, A: 255})
	hits := &atomic.Int32{}
	mux := http.NewServeMux()
	for _, id := range []string{"1", "25"} {
		mux.HandleFunc("/other/official-artwork/"+id+".png", func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = w.Write(png)
		})
	}
	cdn := httptest.NewServer(mux)
	t.Cleanup(cdn.Close)

	dir := t.TempDir()
	db, err := storage.NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fs, err := storage.NewFileSystem(filepath.Join(dir, "sprites"))
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	repo := storage.NewSpriteRepository(db)
	svc := NewSpriteService(
		repo,
		fs,
		NewImageProcessor(fs),
		provider.NewSpriteProvider(cdn.URL, 5*time.Second, zap.NewNop()),
		zap.NewNop(),
	)
	return &spriteFixture{svc: svc, repo: repo, hits: hits, cdn: cdn}
}

func TestSpriteService_AcquiresThenServesFromDisk(t *testing.T) {
	f := newSpriteFixture(t)
	ctx := context.Background()

	data, err := f.svc.GetSprite(ctx, 25, model.SizeM)
	if err != nil {
		t.Fatalf("getting sprite: %v", err)
	}
	size, err := bimg.NewImage(data).Size()
	if err != nil {
		t.Fatalf("reading size: %v", err)
	}
	if size.Width != 96 || size.Height != 96 {
		t.Errorf("expected 96x96, got %dx%d", size.Width, size.Height)
	}

	if _, err := f.svc.GetSprite(ctx, 25, model.SizeXL); err != nil {
		t.Fatalf("getting second size: %v", err)
	}
	if n := f.hits.Load(); n != 1 {
		t.Errorf("expected a single download, got %d", n)
	}

	sprite, err := f.repo.GetByPokemonID(ctx, 25)
	if err != nil {
		t.Fatalf("getting record: %v", err)
	}
	if sprite.Status != model.StatusProcessed || sprite.Source != "artwork" {
		t.Errorf("unexpected record: %+v", sprite)
	}
}

func TestSpriteService_InvalidID(t *testing.T) {
	f := newSpriteFixture(t)
	if _, err := f.svc.GetSprite(context.Background(), 0, model.SizeM); err == nil {
		t.Error("expected error for id 0")
	}
}

func TestSpriteService_Unavailable(t *testing.T) {
	f := newSpriteFixture(t)
	if _, err := f.svc.GetSprite(context.Background(), 151, model.SizeM); err == nil {
		t.Error("expected error when the CDN has no image")
	}
}

type staticLister []model.NamedResource

func (l staticLister) Range(_ context.Context, _ model.Generation) ([]model.NamedResource, error) {
	return l, nil
}

func TestSpriteService_ImportGeneration(t *testing.T) {
	f := newSpriteFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetSprite(ctx, 25, model.SizeS); err != nil {
		t.Fatalf("pre-loading pikachu: %v", err)
	}

	lister := staticLister{
		{Name: "bulbasaur", URL: "https://pokeapi.co/api/v2/pokemon/1/"},
		{Name: "pikachu", URL: "https://pokeapi.co/api/v2/pokemon/25/"},
		{Name: "mew", URL: "https://pokeapi.co/api/v2/pokemon/151/"},
	}
	stats, err := f.svc.ImportGeneration(ctx, model.DefaultGeneration(), lister)
	if err != nil {
		t.Fatalf("importing: %v", err)
	}
	if stats.Imported != 1 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	st, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 || st.Processed != 2 {
		t.Errorf("expected 2 processed sprites, got %+v", st)
	}

	bulbasaur, err := f.repo.GetByPokemonID(ctx, 1)
	if err != nil {
		t.Fatalf("getting bulbasaur: %v", err)
	}
	if bulbasaur.Name != "bulbasaur" {
		t.Errorf("expected name from the import, got %q", bulbasaur.Name)
	}
}
