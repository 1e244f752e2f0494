package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/cache"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/storage/memory"
)

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *recordingRemover) Remove(_ context.Context, p string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, p)
	return nil
}

type fakeIndex struct {
	indexed []string
	deleted []string
	results []*models.Product
	err     error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.Slug)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) SearchProducts(context.Context, string) ([]*models.Product, error) {
	return f.results, f.err
}

// fakeCache ne garde que les listes de la génération courante
type fakeCache struct {
	version     int64
	lists       map[models.ProductFilter][]*models.Product
	invalidated int
}

func (c *fakeCache) ListVersion(context.Context) (int64, error) { return c.version, nil }

func (c *fakeCache) GetProductList(_ context.Context, v int64, f models.ProductFilter) ([]*models.Product, bool) {
	if v != c.version {
		return nil, false
	}
	l, ok := c.lists[f]
	return l, ok
}

func (c *fakeCache) SetProductList(_ context.Context, v int64, f models.ProductFilter, p []*models.Product) {
	if v == c.version {
		c.lists[f] = p
	}
}

func (c *fakeCache) InvalidateProducts(context.Context) {
	c.invalidated++
	c.version++
	c.lists = map[models.ProductFilter][]*models.Product{}
}

func str(s string) *string { return &s }
func num(f float64) *float64 { return &f }
func flag(b bool) *bool { return &b }
func newTestService() *Service { return NewService(memory.New(), nil, nil, nil) }
func ctx() context.Context { return context.Background() }
func named(name string) ProductInput { return ProductInput{Name: str(name), Price: num(10)} }

func TestCreate_SlugFromName(t *testing.T) {
	s := newTestService()
	p, err := s.Create(ctx(), named("Test Watch"), nil)
	require.NoError(t, err)
	assert.Equal(t, "test-watch", p.Slug)
	assert.Equal(t, float64(DefaultRating), p.Rating)
	assert.NotEmpty(t, p.ID)

	_, err = s.Create(ctx(), named("Test Watch"), nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, MsgDuplicateSlug, apperr.Message(err))

	// même slug après normalisation
	_, err = s.Create(ctx(), named("  test   WATCH!"), nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreate_ExplicitSlugAndValidation(t *testing.T) {
	s := newTestService()
	in := named("Iphone 15 Pro max")
	in.Slug = str("iphone-15")
	p, err := s.Create(ctx(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, "iphone-15", p.Slug)

	_, err = s.Create(ctx(), ProductInput{}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Create(ctx(), named("!!!"), nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreate_ImagesAndHooks(t *testing.T) {
	index := &fakeIndex{}
	cache := &fakeCache{lists: map[models.ProductFilter][]*models.Product{}}
	s := NewService(memory.New(), nil, index, cache)

	in := named("Homepad mini")
	in.Images = []string{"/uploads/a.png"}
	p, err := s.Create(ctx(), in, []string{"/uploads/b.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, p.Images)
	assert.Equal(t, []string{"homepad-mini"}, index.indexed)
	assert.Equal(t, 1, cache.invalidated)
}

func TestUpdate_ImageOperations(t *testing.T) {
	remover := &recordingRemover{}
	s := NewService(memory.New(), remover, nil, nil)

	in := named("Wireless Headphones")
	in.Images = []string{"/uploads/1-a.png", "/uploads/2-b.png", "/uploads/3-c.png"}
	p, err := s.Create(ctx(), in, nil)
	require.NoError(t, err)

	// suppression par nom de fichier + ajout
	p, err = s.Update(ctx(), p.ID, ProductInput{}, ImageOps{
		Delete:   []string{"2-b.png"},
		Uploaded: []string{"/uploads/4-d.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/1-a.png", "/uploads/3-c.png", "/uploads/4-d.png"}, p.Images)
	assert.Equal(t, []string{"/uploads/2-b.png"}, remover.removed)

	// remplacement: les anciens fichiers non repris sont supprimés
	remover.removed = nil
	p, err = s.Update(ctx(), p.ID, ProductInput{Images: []string{"/uploads/1-a.png"}}, ImageOps{
		Replace:  true,
		Uploaded: []string{"/uploads/5-e.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/1-a.png", "/uploads/5-e.png"}, p.Images)
	assert.ElementsMatch(t, []string{"/uploads/3-c.png", "/uploads/4-d.png"}, remover.removed)
}

func TestUpdate_FieldsAndSlug(t *testing.T) {
	s := newTestService()
	p, err := s.Create(ctx(), named("Macbook M2"), nil)
	require.NoError(t, err)

	p, err = s.Update(ctx(), p.ID, ProductInput{Name: str("Macbook M2 Dark gray"), Featured: flag(true)}, ImageOps{})
	require.NoError(t, err)
	assert.Equal(t, "macbook-m2", p.Slug, "slug only changes when given")
	assert.True(t, p.Featured)

	p, err = s.Update(ctx(), p.ID, ProductInput{Slug: str("Macbook M2 Dark gray")}, ImageOps{})
	require.NoError(t, err)
	assert.Equal(t, "macbook-m2-dark-gray", p.Slug)

	other, err := s.Create(ctx(), named("Other"), nil)
	require.NoError(t, err)
	_, err = s.Update(ctx(), other.ID, ProductInput{Slug: str("macbook-m2-dark-gray")}, ImageOps{})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.Update(ctx(), "missing", ProductInput{}, ImageOps{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDelete(t *testing.T) {
	remover := &recordingRemover{}
	index := &fakeIndex{}
	s := NewService(memory.New(), remover, index, nil)

	in := named("Alpha Watch ultra")
	in.Images = []string{"/uploads/w.png"}
	p, err := s.Create(ctx(), in, nil)
	require.NoError(t, err)

	deleted, err := s.Delete(ctx(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)
	assert.Equal(t, []string{"/uploads/w.png"}, remover.removed)
	assert.Equal(t, []string{p.ID}, index.deleted)

	_, err = s.GetBySlug(ctx(), "alpha-watch-ultra")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.Delete(ctx(), p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestList_UsesCache(t *testing.T) {
	cache := &fakeCache{lists: map[models.ProductFilter][]*models.Product{}}
	s := NewService(memory.New(), nil, nil, cache)

	featured := named("Featured")
	featured.Featured = flag(true)
	_, err := s.Create(ctx(), featured, nil)
	require.NoError(t, err)
	_, err = s.Create(ctx(), named("Plain"), nil)
	require.NoError(t, err)

	list, err := s.List(ctx(), models.ProductFilter{Featured: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, cache.lists, models.ProductFilter{Featured: true})

	cache.lists[models.ProductFilter{}] = []*models.Product{{Name: "from cache"}}
	list, err = s.List(ctx(), models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "from cache", list[0].Name)
}

func newRedisCache(t *testing.T) *cache.ProductCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewProductCache(client)
}

func TestList_CachedMatchesStore(t *testing.T) {
	store := memory.New()
	direct := NewService(store, nil, nil, nil)
	cached := NewService(store, nil, nil, newRedisCache(t))

	phone := named("Pixel")
	phone.Category = str("Phones")
	_, err := direct.Create(ctx(), phone, nil)
	require.NoError(t, err)

	filters := []models.ProductFilter{
		{Category: "Phones"},
		{Category: "phones"},
		{Category: "PHONES", Featured: true},
		{},
	}
	// deux passes: la seconde est servie par le cache
	for pass := 0; pass < 2; pass++ {
		for _, f := range filters {
			want, err := direct.List(ctx(), f)
			require.NoError(t, err)
			got, err := cached.List(ctx(), f)
			require.NoError(t, err)
			assert.Len(t, got, len(want), "pass %d filter %+v", pass, f)
		}
	}
}

// interleavedStore exécute during une seule fois, juste après la lecture de la liste
type interleavedStore struct {
	storage.ProductStore
	during func()
}

func (s *interleavedStore) ListProducts(c context.Context, f models.ProductFilter) ([]*models.Product, error) {
	list, err := s.ProductStore.ListProducts(c, f)
	if d := s.during; d != nil {
		s.during = nil
		d()
	}
	return list, err
}

func TestList_WriteDuringReadIsNotCached(t *testing.T) {
	store := &interleavedStore{ProductStore: memory.New()}
	s := NewService(store, nil, nil, newRedisCache(t))

	_, err := s.Create(ctx(), named("Old"), nil)
	require.NoError(t, err)

	store.during = func() {
		_, err := s.Create(ctx(), named("New"), nil)
		require.NoError(t, err)
	}
	list, err := s.List(ctx(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.List(ctx(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSearch(t *testing.T) {
	s := newTestService()
	for _, n := range []string{"Wireless Headphones", "Homepad mini"} {
		_, err := s.Create(ctx(), named(n), nil)
		require.NoError(t, err)
	}

	found, err := s.Search(ctx(), "HEAD")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "wireless-headphones", found[0].Slug)

	found, err = s.Search(ctx(), "  ")
	require.NoError(t, err)
	assert.Empty(t, found)

	// index en erreur: repli sur le stockage
	s.index = &fakeIndex{err: errors.New("es down")}
	found, err = s.Search(ctx(), "homepad")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	s.index = &fakeIndex{results: []*models.Product{{Slug: "from-index"}}}
	found, err = s.Search(ctx(), "anything")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "from-index", found[0].Slug)
}

func TestSeedDemo_Idempotent(t *testing.T) {
	s := newTestService()
	s.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	n, err := s.SeedDemo(ctx())
	require.NoError(t, err)
	assert.Equal(t, len(demoProducts), n)

	n, err = s.SeedDemo(ctx())
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := s.GetBySlug(ctx(), "iphone-15-pro-max")
	require.NoError(t, err)
	assert.True(t, p.Featured)
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 210000.0, *p.OriginalPrice)
}
