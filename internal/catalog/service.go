// Package catalog gère les produits: slug unique, champs numériques, images.
package catalog

import (
	"context"
	"errors"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/utils"
)

const (
	MsgDuplicateSlug   = "Product with same slug exists"
	MsgProductNotFound = "Product not found"

	DefaultRating = 5
)

// ImageRemover supprime un fichier image (disque local ou bucket)
type ImageRemover interface {
	Remove(ctx context.Context, imagePath string) error
}

// SearchIndex index de recherche plein texte (Elasticsearch)
type SearchIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, query string) ([]*models.Product, error)
}

// ListCache cache des listes de produits (Redis)
type ListCache interface {
	ListVersion(ctx context.Context) (int64, error)
	GetProductList(ctx context.Context, version int64, filter models.ProductFilter) ([]*models.Product, bool)
	SetProductList(ctx context.Context, version int64, filter models.ProductFilter, products []*models.Product)
	InvalidateProducts(ctx context.Context)
}

type Service struct {
	products storage.ProductStore
	images   ImageRemover
	index    SearchIndex
	cache    ListCache
	now      func() time.Time
}

// NewService: images, index et cache peuvent être nil.
func NewService(products storage.ProductStore, images ImageRemover, index SearchIndex, cache ListCache) *Service {
	return &Service{products: products, images: images, index: index, cache: cache, now: time.Now}
}

// ImageOps opérations d'images d'une mise à jour
type ImageOps struct {
	Uploaded []string
	Replace  bool
	Delete   []string
}

func (s *Service) Create(ctx context.Context, in ProductInput, uploaded []string) (*models.Product, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, apperr.Validation("Name is required")
	}
	slug := utils.Slugify(*in.Name)
	if in.Slug != nil && utils.Slugify(*in.Slug) != "" {
		slug = utils.Slugify(*in.Slug)
	}
	if slug == "" {
		return nil, apperr.Validation("Name must contain letters or digits")
	}

	// pré-contrôle indicatif; l'index unique du stockage tranche en cas de course
	if _, err := s.products.GetProductBySlug(ctx, slug); err == nil {
		return nil, apperr.Conflict(MsgDuplicateSlug)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.Internal("Create product failed", err)
	}

	now := s.now()
	p := &models.Product{
		ID:        uuid.NewString(),
		Name:      *in.Name,
		Slug:      slug,
		Rating:    DefaultRating,
		Images:    append(append([]string{}, in.Images...), uploaded...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(p, in)

	if err := s.products.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict(MsgDuplicateSlug)
		}
		return nil, apperr.Internal("Create product failed", err)
	}

	s.afterWrite(ctx, p)
	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.Slug)
	return p, nil
}

func apply(p *models.Product, in ProductInput) {
	if in.Name != nil && *in.Name != "" {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		v := *in.OriginalPrice
		p.OriginalPrice = &v
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
}

// Update n'applique que les champs fournis. Le slug ne change que s'il est fourni explicitement.
func (s *Service) Update(ctx context.Context, id string, in ProductInput, ops ImageOps) (*models.Product, error) {
	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
		return nil, apperr.Internal("Update product failed", err)
	}

	apply(p, in)
	if in.Slug != nil {
		slug := utils.Slugify(*in.Slug)
		if slug == "" {
			return nil, apperr.Validation("Invalid slug")
		}
		p.Slug = slug
	}

	var removed []string
	switch {
	case ops.Replace:
		removed = p.Images
		p.Images = append(append([]string{}, in.Images...), ops.Uploaded...)
	default:
		if len(ops.Delete) > 0 {
			p.Images, removed = splitImages(p.Images, ops.Delete)
		}
		if len(in.Images) > 0 {
			p.Images = in.Images
		}
		p.Images = append(p.Images, ops.Uploaded...)
	}
	p.UpdatedAt = s.now()

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(MsgProductNotFound)
		case errors.Is(err, storage.ErrDuplicate):
			return nil, apperr.Conflict(MsgDuplicateSlug)
		}
		return nil, apperr.Internal("Update product failed", err)
	}

	s.removeFiles(ctx, keepOnly(removed, p.Images))
	s.afterWrite(ctx, p)
	return p, nil
}

// splitImages sépare les images dont le nom de fichier figure dans names.
func splitImages(images, names []string) (kept, removed []string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[path.Base(n)] = true
	}
	for _, img := range images {
		if drop[path.Base(img)] {
			removed = append(removed, img)
		} else {
			kept = append(kept, img)
		}
	}
	return kept, removed
}

// keepOnly retire de removed les chemins encore référencés.
func keepOnly(removed, current []string) []string {
	inUse := make(map[string]bool, len(current))
	for _, c := range current {
		inUse[c] = true
	}
	out := removed[:0:0]
	for _, r := range removed {
		if !inUse[r] {
			out = append(out, r)
		}
	}
	return out
}

// Delete supprime la fiche; l'échec de suppression d'un fichier n'échoue pas l'appel.
func (s *Service) Delete(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
		return nil, apperr.Internal("Delete product failed", err)
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
		return nil, apperr.Internal("Delete product failed", err)
	}

	s.removeFiles(ctx, p.Images)
	if s.index != nil {
		if err := s.index.DeleteProduct(ctx, id); err != nil {
			log.Printf("⚠️ Désindexation de %s échouée: %v", id, err)
		}
	}
	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}
	log.Printf("🗑️ Produit supprimé: %s", p.Slug)
	return p, nil
}

func (s *Service) removeFiles(ctx context.Context, images []string) {
	if s.images == nil {
		return
	}
	for _, img := range images {
		if err := s.images.Remove(ctx, img); err != nil {
			log.Printf("⚠️ Suppression image %s échouée: %v", img, err)
		}
	}
}

func (s *Service) afterWrite(ctx context.Context, p *models.Product) {
	if s.index != nil {
		if err := s.index.IndexProduct(ctx, p); err != nil {
			log.Printf("⚠️ Indexation de %s échouée: %v", p.Slug, err)
		}
	}
	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}
}

// List lit le cache sous la génération courante; en cas d'absence la liste relue est
// rangée sous la génération lue avant la requête au stockage.
func (s *Service) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	if s.cache == nil {
		return s.listFromStore(ctx, filter)
	}
	version, err := s.cache.ListVersion(ctx)
	if err != nil {
		log.Printf("⚠️ Version du cache produits illisible: %v", err)
		return s.listFromStore(ctx, filter)
	}
	if cached, ok := s.cache.GetProductList(ctx, version, filter); ok {
		return cached, nil
	}
	products, err := s.listFromStore(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cache.SetProductList(ctx, version, filter, products)
	return products, nil
}

func (s *Service) listFromStore(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("List products failed", err)
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.get(s.products.GetProductBySlug(ctx, slug))
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return s.get(s.products.GetProductByID(ctx, id))
}

func (s *Service) get(p *models.Product, err error) (*models.Product, error) {
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgProductNotFound)
		}
		return nil, apperr.Internal("Get product failed", err)
	}
	return p, nil
}

// Search passe par l'index quand il est disponible, sinon filtre le catalogue en mémoire.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Product{}, nil
	}
	if s.index != nil {
		found, err := s.index.SearchProducts(ctx, query)
		if err == nil {
			return found, nil
		}
		log.Printf("⚠️ Recherche Elasticsearch indisponible, repli sur le stockage: %v", err)
	}

	all, err := s.products.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, apperr.Internal("Search failed", err)
	}
	q := strings.ToLower(query)
	out := []*models.Product{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out, nil
}
