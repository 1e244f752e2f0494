package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
)

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.Images == nil {
		p.Images = []string{}
	}
	return insertOne(ctx, s.col(ColProducts), p)
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return findOne[models.Product](ctx, s.col(ColProducts), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return findOne[models.Product](ctx, s.col(ColProducts), bson.D{{Key: "slug", Value: slug}})
}

func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	q := bson.D{}
	if filter.Featured {
		q = append(q, bson.E{Key: "featured", Value: true})
	}
	if filter.Category != "" {
		q = append(q, bson.E{Key: "category", Value: filter.Category})
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return findMany[models.Product](ctx, s.col(ColProducts), q, opts)
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	set := bson.D{
		{Key: "name", Value: p.Name},
		{Key: "slug", Value: p.Slug},
		{Key: "description", Value: p.Description},
		{Key: "price", Value: p.Price},
		{Key: "originalPrice", Value: p.OriginalPrice},
		{Key: "category", Value: p.Category},
		{Key: "images", Value: images},
		{Key: "stock", Value: p.Stock},
		{Key: "featured", Value: p.Featured},
		{Key: "rating", Value: p.Rating},
		{Key: "updatedAt", Value: p.UpdatedAt},
	}
	return updateFields(ctx, s.col(ColProducts), p.ID, set)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColProducts), id)
}

var _ storage.Store = (*Store)(nil)
