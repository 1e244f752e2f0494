package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"electrocart_back_end/internal/models"
)

const productColumns = `id, name, slug, description, price, original_price, category, images,
	stock, featured, rating, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Category, &images, &p.Stock, &p.Featured, &p.Rating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("unmarshal product images: %w", err)
	}
	return &p, nil
}

func imagesJSON(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("marshal product images: %w", err)
	}
	return string(b), nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	images, err := imagesJSON(p.Images)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Category, images,
		p.Stock, p.Featured, p.Rating, p.CreatedAt, p.UpdatedAt)
	return wrapError(err)
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
}

func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	var args []any
	if filter.Featured {
		query += ` AND featured = TRUE`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	images, err := imagesJSON(p.Images)
	if err != nil {
		return err
	}
	return execOne(ctx, s.db, `
		UPDATE products SET name = $2, slug = $3, description = $4, price = $5,
			original_price = $6, category = $7, images = $8::jsonb, stock = $9,
			featured = $10, rating = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Category, images,
		p.Stock, p.Featured, p.Rating, p.UpdatedAt)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return execOne(ctx, s.db, `DELETE FROM products WHERE id = $1`, id)
}
