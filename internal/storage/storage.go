// Package storage définit les ports de persistance (produits, utilisateurs, commandes).
//
// Chaque driver (postgres, mongostore, memory) convertit ses erreurs natives
// en ErrNotFound / ErrDuplicate.
package storage

import (
	"context"
	"errors"
	"time"

	"electrocart_back_end/internal/models"
)

var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("duplicate: entity already exists")
)

type ProductStore interface {
	// CreateProduct renvoie ErrDuplicate si le slug existe déjà.
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type UserStore interface {
	// CreateUser renvoie ErrDuplicate si l'email existe déjà.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error
	// ResetPassword remplace le hash et efface le token en une seule écriture,
	// à condition que tokenHash corresponde et n'ait pas expiré à `now`.
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error)
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	// UpdateOrderStatus applique change et, si entry != nil, l'ajoute au journal de
	// livraison par un append atomique côté stockage.
	UpdateOrderStatus(ctx context.Context, id string, change models.StatusChange, entry *models.DeliveryUpdate, now time.Time) (*models.Order, error)
}

type Store interface {
	ProductStore
	UserStore
	OrderStore
	Name() string
	Close() error
}
