// Package memory fournit un Store en mémoire, utilisé en développement local
// et quand la base principale est injoignable au démarrage.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
)

type Store struct {
	mu sync.RWMutex

	products map[string]*models.Product
	slugs    map[string]string // slug -> id

	users  map[string]*models.User
	emails map[string]string // email -> id

	orders   map[string]*models.Order
	orderSeq []string
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products: make(map[string]*models.Product),
		slugs:    make(map[string]string),
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		orders:   make(map[string]*models.Order),
	}
}

func (s *Store) Name() string { return "memory" }
func (s *Store) Close() error { return nil }

// ---------- Produits ----------

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slugs[p.Slug]; ok {
		return storage.ErrDuplicate
	}
	if _, ok := s.products[p.ID]; ok {
		return storage.ErrDuplicate
	}
	s.products[p.ID] = cloneProduct(p)
	s.slugs[p.Slug] = p.ID
	return nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slugs[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneProduct(s.products[id]), nil
}

func (s *Store) ListProducts(_ context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Match(p) {
			out = append(out, cloneProduct(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if p.Slug != cur.Slug {
		if _, taken := s.slugs[p.Slug]; taken {
			return storage.ErrDuplicate
		}
		delete(s.slugs, cur.Slug)
		s.slugs[p.Slug] = p.ID
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.slugs, p.Slug)
	delete(s.products, id)
	return nil
}

// ---------- Utilisateurs ----------

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(u.Email)
	if _, ok := s.emails[key]; ok {
		return storage.ErrDuplicate
	}
	s.users[u.ID] = cloneUser(u)
	s.emails[key] = u.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[emailKey(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) SetResetToken(_ context.Context, userID, tokenHash string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpire = &expire
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ResetPassword(_ context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetPasswordToken == "" || u.ResetPasswordToken != tokenHash {
			continue
		}
		if u.ResetPasswordExpire == nil || !u.ResetPasswordExpire.After(now) {
			return nil, storage.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.ResetPasswordToken = ""
		u.ResetPasswordExpire = nil
		u.UpdatedAt = now
		return cloneUser(u), nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) SetAdmin(_ context.Context, userID string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetPassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

// ---------- Commandes ----------

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return storage.ErrDuplicate
	}
	s.orders[o.ID] = cloneOrder(o)
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Order{}
	for _, id := range s.orderSeq {
		if o := s.orders[id]; o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *Store) ListOrders(_ context.Context) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		out = append(out, cloneOrder(s.orders[id]))
	}
	return out, nil
}

// UpdateOrderStatus fait la modification et l'append sous le même verrou.
func (s *Store) UpdateOrderStatus(_ context.Context, id string, change models.StatusChange, entry *models.DeliveryUpdate, now time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if change.Status != nil {
		o.Status = *change.Status
	}
	if change.DeliveryStatus != nil {
		o.DeliveryStatus = *change.DeliveryStatus
	}
	if change.TrackingNumber != nil {
		o.TrackingNumber = *change.TrackingNumber
	}
	if entry != nil {
		o.DeliveryUpdates = append(o.DeliveryUpdates, *entry)
	}
	o.UpdatedAt = now
	return cloneOrder(o), nil
}

// ---------- copies ----------

func cloneProduct(p *models.Product) *models.Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		c.OriginalPrice = &v
	}
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.ResetPasswordExpire != nil {
		t := *u.ResetPasswordExpire
		c.ResetPasswordExpire = &t
	}
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.DeliveryUpdates = append([]models.DeliveryUpdate(nil), o.DeliveryUpdates...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return &c
}
