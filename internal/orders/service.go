// Package orders porte le cycle de vie des commandes: création, suivi de livraison,
// mises à jour admin et statistiques de vente.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/events"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/utils"
)

const (
	MsgOrderNotFound  = "Order not found"
	MsgAccessDenied   = "Access denied"
	MsgAdminNoTarget  = "Admins must specify a userId to create an order on behalf of a customer"
	MsgAdminSelfOrder = "Admins cannot place orders for themselves"
	MsgTargetNotFound = "Target user not found"
)

// Auditor journalise les créations de commande initiées par un admin
type Auditor interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type Deps struct {
	Orders   storage.OrderStore
	Users    storage.UserStore
	Products storage.ProductStore
	Audit    Auditor
	Events   events.Publisher
	Mailer   utils.Mailer
}

type Service struct {
	orders   storage.OrderStore
	users    storage.UserStore
	products storage.ProductStore
	audit    Auditor
	events   events.Publisher
	mailer   utils.Mailer
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		orders:   d.Orders,
		users:    d.Users,
		products: d.Products,
		audit:    d.Audit,
		events:   d.Events,
		mailer:   d.Mailer,
		now:      time.Now,
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	return s
}

// Actor utilisateur authentifié à l'origine de l'appel, avec son contexte réseau pour l'audit
type Actor struct {
	User      *models.User
	IP        string
	UserAgent string
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateInput struct {
	Items           []ItemInput
	ShippingAddress models.ShippingAddress
	Total           float64
	PaymentMethod   string
	// TargetUser identifiant ou email du client, lu uniquement pour un admin
	TargetUser string
}

func (in CreateInput) validate() error {
	if len(in.Items) == 0 {
		return apperr.Validation("No order items")
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperr.Validation("Each item needs a product reference")
		}
		if it.Quantity < 1 {
			return apperr.Validation("Item quantity must be at least 1")
		}
	}
	if in.ShippingAddress.Recipient() == "" || in.ShippingAddress.FirstLine() == "" {
		return apperr.Validation("Shipping address is required")
	}
	if in.Total < 0 {
		return apperr.Validation("Total must be >= 0")
	}
	return nil
}

// CreateOrder: un client commande pour lui-même (toute cible fournie est ignorée);
// un admin doit désigner un autre client.
func (s *Service) CreateOrder(ctx context.Context, actor Actor, in CreateInput) (*models.Order, error) {
	ownerID := actor.User.ID
	if actor.User.IsAdmin {
		target, err := s.resolveTarget(ctx, actor, strings.TrimSpace(in.TargetUser))
		if err != nil {
			return nil, err
		}
		ownerID = target.ID
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	items, err := s.snapshotItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		Total:           in.Total,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		Status:          models.OrderStatusProcessing,
		DeliveryStatus:  models.DeliveryPending,
		DeliveryUpdates: []models.DeliveryUpdate{{
			Status:    string(models.DeliveryPending),
			Location:  models.SeedLocation,
			Note:      models.SeedNote,
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if models.PaidAtCreation(order.PaymentMethod) {
		order.IsPaid = true
		order.PaidAt = &now
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal("Order creation failed", err)
	}

	if actor.User.IsAdmin {
		s.record(ctx, actor, models.AuditLog{
			Action:     utils.ACTION_ORDER_CREATE_ON_BEHALF,
			ResourceID: order.ID,
			TargetID:   ownerID,
			Success:    true,
		})
	}
	s.publish(ctx, events.TypeOrderCreated, order, actor.User.ID)
	s.sendConfirmation(order)

	log.Printf("✅ Commande %s créée pour %s (%d articles, payée=%t)", order.ID, ownerID, len(order.Items), order.IsPaid)
	return order, nil
}

// resolveTarget applique les règles de commande pour le compte d'un client.
func (s *Service) resolveTarget(ctx context.Context, actor Actor, ref string) (*models.User, error) {
	if ref == "" {
		s.record(ctx, actor, models.AuditLog{
			Action:   utils.ACTION_ORDER_CREATE_BLOCKED,
			ErrorMsg: "missing userId",
		})
		log.Printf("⚠️ Commande admin bloquée: %s sans client cible", actor.User.Email)
		return nil, apperr.Forbidden(MsgAdminNoTarget)
	}

	var target *models.User
	var err error
	if strings.Contains(ref, "@") {
		target, err = s.users.GetUserByEmail(ctx, strings.ToLower(ref))
	} else {
		target, err = s.users.GetUserByID(ctx, ref)
	}

	switch {
	case err == nil && target.ID == actor.User.ID:
		s.record(ctx, actor, models.AuditLog{
			Action:   utils.ACTION_ORDER_CREATE_BLOCKED,
			TargetID: target.ID,
			ErrorMsg: "self order",
		})
		return nil, apperr.Validation(MsgAdminSelfOrder)
	case err == nil:
		return target, nil
	case ref == actor.User.ID || strings.EqualFold(ref, actor.User.Email):
		s.record(ctx, actor, models.AuditLog{
			Action:   utils.ACTION_ORDER_CREATE_BLOCKED,
			TargetID: actor.User.ID,
			ErrorMsg: "self order",
		})
		return nil, apperr.Validation(MsgAdminSelfOrder)
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound(MsgTargetNotFound)
	}
	return nil, apperr.Internal("Order creation failed", err)
}

// snapshotItems fige nom et prix unitaire depuis le catalogue.
func (s *Service) snapshotItems(ctx context.Context, in []ItemInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		p, err := s.products.GetProductByID(ctx, strings.TrimSpace(it.ProductID))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.Validation(fmt.Sprintf("Product %s not found", it.ProductID))
			}
			return nil, apperr.Internal("Order creation failed", err)
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
	}
	return items, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	list, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to load orders", err)
	}
	if list == nil {
		list = []*models.Order{}
	}
	return list, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*models.Order, error) {
	list, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to load orders", err)
	}
	if list == nil {
		list = []*models.Order{}
	}
	return list, nil
}

// GetForTracking: l'existence est vérifiée avant le droit d'accès (404 puis 403).
func (s *Service) GetForTracking(ctx context.Context, orderID string, requester *models.User) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgOrderNotFound)
		}
		return nil, apperr.Internal("Failed to load order", err)
	}
	if !requester.IsAdmin && order.UserID != requester.ID {
		return nil, apperr.Forbidden(MsgAccessDenied)
	}
	return order, nil
}

// StatusUpdate corps de PATCH /api/orders/:id; nil = champ absent
type StatusUpdate struct {
	Status         *string
	DeliveryStatus *string
	TrackingNumber *string
	Note           *string
	Location       *string
}

func nonEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// UpdateStatus écrase les champs fournis et ajoute au plus une entrée au journal de
// livraison, par un append atomique côté stockage.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, orderID string, in StatusUpdate) (*models.Order, error) {
	var change models.StatusChange

	status := nonEmpty(in.Status)
	if in.Status != nil && status == nil {
		return nil, apperr.Validation("status cannot be empty")
	}
	change.Status = status

	if raw := nonEmpty(in.DeliveryStatus); raw != nil {
		ds, err := models.ParseDeliveryStatus(*raw)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Invalid deliveryStatus %q", *raw))
		}
		change.DeliveryStatus = &ds
	}
	change.TrackingNumber = nonEmpty(in.TrackingNumber)

	note := nonEmpty(in.Note)
	location := nonEmpty(in.Location)

	var entry *models.DeliveryUpdate
	if change.DeliveryStatus != nil || note != nil || location != nil {
		var entryStatus string
		switch {
		case change.DeliveryStatus != nil:
			entryStatus = string(*change.DeliveryStatus)
		case status != nil:
			entryStatus = *status
		default:
			current, err := s.orders.GetOrder(ctx, orderID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, apperr.NotFound(MsgOrderNotFound)
				}
				return nil, apperr.Internal("Order update failed", err)
			}
			entryStatus = string(current.DeliveryStatus)
		}
		entry = &models.DeliveryUpdate{
			Status:    entryStatus,
			Location:  models.DefaultUpdateLocation,
			Note:      entryStatus + " update",
			Timestamp: s.now(),
		}
		if location != nil {
			entry.Location = *location
		}
		if note != nil {
			entry.Note = *note
		}
	}

	order, err := s.orders.UpdateOrderStatus(ctx, orderID, change, entry, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(MsgOrderNotFound)
		}
		return nil, apperr.Internal("Order update failed", err)
	}

	s.record(ctx, actor, models.AuditLog{
		Action:     utils.ACTION_ORDER_UPDATE,
		ResourceID: order.ID,
		TargetID:   order.UserID,
		NewValue:   fmt.Sprintf(`{"status":%q,"deliveryStatus":%q}`, order.Status, order.DeliveryStatus),
		Success:    true,
	})
	s.publish(ctx, events.TypeOrderStatusUpdated, order, actor.User.ID)
	return order, nil
}

func (s *Service) record(ctx context.Context, actor Actor, entry models.AuditLog) {
	if s.audit == nil {
		return
	}
	entry.Resource = utils.RESOURCE_ORDER
	if actor.User != nil {
		entry.UserID = actor.User.ID
		entry.UserEmail = actor.User.Email
	}
	entry.IPAddress = actor.IP
	entry.UserAgent = actor.UserAgent
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("❌ Audit %s non enregistré: %v", entry.Action, err)
	}
}

func (s *Service) publish(ctx context.Context, kind string, o *models.Order, actorID string) {
	s.events.Publish(ctx, events.OrderEvent{
		Type:           kind,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		DeliveryStatus: string(o.DeliveryStatus),
		TrackingNumber: o.TrackingNumber,
		IsPaid:         o.IsPaid,
		Total:          o.Total,
		ActorID:        actorID,
		At:             s.now().UTC(),
	})
}

// sendConfirmation envoie l'email de confirmation en arrière-plan
func (s *Service) sendConfirmation(o *models.Order) {
	if s.mailer == nil {
		return
	}
	owner, err := s.users.GetUserByID(context.Background(), o.UserID)
	if err != nil {
		log.Printf("⚠️ Confirmation commande %s: client introuvable: %v", o.ID, err)
		return
	}
	subject, body := utils.OrderConfirmationEmail(o)
	go func(to string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, body); err != nil {
			log.Printf("❌ Erreur envoi confirmation commande %s: %v", o.ID, err)
		}
	}(owner.Email)
}
