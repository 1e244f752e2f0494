package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryProcessing     DeliveryStatus = "processing"
	DeliveryShipped        DeliveryStatus = "shipped"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryCancelled      DeliveryStatus = "cancelled"
)

var deliveryStatuses = []DeliveryStatus{
	DeliveryPending,
	DeliveryProcessing,
	DeliveryShipped,
	DeliveryOutForDelivery,
	DeliveryDelivered,
	DeliveryCancelled,
}

func (s DeliveryStatus) Valid() bool {
	for _, v := range deliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func ParseDeliveryStatus(raw string) (DeliveryStatus, error) {
	s := DeliveryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid delivery status %q", raw)
	}
	return s, nil
}

const (
	OrderStatusProcessing = "processing"

	SeedLocation = "Order Received"
	SeedNote     = "Order has been received and is being processed"

	DefaultUpdateLocation = "Warehouse"
)

type OrderItem struct {
	ProductID string  `json:"product" bson:"product"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Name       string `json:"name,omitempty" bson:"name,omitempty"`
	Line1      string `json:"line1,omitempty" bson:"line1,omitempty"`
	Address    string `json:"address,omitempty" bson:"address,omitempty"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city,omitempty" bson:"city,omitempty"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Recipient accepte `fullName` ou `name`, selon la page du frontend qui a saisi l'adresse.
func (a ShippingAddress) Recipient() string {
	if s := strings.TrimSpace(a.FullName); s != "" {
		return s
	}
	return strings.TrimSpace(a.Name)
}

func (a ShippingAddress) FirstLine() string {
	if s := strings.TrimSpace(a.Line1); s != "" {
		return s
	}
	return strings.TrimSpace(a.Address)
}

type DeliveryUpdate struct {
	Status    string    `json:"status" bson:"status"`
	Location  string    `json:"location" bson:"location"`
	Note      string    `json:"note" bson:"note"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type Order struct {
	ID              string           `json:"id" bson:"_id"`
	UserID          string           `json:"user" bson:"user"`
	Items           []OrderItem      `json:"items" bson:"items"`
	ShippingAddress ShippingAddress  `json:"shippingAddress" bson:"shippingAddress"`
	Total           float64          `json:"total" bson:"total"`
	PaymentMethod   string           `json:"paymentMethod" bson:"paymentMethod"`
	IsPaid          bool             `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time       `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	Status          string           `json:"status" bson:"status"`
	DeliveryStatus  DeliveryStatus   `json:"deliveryStatus" bson:"deliveryStatus"`
	TrackingNumber  string           `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	DeliveryUpdates []DeliveryUpdate `json:"deliveryUpdates" bson:"deliveryUpdates"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// MarshalJSON expose aussi `_id` et `paid`, noms historiques côté frontend.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	a := alias(o)
	if a.Items == nil {
		a.Items = []OrderItem{}
	}
	if a.DeliveryUpdates == nil {
		a.DeliveryUpdates = []DeliveryUpdate{}
	}
	return json.Marshal(struct {
		alias
		MongoID string `json:"_id"`
		Paid    bool   `json:"paid"`
	}{a, o.ID, o.IsPaid})
}

// IsCashOnDelivery reconnaît les deux libellés utilisés par le checkout.
func IsCashOnDelivery(method string) bool {
	m := strings.ToLower(strings.TrimSpace(method))
	return m == "cod" || m == "cash-on-delivery"
}

// PaidAtCreation: payé dès qu'un moyen de paiement autre que COD est fourni.
func PaidAtCreation(method string) bool {
	return strings.TrimSpace(method) != "" && !IsCashOnDelivery(method)
}

// StatusChange regroupe les champs écrasés par une mise à jour admin.
// Un pointeur nil signifie « non fourni ».
type StatusChange struct {
	Status         *string
	DeliveryStatus *DeliveryStatus
	TrackingNumber *string
}
