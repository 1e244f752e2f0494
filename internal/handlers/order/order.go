package order

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/handlers"
	"electrocart_back_end/internal/middleware"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/orders"
)

type OrderHandler struct {
	orders  *orders.Service
	metrics *middleware.Metrics
}

// NewOrderHandler metrics peut être nil
func NewOrderHandler(svc *orders.Service, metrics *middleware.Metrics) *OrderHandler {
	return &OrderHandler{orders: svc, metrics: metrics}
}

func actorFrom(c *gin.Context) orders.Actor {
	return orders.Actor{
		User:      middleware.CurrentUser(c),
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// itemBody ligne de commande telle qu'envoyée par le panier: `product` peut être
// l'identifiant ou l'objet produit complet.
type itemBody struct {
	ProductID string
	Quantity  int
}

func (it *itemBody) UnmarshalJSON(data []byte) error {
	var raw struct {
		Product   json.RawMessage `json:"product"`
		ID        string          `json:"_id"`
		ProductID string          `json:"productId"`
		Quantity  *json.Number    `json:"quantity"`
		Qty       *json.Number    `json:"qty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.ProductID = productRef(raw.Product)
	if it.ProductID == "" {
		it.ProductID = raw.ProductID
	}
	if it.ProductID == "" {
		it.ProductID = raw.ID
	}
	it.ProductID = strings.TrimSpace(it.ProductID)

	q := raw.Quantity
	if q == nil {
		q = raw.Qty
	}
	if q != nil {
		n, err := q.Int64()
		if err != nil {
			return err
		}
		it.Quantity = int(n)
	}
	return nil
}

func productRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.MongoID != "" {
		return obj.MongoID
	}
	return obj.ID
}

type createBody struct {
	Items           []itemBody             `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	Total           *json.Number           `json:"total"`
	PaymentMethod   string                 `json:"paymentMethod"`
	UserID          string                 `json:"userId"`
}

// ================== CRÉATION ==================

// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		handlers.BadRequest(c, "Invalid order payload")
		return
	}

	in := orders.CreateInput{
		ShippingAddress: body.ShippingAddress,
		PaymentMethod:   body.PaymentMethod,
		TargetUser:      body.UserID,
	}
	if body.Total != nil {
		total, err := body.Total.Float64()
		if err != nil {
			handlers.BadRequest(c, "Total must be a number")
			return
		}
		in.Total = total
	}
	for _, it := range body.Items {
		in.Items = append(in.Items, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.orders.CreateOrder(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.OrdersCreated.Inc()
	}
	c.JSON(http.StatusCreated, o)
}

// ================== LECTURE ==================

// GET /api/orders/my
func (h *OrderHandler) Mine(c *gin.Context) {
	list, err := h.orders.ListForUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/orders (admin)
func (h *OrderHandler) All(c *gin.Context) {
	list, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/orders/track/:id
func (h *OrderHandler) Track(c *gin.Context) {
	o, err := h.orders.GetForTracking(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ================== MISE À JOUR (admin) ==================

// PATCH /api/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var body struct {
		Status         *string `json:"status"`
		DeliveryStatus *string `json:"deliveryStatus"`
		TrackingNumber *string `json:"trackingNumber"`
		Note           *string `json:"note"`
		Location       *string `json:"location"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		handlers.BadRequest(c, "Invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("id"), orders.StatusUpdate{
		Status:         body.Status,
		DeliveryStatus: body.DeliveryStatus,
		TrackingNumber: body.TrackingNumber,
		Note:           body.Note,
		Location:       body.Location,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DeliveryUpdates.WithLabelValues(string(o.DeliveryStatus)).Inc()
	}
	c.JSON(http.StatusOK, o)
}
