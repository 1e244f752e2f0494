package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"electrocart_back_end/internal/models"
)

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.DeliveryUpdates == nil {
		o.DeliveryUpdates = []models.DeliveryUpdate{}
	}
	return insertOne(ctx, s.col(ColOrders), o)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, s.col(ColOrders), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[models.Order](ctx, s.col(ColOrders), bson.D{{Key: "user", Value: userID}}, opts)
}

func (s *Store) ListOrders(ctx context.Context) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[models.Order](ctx, s.col(ColOrders), bson.D{}, opts)
}

// UpdateOrderStatus combine `$set` et `$push` dans un seul findAndModify.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, change models.StatusChange, entry *models.DeliveryUpdate, now time.Time) (*models.Order, error) {
	set := bson.D{{Key: "updatedAt", Value: now}}
	if change.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *change.Status})
	}
	if change.DeliveryStatus != nil {
		set = append(set, bson.E{Key: "deliveryStatus", Value: string(*change.DeliveryStatus)})
	}
	if change.TrackingNumber != nil {
		set = append(set, bson.E{Key: "trackingNumber", Value: *change.TrackingNumber})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if entry != nil {
		update = append(update, bson.E{Key: "$push", Value: bson.D{{Key: "deliveryUpdates", Value: entry}}})
	}
	return findOneAndUpdate[models.Order](ctx, s.col(ColOrders), bson.D{{Key: "_id", Value: id}}, update)
}
