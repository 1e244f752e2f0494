// Package mongostore implémente storage.Store sur MongoDB (mongo-go-driver v2).
//
// Les collections reprennent le schéma documentaire d'origine: lignes de commande et
// journal de livraison embarqués, ajout au journal par `$push`.
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	ColProducts = "products"
	ColUsers    = "users"
	ColOrders   = "orders"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connecte le client, vérifie la connexion et crée les index.
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("⚠️ mongostore: création des index échouée: %v", err)
	}
	log.Printf("✅ Connecté à MongoDB (base %s)", dbName)
	return s, nil
}

func (s *Store) Name() string { return "mongo" }

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColProducts, bson.D{{Key: "slug", Value: 1}}, true},
		{ColProducts, bson.D{{Key: "createdAt", Value: -1}}, false},
		{ColProducts, bson.D{{Key: "category", Value: 1}}, false},

		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, bson.D{{Key: "resetPasswordToken", Value: 1}}, false},

		{ColOrders, bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("index %s %v: %w", i.col, i.keys, err)
		}
	}
	return nil
}
