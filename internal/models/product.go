package models

import (
	"encoding/json"
	"time"
)

type Product struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Slug          string    `json:"slug" bson:"slug"`
	Description   string    `json:"description" bson:"description"`
	Price         float64   `json:"price" bson:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Category      string    `json:"category" bson:"category"`
	Images        []string  `json:"images" bson:"images"`
	Stock         int       `json:"stock" bson:"stock"`
	Featured      bool      `json:"featured" bson:"featured"`
	Rating        float64   `json:"rating" bson:"rating"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// MarshalJSON ajoute les alias `_id` et `countInStock` attendus par le frontend.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	images := p.Images
	if images == nil {
		images = []string{}
	}
	a := alias(p)
	a.Images = images
	return json.Marshal(struct {
		alias
		MongoID      string `json:"_id"`
		CountInStock int    `json:"countInStock"`
	}{a, p.ID, p.Stock})
}

// ProductFilter reprend les query params de GET /api/products.
type ProductFilter struct {
	Featured bool
	Category string
}

func (f ProductFilter) Match(p *Product) bool {
	if f.Featured && !p.Featured {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}
