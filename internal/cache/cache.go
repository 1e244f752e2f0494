package cache

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"electrocart_back_end/internal/models"
)

const (
	ProductCacheTTL = 10 * time.Minute

	productListPrefix     = "products:list:"
	productListVersionKey = "products:version"
)

// ProductCache met en cache les listes du catalogue, une clé par filtre
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ProductCacheTTL}
}

// la catégorie garde sa casse: les stockages la comparent à l'identique
func listKey(version int64, f models.ProductFilter) string {
	return productListPrefix + strconv.FormatInt(version, 10) + ":" + strconv.FormatBool(f.Featured) + ":" + f.Category
}

// ListVersion renvoie la génération courante des listes, incrémentée à chaque invalidation.
// Une liste lue avant une écriture est rangée sous l'ancienne génération et n'est plus servie.
func (c *ProductCache) ListVersion(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, productListVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *ProductCache) GetProductList(ctx context.Context, version int64, filter models.ProductFilter) ([]*models.Product, bool) {
	data, err := c.rdb.Get(ctx, listKey(version, filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Erreur lecture cache produits: %v", err)
		}
		return nil, false
	}
	var products []*models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false
	}
	return products, true
}

func (c *ProductCache) SetProductList(ctx context.Context, version int64, filter models.ProductFilter, products []*models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, listKey(version, filter), data, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Erreur écriture cache produits: %v", err)
	}
}

// InvalidateProducts supprime toutes les listes en cache
func (c *ProductCache) InvalidateProducts(ctx context.Context) {
	if err := c.rdb.Incr(ctx, productListVersionKey).Err(); err != nil {
		log.Printf("⚠️ Erreur incrément version cache produits: %v", err)
	}
	iter := c.rdb.Scan(ctx, 0, productListPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("⚠️ Erreur invalidation cache produits: %v", err)
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("⚠️ Erreur invalidation cache produits: %v", err)
		}
	}
}
