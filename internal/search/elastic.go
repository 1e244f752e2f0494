// Package search indexe le catalogue dans Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"electrocart_back_end/internal/models"
)

const DefaultIndex = "products"

// SearchLimit nombre maximal de résultats renvoyés
const SearchLimit = 50

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

// productDoc: un document Elasticsearch ne peut pas porter de champ `_id`,
// on indexe donc le produit sans les alias JSON du frontend.
type productDoc struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Category      string    `json:"category"`
	Images        []string  `json:"images"`
	Stock         int       `json:"stock"`
	Featured      bool      `json:"featured"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toDoc(p *models.Product) productDoc {
	return productDoc{
		ID: p.ID, Name: p.Name, Slug: p.Slug, Description: p.Description,
		Price: p.Price, OriginalPrice: p.OriginalPrice, Category: p.Category,
		Images: p.Images, Stock: p.Stock, Featured: p.Featured, Rating: p.Rating,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (d productDoc) product() *models.Product {
	return &models.Product{
		ID: d.ID, Name: d.Name, Slug: d.Slug, Description: d.Description,
		Price: d.Price, OriginalPrice: d.OriginalPrice, Category: d.Category,
		Images: d.Images, Stock: d.Stock, Featured: d.Featured, Rating: d.Rating,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

// ConnectElastic crée le client et vérifie que le cluster répond
func ConnectElastic(cfg ElasticConfig) (*ProductIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("connexion Elasticsearch: %s", res.Status())
	}

	log.Println("✅ Connecté à Elasticsearch")
	return NewProductIndex(client, cfg.Index), nil
}

func NewProductIndex(client *elasticsearch.Client, index string) *ProductIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &ProductIndex{client: client, index: index}
}

func (ix *ProductIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(toDoc(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("erreur envoi Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elastic a refusé %s: %s", p.Slug, res.String())
	}
	return nil
}

func (ix *ProductIndex) DeleteProduct(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: ix.index, DocumentID: id, Refresh: "true"}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("erreur suppression Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elastic a refusé la suppression de %s: %s", id, res.String())
	}
	return nil
}

func buildQuery(query string) io.Reader {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"size": SearchLimit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "category^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	_ = json.NewEncoder(&buf).Encode(q)
	return &buf
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source productDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProducts recherche par nom, catégorie et description
func (ix *ProductIndex) SearchProducts(ctx context.Context, query string) ([]*models.Product, error) {
	req := esapi.SearchRequest{
		Index: []string{ix.index},
		Body:  buildQuery(strings.TrimSpace(query)),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("index non trouvé ou vide: " + res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}

	out := make([]*models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		out = append(out, hit.Source.product())
	}
	return out, nil
}

// Reindex réindexe tout le catalogue (démarrage, seed)
func (ix *ProductIndex) Reindex(ctx context.Context, products []*models.Product) {
	ok := 0
	for _, p := range products {
		if err := ix.IndexProduct(ctx, p); err != nil {
			log.Printf("⚠️ %v", err)
			continue
		}
		ok++
	}
	log.Printf("✅ %d/%d produits indexés dans Elasticsearch", ok, len(products))
}
