package catalog

import (
	"context"
	"log"

	"electrocart_back_end/internal/apperr"
)

type demoProduct struct {
	name, description, category string
	price, originalPrice        float64
	stock                       int
	featured                    bool
	images                      []string
}

var demoProducts = []demoProduct{
	{"Alpha Watch ultra", "Smart watch with advanced features", "watches", 3500, 4800, 10, true,
		[]string{"/uploads/alpha-watch-ultra.png"}},
	{"Wireless Headphones", "Noise cancelling headphones", "headphones", 3200, 4100, 25, false,
		[]string{"/uploads/wireless-headphones.png", "/uploads/headphone.png"}},
	{"Homepad mini", "Smart speaker", "speakers", 1200, 2100, 50, false,
		[]string{"/uploads/homepad-mini.png"}},
	{"MatrixSafe Charger", "MagSafe compatible charger", "accessories", 1700, 2200, 30, false,
		[]string{"/uploads/matrixsafe-charger.png"}},
	{"Iphone 15 Pro max", "Latest iPhone with advanced features", "iphone", 178900, 210000, 15, true,
		[]string{"/uploads/iphone-15-pro-max.png"}},
	{"Macbook M2 Dark gray", "Apple laptop with M2 chip", "macbook", 215000, 240000, 8, true,
		[]string{"/uploads/macbook-m2-dark-gray.png"}},
}

// SeedDemo crée les produits de démonstration absents (comparaison par slug).
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	added := 0
	for _, d := range demoProducts {
		name, desc, cat := d.name, d.description, d.category
		price, orig, stock, featured := d.price, d.originalPrice, d.stock, d.featured
		_, err := s.Create(ctx, ProductInput{
			Name:          &name,
			Description:   &desc,
			Category:      &cat,
			Price:         &price,
			OriginalPrice: &orig,
			Stock:         &stock,
			Featured:      &featured,
			Images:        d.images,
		}, nil)
		if apperr.Is(err, apperr.KindConflict) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	log.Printf("✅ Seed catalogue: %d produits ajoutés", added)
	return added, nil
}
