// Commande seed: crée le compte admin (ADMIN_EMAIL / ADMIN_PASSWORD) et les produits de démonstration.
package main

import (
	"context"
	"log"
	"time"

	"electrocart_back_end/internal/account"
	"electrocart_back_end/internal/catalog"
	"electrocart_back_end/internal/config"
	"electrocart_back_end/internal/database"
	"electrocart_back_end/internal/search"
	"electrocart_back_end/internal/utils"
)

func main() {
	config.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// pas de repli en mémoire ici: le seed doit écrire dans la base configurée
	store, err := database.ConnectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Stockage %s injoignable: %v", cfg.StoreDriver, err)
	}
	defer store.Close()
	log.Printf("✅ Stockage: %s", store.Name())

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		accounts := account.NewService(store, utils.NewMailer(utils.SMTPConfig{}), account.Options{JWTSecret: cfg.JWTSecret})
		if _, created, err := accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("❌ Compte admin: %v", err)
		} else if created {
			log.Printf("✅ Compte admin créé: %s", cfg.AdminEmail)
		} else {
			log.Printf("✅ Compte admin mis à jour: %s", cfg.AdminEmail)
		}
	} else {
		log.Println("⚠️ ADMIN_EMAIL/ADMIN_PASSWORD absents: pas de compte admin")
	}

	var index catalog.SearchIndex
	if cfg.ElasticURL != "" {
		ix, err := search.ConnectElastic(search.ElasticConfig{
			URL:      cfg.ElasticURL,
			Username: cfg.ElasticUser,
			Password: cfg.ElasticPassword,
		})
		if err != nil {
			log.Printf("⚠️ Elasticsearch indisponible: %v", err)
		} else {
			index = ix
		}
	}

	products := catalog.NewService(store, nil, index, nil)
	if _, err := products.SeedDemo(ctx); err != nil {
		log.Fatalf("❌ Seed catalogue: %v", err)
	}
}
