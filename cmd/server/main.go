package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"electrocart_back_end/internal/account"
	"electrocart_back_end/internal/cache"
	"electrocart_back_end/internal/catalog"
	"electrocart_back_end/internal/config"
	"electrocart_back_end/internal/database"
	"electrocart_back_end/internal/events"
	"electrocart_back_end/internal/middleware"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/orders"
	"electrocart_back_end/internal/routes"
	"electrocart_back_end/internal/utils"
)

const devJWTSecret = "electrocart-dev-secret"

func main() {
	config.Load()
	cfg := config.FromEnv()

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("❌ Configuration: %s", p)
		}
		if cfg.Production || cfg.JWTSecret != "" {
			log.Fatal("❌ Configuration invalide, arrêt")
		}
		log.Println("⚠️ JWT_SECRET absent: secret de développement utilisé")
		cfg.JWTSecret = devJWTSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Initialisation des backends: %v", err)
	}
	defer backends.Close()

	// --- Audit ---
	fileSink, err := utils.NewFileAuditSink(cfg.AuditLogPath)
	if err != nil {
		log.Fatalf("❌ Journal d'audit %s: %v", cfg.AuditLogPath, err)
	}
	sinks := []utils.AuditSink{fileSink}
	if backends.Scylla != nil {
		if scyllaSink, err := utils.NewScyllaAuditSink(backends.Scylla); err != nil {
			log.Printf("⚠️ Table d'audit ScyllaDB: %v", err)
		} else {
			sinks = append(sinks, scyllaSink)
		}
	}
	auditor := utils.NewAuditor(sinks...)

	// --- Services ---
	mailer := utils.NewMailer(utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.FromEmail,
	})

	accounts := account.NewService(backends.Store, mailer, account.Options{
		JWTSecret:  cfg.JWTSecret,
		ClientURL:  cfg.ClientURL,
		Production: cfg.Production,
	})

	var (
		index     catalog.SearchIndex
		listCache catalog.ListCache
		counters  *cache.Counters
		publisher events.Publisher
	)
	if backends.Index != nil {
		index = backends.Index
	}
	if backends.Redis != nil {
		listCache = cache.NewProductCache(backends.Redis)
		counters = cache.NewCounters(backends.Redis)
	}
	if backends.Producer != nil {
		backends.Producer.Start(ctx)
		publisher = backends.Producer
	}

	products := catalog.NewService(backends.Store, backends.Images, index, listCache)
	orderService := orders.NewService(orders.Deps{
		Orders:   backends.Store,
		Users:    backends.Store,
		Products: backends.Store,
		Audit:    auditor,
		Events:   publisher,
		Mailer:   mailer,
	})

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, created, err := accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Printf("⚠️ Compte admin %s: %v", cfg.AdminEmail, err)
		} else if created {
			log.Printf("✅ Compte admin créé: %s", cfg.AdminEmail)
		}
	}
	if backends.Store.Name() == config.StoreMemory {
		if _, err := products.SeedDemo(ctx); err != nil {
			log.Printf("⚠️ Seed catalogue: %v", err)
		}
	}
	if backends.Index != nil {
		if all, err := backends.Store.ListProducts(ctx, models.ProductFilter{}); err == nil {
			go backends.Index.Reindex(context.Background(), all)
		}
	}

	// --- HTTP ---
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Accounts:   accounts,
		Catalog:    products,
		Orders:     orderService,
		Images:     backends.Images,
		UploadDir:  backends.Disk.Dir(),
		Auditor:    auditor,
		Limiter:    middleware.NewRateLimiter(counters),
		Metrics:    middleware.NewMetrics(),
		StoreName:  backends.Store.Name(),
		ClientURL:  cfg.ClientURL,
		Production: cfg.Production,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("🚀 Serveur ElectroCart lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔌 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt forcé: %v", err)
	}
}
