// Package database ouvre les backends au démarrage: stockage principal (avec repli
// en mémoire), Redis, Elasticsearch, MinIO, ScyllaDB et Kafka. Chaque backend
// optionnel est ignoré avec un avertissement quand sa variable est vide ou qu'il
// ne répond pas.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"electrocart_back_end/internal/cache"
	"electrocart_back_end/internal/config"
	"electrocart_back_end/internal/events"
	"electrocart_back_end/internal/search"
	"electrocart_back_end/internal/services"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/storage/memory"
	"electrocart_back_end/internal/storage/mongostore"
	"electrocart_back_end/internal/storage/postgres"
)

type Backends struct {
	Store    storage.Store
	Redis    *redis.Client
	Index    *search.ProductIndex
	Disk     *services.DiskStore
	Images   services.ImageStore
	Scylla   *gocql.Session
	Producer *events.Producer
}

// --- Initialisation ---
func Connect(ctx context.Context, cfg config.Config) (*Backends, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	b := &Backends{Store: OpenStore(ctx, cfg)}

	disk, err := services.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	b.Disk = disk
	b.Images = disk

	if cfg.RedisHost == "" {
		log.Println("⚠️ REDIS_HOST absent: cache produits et rate limiting désactivés")
	} else if b.Redis, err = cache.NewRedis(ctx, cfg.RedisHost, cfg.RedisPassword); err != nil {
		log.Printf("⚠️ Redis indisponible: %v", err)
		b.Redis = nil
	}

	if cfg.ElasticURL == "" {
		log.Println("⚠️ ELASTIC_URL absent: recherche en mémoire")
	} else if b.Index, err = search.ConnectElastic(search.ElasticConfig{
		URL:      cfg.ElasticURL,
		Username: cfg.ElasticUser,
		Password: cfg.ElasticPassword,
	}); err != nil {
		log.Printf("⚠️ Elasticsearch indisponible: %v", err)
		b.Index = nil
	}

	if cfg.MinioEndpoint == "" {
		log.Printf("⚠️ MINIO_ENDPOINT absent: images stockées dans %s", cfg.UploadDir)
	} else if mstore, err := services.ConnectMinio(ctx, services.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}); err != nil {
		log.Printf("⚠️ MinIO indisponible, repli sur le disque: %v", err)
	} else {
		b.Images = mstore
	}

	if len(cfg.ScyllaHosts) == 0 {
		log.Println("⚠️ SCYLLA_HOSTS absent: audit uniquement dans le fichier local")
	} else if b.Scylla, err = ConnectScylla(cfg); err != nil {
		log.Printf("⚠️ ScyllaDB indisponible: %v", err)
		b.Scylla = nil
	}

	if len(cfg.KafkaBrokers) == 0 {
		log.Println("⚠️ KAFKA_BROKERS absent: événements de commande non publiés")
	} else {
		b.Producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, 256)
		log.Printf("✅ Producteur Kafka prêt (%s)", cfg.KafkaOrdersTopic)
	}

	log.Printf("✅ Stockage principal: %s", b.Store.Name())
	return b, nil
}

// OpenStore ouvre le stockage choisi; en cas d'échec on démarre en mémoire.
func OpenStore(ctx context.Context, cfg config.Config) storage.Store {
	st, err := ConnectStore(ctx, cfg)
	if err != nil {
		log.Printf("⚠️ Stockage %s injoignable, repli en mémoire: %v", cfg.StoreDriver, err)
		return memory.New()
	}
	return st
}

// ConnectStore ouvre le stockage choisi sans repli: une erreur est renvoyée si la base
// configurée est injoignable.
func ConnectStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		st, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreMongo:
		st, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("database: driver de stockage inconnu %q", cfg.StoreDriver)
	}
}

// =============================================
// SCYLLA DB (copie durable du journal d'audit)
// =============================================

func newScyllaCluster(cfg config.Config, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second
	cluster.NumConns = 2
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.ScyllaUser != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUser,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// ConnectScylla crée le keyspace d'audit au besoin puis ouvre une session dessus
func ConnectScylla(cfg config.Config) (*gocql.Session, error) {
	bootstrap, err := newScyllaCluster(cfg, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session ScyllaDB: %w", err)
	}
	err = bootstrap.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		cfg.ScyllaKeyspace)).Exec()
	bootstrap.Close()
	if err != nil {
		return nil, fmt.Errorf("création keyspace %s: %w", cfg.ScyllaKeyspace, err)
	}

	session, err := newScyllaCluster(cfg, cfg.ScyllaKeyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", cfg.ScyllaKeyspace, err)
	}
	log.Printf("✅ Nouvelle session ScyllaDB pour keyspace '%s'", cfg.ScyllaKeyspace)
	return session, nil
}

// Close ferme les connexions ouvertes; le producteur Kafka est vidé avant.
func (b *Backends) Close() {
	if b.Producer != nil {
		b.Producer.Close()
		b.Producer.WaitClosed()
		log.Println("🔌 Producteur Kafka fermé")
	}
	if b.Scylla != nil {
		b.Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
		log.Println("🔌 Redis fermé")
	}
	if err := b.Store.Close(); err != nil {
		log.Printf("⚠️ Fermeture du stockage %s: %v", b.Store.Name(), err)
	} else {
		log.Printf("🔌 Stockage %s fermé", b.Store.Name())
	}
}
