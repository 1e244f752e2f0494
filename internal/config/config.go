package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Port       string
	Production bool
	JWTSecret  string
	ClientURL  string

	StoreDriver string
	DatabaseURL string
	MongoURI    string
	MongoDB     string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	KafkaBrokers     []string
	KafkaOrdersTopic string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	UploadDir    string
	AuditLogPath string

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// FromEnv lit la configuration; appeler Load avant pour prendre en compte le .env
func FromEnv() Config {
	env := strings.ToLower(getenv("APP_ENV", os.Getenv("NODE_ENV")))
	cfg := Config{
		Port:       getenv("PORT", "5001"),
		Production: env == "production",
		JWTSecret:  os.Getenv("JWT_SECRET"),
		ClientURL:  getenv("CLIENT_URL", "http://localhost:3000"),

		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", "")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "electrocart"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "electrocart-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrdersTopic: getenv("KAFKA_ORDERS_TOPIC", "electrocart.orders"),

		ScyllaHosts:    splitCSV(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace: getenv("SCYLLA_KEYSPACE", "electrocart_audit"),
		ScyllaUser:     os.Getenv("SCYLLA_USER"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getenvInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		FromEmail: getenv("FROM_EMAIL", "no-reply@electrocart.local"),

		UploadDir:    getenv("UPLOAD_DIR", "uploads"),
		AuditLogPath: getenv("AUDIT_LOG_PATH", "logs/admin_audit.log"),

		AdminName:     getenv("ADMIN_NAME", "Admin"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.StoreDriver == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.StoreDriver = StorePostgres
		case cfg.MongoURI != "":
			cfg.StoreDriver = StoreMongo
		default:
			cfg.StoreDriver = StoreMemory
		}
	}
	return cfg
}

// Validate refuse de démarrer en production sans secret JWT
func (c Config) Validate() []string {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET manquant")
	}
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreMongo:
	default:
		problems = append(problems, "STORE_DRIVER inconnu: "+c.StoreDriver)
	}
	return problems
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, def)
		return def
	}
	return n
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
