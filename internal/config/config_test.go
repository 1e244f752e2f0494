package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "NODE_ENV", "STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "KAFKA_BROKERS", "SMTP_PORT", "CLIENT_URL"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "5001", cfg.Port)
	assert.False(t, cfg.Production)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "http://localhost:3000", cfg.ClientURL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "electrocart.orders", cfg.KafkaOrdersTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnv_DriverInference(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	assert.Equal(t, StoreMongo, FromEnv().StoreDriver)

	t.Setenv("DATABASE_URL", "postgres://localhost/electrocart")
	assert.Equal(t, StorePostgres, FromEnv().StoreDriver)

	t.Setenv("STORE_DRIVER", "Memory")
	assert.Equal(t, StoreMemory, FromEnv().StoreDriver)
}

func TestFromEnv_Values(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("APP_ENV", "")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SCYLLA_HOSTS", "s1")
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := FromEnv()
	assert.True(t, cfg.Production)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"s1"}, cfg.ScyllaHosts)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.MinioUseSSL)
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Config{JWTSecret: "s", StoreDriver: StorePostgres}.Validate())
	assert.Len(t, Config{StoreDriver: StoreMemory}.Validate(), 1)
	assert.Len(t, Config{StoreDriver: "oracle"}.Validate(), 2)
}
