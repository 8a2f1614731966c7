package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("SF_TEST_INT", "42")
	t.Setenv("SF_TEST_BAD_INT", "x")
	t.Setenv("SF_TEST_DUR", "90s")

	assert.Equal(t, 42, EnvIntDefault("SF_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("SF_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("SF_TEST_MISSING", 7))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("SF_TEST_DUR", time.Hour))
	assert.Equal(t, "def", EnvDefault("SF_TEST_MISSING", "def"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("KAFKA_ORDER_TOPIC", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "order_events", cfg.KafkaOrderTopic)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}
