package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBroker = "broker1:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, DefaultTokenSecret, cfg.TokenSecret)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Equal(t, 200, cfg.RadiusMeters)
	assert.Equal(t, domain.DefaultSites(), cfg.Sites)
	assert.Equal(t, int64(65536), cfg.MaxBodyBytes)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "checkin-decisions", cfg.KafkaDecisionTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("CHECKIN_RADIUS_METERS", "150")
	t.Setenv("CHECKIN_SITES", `[{"name":"HQ","lat":4.711,"lng":-74.0721}]`)
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("KAFKA_BROKERS", testBroker+",broker2:9092")
	t.Setenv("KAFKA_DECISION_TOPIC", "custom-decisions")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, 150, cfg.RadiusMeters)
	assert.Equal(t, []domain.Site{{Name: "HQ", Lat: 4.711, Lng: -74.0721}}, cfg.Sites)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{testBroker, "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-decisions", cfg.KafkaDecisionTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidRadius(t *testing.T) {
	for _, v := range []string{"0", "-5", "two hundred"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("CHECKIN_RADIUS_METERS", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "CHECKIN_RADIUS_METERS")
		})
	}
}

func TestLoad_InvalidMaxBodyBytes(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_BODY_BYTES")
}

func TestLoad_InvalidSites(t *testing.T) {
	tests := map[string]string{
		"not json":      `sites`,
		"empty list":    `[]`,
		"missing name":  `[{"lat":1,"lng":1}]`,
		"bad latitude":  `[{"name":"X","lat":91,"lng":1}]`,
		"bad longitude": `[{"name":"X","lat":1,"lng":-181}]`,
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CHECKIN_SITES", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "CHECKIN_SITES")
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", testBroker)
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{testBroker}, cfg.KafkaBrokers)
}
