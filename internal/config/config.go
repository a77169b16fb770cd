package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultTokenSecret is the HMAC secret used when TOKEN_SECRET is unset.
// It is public and must be overridden in production.
const DefaultTokenSecret = "CAMBIA_ESTE_SECRET"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Check-in validation.
	TokenSecret  string
	RadiusMeters int
	Sites        []domain.Site
	MaxBodyBytes int64

	// Decision event publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaDecisionTopic string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	radius, err := parsePositiveInt("CHECKIN_RADIUS_METERS", 200)
	if err != nil {
		return nil, err
	}

	maxBody, err := parsePositiveInt("MAX_BODY_BYTES", 64<<10)
	if err != nil {
		return nil, err
	}

	sites, err := parseSites()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TokenSecret:  sharedcfg.EnvOrDefault("TOKEN_SECRET", DefaultTokenSecret),
		RadiusMeters: radius,
		Sites:        sites,
		MaxBodyBytes: int64(maxBody),

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       brokers,
		KafkaDecisionTopic: sharedcfg.EnvOrDefault("KAFKA_DECISION_TOPIC", "checkin-decisions"),
	}

	if cfg.TokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET must not be empty")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaDecisionTopic == "" {
		return nil, errors.New("KAFKA_DECISION_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

// UsesDefaultSecret reports whether the insecure built-in secret is active.
func (c *Config) UsesDefaultSecret() bool {
	return c.TokenSecret == DefaultTokenSecret
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

// parseSites reads CHECKIN_SITES as a JSON array of {"name","lat","lng"}.
func parseSites() ([]domain.Site, error) {
	s := os.Getenv("CHECKIN_SITES")
	if s == "" {
		return domain.DefaultSites(), nil
	}

	var sites []domain.Site
	if err := json.Unmarshal([]byte(s), &sites); err != nil {
		return nil, fmt.Errorf("invalid CHECKIN_SITES: %w", err)
	}
	if len(sites) == 0 {
		return nil, errors.New("invalid CHECKIN_SITES: at least one site is required")
	}
	for i, site := range sites {
		if err := validateSite(site); err != nil {
			return nil, fmt.Errorf("invalid CHECKIN_SITES[%d]: %w", i, err)
		}
	}
	return sites, nil
}

func validateSite(s domain.Site) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if math.IsNaN(s.Lat) || s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("lat %v out of range", s.Lat)
	}
	if math.IsNaN(s.Lng) || s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("lng %v out of range", s.Lng)
	}
	return nil
}
