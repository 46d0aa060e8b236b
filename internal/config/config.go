// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderLog            = "log"
	ProviderAfricasTalking = "africastalking"
	ProviderRelay          = "relay"
	ProviderQueue          = "queue"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SMS selects and configures the outbound SMS provider.
type SMS struct {
	Provider string
	Timeout  time.Duration

	// Africa's Talking
	Username string
	APIKey   string
	SenderID string
	Endpoint string

	// RelayAddr is the sms-relay gRPC address for ProviderRelay.
	RelayAddr string
}

// API is the configuration of the api-server process.
type API struct {
	ServiceName     string
	HTTPAddr        string
	GRPCAddr        string
	DBDriver        string
	DatabaseDSN     string
	RedisAddr       string // optional; idempotency keys are ignored without it
	KafkaBrokers    []string
	BcryptCost      int
	ShutdownTimeout time.Duration
	SMS             SMS
}

// Relay is the configuration of the sms-relay process.
type Relay struct {
	ServiceName     string
	GRPCAddr        string
	KafkaBrokers    []string // optional; the queue consumer is off without it
	ConsumerGroup   string
	ShutdownTimeout time.Duration
	SMS             SMS
}

type lookupFunc func(string) string

func LoadAPI() (*API, error) {
	return loadAPI(os.Getenv)
}

func LoadRelay() (*Relay, error) {
	return loadRelay(os.Getenv)
}

func loadAPI(lookup lookupFunc) (*API, error) {
	env := envReader{lookup: lookup}
	cfg := &API{
		ServiceName:     env.get("OTEL_SERVICE_NAME", "api-server"),
		HTTPAddr:        env.get("HTTP_ADDR", ":8080"),
		GRPCAddr:        env.get("GRPC_ADDR", ":9090"),
		DBDriver:        strings.ToLower(env.get("DB_DRIVER", DriverSQLite)),
		DatabaseDSN:     env.get("DATABASE_DSN", "orders.db"),
		RedisAddr:       env.get("REDIS_ADDR", ""),
		KafkaBrokers:    splitList(env.get("KAFKA_BROKERS", "")),
		BcryptCost:      env.getInt("BCRYPT_COST", 0),
		ShutdownTimeout: env.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SMS:             loadSMS(&env, ProviderLog),
	}
	if env.err != nil {
		return nil, env.err
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DBDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN cannot be empty")
	}
	if cfg.BcryptCost != 0 && (cfg.BcryptCost < 4 || cfg.BcryptCost > 31) {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}
	if err := cfg.SMS.validate(); err != nil {
		return nil, err
	}
	if cfg.SMS.Provider == ProviderQueue && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when SMS_PROVIDER is %q", ProviderQueue)
	}
	return cfg, nil
}

func loadRelay(lookup lookupFunc) (*Relay, error) {
	env := envReader{lookup: lookup}
	cfg := &Relay{
		ServiceName:     env.get("OTEL_SERVICE_NAME", "sms-relay"),
		GRPCAddr:        env.get("GRPC_ADDR", ":9091"),
		KafkaBrokers:    splitList(env.get("KAFKA_BROKERS", "")),
		ConsumerGroup:   env.get("KAFKA_CONSUMER_GROUP", "sms-relay"),
		ShutdownTimeout: env.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SMS:             loadSMS(&env, ProviderAfricasTalking),
	}
	if env.err != nil {
		return nil, env.err
	}

	switch cfg.SMS.Provider {
	case ProviderRelay, ProviderQueue:
		return nil, fmt.Errorf("sms-relay cannot forward to SMS_PROVIDER %q", cfg.SMS.Provider)
	}
	if err := cfg.SMS.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSMS(env *envReader, defaultProvider string) SMS {
	return SMS{
		Provider:  strings.ToLower(env.get("SMS_PROVIDER", defaultProvider)),
		Timeout:   env.getDuration("SMS_TIMEOUT", 10*time.Second),
		Username:  env.get("AT_USERNAME", ""),
		APIKey:    env.get("AT_API_KEY", ""),
		SenderID:  env.get("AT_SENDER_ID", ""),
		Endpoint:  env.get("AT_ENDPOINT", ""),
		RelayAddr: env.get("SMS_RELAY_ADDR", "localhost:9091"),
	}
}

func (s SMS) validate() error {
	switch s.Provider {
	case ProviderLog, ProviderQueue:
	case ProviderAfricasTalking:
		if s.Username == "" || s.APIKey == "" {
			return fmt.Errorf("AT_USERNAME and AT_API_KEY are required when SMS_PROVIDER is %q", s.Provider)
		}
	case ProviderRelay:
		if s.RelayAddr == "" {
			return fmt.Errorf("SMS_RELAY_ADDR is required when SMS_PROVIDER is %q", s.Provider)
		}
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", s.Provider)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("SMS_TIMEOUT must be positive")
	}
	return nil
}

// envReader keeps the first parse error so callers check once.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key, fallback string) string {
	if v := strings.TrimSpace(e.lookup(key)); v != "" {
		return v
	}
	return fallback
}

func (e *envReader) getInt(key string, fallback int) int {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
