package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromMap(m map[string]string) lookupFunc {
	return func(k string) string { return m[k] }
}

func TestLoadAPI_Defaults(t *testing.T) {
	cfg, err := loadAPI(fromMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "api-server", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "orders.db", cfg.DatabaseDSN)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, ProviderLog, cfg.SMS.Provider)
	assert.Equal(t, 10*time.Second, cfg.SMS.Timeout)
}

func TestLoadAPI_Overrides(t *testing.T) {
	cfg, err := loadAPI(fromMap(map[string]string{
		"DB_DRIVER":     "Postgres",
		"DATABASE_DSN":  "postgres://localhost/orders?sslmode=disable",
		"KAFKA_BROKERS": "k1:9092, k2:9092,",
		"SMS_PROVIDER":  "africastalking",
		"AT_USERNAME":   "sandbox",
		"AT_API_KEY":    "key",
		"SMS_TIMEOUT":   "3s",
		"BCRYPT_COST":   "4",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ProviderAfricasTalking, cfg.SMS.Provider)
	assert.Equal(t, 3*time.Second, cfg.SMS.Timeout)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoadAPI_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"provider", map[string]string{"SMS_PROVIDER": "pigeon"}, "SMS_PROVIDER"},
		{"at credentials", map[string]string{"SMS_PROVIDER": "africastalking"}, "AT_API_KEY"},
		{"queue without brokers", map[string]string{"SMS_PROVIDER": "queue"}, "KAFKA_BROKERS"},
		{"bad duration", map[string]string{"SMS_TIMEOUT": "soon"}, "SMS_TIMEOUT"},
		{"bad cost", map[string]string{"BCRYPT_COST": "99"}, "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadAPI(fromMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRelay(t *testing.T) {
	cfg, err := loadRelay(fromMap(map[string]string{"SMS_PROVIDER": "log"}))
	require.NoError(t, err)
	assert.Equal(t, ":9091", cfg.GRPCAddr)
	assert.Equal(t, "sms-relay", cfg.ConsumerGroup)

	_, err = loadRelay(fromMap(map[string]string{"SMS_PROVIDER": "relay"}))
	assert.Error(t, err)

	_, err = loadRelay(fromMap(nil))
	require.Error(t, err, "africastalking is the default and needs credentials")
}
