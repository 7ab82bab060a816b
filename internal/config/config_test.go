package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("TEFF_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SMS_ALERTS_ENABLED", "true")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.True(t, cfg.SMSAlertsEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokerList())
	assert.Equal(t, "teff.orders", cfg.KafkaTopic)
	assert.Equal(t, 5432, cfg.DBPort)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBName: "teff", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u dbname=teff sslmode=disable", cfg.DSN())
	cfg.DBPassword = "p"
	assert.Contains(t, cfg.DSN(), "password=p")
}

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: &f.value}, nil
}

func TestResolveDatabaseURL(t *testing.T) {
	ctx := context.Background()

	cfg := &Config{DatabaseURL: "postgres://direct"}
	url, err := cfg.ResolveDatabaseURL(ctx, fakeSecrets{value: `{"DATABASE_URL":"postgres://secret"}`})
	require.NoError(t, err)
	assert.Equal(t, "postgres://direct", url)

	cfg = &Config{DBSecretARN: "arn:secret"}
	url, err = cfg.ResolveDatabaseURL(ctx, fakeSecrets{value: `{"DATABASE_URL":"postgres://secret"}`})
	require.NoError(t, err)
	assert.Equal(t, "postgres://secret", url)

	_, err = cfg.ResolveDatabaseURL(ctx, fakeSecrets{value: `{}`})
	assert.Error(t, err)

	_, err = cfg.ResolveDatabaseURL(ctx, fakeSecrets{err: errors.New("denied")})
	assert.Error(t, err)
}
