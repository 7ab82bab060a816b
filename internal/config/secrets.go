package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the subset of the Secrets Manager client used here
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type secretPayload struct {
	DatabaseURL string `json:"DATABASE_URL"`
}

// DatabaseURLFromSecret reads the DATABASE_URL key of a JSON secret.
func DatabaseURLFromSecret(ctx context.Context, sm SecretGetter, secretArn string) (string, error) {
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretArn})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretArn)
	}
	var payload secretPayload
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", fmt.Errorf("parse secret json: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL missing in secret")
	}
	return payload.DatabaseURL, nil
}

// ResolveDatabaseURL picks DATABASE_URL, then the secret, then the DB_* settings.
func (c *Config) ResolveDatabaseURL(ctx context.Context, sm SecretGetter) (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.DBSecretARN != "" && sm != nil {
		return DatabaseURLFromSecret(ctx, sm, c.DBSecretARN)
	}
	return c.DSN(), nil
}
