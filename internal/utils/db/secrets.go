package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/dealdesk/api-deals/internal/config"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func initSecretsConfig(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func retrieveCredentials(ctx context.Context, cfg config.Database) (string, string, error) {
	if cfg.Username != "" && cfg.Password != "" {
		return cfg.Username, cfg.Password, nil
	}
	if cfg.SecretID == "" {
		return "", "", errors.New("database credentials missing: set DB_USERNAME/DB_PASSWORD or DB_SECRET_ID")
	}

	secrets, err := initSecretsConfig(ctx)
	if err != nil {
		return "", "", err
	}
	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(cfg.SecretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("get secret %s: %w", cfg.SecretID, err)
	}
	return decodeCredentials(aws.ToString(result.SecretString))
}

func decodeCredentials(secret string) (string, string, error) {
	var c Credentials
	if err := json.Unmarshal([]byte(secret), &c); err != nil {
		return "", "", fmt.Errorf("decode db secret: %w", err)
	}
	if c.Username == "" || c.Password == "" {
		return "", "", errors.New("db secret has no username/password")
	}
	return c.Username, c.Password, nil
}
