package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validAuthBlock = `
auth:
  access_token_secret: "0123456789abcdef0123456789abcdef"
  refresh_token_secret: "fedcba9876543210fedcba9876543210"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validAuthBlock))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.AccessTokenTTL.Std() != 24*time.Hour {
		t.Errorf("access TTL = %v, want 24h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL.Std() != 7*24*time.Hour {
		t.Errorf("refresh TTL = %v, want 168h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.Name != "web-dev-project" {
		t.Errorf("db name = %q", cfg.Database.Name)
	}
}

func TestLoadParsesDurationStrings(t *testing.T) {
	cfg, err := Load(writeConfig(t, validAuthBlock+`
  access_token_ttl: 15m
  refresh_token_ttl: 72h
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.AccessTokenTTL.Std() != 15*time.Minute {
		t.Errorf("access TTL = %v, want 15m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL.Std() != 72*time.Hour {
		t.Errorf("refresh TTL = %v, want 72h", cfg.Auth.RefreshTokenTTL)
	}
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	_, err := Load(writeConfig(t, `server: {port: 3000}`))
	if err == nil {
		t.Fatal("Load() succeeded without secrets, want error")
	}
	if !strings.Contains(err.Error(), "access_token_secret") {
		t.Errorf("error = %v, want mention of access_token_secret", err)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	_, err := Load(writeConfig(t, `
auth:
  access_token_secret: "short"
  refresh_token_secret: "fedcba9876543210fedcba9876543210"
`))
	if err == nil {
		t.Fatal("Load() accepted a short secret, want error")
	}
}

func TestLoadRejectsIdenticalSecrets(t *testing.T) {
	_, err := Load(writeConfig(t, `
auth:
  access_token_secret: "0123456789abcdef0123456789abcdef"
  refresh_token_secret: "0123456789abcdef0123456789abcdef"
`))
	if err == nil {
		t.Fatal("Load() accepted identical secrets, want error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "envenvenvenvenvenvenvenvenvenv12")
	t.Setenv("MONGO_URI", "mongodb://example:27017")

	cfg, err := Load(writeConfig(t, validAuthBlock))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.AccessTokenSecret != "envenvenvenvenvenvenvenvenvenv12" {
		t.Errorf("access secret not overridden by env")
	}
	if cfg.Database.URI != "mongodb://example:27017" {
		t.Errorf("mongo URI not overridden by env")
	}
}
