package configs

import (
	"os"
	"testing"
)

// setupTestEnv sets up required environment variables for config unmarshaling
func setupTestEnv() {
	os.Setenv("APP_DEBUG", "false")
	os.Setenv("APP_ENV", "test")
	os.Setenv("APP_PORT", "8080")
	os.Setenv("COMMERCE_BASE_URL", "https://api.moltin.com")
	os.Setenv("COMMERCE_API_VERSION", "v2")
	os.Setenv("COMMERCE_CLIENT_ID", "test-client")
	os.Setenv("COMMERCE_CLIENT_SECRET", "test-secret")
	os.Setenv("COMMERCE_TIMEOUT", "30")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("REDIS_PASSWORD", "")
	os.Setenv("REDIS_DB", "0")
	os.Setenv("REDIS_SESSION_TTL", "0")
	os.Setenv("POSTGRES_HOST", "localhost")
	os.Setenv("POSTGRES_PORT", "5432")
	os.Setenv("POSTGRES_USERNAME", "test")
	os.Setenv("POSTGRES_PASSWORD", "test")
	os.Setenv("POSTGRES_DATABASE", "test")
	os.Setenv("POSTGRES_SSLMODE", "false")
	os.Setenv("WEBHOOK_TOKEN", "test-token")
}

// cleanupTestEnv cleans up environment variables after tests
func cleanupTestEnv() {
	os.Unsetenv("APP_DEBUG")
	os.Unsetenv("APP_ENV")
	os.Unsetenv("APP_PORT")
	os.Unsetenv("COMMERCE_BASE_URL")
	os.Unsetenv("COMMERCE_API_VERSION")
	os.Unsetenv("COMMERCE_CLIENT_ID")
	os.Unsetenv("COMMERCE_CLIENT_SECRET")
	os.Unsetenv("COMMERCE_TIMEOUT")
	os.Unsetenv("REDIS_HOST")
	os.Unsetenv("REDIS_PORT")
	os.Unsetenv("REDIS_PASSWORD")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("REDIS_SESSION_TTL")
	os.Unsetenv("POSTGRES_HOST")
	os.Unsetenv("POSTGRES_PORT")
	os.Unsetenv("POSTGRES_USERNAME")
	os.Unsetenv("POSTGRES_PASSWORD")
	os.Unsetenv("POSTGRES_DATABASE")
	os.Unsetenv("POSTGRES_SSLMODE")
	os.Unsetenv("WEBHOOK_TOKEN")
}

// TestCommerceStructFieldsUnmarshal tests that Commerce struct fields
// are properly unmarshaled from the environment
func TestCommerceStructFieldsUnmarshal(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()

	os.Setenv("COMMERCE_CLIENT_ID", "abc123")
	os.Setenv("COMMERCE_TIMEOUT", "45")

	InitViper(".", "test")

	cfg := GetViper()

	if cfg.Commerce.ClientID != "abc123" {
		t.Errorf("Expected Commerce.ClientID to be abc123, got %s", cfg.Commerce.ClientID)
	}

	if cfg.Commerce.Timeout != 45 {
		t.Errorf("Expected Commerce.Timeout to be 45, got %d", cfg.Commerce.Timeout)
	}
}

// TestRedisSessionTTLUnmarshal tests that the session TTL is read from
// the environment
func TestRedisSessionTTLUnmarshal(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()

	os.Setenv("REDIS_SESSION_TTL", "3600")

	InitViper(".", "test")

	cfg := GetViper()

	if cfg.Redis.SessionTTL != 3600 {
		t.Errorf("Expected Redis.SessionTTL to be 3600, got %d", cfg.Redis.SessionTTL)
	}

	if cfg.Redis.Host != "localhost" {
		t.Errorf("Expected Redis.Host to be localhost, got %s", cfg.Redis.Host)
	}
}

// TestWebhookTokenUnmarshal tests that the webhook shared secret is
// read from the environment
func TestWebhookTokenUnmarshal(t *testing.T) {
	setupTestEnv()
	defer cleanupTestEnv()

	os.Setenv("WEBHOOK_TOKEN", "super-secret")

	InitViper(".", "test")

	cfg := GetViper()

	if cfg.Webhook.Token != "super-secret" {
		t.Errorf("Expected Webhook.Token to be super-secret, got %s", cfg.Webhook.Token)
	}
}
