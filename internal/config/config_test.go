package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SchemaPath != "db/schema.sql" {
		t.Errorf("Expected schema_path to be 'db/schema.sql', got '%s'", config.SchemaPath)
	}

	if config.OutputPath != "fabrik_out" {
		t.Errorf("Expected output_path to be 'fabrik_out', got '%s'", config.OutputPath)
	}

	if config.Database.Provider != "postgresql" {
		t.Errorf("Expected database provider to be 'postgresql', got '%s'", config.Database.Provider)
	}

	if config.Database.URLEnv != "DATABASE_URL" {
		t.Errorf("Expected database url_env to be 'DATABASE_URL', got '%s'", config.Database.URLEnv)
	}

	if config.Service.Mode != "local" {
		t.Errorf("Expected service mode to be 'local', got '%s'", config.Service.Mode)
	}

	if config.Generation.BatchSize != 20 {
		t.Errorf("Expected batch_size to be 20, got %d", config.Generation.BatchSize)
	}
}

func TestValidateProvider(t *testing.T) {
	config := DefaultConfig()
	config.Database.Provider = "oracle"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for unsupported provider")
	}
}

func TestValidateHTTPServiceRequiresEndpoint(t *testing.T) {
	config := DefaultConfig()
	config.Service.Mode = "http"

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for http mode without endpoint")
	}

	config.Service.Endpoint = "https://rows.example.com/generate"
	if err := config.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}
