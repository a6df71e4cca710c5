package config

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AI_PROVIDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected driver sqlite, got %s", cfg.DBDriver)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected provider gemini, got %s", cfg.AIProvider)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported DB driver")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("UNIT_TEST_ENV", "value")
	if got := getEnvOrDefault("UNIT_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("expected env value, got %s", got)
	}

	t.Setenv("UNIT_TEST_ENV", "")
	if got := getEnvOrDefault("UNIT_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback value, got %s", got)
	}
}
