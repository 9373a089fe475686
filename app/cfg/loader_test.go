package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:             "9000",
		BaseURL:          "https://events.purdue.edu",
		StudentURL:       "https://events.purdue.edu/calendar/upcoming",
		FacultyURL:       "https://events.purdue.edu/calendar/week",
		UserAgent:        "Test Agent",
		BatchSize:        10,
		ListingTimeout:   30,
		DetailTimeout:    15,
		NormalizeTimeout: 60,
		RedisAddr:        "localhost:6379",
		CacheTTLSeconds:  3600,
		OpenAIAPIKey:     "test-key",
		OpenAIModel:      "gpt-4o-mini",
		Debug:            true,
		Version:          "test-version",
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port '9000', got '%s'", cfg.Port)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("Expected batch size 10, got %d", cfg.BatchSize)
	}
	if cfg.CacheTTLSeconds != 3600 {
		t.Errorf("Expected cache TTL 3600, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("Expected model 'gpt-4o-mini', got '%s'", cfg.OpenAIModel)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
