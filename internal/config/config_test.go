package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// No config file exists in the test working directory; Load falls
	// back to defaults.
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Mode != "release" {
		t.Errorf("expected default mode release, got %q", cfg.Mode)
	}
	if cfg.AuthMode != "jwt" {
		t.Errorf("expected default auth_mode jwt, got %q", cfg.AuthMode)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Errorf("expected default ping period 54s, got %v", cfg.PingPeriod)
	}
	if cfg.ReadLimit != 32768 {
		t.Errorf("expected default read limit 32768, got %d", cfg.ReadLimit)
	}
	if len(cfg.StunURLs) != 1 {
		t.Errorf("expected one default STUN url, got %v", cfg.StunURLs)
	}
}
