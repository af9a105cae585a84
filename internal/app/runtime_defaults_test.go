package app

import (
	"testing"
)

func TestApplyRuntimeDefaultsGeneratesMissingSecrets(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}

	if cfg.Auth.JWT.Secret == "" {
		t.Fatal("expected JWT secret to be generated")
	}
	if !generated["auth.jwt.secret"] {
		t.Fatalf("expected generated map to include jwt secret: %#v", generated)
	}
	if cfg.Fallback.Secret != "" {
		t.Fatalf("expected fallback secret to stay empty, got %q", cfg.Fallback.Secret)
	}
}

func TestApplyRuntimeDefaultsPreservesExistingSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = "configured"

	generated, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}
	if cfg.Auth.JWT.Secret != "configured" {
		t.Fatalf("expected secret to be preserved, got %q", cfg.Auth.JWT.Secret)
	}
	if len(generated) != 0 {
		t.Fatalf("expected nothing generated, got %#v", generated)
	}
}

func TestApplyRuntimeDefaultsRejectsNil(t *testing.T) {
	if _, err := ApplyRuntimeDefaults(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
