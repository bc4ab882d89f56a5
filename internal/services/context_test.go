package services_test

import (
	"context"
	"testing"

	"dualsub/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithLanguage(ctx, "tur")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if lang, ok := services.LanguageFromContext(ctx); !ok || lang != "tur" {
		t.Fatalf("unexpected language: %v %v", lang, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "")
	ctx = services.WithLanguage(ctx, "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id value")
	}
	if _, ok := services.LanguageFromContext(ctx); ok {
		t.Fatal("expected no language value")
	}
}
