package services_test

import (
	"errors"
	"strings"
	"testing"

	"dualsub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrDecompression, "textenc", "gunzip", "corrupt stream", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrDecompression) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"textenc", "gunzip", "corrupt stream"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToNetworkMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected network marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassification(t *testing.T) {
	rateLimited := services.Wrap(services.ErrRateLimited, "catalog", "search", "429", nil)
	if !services.IsNetwork(rateLimited) {
		t.Fatal("expected rate limit to classify as network failure")
	}
	if services.IsContentFailure(rateLimited) {
		t.Fatal("rate limit is not a content failure")
	}

	decodeErr := services.Wrap(services.ErrDecode, "textenc", "decode", "latin1", errors.New("bad"))
	if !services.IsContentFailure(decodeErr) {
		t.Fatal("expected decode error to classify as content failure")
	}
	if services.IsNetwork(decodeErr) {
		t.Fatal("decode error is not a network failure")
	}
	if services.IsNetwork(nil) || services.IsContentFailure(nil) {
		t.Fatal("nil must not classify")
	}
}
