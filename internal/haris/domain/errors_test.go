package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSourceError_MatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("refresh: %w", &SourceError{SourceID: "ut1-gambling", URL: "https://x/y", Err: cause})

	if !errors.Is(err, ErrSourceUnavailable) {
		t.Error("SourceError should match ErrSourceUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("SourceError should unwrap to its cause")
	}
	var se *SourceError
	if !errors.As(err, &se) || se.SourceID != "ut1-gambling" {
		t.Errorf("errors.As failed: %v", se)
	}
}

func TestNewInvalidCategoryRequestError(t *testing.T) {
	if err := NewInvalidCategoryRequestError(nil, nil); err != nil {
		t.Fatalf("expected nil for empty lists, got %v", err)
	}

	err := NewInvalidCategoryRequestError([]string{"zzz", "aaa"}, []string{"adult"})
	if !errors.Is(err, ErrInvalidCategoryRequest) {
		t.Fatal("expected ErrInvalidCategoryRequest match")
	}
	want := "invalid categories: aaa, zzz; mandatory categories cannot be toggled: adult"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCategoryStatus_EverSucceeded(t *testing.T) {
	var s CategoryStatus
	if s.EverSucceeded() {
		t.Error("zero status should not have succeeded")
	}
	b, _ := IngestPartial.MarshalText()
	var back IngestStatus
	if err := back.UnmarshalText(b); err != nil || back != IngestPartial {
		t.Errorf("round trip failed: %v %v", back, err)
	}
}
