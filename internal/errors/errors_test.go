package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestDCVErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *DCVError
		want string
	}{
		{
			name: "message only",
			err:  &DCVError{Code: ErrCodeConfig, Message: "invalid configuration"},
			want: "invalid configuration",
		},
		{
			name: "with domain",
			err:  &DCVError{Code: ErrCodeNotFound, Message: "domain not found", Domain: "example.com"},
			want: "domain example.com: domain not found",
		},
		{
			name: "with wrapped error",
			err:  &DCVError{Code: ErrCodeVendor, Message: "request failed", Err: fmt.Errorf("connection refused")},
			want: "request failed: connection refused",
		},
		{
			name: "with domain and wrapped error",
			err:  &DCVError{Code: ErrCodeVendor, Message: "add failed", Domain: "example.com", Err: fmt.Errorf("HTTP 500")},
			want: "domain example.com: add failed: HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := NotFound("example.com")
	if !Is(err, ErrDomainNotFound) {
		t.Error("NotFound error should match ErrDomainNotFound sentinel")
	}
	if Is(err, ErrConfigInvalid) {
		t.Error("NotFound error should not match ErrConfigInvalid")
	}

	wrapped := fmt.Errorf("outer: %w", ErrRecordNotFound)
	if !Is(wrapped, ErrRecordNotFound) {
		t.Error("wrapped sentinel should still match")
	}
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("underlying")
	err := Wrap(ErrCodeConfig, "load failed", inner)

	var dcvErr *DCVError
	if !As(err, &dcvErr) {
		t.Fatal("expected DCVError via As")
	}
	if dcvErr.Unwrap() != inner {
		t.Error("Unwrap should return the underlying error")
	}
	if !Is(err, inner) {
		t.Error("Is should find the underlying error through the chain")
	}
}

func TestVendorTruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 2000)
	err := Vendor("sectigo", 500, body)
	if len(err.Error()) > 600 {
		t.Errorf("vendor error body not truncated, got %d chars", len(err.Error()))
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("vendor error missing status: %v", err)
	}
	if !strings.Contains(err.Error(), "sectigo") {
		t.Errorf("vendor error missing service: %v", err)
	}
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("example.com")
	var dcvErr *DCVError
	if !As(err, &dcvErr) {
		t.Fatal("expected DCVError")
	}
	if dcvErr.Code != ErrCodeAlreadyExists {
		t.Errorf("Code = %s, want %s", dcvErr.Code, ErrCodeAlreadyExists)
	}
	if dcvErr.Domain != "example.com" {
		t.Errorf("Domain = %s, want example.com", dcvErr.Domain)
	}
}
