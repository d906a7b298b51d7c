// Package errors provides standardized error types for the dcvkit CLIs.
//
// The errors package defines domain-specific error types that enable
// structured error handling and consistent error messages throughout
// the application.
//
// # Error Types
//
// DCVError is the primary error type, containing:
//   - Code: Categorizes the error (NOT_FOUND, VENDOR, etc.)
//   - Message: Human-readable error description
//   - Domain: The domain name involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// # Sentinel Errors
//
// Common error scenarios have pre-defined sentinel errors:
//
//	errors.ErrDomainNotFound  // domain not registered at the CA
//	errors.ErrRecordNotFound  // DNS record set does not exist
//	errors.ErrZoneNotFound    // no managed zone covers the domain
//	errors.ErrVaultNotFound   // credential vault file missing
//
// # Usage
//
// Creating domain-specific errors:
//
//	// Domain missing at a CA
//	return errors.NotFound("example.com")
//
//	// Vendor API rejected the call
//	return errors.Vendor("digicert", resp.StatusCode, body)
//
//	// Wrapping an underlying error
//	return errors.Wrap(errors.ErrCodeConfig, "failed to load config", err)
//
// # Error Checking
//
// Use errors.Is for sentinel error comparison:
//
//	if errors.Is(err, errors.ErrRecordNotFound) {
//	    // Record absent, create instead of update
//	}
//
// Use errors.As for type assertion:
//
//	var dcvErr *errors.DCVError
//	if errors.As(err, &dcvErr) {
//	    fmt.Printf("Error code: %s, Domain: %s\n", dcvErr.Code, dcvErr.Domain)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // Resource not found
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS" // Resource already exists
	ErrCodeValidation    ErrorCode = "VALIDATION"     // Input validation failed
	ErrCodeAuth          ErrorCode = "AUTH"           // Missing or rejected credentials
	ErrCodeConfig        ErrorCode = "CONFIG"         // Configuration error
	ErrCodeVendor        ErrorCode = "VENDOR"         // Vendor API returned an error
	ErrCodeDNS           ErrorCode = "DNS"            // DNS resolution error
	ErrCodeStore         ErrorCode = "STORE"          // CSV/database artifact error
	ErrCodeInternal      ErrorCode = "INTERNAL"       // Internal/unexpected error
)

// DCVError represents a structured error with context about the operation.
type DCVError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Domain  string    // Domain name (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *DCVError) Error() string {
	if e.Domain != "" && e.Err != nil {
		return fmt.Sprintf("domain %s: %s: %v", e.Domain, e.Message, e.Err)
	}
	if e.Domain != "" {
		return fmt.Sprintf("domain %s: %s", e.Domain, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *DCVError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *DCVError) Is(target error) bool {
	t, ok := target.(*DCVError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrDomainNotFound indicates the domain is not registered at the CA.
	ErrDomainNotFound = &DCVError{Code: ErrCodeNotFound, Message: "domain not found"}

	// ErrRecordNotFound indicates the DNS record set does not exist.
	ErrRecordNotFound = &DCVError{Code: ErrCodeNotFound, Message: "record set not found"}

	// ErrZoneNotFound indicates no managed zone covers the domain.
	ErrZoneNotFound = &DCVError{Code: ErrCodeNotFound, Message: "no managed zone for domain"}

	// ErrVaultNotFound indicates the credential vault file is missing.
	ErrVaultNotFound = &DCVError{Code: ErrCodeAuth, Message: "credential vault not found"}

	// ErrCredentialsMissing indicates a service entry or key is absent from the vault.
	ErrCredentialsMissing = &DCVError{Code: ErrCodeAuth, Message: "credentials missing"}

	// ErrInvalidDomain indicates the domain name is not valid.
	ErrInvalidDomain = &DCVError{Code: ErrCodeValidation, Message: "invalid domain"}

	// ErrInputMissing indicates a required input file does not exist.
	ErrInputMissing = &DCVError{Code: ErrCodeStore, Message: "input file not found"}

	// ErrConfigInvalid indicates the configuration is invalid or corrupt.
	ErrConfigInvalid = &DCVError{Code: ErrCodeConfig, Message: "invalid configuration"}
)

// NotFound creates an error for a domain that is not registered at a CA.
func NotFound(domain string) error {
	return &DCVError{
		Code:    ErrCodeNotFound,
		Message: "domain not found",
		Domain:  domain,
	}
}

// AlreadyExists creates an error for a domain already present at a CA.
func AlreadyExists(domain string) error {
	return &DCVError{
		Code:    ErrCodeAlreadyExists,
		Message: "domain already exists",
		Domain:  domain,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &DCVError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Vendor creates an error for a non-success vendor API response.
// The body is truncated to keep log lines readable.
func Vendor(service string, status int, body string) error {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	return &DCVError{
		Code:    ErrCodeVendor,
		Message: fmt.Sprintf("%s API error: HTTP %d: %s", service, status, body),
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &DCVError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapDomain creates an error with domain context and underlying error.
func WrapDomain(code ErrorCode, domain string, err error) error {
	return &DCVError{
		Code:   code,
		Domain: domain,
		Err:    err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
