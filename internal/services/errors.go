package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork        = errors.New("network error")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrDecompression  = errors.New("decompression error")
	ErrDecode         = errors.New("decode error")
	ErrMalformedEntry = errors.New("malformed entry")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNetwork reports whether err should be handled as a failed remote call.
// Upstream rate limiting is treated the same way.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}

// IsContentFailure reports whether err means a downloaded payload could not be
// turned into text.
func IsContentFailure(err error) bool {
	return errors.Is(err, ErrDecompression) || errors.Is(err, ErrDecode)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
