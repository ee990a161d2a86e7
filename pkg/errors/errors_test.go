package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeModuleNotFound, "module %q not in catalog", "android")

	if err.Code != ErrCodeModuleNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeModuleNotFound)
	}

	if err.Message != `module "android" not in catalog` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `MODULE_NOT_FOUND: module "android" not in catalog`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeCatalogUnavailable, cause, "fetch catalog")

	if err.Code != ErrCodeCatalogUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeCatalogUnavailable)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeChecksumMismatch, "test"),
			code:     ErrCodeChecksumMismatch,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeChecksumMismatch, "test"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "outer code",
			err:      Wrap(ErrCodeDependencyFailed, New(ErrCodeExtractionFailed, "inner"), "outer"),
			code:     ErrCodeDependencyFailed,
			expected: true,
		},
		{
			name:     "inner code",
			err:      Wrap(ErrCodeDependencyFailed, New(ErrCodeExtractionFailed, "inner"), "outer"),
			code:     ErrCodeExtractionFailed,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("task: %w", New(ErrCodeUnsupportedFormat, "x")),
			code:     ErrCodeUnsupportedFormat,
			expected: true,
		},
		{
			name: "joined",
			err: errors.Join(
				New(ErrCodeExtractionFailed, "editor"),
				New(ErrCodeDependencyFailed, "android"),
			),
			code:     ErrCodeDependencyFailed,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidVersion, "test"),
			expected: ErrCodeInvalidVersion,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "wrapped chain",
			err:      Wrap(ErrCodeExtractionFailed, errors.New("exit status 1"), "tar"),
			expected: "tar: exit status 1",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(New(ErrCodeChecksumMismatch, "x")) {
		t.Error("checksum mismatch should be retryable")
	}
	if Retryable(New(ErrCodeDependencyFailed, "x")) {
		t.Error("dependency failure should not be retryable")
	}
	if Retryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}
