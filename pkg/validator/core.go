package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Numeric constrains the numeric rule constructors.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Error represents a single validation failure. Path addresses the offending
// field (dotted for nested models), Rule names the violated constraint using
// JSON-schema keyword vocabulary (required, minimum, minLength, pattern,
// email, ...), Message is human-readable.
type Error struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors is a collection of validation failures. It implements error so it
// can flow through ordinary error returns.
type Errors []Error

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Path, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve *Errors) Add(err Error) {
	*ve = append(*ve, err)
}

// Has reports whether any failure addresses the given path.
func (ve Errors) Has(path string) bool {
	for _, err := range ve {
		if err.Path == path {
			return true
		}
	}
	return false
}

// Get returns all messages recorded for a path.
func (ve Errors) Get(path string) []string {
	var messages []string
	for _, err := range ve {
		if err.Path == path {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

func (ve Errors) IsEmpty() bool {
	return len(ve) == 0
}

// Rule pairs a predicate with the failure it produces.
type Rule struct {
	Check func() bool
	Error Error
}

// Apply executes the rules in order and collects every failure.
// It returns nil when all rules pass.
func Apply(rules ...Rule) error {
	var errs Errors

	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}

	if errs.IsEmpty() {
		return nil
	}

	return errs
}

// Extract pulls Errors out of an arbitrary error, returning nil when the
// error does not carry validation failures.
func Extract(err error) Errors {
	if err == nil {
		return nil
	}

	var ve Errors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
