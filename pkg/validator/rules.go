package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(path, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: Error{
			Path:    path,
			Rule:    "required",
			Message: "field is required",
		},
	}
}

// MinLenString validates a minimum string length in bytes.
func MinLenString(path, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: Error{
			Path:    path,
			Rule:    "minLength",
			Message: fmt.Sprintf("must be at least %d characters long", min),
		},
	}
}

// MaxLenString validates a maximum string length in bytes.
func MaxLenString(path, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: Error{
			Path:    path,
			Rule:    "maxLength",
			Message: fmt.Sprintf("must be at most %d characters long", max),
		},
	}
}

// Min validates a numeric lower bound (inclusive).
func Min[T Numeric](path string, value, min T) Rule {
	return Rule{
		Check: func() bool {
			return value >= min
		},
		Error: Error{
			Path:    path,
			Rule:    "minimum",
			Message: fmt.Sprintf("must be greater than or equal to %v", min),
		},
	}
}

// Max validates a numeric upper bound (inclusive).
func Max[T Numeric](path string, value, max T) Rule {
	return Rule{
		Check: func() bool {
			return value <= max
		},
		Error: Error{
			Path:    path,
			Rule:    "maximum",
			Message: fmt.Sprintf("must be less than or equal to %v", max),
		},
	}
}

// MinItems validates a minimum collection size.
func MinItems[T any](path string, value []T, min int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) >= min
		},
		Error: Error{
			Path:    path,
			Rule:    "minItems",
			Message: fmt.Sprintf("must contain at least %d items", min),
		},
	}
}

// MaxItems validates a maximum collection size.
func MaxItems[T any](path string, value []T, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: Error{
			Path:    path,
			Rule:    "maxItems",
			Message: fmt.Sprintf("must contain at most %d items", max),
		},
	}
}

// Pattern validates a string against a compiled regular expression.
func Pattern(path, value string, re *regexp.Regexp) Rule {
	return Rule{
		Check: func() bool {
			return re.MatchString(value)
		},
		Error: Error{
			Path:    path,
			Rule:    "pattern",
			Message: fmt.Sprintf("must match pattern %s", re.String()),
		},
	}
}

// ValidEmail validates that a string is an RFC 5322 address suitable for
// typical web use (single bare address, dotted domain).
func ValidEmail(path, value string) Rule {
	return Rule{
		Check: func() bool {
			return isEmail(value)
		},
		Error: Error{
			Path:    path,
			Rule:    "email",
			Message: "must be a valid email address",
		},
	}
}

func isEmail(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}

	// mail.ParseAddress accepts display names and domains without dots;
	// reject both for web input.
	if addr.Address != value {
		return false
	}
	_, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || !strings.Contains(domain, ".") {
		return false
	}
	return true
}

// InChoices validates membership in an allowed set.
func InChoices[T comparable](path string, value T, choices []T) Rule {
	return Rule{
		Check: func() bool {
			for _, c := range choices {
				if value == c {
					return true
				}
			}
			return false
		},
		Error: Error{
			Path:    path,
			Rule:    "enum",
			Message: fmt.Sprintf("must be one of %v", choices),
		},
	}
}
