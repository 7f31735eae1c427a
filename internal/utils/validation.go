// Package utils validates GraphQL request input before it reaches the schema.
package utils

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// MaxQueryLength bounds the query document in bytes.
	MaxQueryLength = 16 << 10
	// MaxOperationNameLength bounds operationName.
	MaxOperationNameLength = 100
	// MaxVariables bounds the number of top-level variables.
	MaxVariables = 50
)

// GraphQL Name production
var namePattern = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidateQuery validates a GraphQL query document
func ValidateQuery(query string) error {
	if query == "" {
		return errors.New("missing query")
	}

	if len(query) > MaxQueryLength {
		return fmt.Errorf("query too long (max %d bytes)", MaxQueryLength)
	}

	if !utf8.ValidString(query) {
		return errors.New("query is not valid UTF-8")
	}

	return nil
}

// ValidateOperationName validates an optional operation name
func ValidateOperationName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > MaxOperationNameLength {
		return fmt.Errorf("operationName too long (max %d characters)", MaxOperationNameLength)
	}

	if !namePattern.MatchString(name) {
		return errors.New("operationName contains invalid characters")
	}

	return nil
}

// ValidateVariables checks variable names; values are coerced by the schema.
func ValidateVariables(variables map[string]interface{}) error {
	if len(variables) > MaxVariables {
		return fmt.Errorf("too many variables (max %d)", MaxVariables)
	}

	for name := range variables {
		if !namePattern.MatchString(name) {
			return fmt.Errorf("invalid variable name %q", name)
		}
	}

	return nil
}

// ValidateRequest validates every part of a GraphQL request and returns the
// first problem found.
func ValidateRequest(query, operationName string, variables map[string]interface{}) error {
	if err := ValidateQuery(query); err != nil {
		return err
	}
	if err := ValidateOperationName(operationName); err != nil {
		return err
	}
	return ValidateVariables(variables)
}
