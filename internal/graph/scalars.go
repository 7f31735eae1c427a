package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UUID is the UUID scalar.
type UUID struct {
	uuid.UUID
}

func (UUID) ImplementsGraphQLType(name string) bool {
	return name == "UUID"
}

func (u *UUID) UnmarshalGraphQL(input interface{}) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("UUID must be a string, got %T", input)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	u.UUID = parsed
	return nil
}

func (u UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.UUID.String())
}

// Decimal is the Decimal scalar. It is written as a JSON string so clients
// never see a rounded float.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) ImplementsGraphQLType(name string) bool {
	return name == "Decimal"
}

func (d *Decimal) UnmarshalGraphQL(input interface{}) error {
	var (
		parsed decimal.Decimal
		err    error
	)
	switch v := input.(type) {
	case string:
		parsed, err = decimal.NewFromString(v)
	case json.Number:
		parsed, err = decimal.NewFromString(v.String())
	case int32:
		parsed = decimal.NewFromInt32(v)
	case int:
		parsed = decimal.NewFromInt(int64(v))
	case int64:
		parsed = decimal.NewFromInt(v)
	case float64:
		// Float literals are parsed to float64 before reaching the scalar,
		// so their digits are already lost.
		return fmt.Errorf("Decimal literal must be a string, got float %v", v)
	default:
		return fmt.Errorf("Decimal must be a string or number, got %T", input)
	}
	if err != nil {
		return fmt.Errorf("invalid Decimal %v: %w", input, err)
	}
	d.Decimal = parsed
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Decimal.String())
}
