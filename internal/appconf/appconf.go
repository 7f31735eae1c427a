// Package appconf holds settings shared by the server and its storage layers.
package appconf

import "fmt"

// Environment is the operating environment the process runs in.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// ParseEnvironment converts a --env flag value, rejecting unknown names.
func ParseEnvironment(env string) (Environment, error) {
	switch env {
	case "development", "dev", "":
		return Development, nil
	case "test":
		return Test, nil
	case "production", "prod":
		return Production, nil
	}
	return Development, fmt.Errorf("unknown environment %q (development|test|production)", env)
}

// EnvFlagToEnvironment is ParseEnvironment with Development as the fallback.
func EnvFlagToEnvironment(env string) Environment {
	e, err := ParseEnvironment(env)
	if err != nil {
		return Development
	}
	return e
}
