package transit

import (
	"errors"
	"fmt"
)

// TransitType classifies a route by mode. The set is closed; storage values
// outside it are carried as read and rejected by MatchType.
type TransitType string

const (
	Bus        TransitType = "bus"
	Trolleybus TransitType = "trolleybus"
	Tram       TransitType = "tram"
	Metro      TransitType = "metro"
)

// ErrInvalidTransitType reports a TransitType value outside the closed set.
var ErrInvalidTransitType = errors.New("invalid transit type")

// TransitTypes lists every case in declaration order.
func TransitTypes() []TransitType {
	return []TransitType{Bus, Trolleybus, Tram, Metro}
}

// MatchType returns the value given for t's case. There is one parameter per
// case, so adding a case breaks every caller at compile time.
func MatchType[T any](t TransitType, bus, trolleybus, tram, metro T) (T, error) {
	switch t {
	case Bus:
		return bus, nil
	case Trolleybus:
		return trolleybus, nil
	case Tram:
		return tram, nil
	case Metro:
		return metro, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", ErrInvalidTransitType, string(t))
}

// ParseTransitType converts a stored value, failing for values outside the set.
func ParseTransitType(s string) (TransitType, error) {
	return MatchType(TransitType(s), Bus, Trolleybus, Tram, Metro)
}

func (t TransitType) Valid() bool {
	_, err := ParseTransitType(string(t))
	return err == nil
}
