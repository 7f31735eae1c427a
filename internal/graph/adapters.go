package graph

import (
	"fmt"

	"opentransit.org/internal/transit"
)

// TransitType is the exposed route classification.
type TransitType string

const (
	TransitTypeBus        TransitType = "bus"
	TransitTypeTrolleybus TransitType = "trolleybus"
	TransitTypeTram       TransitType = "tram"
	TransitTypeMetro      TransitType = "metro"
)

func (t TransitType) String() string {
	return string(t)
}

// TransitTypeFromModel translates a stored classification, failing for values
// outside the closed set.
func TransitTypeFromModel(model transit.TransitType) (TransitType, error) {
	return transit.MatchType(model,
		TransitTypeBus,
		TransitTypeTrolleybus,
		TransitTypeTram,
		TransitTypeMetro,
	)
}

// Model translates back to the domain classification.
func (t TransitType) Model() (transit.TransitType, error) {
	switch t {
	case TransitTypeBus:
		return transit.Bus, nil
	case TransitTypeTrolleybus:
		return transit.Trolleybus, nil
	case TransitTypeTram:
		return transit.Tram, nil
	case TransitTypeMetro:
		return transit.Metro, nil
	}
	return "", fmt.Errorf("%w: %q", transit.ErrInvalidTransitType, string(t))
}

// TransitNetwork is the exposed shape of a network. Its routes are resolved on
// demand from the retained model.
type TransitNetwork struct {
	ID   UUID
	Name string

	model transit.Network
}

func NewTransitNetwork(model transit.Network) *TransitNetwork {
	return &TransitNetwork{
		ID:    UUID{model.ID},
		Name:  model.Name,
		model: model,
	}
}

// TransitRoute is the exposed shape of a route.
type TransitRoute struct {
	ID     UUID
	Number string
	Title  string

	model transit.Route
}

func NewTransitRoute(model transit.Route) *TransitRoute {
	return &TransitRoute{
		ID:     UUID{model.ID},
		Number: model.Number,
		Title:  model.Title,
		model:  model,
	}
}

// Type fails this field alone when storage holds an unknown classification;
// the field is nullable so the route and its siblings still resolve.
func (r *TransitRoute) Type() (*TransitType, error) {
	t, err := TransitTypeFromModel(r.model.Type)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TransitStop is the exposed shape of a stop.
type TransitStop struct {
	ID   UUID
	Name string
	Lat  Decimal
	Lon  Decimal

	model transit.Stop
}

func NewTransitStop(model transit.Stop) *TransitStop {
	return &TransitStop{
		ID:    UUID{model.ID},
		Name:  model.Name,
		Lat:   Decimal{model.Lat},
		Lon:   Decimal{model.Lon},
		model: model,
	}
}

func adaptAll[M any, A any](models []M, adapt func(M) *A) []*A {
	adapted := make([]*A, 0, len(models))
	for _, model := range models {
		adapted = append(adapted, adapt(model))
	}
	return adapted
}
