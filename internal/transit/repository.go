package transit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NetworksRepository defines read operations on networks.
type NetworksRepository interface {
	// List returns all networks. Order is backend-defined but stable.
	List(ctx context.Context) ([]Network, error)

	// Get returns (nil, nil) when no network has the id.
	Get(ctx context.Context, id uuid.UUID) (*Network, error)

	// GetByName returns (nil, nil) when no network has the name.
	GetByName(ctx context.Context, name string) (*Network, error)
}

// RoutesRepository defines read operations on routes.
type RoutesRepository interface {
	List(ctx context.Context) ([]Route, error)

	// ListForNetwork returns an empty slice, not an error, for a network
	// without routes.
	ListForNetwork(ctx context.Context, network Network) ([]Route, error)

	// Get returns (nil, nil) when no route has the id.
	Get(ctx context.Context, id uuid.UUID) (*Route, error)
}

// StopsRepository defines read operations on stops.
type StopsRepository interface {
	List(ctx context.Context) ([]Stop, error)

	// Get returns (nil, nil) when no stop has the id.
	Get(ctx context.Context, id uuid.UUID) (*Stop, error)

	// ListInRectangle returns the stops matched by Rectangle.Contains. Inverted
	// bounds yield an empty slice.
	ListInRectangle(ctx context.Context, minLat, minLon, maxLat, maxLon decimal.Decimal) ([]Stop, error)
}

// Repositories bundles one instance of each contract. Implementations must be
// safe for concurrent use.
type Repositories struct {
	Networks NetworksRepository
	Routes   RoutesRepository
	Stops    StopsRepository
}
