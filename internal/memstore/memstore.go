// Package memstore is an in-memory catalog implementing the transit repository
// contracts. It backs tests and the fixture mode of the server.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"opentransit.org/internal/transit"
)

var (
	ErrDuplicateID          = errors.New("duplicate id")
	ErrDuplicateNetworkName = errors.New("duplicate network name")
	ErrUnknownNetwork       = errors.New("unknown network")
)

// Store holds networks, routes and stops in insertion order.
type Store struct {
	mu           sync.RWMutex
	networks     []transit.Network
	routes       []transit.Route
	stops        []transit.Stop
	routeNetwork map[uuid.UUID]uuid.UUID
	networkNames map[string]struct{}
	ids          map[uuid.UUID]struct{}
}

func New() *Store {
	return &Store{
		routeNetwork: make(map[uuid.UUID]uuid.UUID),
		networkNames: make(map[string]struct{}),
		ids:          make(map[uuid.UUID]struct{}),
	}
}

// AddNetwork stores a network, enforcing id and name uniqueness.
func (s *Store) AddNetwork(network transit.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[network.ID]; exists {
		return fmt.Errorf("network %s: %w", network.ID, ErrDuplicateID)
	}
	if _, exists := s.networkNames[network.Name]; exists {
		return fmt.Errorf("network %q: %w", network.Name, ErrDuplicateNetworkName)
	}

	s.ids[network.ID] = struct{}{}
	s.networkNames[network.Name] = struct{}{}
	s.networks = append(s.networks, network)
	return nil
}

// AddRoute stores a route under an existing network. The route type is kept as
// given; invalid values surface when the route is presented.
func (s *Store) AddRoute(networkID uuid.UUID, route transit.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[route.ID]; exists {
		return fmt.Errorf("route %s: %w", route.ID, ErrDuplicateID)
	}
	if !s.hasNetwork(networkID) {
		return fmt.Errorf("route %s: %w %s", route.ID, ErrUnknownNetwork, networkID)
	}

	s.ids[route.ID] = struct{}{}
	s.routeNetwork[route.ID] = networkID
	s.routes = append(s.routes, route)
	return nil
}

func (s *Store) AddStop(stop transit.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[stop.ID]; exists {
		return fmt.Errorf("stop %s: %w", stop.ID, ErrDuplicateID)
	}

	s.ids[stop.ID] = struct{}{}
	s.stops = append(s.stops, stop)
	return nil
}

func (s *Store) hasNetwork(id uuid.UUID) bool {
	for _, n := range s.networks {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Repositories returns repository views sharing this store.
func (s *Store) Repositories() transit.Repositories {
	return transit.Repositories{
		Networks: &NetworksRepository{store: s},
		Routes:   &RoutesRepository{store: s},
		Stops:    &StopsRepository{store: s},
	}
}

type NetworksRepository struct {
	store *Store
}

func (r *NetworksRepository) List(ctx context.Context) ([]transit.Network, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append(make([]transit.Network, 0, len(r.store.networks)), r.store.networks...), nil
}

func (r *NetworksRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Network, error) {
	return r.find(func(n transit.Network) bool { return n.ID == id }), nil
}

func (r *NetworksRepository) GetByName(ctx context.Context, name string) (*transit.Network, error) {
	return r.find(func(n transit.Network) bool { return n.Name == name }), nil
}

func (r *NetworksRepository) find(match func(transit.Network) bool) *transit.Network {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, n := range r.store.networks {
		if match(n) {
			found := n
			return &found
		}
	}
	return nil
}

type RoutesRepository struct {
	store *Store
}

func (r *RoutesRepository) List(ctx context.Context) ([]transit.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append(make([]transit.Route, 0, len(r.store.routes)), r.store.routes...), nil
}

func (r *RoutesRepository) ListForNetwork(ctx context.Context, network transit.Network) ([]transit.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	routes := make([]transit.Route, 0)
	for _, route := range r.store.routes {
		if r.store.routeNetwork[route.ID] == network.ID {
			routes = append(routes, route)
		}
	}
	return routes, nil
}

func (r *RoutesRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, route := range r.store.routes {
		if route.ID == id {
			found := route
			return &found, nil
		}
	}
	return nil, nil
}

type StopsRepository struct {
	store *Store
}

func (r *StopsRepository) List(ctx context.Context) ([]transit.Stop, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append(make([]transit.Stop, 0, len(r.store.stops)), r.store.stops...), nil
}

func (r *StopsRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Stop, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, stop := range r.store.stops {
		if stop.ID == id {
			found := stop
			return &found, nil
		}
	}
	return nil, nil
}

func (r *StopsRepository) ListInRectangle(ctx context.Context, minLat, minLon, maxLat, maxLon decimal.Decimal) ([]transit.Stop, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return transit.NewRectangle(minLat, minLon, maxLat, maxLon).Filter(r.store.stops), nil
}
