// Package transittest provides a contract suite every transit repository
// backend must pass.
package transittest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opentransit.org/internal/transit"
)

// Seeder writes fixtures into a backend under test.
type Seeder interface {
	AddNetwork(network transit.Network) error
	AddRoute(networkID uuid.UUID, route transit.Route) error
	AddStop(stop transit.Stop) error
}

// Backend constructs an empty backend for one subtest.
type Backend func(t *testing.T) (Seeder, transit.Repositories)

// Fixture is the catalog seeded by RunRepositoryContract.
type Fixture struct {
	CityBus  transit.Network
	MetroCo  transit.Network
	Empty    transit.Network
	Route12  transit.Route
	Route7   transit.Route
	RouteM1  transit.Route
	StopKyiv transit.Stop
	StopFar  transit.Stop
	StopEdge transit.Stop
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewFixture() Fixture {
	return Fixture{
		CityBus: transit.Network{ID: uuid.New(), Name: "CityBus"},
		MetroCo: transit.Network{ID: uuid.New(), Name: "MetroCo"},
		Empty:   transit.Network{ID: uuid.New(), Name: "Empty Lines"},
		Route12: transit.Route{ID: uuid.New(), Number: "12", Title: "Station - Airport", Type: transit.Bus},
		Route7:  transit.Route{ID: uuid.New(), Number: "7", Title: "Old Town Loop", Type: transit.Tram},
		RouteM1: transit.Route{ID: uuid.New(), Number: "M1", Title: "Red Line", Type: transit.Metro},
		StopKyiv: transit.Stop{
			ID: uuid.New(), Name: "Khreshchatyk", Lat: Dec("50.45"), Lon: Dec("30.52"),
		},
		StopFar: transit.Stop{
			ID: uuid.New(), Name: "Far Away", Lat: Dec("10.0"), Lon: Dec("10.0"),
		},
		StopEdge: transit.Stop{
			ID: uuid.New(), Name: "Corner", Lat: Dec("51.0"), Lon: Dec("30.0"),
		},
	}
}

// Seed writes f into s.
func (f Fixture) Seed(t *testing.T, s Seeder) {
	t.Helper()
	for _, n := range []transit.Network{f.CityBus, f.MetroCo, f.Empty} {
		require.NoError(t, s.AddNetwork(n))
	}
	require.NoError(t, s.AddRoute(f.CityBus.ID, f.Route12))
	require.NoError(t, s.AddRoute(f.CityBus.ID, f.Route7))
	require.NoError(t, s.AddRoute(f.MetroCo.ID, f.RouteM1))
	for _, stop := range []transit.Stop{f.StopKyiv, f.StopFar, f.StopEdge} {
		require.NoError(t, s.AddStop(stop))
	}
}

func ids[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}

func stopIDs(stops []transit.Stop) []uuid.UUID {
	return ids(stops, func(s transit.Stop) uuid.UUID { return s.ID })
}

func routeIDs(routes []transit.Route) []uuid.UUID {
	return ids(routes, func(r transit.Route) uuid.UUID { return r.ID })
}

// RunRepositoryContract checks the repository guarantees against newBackend.
func RunRepositoryContract(t *testing.T, newBackend Backend) {
	ctx := context.Background()

	setup := func(t *testing.T) (Fixture, transit.Repositories) {
		seeder, repos := newBackend(t)
		f := NewFixture()
		f.Seed(t, seeder)
		return f, repos
	}

	t.Run("networks list and lookups agree", func(t *testing.T) {
		f, repos := setup(t)

		networks, err := repos.Networks.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]uuid.UUID{f.CityBus.ID, f.MetroCo.ID, f.Empty.ID},
			ids(networks, func(n transit.Network) uuid.UUID { return n.ID }))

		for _, n := range networks {
			byID, err := repos.Networks.Get(ctx, n.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, n.ID, byID.ID)
			assert.Equal(t, n.Name, byID.Name)

			byName, err := repos.Networks.GetByName(ctx, n.Name)
			require.NoError(t, err)
			require.NotNil(t, byName)
			assert.Equal(t, n.ID, byName.ID)
		}
	})

	t.Run("absent lookups return nil without error", func(t *testing.T) {
		_, repos := setup(t)

		network, err := repos.Networks.Get(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, network)

		network, err = repos.Networks.GetByName(ctx, "No Such Network")
		assert.NoError(t, err)
		assert.Nil(t, network)

		route, err := repos.Routes.Get(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, route)

		stop, err := repos.Stops.Get(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, stop)
	})

	t.Run("routes for network", func(t *testing.T) {
		f, repos := setup(t)

		routes, err := repos.Routes.ListForNetwork(ctx, f.CityBus)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{f.Route12.ID, f.Route7.ID}, routeIDs(routes))

		routes, err = repos.Routes.ListForNetwork(ctx, f.Empty)
		require.NoError(t, err)
		assert.NotNil(t, routes)
		assert.Empty(t, routes)
	})

	t.Run("route fields survive storage", func(t *testing.T) {
		f, repos := setup(t)

		route, err := repos.Routes.Get(ctx, f.Route7.ID)
		require.NoError(t, err)
		require.NotNil(t, route)
		assert.Equal(t, "7", route.Number)
		assert.Equal(t, "Old Town Loop", route.Title)
		assert.Equal(t, transit.Tram, route.Type)

		all, err := repos.Routes.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("stop coordinates stay exact", func(t *testing.T) {
		f, repos := setup(t)

		stop, err := repos.Stops.Get(ctx, f.StopKyiv.ID)
		require.NoError(t, err)
		require.NotNil(t, stop)
		assert.True(t, stop.Lat.Equal(Dec("50.45")), "lat was %s", stop.Lat)
		assert.True(t, stop.Lon.Equal(Dec("30.52")), "lon was %s", stop.Lon)

		all, err := repos.Stops.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("stops in rectangle", func(t *testing.T) {
		f, repos := setup(t)

		tests := []struct {
			name     string
			bounds   [4]string
			expected []uuid.UUID
		}{
			{
				name:     "selects only the stop inside",
				bounds:   [4]string{"50.0", "30.1", "51.0", "31.0"},
				expected: []uuid.UUID{f.StopKyiv.ID},
			},
			{
				name:     "edges are inclusive",
				bounds:   [4]string{"50.0", "30.0", "51.0", "31.0"},
				expected: []uuid.UUID{f.StopKyiv.ID, f.StopEdge.ID},
			},
			{
				name:     "exact comparison excludes a stop a hair outside",
				bounds:   [4]string{"50.0", "30.0000000001", "50.9999999999", "31.0"},
				expected: []uuid.UUID{f.StopKyiv.ID},
			},
			{
				name:     "inverted bounds return nothing",
				bounds:   [4]string{"51.0", "30.0", "50.0", "31.0"},
				expected: []uuid.UUID{},
			},
			{
				name:     "whole world",
				bounds:   [4]string{"-90", "-180", "90", "180"},
				expected: []uuid.UUID{f.StopKyiv.ID, f.StopFar.ID, f.StopEdge.ID},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				stops, err := repos.Stops.ListInRectangle(ctx,
					Dec(tt.bounds[0]), Dec(tt.bounds[1]), Dec(tt.bounds[2]), Dec(tt.bounds[3]))
				require.NoError(t, err)
				assert.NotNil(t, stops)
				assert.ElementsMatch(t, tt.expected, stopIDs(stops))

				rect := transit.NewRectangle(Dec(tt.bounds[0]), Dec(tt.bounds[1]), Dec(tt.bounds[2]), Dec(tt.bounds[3]))
				for _, s := range stops {
					assert.True(t, rect.Contains(s.Lat, s.Lon), "stop %s outside bounds", s.Name)
				}
			})
		}
	})

	t.Run("repeated calls return identical order", func(t *testing.T) {
		_, repos := setup(t)

		first, err := repos.Stops.List(ctx)
		require.NoError(t, err)
		second, err := repos.Stops.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, stopIDs(first), stopIDs(second))

		firstRoutes, err := repos.Routes.List(ctx)
		require.NoError(t, err)
		secondRoutes, err := repos.Routes.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, routeIDs(firstRoutes), routeIDs(secondRoutes))
	})
}
