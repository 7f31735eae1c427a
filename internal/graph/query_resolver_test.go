package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/graph-gophers/graphql-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opentransit.org/internal/logging"
	"opentransit.org/internal/memstore"
	"opentransit.org/internal/transit"
	"opentransit.org/internal/transit/transittest"
)

type networkResult struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Routes []routeResult `json:"routes"`
}

type routeResult struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
	Type   string `json:"type"`
}

type stopResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

// countingRoutes records how often the relationship resolver reaches storage.
type countingRoutes struct {
	transit.RoutesRepository
	listForNetwork atomic.Int32
}

func (c *countingRoutes) ListForNetwork(ctx context.Context, network transit.Network) ([]transit.Route, error) {
	c.listForNetwork.Add(1)
	return c.RoutesRepository.ListForNetwork(ctx, network)
}

type failingNetworks struct {
	transit.NetworksRepository
	err error
}

func (f *failingNetworks) List(ctx context.Context) ([]transit.Network, error) {
	return nil, f.err
}

type failingRoutes struct {
	transit.RoutesRepository
	err error
}

func (f *failingRoutes) ListForNetwork(ctx context.Context, network transit.Network) ([]transit.Route, error) {
	return nil, f.err
}

type panickingStops struct {
	transit.StopsRepository
}

func (p *panickingStops) List(ctx context.Context) ([]transit.Stop, error) {
	panic("storage exploded")
}

func newTestSchema(t *testing.T, logger *slog.Logger) *graphql.Schema {
	t.Helper()
	schema, err := NewSchema(Options{MaxParallelism: 4, Logger: logger})
	require.NoError(t, err)
	return schema
}

func seededStore(t *testing.T) (transittest.Fixture, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	f := transittest.NewFixture()
	f.Seed(t, store)
	return f, store
}

func execute(t *testing.T, repos transit.Repositories, query string, variables map[string]interface{}) *graphql.Response {
	t.Helper()
	schema := newTestSchema(t, nil)
	ctx := WithRepositories(context.Background(), repos)
	return schema.Exec(ctx, query, "", variables)
}

func decodeData(t *testing.T, resp *graphql.Response, target interface{}) {
	t.Helper()
	require.Empty(t, resp.Errors)
	require.NoError(t, json.Unmarshal(resp.Data, target))
}

func TestNetworkByNameResolvesRoutes(t *testing.T) {
	f, store := seededStore(t)

	resp := execute(t, store.Repositories(), `{
		networkByName(name: "CityBus") {
			id
			name
			routes { id number type }
		}
	}`, nil)

	var data struct {
		NetworkByName *networkResult `json:"networkByName"`
	}
	decodeData(t, resp, &data)

	require.NotNil(t, data.NetworkByName)
	assert.Equal(t, f.CityBus.ID.String(), data.NetworkByName.ID)
	assert.Equal(t, "CityBus", data.NetworkByName.Name)
	assert.Equal(t, []routeResult{
		{ID: f.Route12.ID.String(), Number: "12", Type: "bus"},
		{ID: f.Route7.ID.String(), Number: "7", Type: "tram"},
	}, data.NetworkByName.Routes)
}

func TestStopsInRectangle(t *testing.T) {
	f, store := seededStore(t)

	t.Run("literal bounds", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{
			stopsInRectangle(minLat: "50.0", minLon: "30.1", maxLat: 51, maxLon: 31) { id name lat lon }
		}`, nil)

		var data struct {
			StopsInRectangle []stopResult `json:"stopsInRectangle"`
		}
		decodeData(t, resp, &data)

		assert.Equal(t, []stopResult{
			{ID: f.StopKyiv.ID.String(), Name: "Khreshchatyk", Lat: "50.45", Lon: "30.52"},
		}, data.StopsInRectangle)
	})

	t.Run("string variables keep exact precision", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `
			query ($minLat: Decimal!, $minLon: Decimal!, $maxLat: Decimal!, $maxLon: Decimal!) {
				stopsInRectangle(minLat: $minLat, minLon: $minLon, maxLat: $maxLat, maxLon: $maxLon) { id }
			}`, map[string]interface{}{
			"minLat": "50.0",
			"minLon": "30.0000000000000000001",
			"maxLat": "51.0",
			"maxLon": json.Number("31"),
		})

		var data struct {
			StopsInRectangle []stopResult `json:"stopsInRectangle"`
		}
		decodeData(t, resp, &data)

		ids := make([]string, 0, len(data.StopsInRectangle))
		for _, s := range data.StopsInRectangle {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []string{f.StopKyiv.ID.String()}, ids)
	})

	t.Run("float literals are rejected", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{
			stopsInRectangle(minLat: 50.0, minLon: 30.1, maxLat: 51.0, maxLon: 31.0) { id }
		}`, nil)
		require.NotEmpty(t, resp.Errors)
		assert.Contains(t, resp.Errors[0].Message, "Decimal literal must be a string")
	})

	t.Run("string literals compare exactly at the bound", func(t *testing.T) {
		precise := memstore.New()
		require.NoError(t, precise.AddStop(transit.Stop{
			ID: uuid.New(), Name: "Precise",
			Lat: decimal.RequireFromString("50.00000000000000001"),
			Lon: decimal.RequireFromString("30.5"),
		}))

		resp := execute(t, precise.Repositories(), `{
			below: stopsInRectangle(minLat: "50.00000000000000002", minLon: "30", maxLat: "51", maxLon: "31") { name }
			at: stopsInRectangle(minLat: "50.00000000000000001", minLon: "30", maxLat: "51", maxLon: "31") { name }
		}`, nil)
		require.Empty(t, resp.Errors)
		assert.JSONEq(t, `{"below": [], "at": [{"name": "Precise"}]}`, string(resp.Data))
	})

	t.Run("inverted bounds return an empty list", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{
			stopsInRectangle(minLat: "51", minLon: "30", maxLat: "50", maxLon: "31") { id }
		}`, nil)

		var data struct {
			StopsInRectangle []stopResult `json:"stopsInRectangle"`
		}
		decodeData(t, resp, &data)
		assert.NotNil(t, data.StopsInRectangle)
		assert.Empty(t, data.StopsInRectangle)
	})

	t.Run("all bounds are mandatory", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{
			stopsInRectangle(minLat: 50, minLon: 30, maxLat: 51) { id }
		}`, nil)
		require.NotEmpty(t, resp.Errors)
		assert.Contains(t, resp.Errors[0].Message, "maxLon")
	})
}

func TestLookupsAgreeWithLists(t *testing.T) {
	_, store := seededStore(t)
	repos := store.Repositories()

	resp := execute(t, repos, `{ networks { id name } }`, nil)
	var list struct {
		Networks []networkResult `json:"networks"`
	}
	decodeData(t, resp, &list)
	require.Len(t, list.Networks, 3)

	for _, n := range list.Networks {
		resp := execute(t, repos, `query ($id: UUID!, $name: String!) {
			network(id: $id) { id name }
			networkByName(name: $name) { id name }
		}`, map[string]interface{}{"id": n.ID, "name": n.Name})

		var data struct {
			Network       *networkResult `json:"network"`
			NetworkByName *networkResult `json:"networkByName"`
		}
		decodeData(t, resp, &data)
		require.NotNil(t, data.Network)
		require.NotNil(t, data.NetworkByName)
		assert.Equal(t, n, *data.Network)
		assert.Equal(t, n, *data.NetworkByName)
	}
}

func TestAbsentLookupsReturnNull(t *testing.T) {
	_, store := seededStore(t)

	resp := execute(t, store.Repositories(), `query ($id: UUID!) {
		network(id: $id) { id }
		networkByName(name: "Nowhere Transit") { id }
		route(id: $id) { id }
	}`, map[string]interface{}{"id": uuid.NewString()})

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"network": null, "networkByName": null, "route": null}`, string(resp.Data))
}

func TestRouteLookup(t *testing.T) {
	f, store := seededStore(t)

	resp := execute(t, store.Repositories(), `query ($id: UUID!) {
		route(id: $id) { id number title type }
	}`, map[string]interface{}{"id": f.RouteM1.ID.String()})

	var data struct {
		Route *routeResult `json:"route"`
	}
	decodeData(t, resp, &data)
	require.NotNil(t, data.Route)
	assert.Equal(t, routeResult{
		ID: f.RouteM1.ID.String(), Number: "M1", Title: "Red Line", Type: "metro",
	}, *data.Route)
}

func TestInvalidUUIDArgument(t *testing.T) {
	_, store := seededStore(t)

	resp := execute(t, store.Repositories(), `{ network(id: "not-a-uuid") { id } }`, nil)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "invalid UUID")
}

func TestRoutesResolveLazily(t *testing.T) {
	_, store := seededStore(t)
	base := store.Repositories()
	routes := &countingRoutes{RoutesRepository: base.Routes}
	repos := transit.Repositories{Networks: base.Networks, Routes: routes, Stops: base.Stops}

	t.Run("not selected means not fetched", func(t *testing.T) {
		resp := execute(t, repos, `{ networks { id name } }`, nil)
		require.Empty(t, resp.Errors)
		assert.EqualValues(t, 0, routes.listForNetwork.Load())
	})

	t.Run("one repository call per network", func(t *testing.T) {
		routes.listForNetwork.Store(0)
		resp := execute(t, repos, `{ networks { id routes { id } } }`, nil)

		var data struct {
			Networks []networkResult `json:"networks"`
		}
		decodeData(t, resp, &data)
		require.Len(t, data.Networks, 3)
		assert.EqualValues(t, 3, routes.listForNetwork.Load())

		for _, n := range data.Networks {
			assert.NotNil(t, n.Routes, n.Name)
		}
	})
}

func TestRepositoryFailuresPropagate(t *testing.T) {
	_, store := seededStore(t)
	base := store.Repositories()
	storageDown := errors.New("storage unavailable")

	t.Run("root field", func(t *testing.T) {
		repos := transit.Repositories{
			Networks: &failingNetworks{NetworksRepository: base.Networks, err: storageDown},
			Routes:   base.Routes,
			Stops:    base.Stops,
		}
		resp := execute(t, repos, `{ networks { id } }`, nil)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0].Message, "storage unavailable")
		assert.Equal(t, []interface{}{"networks"}, resp.Errors[0].Path)
	})

	t.Run("relationship field", func(t *testing.T) {
		repos := transit.Repositories{
			Networks: base.Networks,
			Routes:   &failingRoutes{RoutesRepository: base.Routes, err: storageDown},
			Stops:    base.Stops,
		}
		resp := execute(t, repos, `{ networkByName(name: "CityBus") { id routes { id } } }`, nil)
		require.NotEmpty(t, resp.Errors)
		assert.Contains(t, resp.Errors[0].Message, "storage unavailable")
		assert.JSONEq(t, `{"networkByName": null}`, string(resp.Data))
	})
}

func TestInvalidStoredTransitTypeFailsTheField(t *testing.T) {
	store := memstore.New()
	network := transit.Network{ID: uuid.New(), Name: "Harbour"}
	require.NoError(t, store.AddNetwork(network))
	require.NoError(t, store.AddRoute(network.ID, transit.Route{
		ID: uuid.New(), Number: "5", Title: "Quay Shuttle", Type: transit.Bus,
	}))
	require.NoError(t, store.AddRoute(network.ID, transit.Route{
		ID: uuid.New(), Number: "F1", Title: "Ferry", Type: transit.TransitType("ferry"),
	}))

	t.Run("only the type field is null", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{ routes { number type } }`, nil)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0].Message, "invalid transit type")
		assert.Contains(t, resp.Errors[0].Message, "ferry")
		assert.Equal(t, []interface{}{"routes", 1, "type"}, resp.Errors[0].Path)
		assert.JSONEq(t, `{"routes": [
			{"number": "5", "type": "bus"},
			{"number": "F1", "type": null}
		]}`, string(resp.Data))
	})

	t.Run("sibling routes survive under their network", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{ networkByName(name: "Harbour") { name routes { number type } } }`, nil)
		require.Len(t, resp.Errors, 1)
		assert.JSONEq(t, `{"networkByName": {"name": "Harbour", "routes": [
			{"number": "5", "type": "bus"},
			{"number": "F1", "type": null}
		]}}`, string(resp.Data))
	})

	t.Run("other fields still resolve", func(t *testing.T) {
		resp := execute(t, store.Repositories(), `{ routes { number title } }`, nil)
		require.Empty(t, resp.Errors)
		assert.JSONEq(t, `{"routes": [{"number": "5", "title": "Quay Shuttle"}, {"number": "F1", "title": "Ferry"}]}`, string(resp.Data))
	})
}

func TestMissingRepositories(t *testing.T) {
	schema := newTestSchema(t, nil)
	resp := schema.Exec(context.Background(), `{ stops { id } }`, "", nil)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, ErrNoRepositories.Error())
}

func TestResolverPanicIsLogged(t *testing.T) {
	_, store := seededStore(t)
	base := store.Repositories()
	repos := transit.Repositories{Networks: base.Networks, Routes: base.Routes, Stops: &panickingStops{base.Stops}}

	var buf bytes.Buffer
	schema := newTestSchema(t, logging.NewStructuredLogger(&buf, slog.LevelInfo))
	resp := schema.Exec(WithRepositories(context.Background(), repos), `{ stops { id } }`, "", nil)

	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, buf.String(), `"msg":"graphql resolver panic"`)
	assert.Contains(t, buf.String(), "storage exploded")
}

func TestQueriesAreIdempotent(t *testing.T) {
	_, store := seededStore(t)
	query := `{ networks { id name routes { id number type } } stops { id lat lon } routes { id } }`

	first := execute(t, store.Repositories(), query, nil)
	second := execute(t, store.Repositories(), query, nil)
	require.Empty(t, first.Errors)
	assert.Equal(t, string(first.Data), string(second.Data))
}

func TestTransitTypeRoundTrip(t *testing.T) {
	for _, model := range transit.TransitTypes() {
		exposed, err := TransitTypeFromModel(model)
		require.NoError(t, err)
		assert.Equal(t, string(model), exposed.String())

		back, err := exposed.Model()
		require.NoError(t, err)
		assert.Equal(t, model, back)
	}

	_, err := TransitType("ferry").Model()
	assert.ErrorIs(t, err, transit.ErrInvalidTransitType)
}

func TestDecimalScalar(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "string", input: "50.4500000000000000001", expected: "50.4500000000000000001"},
		{name: "json number", input: json.Number("30.52"), expected: "30.52"},
		{name: "int32 literal", input: int32(51), expected: "51"},
		{name: "int literal", input: 51, expected: "51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			require.NoError(t, d.UnmarshalGraphQL(tt.input))
			assert.True(t, d.Equal(decimal.RequireFromString(tt.expected)), "got %s", d)

			out, err := json.Marshal(d)
			require.NoError(t, err)
			assert.Equal(t, `"`+d.String()+`"`, string(out))
		})
	}

	var d Decimal
	assert.ErrorContains(t, d.UnmarshalGraphQL(50.00000000000000002), "must be a string")
	assert.Error(t, d.UnmarshalGraphQL(true))
	assert.Error(t, d.UnmarshalGraphQL("fifty"))
}

func TestSDLIsServed(t *testing.T) {
	assert.Contains(t, SDL(), "stopsInRectangle(minLat: Decimal!")
	assert.Contains(t, SDL(), "enum TransitType")
}
