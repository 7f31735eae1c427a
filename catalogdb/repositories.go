package catalogdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"opentransit.org/internal/transit"
)

// boundsEpsilon widens the index lookup so rounding in the float index never
// drops a stop lying exactly on an edge.
const boundsEpsilon = 1e-6

type NetworksRepository struct {
	queries *Queries
}

func (r *NetworksRepository) List(ctx context.Context) ([]transit.Network, error) {
	rows, err := r.queries.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, toNetwork)
}

func (r *NetworksRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Network, error) {
	row, err := r.queries.GetNetwork(ctx, id.String())
	return optional(row, err, toNetwork)
}

func (r *NetworksRepository) GetByName(ctx context.Context, name string) (*transit.Network, error) {
	row, err := r.queries.GetNetworkByName(ctx, name)
	return optional(row, err, toNetwork)
}

type RoutesRepository struct {
	queries *Queries
}

func (r *RoutesRepository) List(ctx context.Context) ([]transit.Route, error) {
	rows, err := r.queries.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, toRoute)
}

func (r *RoutesRepository) ListForNetwork(ctx context.Context, network transit.Network) ([]transit.Route, error) {
	rows, err := r.queries.ListRoutesForNetwork(ctx, network.ID.String())
	if err != nil {
		return nil, err
	}
	return mapRows(rows, toRoute)
}

func (r *RoutesRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Route, error) {
	row, err := r.queries.GetRoute(ctx, id.String())
	return optional(row, err, toRoute)
}

type StopsRepository struct {
	queries *Queries
}

func (r *StopsRepository) List(ctx context.Context) ([]transit.Stop, error) {
	rows, err := r.queries.ListStops(ctx)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, toStop)
}

func (r *StopsRepository) Get(ctx context.Context, id uuid.UUID) (*transit.Stop, error) {
	row, err := r.queries.GetStop(ctx, id.String())
	return optional(row, err, toStop)
}

// ListInRectangle narrows candidates with the spatial index and then applies
// the exact inclusive comparison on the stored decimals.
func (r *StopsRepository) ListInRectangle(ctx context.Context, minLat, minLon, maxLat, maxLon decimal.Decimal) ([]transit.Stop, error) {
	rect := transit.NewRectangle(minLat, minLon, maxLat, maxLon)
	if rect.IsEmpty() {
		return []transit.Stop{}, nil
	}

	rows, err := r.queries.ListStopsWithinBounds(ctx, ListStopsWithinBoundsParams{
		MinLat: minLat.InexactFloat64() - boundsEpsilon,
		MaxLat: maxLat.InexactFloat64() + boundsEpsilon,
		MinLon: minLon.InexactFloat64() - boundsEpsilon,
		MaxLon: maxLon.InexactFloat64() + boundsEpsilon,
	})
	if err != nil {
		return nil, err
	}
	candidates, err := mapRows(rows, toStop)
	if err != nil {
		return nil, err
	}
	return rect.Filter(candidates), nil
}

func mapRows[R any, M any](rows []R, convert func(R) (M, error)) ([]M, error) {
	models := make([]M, 0, len(rows))
	for _, row := range rows {
		m, err := convert(row)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

func optional[R any, M any](row R, err error, convert func(R) (M, error)) (*M, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := convert(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func toNetwork(row Network) (transit.Network, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return transit.Network{}, fmt.Errorf("network %q: invalid id: %w", row.ID, err)
	}
	extra, err := decodeExtra(row.ImporterExtra)
	if err != nil {
		return transit.Network{}, fmt.Errorf("network %s: %w", row.ID, err)
	}
	return transit.Network{ID: id, Name: row.Name, ImporterExtra: extra}, nil
}

// toRoute keeps the stored type verbatim; presentation decides what an
// unknown classification means.
func toRoute(row Route) (transit.Route, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return transit.Route{}, fmt.Errorf("route %q: invalid id: %w", row.ID, err)
	}
	extra, err := decodeExtra(row.ImporterExtra)
	if err != nil {
		return transit.Route{}, fmt.Errorf("route %s: %w", row.ID, err)
	}
	return transit.Route{
		ID:            id,
		Number:        row.Number,
		Title:         row.Title,
		Type:          transit.TransitType(row.Type),
		ImporterExtra: extra,
	}, nil
}

func toStop(row Stop) (transit.Stop, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return transit.Stop{}, fmt.Errorf("stop %q: invalid id: %w", row.ID, err)
	}
	lat, err := decimal.NewFromString(row.Lat)
	if err != nil {
		return transit.Stop{}, fmt.Errorf("stop %s: invalid lat %q: %w", row.ID, row.Lat, err)
	}
	lon, err := decimal.NewFromString(row.Lon)
	if err != nil {
		return transit.Stop{}, fmt.Errorf("stop %s: invalid lon %q: %w", row.ID, row.Lon, err)
	}
	extra, err := decodeExtra(row.ImporterExtra)
	if err != nil {
		return transit.Stop{}, fmt.Errorf("stop %s: %w", row.ID, err)
	}
	return transit.Stop{ID: id, Name: row.Name, Lat: lat, Lon: lon, ImporterExtra: extra}, nil
}

func encodeExtra(extra any) (sql.NullString, error) {
	if extra == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding importer_extra: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeExtra yields the generic JSON shape (maps, slices, float64), not the
// Go type that was written.
func decodeExtra(raw sql.NullString) (any, error) {
	if !raw.Valid {
		return nil, nil
	}
	var extra any
	if err := json.Unmarshal([]byte(raw.String), &extra); err != nil {
		return nil, fmt.Errorf("decoding importer_extra: %w", err)
	}
	return extra, nil
}
