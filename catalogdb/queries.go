package catalogdb

import (
	"context"
	"database/sql"
)

const createNetwork = `
INSERT INTO networks (id, name, importer_extra)
VALUES (?, ?, ?)
`

type CreateNetworkParams struct {
	ID            string
	Name          string
	ImporterExtra sql.NullString
}

func (q *Queries) CreateNetwork(ctx context.Context, arg CreateNetworkParams) error {
	_, err := q.db.ExecContext(ctx, createNetwork, arg.ID, arg.Name, arg.ImporterExtra)
	return err
}

const createRoute = `
INSERT INTO routes (id, network_id, number, title, type, importer_extra)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateRouteParams struct {
	ID            string
	NetworkID     string
	Number        string
	Title         string
	Type          string
	ImporterExtra sql.NullString
}

func (q *Queries) CreateRoute(ctx context.Context, arg CreateRouteParams) error {
	_, err := q.db.ExecContext(ctx, createRoute,
		arg.ID, arg.NetworkID, arg.Number, arg.Title, arg.Type, arg.ImporterExtra)
	return err
}

const createStop = `
INSERT INTO stops (id, name, lat, lon, lat_approx, lon_approx, importer_extra)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateStopParams struct {
	ID            string
	Name          string
	Lat           string
	Lon           string
	LatApprox     float64
	LonApprox     float64
	ImporterExtra sql.NullString
}

func (q *Queries) CreateStop(ctx context.Context, arg CreateStopParams) error {
	_, err := q.db.ExecContext(ctx, createStop,
		arg.ID, arg.Name, arg.Lat, arg.Lon, arg.LatApprox, arg.LonApprox, arg.ImporterExtra)
	return err
}

const networkExists = `SELECT EXISTS (SELECT 1 FROM networks WHERE id = ?)`

func (q *Queries) NetworkExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, networkExists, id).Scan(&exists)
	return exists, err
}

const listNetworks = `
SELECT id, name, importer_extra FROM networks ORDER BY rowid
`

func (q *Queries) ListNetworks(ctx context.Context) ([]Network, error) {
	rows, err := q.db.QueryContext(ctx, listNetworks)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	items := []Network{}
	for rows.Next() {
		var i Network
		if err := rows.Scan(&i.ID, &i.Name, &i.ImporterExtra); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getNetwork = `
SELECT id, name, importer_extra FROM networks WHERE id = ?
`

func (q *Queries) GetNetwork(ctx context.Context, id string) (Network, error) {
	var i Network
	err := q.db.QueryRowContext(ctx, getNetwork, id).Scan(&i.ID, &i.Name, &i.ImporterExtra)
	return i, err
}

const getNetworkByName = `
SELECT id, name, importer_extra FROM networks WHERE name = ?
`

func (q *Queries) GetNetworkByName(ctx context.Context, name string) (Network, error) {
	var i Network
	err := q.db.QueryRowContext(ctx, getNetworkByName, name).Scan(&i.ID, &i.Name, &i.ImporterExtra)
	return i, err
}

const listRoutes = `
SELECT id, network_id, number, title, type, importer_extra FROM routes ORDER BY rowid
`

func (q *Queries) ListRoutes(ctx context.Context) ([]Route, error) {
	return q.queryRoutes(ctx, listRoutes)
}

const listRoutesForNetwork = `
SELECT id, network_id, number, title, type, importer_extra FROM routes
WHERE network_id = ?
ORDER BY rowid
`

func (q *Queries) ListRoutesForNetwork(ctx context.Context, networkID string) ([]Route, error) {
	return q.queryRoutes(ctx, listRoutesForNetwork, networkID)
}

func (q *Queries) queryRoutes(ctx context.Context, query string, args ...interface{}) ([]Route, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	items := []Route{}
	for rows.Next() {
		var i Route
		if err := rows.Scan(&i.ID, &i.NetworkID, &i.Number, &i.Title, &i.Type, &i.ImporterExtra); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRoute = `
SELECT id, network_id, number, title, type, importer_extra FROM routes WHERE id = ?
`

func (q *Queries) GetRoute(ctx context.Context, id string) (Route, error) {
	var i Route
	err := q.db.QueryRowContext(ctx, getRoute, id).Scan(
		&i.ID, &i.NetworkID, &i.Number, &i.Title, &i.Type, &i.ImporterExtra)
	return i, err
}

const listStops = `
SELECT id, name, lat, lon, importer_extra FROM stops ORDER BY rowid
`

func (q *Queries) ListStops(ctx context.Context) ([]Stop, error) {
	return q.queryStops(ctx, listStops)
}

const listStopsWithinBounds = `
SELECT s.id, s.name, s.lat, s.lon, s.importer_extra
FROM stops s
JOIN stops_rtree r ON r.id = s.rowid
WHERE r.max_lat >= ? AND r.min_lat <= ?
  AND r.max_lon >= ? AND r.min_lon <= ?
ORDER BY s.rowid
`

type ListStopsWithinBoundsParams struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// ListStopsWithinBounds returns the index candidates for a box. The index
// holds rounded coordinates, so callers must filter the result exactly.
func (q *Queries) ListStopsWithinBounds(ctx context.Context, arg ListStopsWithinBoundsParams) ([]Stop, error) {
	return q.queryStops(ctx, listStopsWithinBounds, arg.MinLat, arg.MaxLat, arg.MinLon, arg.MaxLon)
}

func (q *Queries) queryStops(ctx context.Context, query string, args ...interface{}) ([]Stop, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	items := []Stop{}
	for rows.Next() {
		var i Stop
		if err := rows.Scan(&i.ID, &i.Name, &i.Lat, &i.Lon, &i.ImporterExtra); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStop = `
SELECT id, name, lat, lon, importer_extra FROM stops WHERE id = ?
`

func (q *Queries) GetStop(ctx context.Context, id string) (Stop, error) {
	var i Stop
	err := q.db.QueryRowContext(ctx, getStop, id).Scan(&i.ID, &i.Name, &i.Lat, &i.Lon, &i.ImporterExtra)
	return i, err
}

const deleteRoutes = `DELETE FROM routes`

const deleteStops = `DELETE FROM stops`

const deleteNetworks = `DELETE FROM networks`

// DeleteCatalog removes every record, routes first.
func (q *Queries) DeleteCatalog(ctx context.Context) error {
	for _, stmt := range []string{deleteRoutes, deleteStops, deleteNetworks} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
