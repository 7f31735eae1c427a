package catalogdb

import "database/sql"

// Network is a row of the networks table.
type Network struct {
	ID            string
	Name          string
	ImporterExtra sql.NullString
}

// Route is a row of the routes table. Type is stored as written and may be
// outside the known classifications.
type Route struct {
	ID            string
	NetworkID     string
	Number        string
	Title         string
	Type          string
	ImporterExtra sql.NullString
}

// Stop is a row of the stops table.
type Stop struct {
	ID            string
	Name          string
	Lat           string
	Lon           string
	ImporterExtra sql.NullString
}
