package gtfs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jamespfennell/gtfs"
	"github.com/shopspring/decimal"

	"opentransit.org/catalogdb"
	"opentransit.org/internal/transit"
)

// idNamespace seeds the name-based ids given to imported records, so importing
// the same feed twice yields the same ids.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://opentransit.org/gtfs"))

// GTFS route_type codes with a catalog classification. Extended codes are not
// mapped.
const (
	routeTypeTram       = 0
	routeTypeSubway     = 1
	routeTypeBus        = 3
	routeTypeTrolleybus = 11
)

// GTFS location_type codes kept as catalog stops.
const (
	locationTypeStop    = 0
	locationTypeStation = 1
)

// MapOptions controls how a feed becomes catalog records.
type MapOptions struct {
	// FeedID scopes generated ids, keeping two feeds with overlapping GTFS
	// ids apart. Empty is a valid scope.
	FeedID string
}

// Warning describes a feed record that was left out.
type Warning struct {
	Kind   string
	GTFSID string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s skipped: %s", w.Kind, w.GTFSID, w.Reason)
}

// MapStatic converts a parsed feed. Agencies become networks; routes and stops
// that have no catalog equivalent are reported as warnings instead of failing
// the import.
func MapStatic(static *gtfs.Static, opts MapOptions) (catalogdb.Catalog, []Warning) {
	var (
		catalog  catalogdb.Catalog
		warnings []Warning
	)

	networkIDs := make(map[string]uuid.UUID, len(static.Agencies))
	names := make(map[string]struct{}, len(static.Agencies))
	for _, a := range static.Agencies {
		name := a.Name
		if _, taken := names[name]; taken || name == "" {
			name = fmt.Sprintf("%s (%s)", a.Name, a.Id)
		}
		names[name] = struct{}{}

		id := opts.id("agency", a.Id)
		networkIDs[a.Id] = id
		catalog.Networks = append(catalog.Networks, transit.Network{
			ID:            id,
			Name:          name,
			ImporterExtra: map[string]any{"gtfs_agency_id": a.Id},
		})
	}

	singleAgencyID := ""
	if len(static.Agencies) == 1 {
		singleAgencyID = static.Agencies[0].Id
	}

	for _, r := range static.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil && r.Agency.Id != "" {
			agencyID = r.Agency.Id
		}
		networkID, ok := networkIDs[agencyID]
		if !ok {
			warnings = append(warnings, Warning{Kind: "route", GTFSID: r.Id, Reason: "no agency"})
			continue
		}

		routeType, ok := transitTypeFor(int(r.Type))
		if !ok {
			warnings = append(warnings, Warning{
				Kind: "route", GTFSID: r.Id, Reason: fmt.Sprintf("unsupported route_type %d", int(r.Type)),
			})
			continue
		}

		catalog.Routes = append(catalog.Routes, catalogdb.NetworkRoute{
			NetworkID: networkID,
			Route: transit.Route{
				ID:     opts.id("route", r.Id),
				Number: pickFirstAvailable(r.ShortName, r.Id),
				Title:  pickFirstAvailable(r.LongName, r.ShortName),
				Type:   routeType,
				ImporterExtra: map[string]any{
					"gtfs_route_id":   r.Id,
					"gtfs_route_type": int(r.Type),
				},
			},
		})
	}

	for _, s := range static.Stops {
		locationType := int(s.Type)
		if locationType != locationTypeStop && locationType != locationTypeStation {
			continue
		}
		if s.Latitude == nil || s.Longitude == nil {
			warnings = append(warnings, Warning{Kind: "stop", GTFSID: s.Id, Reason: "missing coordinates"})
			continue
		}

		catalog.Stops = append(catalog.Stops, transit.Stop{
			ID:   opts.id("stop", s.Id),
			Name: s.Name,
			// The parser yields float64; the shortest decimal that
			// round-trips matches the text in stops.txt for ordinary values.
			Lat: decimal.NewFromFloat(*s.Latitude),
			Lon: decimal.NewFromFloat(*s.Longitude),
			ImporterExtra: map[string]any{
				"gtfs_stop_id":       s.Id,
				"gtfs_location_type": locationType,
			},
		})
	}

	return catalog, warnings
}

func transitTypeFor(routeType int) (transit.TransitType, bool) {
	switch routeType {
	case routeTypeTram:
		return transit.Tram, true
	case routeTypeSubway:
		return transit.Metro, true
	case routeTypeBus:
		return transit.Bus, true
	case routeTypeTrolleybus:
		return transit.Trolleybus, true
	}
	return "", false
}

func (o MapOptions) id(kind, gtfsID string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(o.FeedID+"/"+kind+"/"+gtfsID))
}

func pickFirstAvailable(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
