package transit

import "github.com/shopspring/decimal"

// Rectangle is an inclusive latitude/longitude box in flat coordinates, with no
// antimeridian or pole wraparound.
type Rectangle struct {
	MinLat decimal.Decimal
	MinLon decimal.Decimal
	MaxLat decimal.Decimal
	MaxLon decimal.Decimal
}

func NewRectangle(minLat, minLon, maxLat, maxLon decimal.Decimal) Rectangle {
	return Rectangle{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

// IsEmpty reports whether the bounds are inverted on either axis. Such a
// rectangle matches nothing.
func (r Rectangle) IsEmpty() bool {
	return r.MinLat.GreaterThan(r.MaxLat) || r.MinLon.GreaterThan(r.MaxLon)
}

// Contains compares exactly and includes all four edges.
func (r Rectangle) Contains(lat, lon decimal.Decimal) bool {
	return r.MinLat.LessThanOrEqual(lat) && lat.LessThanOrEqual(r.MaxLat) &&
		r.MinLon.LessThanOrEqual(lon) && lon.LessThanOrEqual(r.MaxLon)
}

// Filter keeps the stops inside r, preserving their order.
func (r Rectangle) Filter(stops []Stop) []Stop {
	matched := make([]Stop, 0)
	if r.IsEmpty() {
		return matched
	}
	for _, stop := range stops {
		if r.Contains(stop.Lat, stop.Lon) {
			matched = append(matched, stop)
		}
	}
	return matched
}
