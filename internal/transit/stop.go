package transit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stop is a physical location served by routes. Coordinates are exact decimals.
type Stop struct {
	ID            uuid.UUID
	Name          string
	Lat           decimal.Decimal
	Lon           decimal.Decimal
	ImporterExtra any
}
