// Package transit holds the catalog entities served by the query layer and the
// repository contracts storage backends implement.
package transit

import "github.com/google/uuid"

// Network is a transit operator or system. Names are unique across networks.
type Network struct {
	ID   uuid.UUID
	Name string
	// ImporterExtra is backend metadata passed through untouched.
	ImporterExtra any
}
