package transit

import "github.com/google/uuid"

// Route is a single line within a network. The owning network is only known to
// the RoutesRepository.
type Route struct {
	ID            uuid.UUID
	Number        string
	Title         string
	Type          TransitType
	ImporterExtra any
}
