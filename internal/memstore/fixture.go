package memstore

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"opentransit.org/internal/transit"
)

type YAMLCatalog struct {
	Networks []YAMLNetwork `yaml:"networks"`
	Stops    []YAMLStop    `yaml:"stops"`
}

type YAMLNetwork struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	ImporterExtra any         `yaml:"importer_extra"`
	Routes        []YAMLRoute `yaml:"routes"`
}

type YAMLRoute struct {
	ID            string `yaml:"id"`
	Number        string `yaml:"number"`
	Title         string `yaml:"title"`
	Type          string `yaml:"type"`
	ImporterExtra any    `yaml:"importer_extra"`
}

type YAMLStop struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	Lat           YAMLDecimal `yaml:"lat"`
	Lon           YAMLDecimal `yaml:"lon"`
	ImporterExtra any         `yaml:"importer_extra"`
}

// YAMLDecimal reads the scalar text directly so coordinates never pass through
// a float.
type YAMLDecimal struct {
	decimal.Decimal
}

func (d *YAMLDecimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: decimal must be a scalar", value.Line)
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Decimal = parsed
	return nil
}

// LoadFile builds a store from a YAML catalog file.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close() // nolint:errcheck

	store, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading fixture %s: %w", path, err)
	}
	return store, nil
}

// Load builds a store from a YAML catalog document.
func Load(r io.Reader) (*Store, error) {
	var dto YAMLCatalog
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&dto); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return MapCatalog(dto)
}

// MapCatalog validates identifiers and enum values and fills a new store.
func MapCatalog(dto YAMLCatalog) (*Store, error) {
	store := New()

	for i, yn := range dto.Networks {
		field := fmt.Sprintf("networks[%d]", i)
		id, err := parseID(field, yn.ID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(yn.Name) == "" {
			return nil, fmt.Errorf("%s.name: network name is required", field)
		}

		network := transit.Network{ID: id, Name: yn.Name, ImporterExtra: yn.ImporterExtra}
		if err := store.AddNetwork(network); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}

		for j, yr := range yn.Routes {
			routeField := fmt.Sprintf("%s.routes[%d]", field, j)
			routeID, err := parseID(routeField, yr.ID)
			if err != nil {
				return nil, err
			}
			routeType, err := transit.ParseTransitType(yr.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.type: %w", routeField, err)
			}

			route := transit.Route{
				ID:            routeID,
				Number:        yr.Number,
				Title:         yr.Title,
				Type:          routeType,
				ImporterExtra: yr.ImporterExtra,
			}
			if err := store.AddRoute(id, route); err != nil {
				return nil, fmt.Errorf("%s: %w", routeField, err)
			}
		}
	}

	for i, ys := range dto.Stops {
		field := fmt.Sprintf("stops[%d]", i)
		id, err := parseID(field, ys.ID)
		if err != nil {
			return nil, err
		}

		stop := transit.Stop{
			ID:            id,
			Name:          ys.Name,
			Lat:           ys.Lat.Decimal,
			Lon:           ys.Lon.Decimal,
			ImporterExtra: ys.ImporterExtra,
		}
		if err := store.AddStop(stop); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
	}

	return store, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s.id: %w", field, err)
	}
	return id, nil
}
