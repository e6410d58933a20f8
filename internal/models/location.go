package models

import "time"

// Cardinal is the optional directional prefix of a street ("" when absent).
type Cardinal string

const (
	CardinalNone  Cardinal = ""
	CardinalNorth Cardinal = "N"
	CardinalSouth Cardinal = "S"
	CardinalEast  Cardinal = "E"
	CardinalWest  Cardinal = "W"
)

// StructuredAddress is the normalized (number, cardinal, street, suffix) key that identifies one physical location.
type StructuredAddress struct {
	Number   string   `json:"number"`
	Cardinal Cardinal `json:"cardinal"`
	Street   string   `json:"street"`
	Suffix   string   `json:"suffix"`
}

// Key returns a stable string form of the address, usable as a map key.
func (a StructuredAddress) Key() string {
	return a.Number + "|" + string(a.Cardinal) + "|" + a.Street + "|" + a.Suffix
}

// Location represents a single physical address with its resolved coordinates.
type Location struct {
	ID           int64             `json:"id"`
	Address      StructuredAddress `json:"address"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	PlaceID      string            `json:"place_id,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
	RawAddresses []string          `json:"raw_addresses,omitempty"`
}
