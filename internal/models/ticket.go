package models

// RawTicket is a field-service ticket as supplied by the ticket store. Attributes are passed through untouched.
type RawTicket struct {
	ID         string         `json:"id" binding:"required"`
	Address    string         `json:"address" binding:"required"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
