package results

import "time"

// DateResult is the participation summary for one date.
type DateResult struct {
	Date       time.Time `json:"date"`
	Users      []string  `json:"users"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
	IsFull     bool      `json:"is_full"`
	Weekend    bool      `json:"weekend"`
	Holiday    string    `json:"holiday,omitempty"`
}
