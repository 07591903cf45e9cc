// Package model contains domain models passed between layers.
package model

import "time"

// MedalType is the normalized kind of medal.
type MedalType string

// Medal kinds in podium order.
const (
	Gold   MedalType = "Gold"
	Silver MedalType = "Silver"
	Bronze MedalType = "Bronze"
)

// MedalTypes lists the medal kinds in podium order.
var MedalTypes = []MedalType{Gold, Silver, Bronze}

// RawRow is one source record before normalization, keyed by column name.
// Values are strings for CSV sources and driver-typed values for SQL sources.
type RawRow map[string]any

// MedalRecord is a validated medal row. Every field is non-empty.
type MedalRecord struct {
	Date      time.Time // medal date
	MedalType string    // trimmed source text, e.g. "Gold Medal"
	Country   string    // trimmed country name
	Category  string    // trimmed discipline
}

// Columns names the raw columns that feed a MedalRecord.
type Columns struct {
	Date     string
	Medal    string
	Country  string
	Category string
}

// DefaultColumns matches the medallists dataset header.
func DefaultColumns() Columns {
	return Columns{
		Date:     "medal_date",
		Medal:    "medal_type",
		Country:  "country",
		Category: "discipline",
	}
}

// Names returns the column names in a fixed order.
func (c Columns) Names() []string {
	return []string{c.Date, c.Medal, c.Country, c.Category}
}
