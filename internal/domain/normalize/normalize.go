// Package normalize turns raw source rows into validated medal records.
//
// Rows with a missing or unparseable field are rejected, never reported as
// errors: real-world tabular exports are expected to carry some noise.
package normalize

import (
	"fmt"
	"strings"

	"github.com/okian/podium/internal/domain/dates"
	"github.com/okian/podium/internal/domain/model"
)

// NormalizeMedalType maps text starting with Gold, Silver or Bronze (after
// trimming) to its medal type. Anything else reports false.
func NormalizeMedalType(raw string) (model.MedalType, bool) {
	s := strings.TrimSpace(raw)
	for _, mt := range model.MedalTypes {
		if strings.HasPrefix(s, string(mt)) {
			return mt, true
		}
	}
	return "", false
}

// Normalizer validates raw rows against a column mapping.
type Normalizer struct {
	cols model.Columns
}

// New creates a Normalizer reading the given columns.
func New(cols model.Columns) *Normalizer {
	return &Normalizer{cols: cols}
}

// Record converts one raw row. It reports false when any of the date,
// medal type, country or category is missing or empty after trimming.
func (n *Normalizer) Record(row model.RawRow) (model.MedalRecord, bool) {
	date, ok := dates.ParseFlexible(row[n.cols.Date])
	if !ok {
		return model.MedalRecord{}, false
	}
	rec := model.MedalRecord{
		Date:      date,
		MedalType: text(row[n.cols.Medal]),
		Country:   text(row[n.cols.Country]),
		Category:  text(row[n.cols.Category]),
	}
	if rec.MedalType == "" || rec.Country == "" || rec.Category == "" {
		return model.MedalRecord{}, false
	}
	return rec, true
}

// Records converts a batch, keeping source order. It returns the accepted
// records and the number of rejected rows.
func (n *Normalizer) Records(rows []model.RawRow) ([]model.MedalRecord, int) {
	out := make([]model.MedalRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := n.Record(row); ok {
			out = append(out, rec)
		}
	}
	return out, len(rows) - len(out)
}

// text coerces a cell to trimmed text. Missing cells become "".
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
