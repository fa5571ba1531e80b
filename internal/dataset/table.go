// Package dataset loads raw CSV and Excel exports into an ordered,
// loosely typed table that the pipeline can normalize.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Row maps a source column name to a cell value. Values start as strings
// when loaded and become typed (float64, time.Time, nil) as the pipeline
// normalizes them.
type Row map[string]any

// Table is an ordered sequence of rows with a recorded column order.
// Transformations produce new tables rather than mutating in place.
type Table struct {
	Columns []string
	Rows    []Row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// String formats a cell value for comparison and display. Nil cells
// format as the empty string.
func String(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Fingerprint returns a stable representation of the row used for
// duplicate detection. Column order is normalized so equal rows always
// produce equal fingerprints.
func (r Row) Fingerprint(columns []string) string {
	keys := append([]string(nil), columns...)
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(String(r[k]))
		b.WriteByte('\x1f')
	}
	return b.String()
}
