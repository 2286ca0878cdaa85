package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Record is one ingested adverse-event/recall row, keyed by column name.
// Values are strings as parsed from CSV or whatever JSON deserialized them
// to; numeric columns become float64 after CoerceNumeric. A missing value
// is an absent key, not a zero.
type Record map[string]any

// RecordSet is an ordered sequence of records.
type RecordSet []Record

// Columns that are filled with "Unknown" when missing.
var fillColumns = []string{
	"classification", "risk_class", "country", "name_mfr",
	"distributed_to", "name", "description",
}

// Columns coerced to numeric on ingestion and before aggregation.
var numericColumns = []string{
	"is_recall", "num_events", "quantity_in_commerce", "days_since_last_event",
}

// ParseCSV reads a headered CSV stream into a RecordSet. Blank cells are
// treated as missing and omitted from the record.
func ParseCSV(r io.Reader) (RecordSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out RecordSet
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(out)+2, err)
		}
		rec := make(Record, len(header))
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			rec[header[i]] = cell
		}
		out = append(out, rec)
	}
	return out, nil
}

// Deduplicate drops records identical across all fields, keeping the first
// occurrence and preserving the order of the rest.
func Deduplicate(recs RecordSet) RecordSet {
	seen := make(map[string]bool, len(recs))
	out := make(RecordSet, 0, len(recs))
	for _, rec := range recs {
		key := fingerprint(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}

func fingerprint(rec Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		fmt.Fprintf(&b, "%v", rec[k])
		b.WriteByte('\x1f')
	}
	return b.String()
}

// FillMissing substitutes "Unknown" for absent or empty values in the fixed
// set of free-text columns. A column absent from the whole set stays absent.
func FillMissing(recs RecordSet) {
	for _, col := range fillColumns {
		if !HasColumn(recs, col) {
			continue
		}
		for _, rec := range recs {
			v, ok := rec[col]
			if !ok {
				rec[col] = "Unknown"
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				rec[col] = "Unknown"
			}
		}
	}
}

// CoerceNumeric converts the numeric columns in place. Unparseable values
// become missing; when fillZero is set, missing values become 0 instead so
// downstream aggregation sees a fully numeric column.
func CoerceNumeric(recs RecordSet, fillZero bool) {
	for _, col := range numericColumns {
		if !HasColumn(recs, col) {
			continue
		}
		for _, rec := range recs {
			v, ok := rec[col]
			if ok {
				if f, numeric := Number(v); numeric {
					rec[col] = f
					continue
				}
				delete(rec, col)
			}
			if fillZero {
				rec[col] = float64(0)
			}
		}
	}
}

// Number converts a scalar cell to float64 when possible.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// HasColumn reports whether any record in the set carries the column.
func HasColumn(recs RecordSet, col string) bool {
	for _, rec := range recs {
		if _, ok := rec[col]; ok {
			return true
		}
	}
	return false
}

// FilterClassification returns the records whose classification equals the
// given category code.
func FilterClassification(recs RecordSet, classification string) RecordSet {
	out := make(RecordSet, 0)
	for _, rec := range recs {
		if String(rec, "classification") == classification {
			out = append(out, rec)
		}
	}
	return out
}

// String renders a field as text, or "" when absent.
func String(rec Record, col string) string {
	v, ok := rec[col]
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	if f, isNum := Number(v); isNum && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%v", v)
}

// UniqueSorted collects the distinct non-missing values of a column, sorted.
func UniqueSorted(recs RecordSet, col string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, rec := range recs {
		if _, ok := rec[col]; !ok {
			continue
		}
		s := String(rec, col)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
