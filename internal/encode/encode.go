// Package encode holds the categorical label-encoder table exported by the
// training pipeline, plus the deterministic numeric fallback shared with
// feature alignment.
package encode

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

const unknownClass = "Unknown"

// Table maps column names to the category lists known at training time.
// The category's code is its index in the list. The only mutation after
// load is the one-time addition of the "Unknown" class to a column that
// lacks it; that is idempotent and guarded, so concurrent encoders share
// the table safely.
type Table struct {
	mu   sync.Mutex
	cols map[string]*columnEncoder
}

type columnEncoder struct {
	classes []string
	index   map[string]int
}

// Load reads a column -> class-list mapping from a JSON file. A missing
// file yields an empty table: encoding then degrades to numeric parsing
// and hashing, per the fallback contract.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("read encoder table: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode encoder table: %w", err)
	}
	return New(raw), nil
}

// New builds a table from a column -> ordered class list mapping.
func New(classes map[string][]string) *Table {
	t := &Table{cols: make(map[string]*columnEncoder, len(classes))}
	for col, list := range classes {
		enc := &columnEncoder{
			classes: append([]string(nil), list...),
			index:   make(map[string]int, len(list)+1),
		}
		for i, c := range enc.classes {
			enc.index[c] = i
		}
		t.cols[col] = enc
	}
	return t
}

// Has reports whether the table knows the column.
func (t *Table) Has(col string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.cols[col]
	return ok
}

// Encode returns the numeric code for a categorical value. Known column:
// the class index, substituting "Unknown" for values outside the training
// classes (adding "Unknown" to the class list on first need). Unknown
// column or any other failure: the value parsed as a number, else a hash
// code. Encode never fails.
func (t *Table) Encode(col string, val any) float64 {
	s := valueString(val)

	t.mu.Lock()
	enc, ok := t.cols[col]
	if ok {
		enc.ensureUnknown()
		code, known := enc.index[s]
		if !known {
			code = enc.index[unknownClass]
		}
		t.mu.Unlock()
		return float64(code)
	}
	t.mu.Unlock()

	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return HashCode(s)
}

func (e *columnEncoder) ensureUnknown() {
	if _, ok := e.index[unknownClass]; ok {
		return
	}
	e.index[unknownClass] = len(e.classes)
	e.classes = append(e.classes, unknownClass)
}

// HashCode is the fallback code for values with no known encoding: FNV-1a
// 64-bit over the string form, reduced modulo 1000. The algorithm is fixed
// so the fallback stays reproducible; it is a stable stand-in, not a
// meaningful embedding.
func HashCode(s string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum64() % 1000)
}

func valueString(v any) string {
	if v == nil {
		return "None"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
