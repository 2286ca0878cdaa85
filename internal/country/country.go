package country

import (
	"strings"

	"github.com/biter777/countries"
)

// manual covers free-text spellings the ISO lookup misses.
var manual = map[string]string{
	"usa":            "USA",
	"us":             "USA",
	"united states":  "USA",
	"uk":             "GBR",
	"united kingdom": "GBR",
}

// ToISO3 maps a free-text country name to its ISO 3166-1 alpha-3 code.
// Lookup order follows the source data's quirks: the ISO registry first,
// then a manual table of common abbreviations. Returns false when the name
// is blank or cannot be resolved.
func ToISO3(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	if c := countries.ByName(name); c != countries.Unknown {
		if code := c.Alpha3(); code != "" {
			return code, true
		}
	}

	if code, ok := manual[strings.ToLower(name)]; ok {
		return code, true
	}
	return "", false
}
