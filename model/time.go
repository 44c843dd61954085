package model

import (
	"fmt"
	"time"
)

// Imagery catalogs do not all format their item timestamps the same way,
// and some omit the zone designator entirely. We need lenient
// "multi-format" parsing functionality, implemented here.

var catalogTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseCatalogTime is a drop-in replacement for time.Parse, but matching
// against multiple possible catalog timestamp formats
func ParseCatalogTime(catalogTime string) (time.Time, error) {
	for _, layout := range catalogTimeLayouts {
		if output, err := time.Parse(layout, catalogTime); err == nil {
			return output, nil
		}
	}
	return time.Time{}, fmt.Errorf("Date could not be parsed by any expected time format: `%s`", catalogTime)
}
