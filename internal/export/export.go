// Package export writes the current result set as CSV or GeoJSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Format names one export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatGeoJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for one format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/geo+json"
}

// Write streams the features in the given format. Features that cannot be
// encoded are skipped; the skip count is logged, never surfaced as an
// error.
func Write(w io.Writer, log *slog.Logger, format Format, features []*geojson.Feature) error {
	if format == FormatGeoJSON {
		return writeGeoJSON(w, log, features)
	}
	return writeCSV(w, log, features)
}

func writeGeoJSON(w io.Writer, log *slog.Logger, features []*geojson.Feature) error {
	fc := geojson.NewFeatureCollection()
	skipped := 0
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		fc.Append(f)
	}
	if skipped > 0 {
		log.Warn("skipped unexportable features", slog.Int("skipped", skipped))
	}
	return json.NewEncoder(w).Encode(fc)
}

// writeCSV emits one row per feature: the sorted union of property keys
// plus a trailing geometry-type column.
func writeCSV(w io.Writer, log *slog.Logger, features []*geojson.Feature) error {
	keySet := map[string]bool{}
	for _, f := range features {
		if f == nil {
			continue
		}
		for k := range f.Properties {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	header := append(append([]string{}, keys...), "geometry_type")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	skipped := 0
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		row := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			row = append(row, cell(f.Properties[k]))
		}
		row = append(row, string(f.Geometry.GeoJSONType()))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	if skipped > 0 {
		log.Warn("skipped unexportable features", slog.Int("skipped", skipped))
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
