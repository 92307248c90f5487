// Package stats computes descriptive statistics over a query result set.
// They are display-only: nothing downstream makes decisions on them.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// NumericSummary describes the values of one property that parse as finite
// floats.
type NumericSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// TextSummary describes the remaining values of one property.
type TextSummary struct {
	Count       int    `json:"count"`
	UniqueCount int    `json:"uniqueCount"`
	MostCommon  string `json:"mostCommon"`
}

// PropertySummary holds the per-partition summaries for one property key.
// Either part may be nil when its partition is empty.
type PropertySummary struct {
	Numeric *NumericSummary `json:"numeric,omitempty"`
	Text    *TextSummary    `json:"text,omitempty"`
}

// Summarize walks every property key across the features and partitions its
// values into numeric (parses as a finite float) and text (everything else).
// Value order follows feature order, which fixes the MostCommon tie-break.
func Summarize(features []*geojson.Feature) map[string]PropertySummary {
	numeric := map[string][]float64{}
	text := map[string][]string{}
	order := []string{}
	seen := map[string]bool{}

	for _, f := range features {
		if f == nil || f.Properties == nil {
			continue
		}
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		// map iteration is random; keep per-feature key order stable
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
			v := f.Properties[k]
			if n, ok := asFiniteFloat(v); ok {
				numeric[k] = append(numeric[k], n)
			} else {
				text[k] = append(text[k], asText(v))
			}
		}
	}

	out := make(map[string]PropertySummary, len(order))
	for _, k := range order {
		var s PropertySummary
		if vals := numeric[k]; len(vals) > 0 {
			s.Numeric = summarizeNumeric(vals)
		}
		if vals := text[k]; len(vals) > 0 {
			s.Text = summarizeText(vals)
		}
		out[k] = s
	}
	return out
}

func summarizeNumeric(vals []float64) *NumericSummary {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return &NumericSummary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  sum / float64(len(sorted)),
		// lower-middle element for even lengths, never an average
		Median: sorted[len(sorted)/2],
	}
}

func summarizeText(vals []string) *TextSummary {
	counts := map[string]int{}
	uniques := []string{}
	for _, v := range vals {
		if counts[v] == 0 {
			uniques = append(uniques, v)
		}
		counts[v]++
	}

	// ties go to the first-seen value: only a strictly greater count wins
	most := uniques[0]
	for _, u := range uniques[1:] {
		if counts[u] > counts[most] {
			most = u
		}
	}

	return &TextSummary{
		Count:       len(vals),
		UniqueCount: len(uniques),
		MostCommon:  most,
	}
}

func asFiniteFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func asText(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
