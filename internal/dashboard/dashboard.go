// Package dashboard derives KPIs and chart-ready aggregates from a
// classification-filtered record set. Aggregation is a pure function of
// its input: no identity, no side effects, recomputed per request.
package dashboard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/riskpulse-ai/riskpulse/internal/country"
	"github.com/riskpulse-ai/riskpulse/internal/records"
)

// ErrInvalidInput marks a structural precondition failure on the
// aggregation entry point.
var ErrInvalidInput = errors.New("invalid dashboard input")

const sampleSize = 100

// risk_class buckets excluded from the risk distribution chart.
var droppedRiskClasses = map[string]bool{
	"Not Classified": true,
	"Unclassified":   true,
	"HDE":            true,
}

var wordRe = regexp.MustCompile(`[a-zA-Z]+`)

// KPIs are the headline numbers for one classification.
type KPIs struct {
	TotalDevices     int      `json:"total_devices"`
	RecallRate       float64  `json:"recall_rate"`
	AvgEvents        float64  `json:"avg_events"`
	SafeDevices      int      `json:"safe_devices"`
	HighRiskPct      float64  `json:"high_risk_pct"`
	FailureRiskScore float64  `json:"failure_risk_score"`
	FailureCause     string   `json:"failure_cause"`
	RiskyCountry     string   `json:"risky_country"`
	TopMfrs          []string `json:"top_mfrs"`
}

// PieChart holds label/value pairs for a donut chart.
type PieChart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Hole   float64  `json:"hole"`
	Title  string   `json:"title"`
}

// BarChart holds a categorical x axis with numeric magnitudes.
type BarChart struct {
	X          []string  `json:"x"`
	Y          []float64 `json:"y"`
	Title      string    `json:"title"`
	YAxisTitle string    `json:"yaxis_title,omitempty"`
}

// ScatterChart holds per-point x/y pairs with a hover label per point.
type ScatterChart struct {
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Text  []string  `json:"text"`
	Title string    `json:"title"`
}

// HBarChart is a horizontal bar chart: count as magnitude, name as category.
type HBarChart struct {
	X           []int    `json:"x"`
	Y           []string `json:"y"`
	Orientation string   `json:"orientation"`
	Title       string   `json:"title"`
}

// CountryEntry is one choropleth data point.
type CountryEntry struct {
	Country   string  `json:"country"`
	NumEvents float64 `json:"num_events"`
	ISO3      string  `json:"iso3"`
}

// Charts groups the six chart aggregates. A chart is null when its
// required columns are absent from the record set.
type Charts struct {
	RecallPie     *PieChart      `json:"recall_pie"`
	RiskBar       *BarChart      `json:"risk_bar"`
	EventsScatter *ScatterChart  `json:"events_scatter"`
	CountryMap    []CountryEntry `json:"country_map"`
	MfrBar        *HBarChart     `json:"mfr_bar"`
	TrendScatter  *ScatterChart  `json:"trend_scatter"`
}

// Result is the full dashboard payload for one classification.
type Result struct {
	KPIs   KPIs              `json:"kpis"`
	Charts Charts            `json:"charts"`
	Sample records.RecordSet `json:"filtered_data_sample"`
}

// Prepare validates the request, filters to one classification, applies
// the missing-value and numeric-fill policy, and aggregates.
func Prepare(classification string, recs records.RecordSet) (*Result, error) {
	if strings.TrimSpace(classification) == "" {
		return nil, fmt.Errorf("%w: classification required", ErrInvalidInput)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: records required", ErrInvalidInput)
	}
	if !records.HasColumn(recs, "classification") {
		return nil, fmt.Errorf("%w: records missing 'classification' column", ErrInvalidInput)
	}

	filtered := records.FilterClassification(recs, classification)
	records.FillMissing(filtered)
	records.CoerceNumeric(filtered, true)

	res := Aggregate(filtered)
	return &res, nil
}

// Aggregate computes every KPI and chart for an already-filtered, filled
// record set. Each KPI is independently optional on column presence; each
// chart is nil when its columns are absent.
func Aggregate(recs records.RecordSet) Result {
	res := Result{Sample: recs}
	if len(recs) > sampleSize {
		res.Sample = recs[:sampleSize]
	}
	if res.Sample == nil {
		res.Sample = records.RecordSet{}
	}

	total := len(recs)
	res.KPIs.TotalDevices = total
	res.KPIs.FailureCause = "Unknown"
	res.KPIs.RiskyCountry = "Unknown"
	res.KPIs.TopMfrs = []string{}

	hasRecall := records.HasColumn(recs, "is_recall")
	hasEvents := records.HasColumn(recs, "num_events")
	hasRisk := records.HasColumn(recs, "risk_class")
	hasCountry := records.HasColumn(recs, "country")
	hasMfr := records.HasColumn(recs, "name_mfr")
	hasQty := records.HasColumn(recs, "quantity_in_commerce")
	hasDays := records.HasColumn(recs, "days_since_last_event")

	if hasRecall && total > 0 {
		res.KPIs.RecallRate = round2(columnMean(recs, "is_recall") * 100)
	}
	if hasEvents && total > 0 {
		res.KPIs.AvgEvents = round2(columnMean(recs, "num_events"))
	}
	// Truncation, not rounding: matches the source's integer conversion.
	res.KPIs.SafeDevices = total - int(res.KPIs.RecallRate/100*float64(total))

	if hasRisk && total > 0 {
		high := 0
		for _, rec := range recs {
			if strings.Contains(strings.ToLower(records.String(rec, "risk_class")), "high") {
				high++
			}
		}
		res.KPIs.HighRiskPct = round2(float64(high) / float64(total) * 100)
	}
	res.KPIs.FailureRiskScore = round2(res.KPIs.RecallRate*0.7 + res.KPIs.HighRiskPct*0.3)

	if records.HasColumn(recs, "description") {
		res.KPIs.FailureCause = frequentWord(recs)
	}
	if hasCountry && hasRecall {
		res.KPIs.RiskyCountry = riskyCountry(recs)
	}
	if hasMfr {
		counts := valueCounts(recs, "name_mfr")
		for i, c := range counts {
			if i >= 3 {
				break
			}
			res.KPIs.TopMfrs = append(res.KPIs.TopMfrs, c.value)
		}
	}

	if hasRecall {
		res.Charts.RecallPie = recallPie(recs)
	}
	if hasRisk {
		res.Charts.RiskBar = riskBar(recs)
	}
	if hasEvents && hasQty {
		res.Charts.EventsScatter = scatter(recs, "quantity_in_commerce", "num_events",
			[]string{"name", "name_mfr", "country"}, "Events vs Quantity in Commerce")
	}
	if hasCountry {
		res.Charts.CountryMap = countryMap(recs, hasEvents)
	}
	if hasMfr {
		res.Charts.MfrBar = mfrBar(recs)
	}
	if hasDays && hasEvents {
		res.Charts.TrendScatter = scatter(recs, "days_since_last_event", "num_events",
			[]string{"name", "name_mfr"}, "Event Recency vs Number of Events")
	}

	return res
}

type countEntry struct {
	value string
	count int
}

// valueCounts tallies a column's values, ordered by descending count with
// first-seen order breaking ties.
func valueCounts(recs records.RecordSet, col string) []countEntry {
	counts := make(map[string]int)
	order := make(map[string]int)
	for i, rec := range recs {
		if _, ok := rec[col]; !ok {
			continue
		}
		s := records.String(rec, col)
		if _, seen := counts[s]; !seen {
			order[s] = i
		}
		counts[s]++
	}

	out := make([]countEntry, 0, len(counts))
	for v, c := range counts {
		out = append(out, countEntry{value: v, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return order[out[i].value] < order[out[j].value]
	})
	return out
}

func columnMean(recs records.RecordSet, col string) float64 {
	sum, n := 0.0, 0
	for _, rec := range recs {
		if f, ok := records.Number(rec[col]); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// frequentWord finds the most common alphabetic token across descriptions.
func frequentWord(recs records.RecordSet) string {
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, rec := range recs {
		desc := strings.ToLower(records.String(rec, "description"))
		for _, tok := range wordRe.FindAllString(desc, -1) {
			if _, seen := counts[tok]; !seen {
				order[tok] = next
				next++
			}
			counts[tok]++
		}
	}
	best, bestCount := "Unknown", 0
	for tok, c := range counts {
		if c > bestCount || (c == bestCount && bestCount > 0 && order[tok] < order[best]) {
			best, bestCount = tok, c
		}
	}
	return best
}

func riskyCountry(recs records.RecordSet) string {
	recalled := make(records.RecordSet, 0)
	for _, rec := range recs {
		if f, ok := records.Number(rec["is_recall"]); ok && f == 1 {
			recalled = append(recalled, rec)
		}
	}
	counts := valueCounts(recalled, "country")
	if len(counts) == 0 {
		return "Unknown"
	}
	return counts[0].value
}

func recallPie(recs records.RecordSet) *PieChart {
	counts := valueCounts(recs, "is_recall")
	pie := &PieChart{Hole: 0.4, Title: "Recall Distribution"}
	for _, c := range counts {
		pie.Labels = append(pie.Labels, c.value)
		pie.Values = append(pie.Values, c.count)
	}
	return pie
}

func riskBar(recs records.RecordSet) *BarChart {
	kept := make(records.RecordSet, 0, len(recs))
	for _, rec := range recs {
		cls := records.String(rec, "risk_class")
		if cls == "Unknown" {
			cls = "1"
		}
		if droppedRiskClasses[cls] {
			continue
		}
		kept = append(kept, records.Record{"risk_class": cls})
	}
	if len(kept) == 0 {
		return nil
	}

	counts := valueCounts(kept, "risk_class")
	bar := &BarChart{Title: "Risk Class Distribution (%)", YAxisTitle: "Percentage (%)"}
	for _, c := range counts {
		bar.X = append(bar.X, c.value)
		bar.Y = append(bar.Y, round2(float64(c.count)/float64(len(kept))*100))
	}
	return bar
}

func scatter(recs records.RecordSet, xCol, yCol string, labelCols []string, title string) *ScatterChart {
	sc := &ScatterChart{Title: title}
	for _, rec := range recs {
		x, _ := records.Number(rec[xCol])
		y, _ := records.Number(rec[yCol])
		labels := make([]string, 0, len(labelCols))
		for _, col := range labelCols {
			labels = append(labels, records.String(rec, col))
		}
		sc.X = append(sc.X, x)
		sc.Y = append(sc.Y, y)
		sc.Text = append(sc.Text, strings.Join(labels, " | "))
	}
	return sc
}

// countryMap sums num_events per country (or falls back to row counts) and
// resolves each country to an ISO-3 code. Countries that fail to resolve
// are dropped entirely, not zero-filled.
func countryMap(recs records.RecordSet, hasEvents bool) []CountryEntry {
	sums := make(map[string]float64)
	order := make(map[string]int)
	for i, rec := range recs {
		name := records.String(rec, "country")
		if name == "" {
			continue
		}
		if _, seen := sums[name]; !seen {
			order[name] = i
		}
		if hasEvents {
			f, _ := records.Number(rec["num_events"])
			sums[name] += f
		} else {
			sums[name]++
		}
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })

	out := []CountryEntry{}
	for _, name := range names {
		iso3, ok := country.ToISO3(name)
		if !ok {
			continue
		}
		out = append(out, CountryEntry{Country: name, NumEvents: sums[name], ISO3: iso3})
	}
	return out
}

func mfrBar(recs records.RecordSet) *HBarChart {
	counts := valueCounts(recs, "name_mfr")
	bar := &HBarChart{Orientation: "h", Title: "Top Manufacturers"}
	for i, c := range counts {
		if i >= 10 {
			break
		}
		bar.X = append(bar.X, c.count)
		bar.Y = append(bar.Y, c.value)
	}
	return bar
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
