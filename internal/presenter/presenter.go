package presenter

import (
	"sort"

	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/model"
)

// View is the fully rendered result of one interaction.
type View struct {
	Rows   []model.StrikeRow `json:"rows"`
	Chart  *ChartSpec        `json:"chart,omitempty"`
	NoData bool              `json:"no_data"`
}

// Options control presentation.
type Options struct {
	// StrikeRange keeps only strikes within spot ± this many dollars, as the
	// original map does. Zero (or a snapshot without a spot) disables the
	// filter.
	StrikeRange decimal.Decimal
}

// Present pivots a snapshot into strike rows and a chart specification. An
// empty chain yields an empty row set with NoData set, never an error.
func Present(snap *model.OiSnapshot, opts Options) *View {
	rows := BuildStrikeRows(snap.Calls, snap.Puts)
	if opts.StrikeRange.IsPositive() && snap.HasSpot {
		rows = filterStrikeRange(rows, snap.Spot, opts.StrikeRange)
	}
	if len(rows) == 0 {
		return &View{Rows: []model.StrikeRow{}, NoData: true}
	}
	return &View{Rows: rows, Chart: buildChart(snap, rows)}
}

// BuildStrikeRows merges call and put quotes into one row per distinct
// strike, sorted ascending. A side with no contract at a strike counts as
// zero open interest, so NetDelta is always CallOI - PutOI.
func BuildStrikeRows(calls, puts []model.OptionQuote) []model.StrikeRow {
	byStrike := make(map[string]*model.StrikeRow)

	row := func(strike decimal.Decimal) *model.StrikeRow {
		key := strike.String()
		if r, ok := byStrike[key]; ok {
			return r
		}
		r := &model.StrikeRow{Strike: strike}
		byStrike[key] = r
		return r
	}

	for _, q := range calls {
		row(q.Strike).CallOI += q.OpenInterest
	}
	for _, q := range puts {
		row(q.Strike).PutOI += q.OpenInterest
	}

	rows := make([]model.StrikeRow, 0, len(byStrike))
	for _, r := range byStrike {
		r.NetDelta = r.CallOI - r.PutOI
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Strike.Cmp(rows[j].Strike) < 0 })
	return rows
}

func filterStrikeRange(rows []model.StrikeRow, spot, rng decimal.Decimal) []model.StrikeRow {
	lo := spot.Sub(rng)
	hi := spot.Add(rng)
	out := rows[:0]
	for _, r := range rows {
		if r.Strike.Cmp(lo) >= 0 && r.Strike.Cmp(hi) <= 0 {
			out = append(out, r)
		}
	}
	return out
}
