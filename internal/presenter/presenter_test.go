package presenter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/model"
)

func quote(strike float64, oi int64, side model.Side) model.OptionQuote {
	return model.OptionQuote{
		Strike:       decimal.NewFromFloat(strike),
		OpenInterest: oi,
		Side:         side,
	}
}

func snapshot(calls, puts []model.OptionQuote, spot float64) *model.OiSnapshot {
	snap := &model.OiSnapshot{
		Ticker:     "TEST",
		Expiration: time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC),
		Calls:      calls,
		Puts:       puts,
		FetchedAt:  time.Now(),
	}
	if spot > 0 {
		snap.Spot = decimal.NewFromFloat(spot)
		snap.HasSpot = true
	}
	return snap
}

func TestBuildStrikeRows_MergedExample(t *testing.T) {
	calls := []model.OptionQuote{quote(100, 50, model.SideCall)}
	puts := []model.OptionQuote{
		quote(100, 30, model.SidePut),
		quote(105, 10, model.SidePut),
	}

	rows := BuildStrikeRows(calls, puts)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	want := []struct {
		strike   string
		callOI   int64
		putOI    int64
		netDelta int64
	}{
		{"100", 50, 30, 20},
		{"105", 0, 10, -10},
	}
	for i, w := range want {
		r := rows[i]
		if r.Strike.String() != w.strike {
			t.Errorf("row %d: strike = %s, want %s", i, r.Strike, w.strike)
		}
		if r.CallOI != w.callOI || r.PutOI != w.putOI {
			t.Errorf("row %d: oi = (%d, %d), want (%d, %d)", i, r.CallOI, r.PutOI, w.callOI, w.putOI)
		}
		if r.NetDelta != w.netDelta {
			t.Errorf("row %d: net delta = %d, want %d", i, r.NetDelta, w.netDelta)
		}
	}
}

func TestBuildStrikeRows_NetDeltaInvariant(t *testing.T) {
	calls := []model.OptionQuote{
		quote(90, 12, model.SideCall),
		quote(95, 0, model.SideCall),
		quote(110, 300, model.SideCall),
	}
	puts := []model.OptionQuote{
		quote(85, 7, model.SidePut),
		quote(95, 44, model.SidePut),
		quote(110, 120, model.SidePut),
	}

	rows := BuildStrikeRows(calls, puts)
	for _, r := range rows {
		if r.NetDelta != r.CallOI-r.PutOI {
			t.Errorf("strike %s: net delta %d != %d - %d", r.Strike, r.NetDelta, r.CallOI, r.PutOI)
		}
	}
}

func TestBuildStrikeRows_StrikesAscendingNoDuplicates(t *testing.T) {
	// Deliberately unordered, with the same strike on both sides.
	calls := []model.OptionQuote{
		quote(110, 5, model.SideCall),
		quote(90, 1, model.SideCall),
		quote(100, 2, model.SideCall),
	}
	puts := []model.OptionQuote{
		quote(100, 9, model.SidePut),
		quote(80, 3, model.SidePut),
	}

	rows := BuildStrikeRows(calls, puts)
	if len(rows) != 4 {
		t.Fatalf("expected 4 distinct strikes, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Strike.Cmp(rows[i-1].Strike) <= 0 {
			t.Errorf("strikes not strictly ascending at %d: %s after %s", i, rows[i].Strike, rows[i-1].Strike)
		}
	}
}

func TestPresent_EmptyChainSignalsNoData(t *testing.T) {
	view := Present(snapshot(nil, nil, 100), Options{})
	if !view.NoData {
		t.Error("expected NoData for empty call and put sets")
	}
	if len(view.Rows) != 0 {
		t.Errorf("expected empty rows, got %d", len(view.Rows))
	}
	if view.Chart != nil {
		t.Error("expected no chart for empty chain")
	}
}

func TestPresent_SpotMarker(t *testing.T) {
	calls := []model.OptionQuote{quote(100, 50, model.SideCall)}
	puts := []model.OptionQuote{
		quote(100, 30, model.SidePut),
		quote(105, 10, model.SidePut),
	}

	view := Present(snapshot(calls, puts, 102), Options{})
	if view.NoData || view.Chart == nil {
		t.Fatal("expected chart output")
	}
	if len(view.Chart.Layout.Shapes) != 1 {
		t.Fatalf("expected one spot reference shape, got %d", len(view.Chart.Layout.Shapes))
	}
	shape := view.Chart.Layout.Shapes[0]
	if shape.Y0 != 102 || shape.Y1 != 102 {
		t.Errorf("spot marker at y = (%v, %v), want 102", shape.Y0, shape.Y1)
	}
}

func TestPresent_NoSpotOmitsMarker(t *testing.T) {
	calls := []model.OptionQuote{quote(100, 50, model.SideCall)}

	view := Present(snapshot(calls, nil, 0), Options{})
	if view.Chart == nil {
		t.Fatal("expected chart output")
	}
	if len(view.Chart.Layout.Shapes) != 0 {
		t.Error("expected no spot shape without a spot price")
	}
}

func TestPresent_StrikeRangeFilter(t *testing.T) {
	calls := []model.OptionQuote{
		quote(50, 1, model.SideCall),
		quote(95, 2, model.SideCall),
		quote(105, 3, model.SideCall),
		quote(300, 4, model.SideCall),
	}

	view := Present(snapshot(calls, nil, 100), Options{StrikeRange: decimal.NewFromInt(10)})
	if len(view.Rows) != 2 {
		t.Fatalf("expected 2 rows within spot±10, got %d", len(view.Rows))
	}
	if view.Rows[0].Strike.String() != "95" || view.Rows[1].Strike.String() != "105" {
		t.Errorf("unexpected rows after filter: %v, %v", view.Rows[0].Strike, view.Rows[1].Strike)
	}
}

func TestPresent_RangeFilterCanEmptyOut(t *testing.T) {
	calls := []model.OptionQuote{quote(500, 9, model.SideCall)}

	view := Present(snapshot(calls, nil, 100), Options{StrikeRange: decimal.NewFromInt(50)})
	if !view.NoData {
		t.Error("expected NoData when the filter removes every row")
	}
}

func TestPresent_ChartTraces(t *testing.T) {
	calls := []model.OptionQuote{quote(100, 50, model.SideCall)}
	puts := []model.OptionQuote{quote(100, 30, model.SidePut)}

	view := Present(snapshot(calls, puts, 102), Options{})
	if view.Chart == nil {
		t.Fatal("expected chart")
	}
	if len(view.Chart.Traces) != 3 {
		t.Fatalf("expected call/put/delta traces, got %d", len(view.Chart.Traces))
	}
	if view.Chart.Traces[1].X[0] != -30 {
		t.Errorf("put bars should be negated, got %v", view.Chart.Traces[1].X[0])
	}
	if view.Chart.Traces[2].X[0] != 20 {
		t.Errorf("delta marker = %v, want 20", view.Chart.Traces[2].X[0])
	}
}
