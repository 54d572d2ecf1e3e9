package presenter

import (
	"fmt"

	"OptionsFlowMap/internal/model"
)

// ChartSpec carries Plotly traces and layout for the dashboard page: call
// open interest as positive horizontal bars, put open interest negated,
// net-delta markers, and a dashed reference line at the spot price.
type ChartSpec struct {
	Traces []Trace `json:"traces"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	Orientation   string    `json:"orientation,omitempty"`
	Mode          string    `json:"mode,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
}

type Marker struct {
	Color string `json:"color"`
	Size  int    `json:"size,omitempty"`
}

type Layout struct {
	Title   string  `json:"title"`
	BarMode string  `json:"barmode"`
	BarGap  float64 `json:"bargap"`
	Height  int     `json:"height"`
	XAxis   Axis    `json:"xaxis"`
	YAxis   Axis    `json:"yaxis"`
	Shapes  []Shape `json:"shapes,omitempty"`
}

type Axis struct {
	Title    string    `json:"title,omitempty"`
	Range    []float64 `json:"range,omitempty"`
	TickVals []float64 `json:"tickvals,omitempty"`
	ZeroLine bool      `json:"zeroline,omitempty"`
}

type Shape struct {
	Type string  `json:"type"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

type Line struct {
	Color string `json:"color"`
	Width int    `json:"width"`
	Dash  string `json:"dash,omitempty"`
}

func buildChart(snap *model.OiSnapshot, rows []model.StrikeRow) *ChartSpec {
	strikes := make([]float64, len(rows))
	callOI := make([]float64, len(rows))
	putOI := make([]float64, len(rows))
	netDelta := make([]float64, len(rows))
	maxOI := 0.0
	for i, r := range rows {
		strikes[i] = r.Strike.InexactFloat64()
		callOI[i] = float64(r.CallOI)
		putOI[i] = -float64(r.PutOI)
		netDelta[i] = float64(r.NetDelta)
		if float64(r.CallOI) > maxOI {
			maxOI = float64(r.CallOI)
		}
		if float64(r.PutOI) > maxOI {
			maxOI = float64(r.PutOI)
		}
	}

	spec := &ChartSpec{
		Traces: []Trace{
			{
				Type:          "bar",
				Name:          "Call Open Interest",
				X:             callOI,
				Y:             strikes,
				Orientation:   "h",
				Marker:        &Marker{Color: "rgba(0,200,0,0.6)"},
				HoverTemplate: "Strike: %{y}<br>Call OI: %{x}<extra></extra>",
			},
			{
				Type:          "bar",
				Name:          "Put Open Interest",
				X:             putOI,
				Y:             strikes,
				Orientation:   "h",
				Marker:        &Marker{Color: "rgba(200,0,0,0.6)"},
				HoverTemplate: "Strike: %{y}<br>Put OI: %{x}<extra></extra>",
			},
			{
				Type:          "scatter",
				Name:          "Net Call-Put Delta",
				X:             netDelta,
				Y:             strikes,
				Mode:          "markers",
				Marker:        &Marker{Color: "black", Size: 6},
				HoverTemplate: "Strike: %{y}<br>Net Delta: %{x}<extra></extra>",
			},
		},
		Layout: Layout{
			Title:   fmt.Sprintf("%s Options Open Interest Map", snap.Ticker),
			BarMode: "overlay",
			BarGap:  0.2,
			Height:  900,
			XAxis: Axis{
				Title:    "Open Interest (Calls ➡ | ⬅ Puts)",
				ZeroLine: true,
			},
			YAxis: Axis{
				Title:    "Strike Price",
				TickVals: strikes,
			},
		},
	}

	if snap.HasSpot {
		spot := snap.Spot.InexactFloat64()
		spec.Layout.Shapes = []Shape{{
			Type: "line",
			X0:   -maxOI * 1.1,
			X1:   maxOI * 1.1,
			Y0:   spot,
			Y1:   spot,
			Line: Line{Color: "blue", Width: 2, Dash: "dash"},
		}}
		// Snap-zoom the y-axis around spot with a 15% margin of the full
		// strike span.
		margin := (strikes[len(strikes)-1] - strikes[0]) * 0.15
		if margin > 0 {
			spec.Layout.YAxis.Range = []float64{spot - margin, spot + margin}
		}
	}

	return spec
}
