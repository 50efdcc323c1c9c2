package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handlePhaseTimelineChart renders a quick line chart (HTML) of recent raw
// values with the settled phase overlaid. This is a debugging-only endpoint
// (no auth) to eyeball segmentation quality without an external UI.
// Query params:
//   - limit (optional; default 500) number of recent samples to chart
func (ws *WebServer) handlePhaseTimelineChart(w http.ResponseWriter, r *http.Request) {
	limit := 500
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 10 && v <= 10000 {
			limit = v
		}
	}

	entries := ws.ring.Recent(limit)
	if len(entries) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no results available yet")
		return
	}

	x := make([]string, 0, len(entries))
	values := make([]opts.LineData, 0, len(entries))
	phases := make([]opts.LineData, 0, len(entries))
	anomalies := make([]opts.ScatterData, 0)
	for _, e := range entries {
		x = append(x, strconv.FormatInt(e.Result.SampleIndex, 10))
		values = append(values, opts.LineData{Value: e.Value})
		phases = append(phases, opts.LineData{Value: e.Result.Phase})
		if e.Result.DistanceAnomaly || e.Result.SequenceAnomaly {
			anomalies = append(anomalies, opts.ScatterData{
				Value: []interface{}{strconv.FormatInt(e.Result.SampleIndex, 10), e.Value},
			})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Phase Timeline", Theme: "dark", Width: "1400px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Phase Timeline",
			Subtitle: fmt.Sprintf("sensor=%s samples=%d anomalies=%d", ws.sensorID, len(entries), len(anomalies)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("value", values).
		AddSeries("phase", phases)

	scatter := charts.NewScatter()
	scatter.AddSeries("anomalies", anomalies,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}),
	)
	line.Overlap(scatter)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleCentroidChart renders the learned centroids as a scatter of window
// mean against spread, coloured by assignment count. Prototypes that have
// absorbed more samples read as brighter points.
func (ws *WebServer) handleCentroidChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.engine.Snapshot()
	if len(snap.Centroids) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no centroids learned yet")
		return
	}

	data := make([]opts.ScatterData, 0, len(snap.Centroids))
	maxCount := float64(0)
	maxAbs := 0.0
	for _, c := range snap.Centroids {
		x := c.Mean[0]
		y := c.Spread
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		count := float64(c.Count)
		if count > maxCount {
			maxCount = count
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, count}})
	}
	if maxCount == 0 {
		maxCount = 1
	}
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Centroids", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Learned Centroids",
			Subtitle: fmt.Sprintf("sensor=%s centroids=%d samples=%d", ws.sensorID, len(snap.Centroids), snap.Samples),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "Window mean", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Spread", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("centroids", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
