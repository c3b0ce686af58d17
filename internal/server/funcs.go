package server

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/present"
)

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"num":      func(f float64) string { return humanize.CommafWithDigits(f, 2) },
	"money":    func(f float64) string { return "$" + humanize.CommafWithDigits(f, 2) },
	"count":    func(f float64) string { return humanize.Comma(int64(math.Round(f))) },
	"int":      func(n int) string { return humanize.Comma(int64(n)) },
	"date":     func(t time.Time) string { return t.Format(dataset.DateLayout) },
	"label":    flowLabel,
	"pairs":    pairs,
	"stats":    summarize,
	"plot":     plot,
}

// barWidth is v as a percentage of the largest value in ys, for CSS bars.
func barWidth(v float64, ys []float64) string {
	peak := 0.0
	for _, y := range ys {
		peak = math.Max(peak, y)
	}
	if peak <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", 100*v/peak)
}

func flowLabel(f present.FlowDiagram, index int) string {
	if index < 0 || index >= len(f.Nodes) {
		return ""
	}
	return f.Nodes[index].Label
}

// pair is one bar of a series.
type pair struct {
	X     string
	Y     float64
	Width string
}

func pairs(s present.Series) []pair {
	out := make([]pair, len(s.X))
	for i := range s.X {
		out[i] = pair{X: s.X[i], Y: s.Y[i], Width: barWidth(s.Y[i], s.Y)}
	}
	return out
}

// spread is the summary of one distribution.
type spread struct {
	N              int
	Min, Mean, Max float64
}

func summarize(values []float64) spread {
	if len(values) == 0 {
		return spread{}
	}
	sp := spread{N: len(values), Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sp.Min = math.Min(sp.Min, v)
		sp.Max = math.Max(sp.Max, v)
		sum += v
	}
	sp.Mean = sum / float64(len(values))
	return sp
}

// marker is a scatter point scaled into a 100x100 viewBox, y pointing up.
type marker struct {
	CX, CY string
}

func plot(points []present.Point) []marker {
	var maxX, maxY float64
	for _, p := range points {
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	out := make([]marker, len(points))
	for i, p := range points {
		x, y := 0.0, 0.0
		if maxX > 0 {
			x = 100 * p.X / maxX
		}
		if maxY > 0 {
			y = 100 * p.Y / maxY
		}
		out[i] = marker{CX: fmt.Sprintf("%.2f", x), CY: fmt.Sprintf("%.2f", 100-y)}
	}
	return out
}

type timeViewOption struct {
	Value present.TimeView
	Label string
}

func timeViewOptions() []timeViewOption {
	out := make([]timeViewOption, len(present.TimeViews))
	for i, v := range present.TimeViews {
		out[i] = timeViewOption{Value: v, Label: v.Title()}
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
