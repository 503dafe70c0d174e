// Package charts turns rating snapshots into renderable PNG artifacts.
// Everything here is a pure transformation; callers decide how artifacts
// are delivered (chat photo, chat document, HTTP response).
package charts

import (
	"bytes"
	"errors"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"ratebot/internal/store"
)

// Kind mirrors the two delivery channels of the chat transport.
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

// Artifact is one rendered chart or table image.
type Artifact struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	PNG  []byte `json:"png"`
}

// ErrNoData is returned when a snapshot has nothing to plot.
var ErrNoData = errors.New("no rating data")

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// RatingDistribution renders a per-provider histogram of rating values.
func RatingDistribution(records []store.Rating, names map[string]string) (Artifact, error) {
	if len(records) == 0 {
		return Artifact{}, ErrNoData
	}

	models := modelKeys(records)
	values := ratingValues(records)

	p := plot.New()
	p.Title.Text = "Rating distribution"
	p.X.Label.Text = "Rating"
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true

	barWidth := vg.Points(18)
	for i, model := range models {
		counts := make(map[int]float64)
		for _, r := range records {
			if r.Model == model {
				counts[r.Rating]++
			}
		}
		vals := make(plotter.Values, len(values))
		for j, v := range values {
			vals[j] = counts[v]
		}
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return Artifact{}, err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(len(models)-1)/2) * barWidth
		p.Add(bars)
		p.Legend.Add(displayName(model, names), bars)
	}

	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = strconv.Itoa(v)
	}
	p.NominalX(labels...)

	png, err := renderPNG(p)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: "rating_distribution.png", Kind: KindPhoto, PNG: png}, nil
}

// AverageByModel renders an average-rating-per-provider bar chart.
func AverageByModel(records []store.Rating, names map[string]string) (Artifact, error) {
	if len(records) == 0 {
		return Artifact{}, ErrNoData
	}

	models := modelKeys(records)

	p := plot.New()
	p.Title.Text = "Average Rating by Model"
	p.X.Label.Text = "Model"
	p.Y.Label.Text = "Average Rating"

	vals := make(plotter.Values, len(models))
	labels := make([]string, len(models))
	for i, model := range models {
		var sum, n float64
		for _, r := range records {
			if r.Model == model {
				sum += float64(r.Rating)
				n++
			}
		}
		vals[i] = sum / n
		labels[i] = displayName(model, names)
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(40))
	if err != nil {
		return Artifact{}, err
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	png, err := renderPNG(p)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: "average_by_model.png", Kind: KindPhoto, PNG: png}, nil
}

func renderPNG(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// modelKeys returns distinct model keys in sorted order so chart output is
// deterministic across runs.
func modelKeys(records []store.Rating) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Model] {
			seen[r.Model] = true
			out = append(out, r.Model)
		}
	}
	sort.Strings(out)
	return out
}

func ratingValues(records []store.Rating) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range records {
		if !seen[r.Rating] {
			seen[r.Rating] = true
			out = append(out, r.Rating)
		}
	}
	sort.Ints(out)
	return out
}

func displayName(model string, names map[string]string) string {
	if name, ok := names[model]; ok {
		return name
	}
	return model
}
