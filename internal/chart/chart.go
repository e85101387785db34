// Package chart renders reading time series as PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

// Metric names a plottable reading column.
type Metric string

const (
	MetricVoltage   Metric = "voltage"
	MetricCurrent   Metric = "current"
	MetricFrequency Metric = "frequency"
)

var (
	// ErrUnknownMetric is returned for a metric name that is not plottable.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrMetricUnavailable is returned when no reading carries a value for the metric.
	ErrMetricUnavailable = errors.New("metric not present in dataset")
)

const (
	Width  = 1000
	Height = 300
)

var (
	background = drawing.ColorFromHex("0e1117")
	foreground = drawing.ColorWhite
)

type metricStyle struct {
	title string
	unit  string
	color drawing.Color
	value func(power.Reading) (float64, bool)
}

var metricStyles = map[Metric]metricStyle{
	MetricVoltage: {
		title: "Voltage Over Time",
		unit:  "Voltage (V)",
		color: drawing.ColorFromHex("00FF6A"),
		value: func(r power.Reading) (float64, bool) { return r.Voltage, true },
	},
	MetricCurrent: {
		title: "Current Over Time",
		unit:  "Current (A)",
		color: drawing.ColorFromHex("1E90FF"),
		value: func(r power.Reading) (float64, bool) {
			if r.Current == nil {
				return 0, false
			}
			return *r.Current, true
		},
	},
	MetricFrequency: {
		title: "Frequency Over Time",
		unit:  "Frequency (Hz)",
		color: drawing.ColorFromHex("BB00FF"),
		value: func(r power.Reading) (float64, bool) {
			if r.Frequency == nil {
				return 0, false
			}
			return *r.Frequency, true
		},
	},
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := metricStyles[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
	return m, nil
}

type point struct {
	t time.Time
	v float64
}

// Render writes a PNG line chart of metric over time to w.
func Render(w io.Writer, readings []power.Reading, metric Metric) error {
	style, ok := metricStyles[metric]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	points := make([]point, 0, len(readings))
	for _, r := range readings {
		if v, ok := style.value(r); ok {
			points = append(points, point{t: r.Timestamp, v: v})
		}
	}
	if len(points) == 0 {
		return fmt.Errorf("%w: %s", ErrMetricUnavailable, metric)
	}
	// Drawing order only; the dataset itself keeps its upload order.
	sort.SliceStable(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	minV, maxV := points[0].v, points[0].v
	for i, p := range points {
		xs[i] = p.t
		ys[i] = p.v
		if p.v < minV {
			minV = p.v
		}
		if p.v > maxV {
			maxV = p.v
		}
	}

	// go-chart refuses zero-width ranges.
	if !xs[len(xs)-1].After(xs[0]) {
		xs = []time.Time{xs[0], xs[0].Add(time.Minute)}
		ys = []float64{ys[0], ys[len(ys)-1]}
	}
	if maxV == minV {
		minV--
		maxV++
	}

	axisStyle := gochart.Style{FontColor: foreground, StrokeColor: foreground}

	ch := gochart.Chart{
		Title:      style.title,
		TitleStyle: gochart.Style{FontColor: foreground},
		Width:      Width,
		Height:     Height,
		Background: gochart.Style{
			FillColor: background,
			Padding:   gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: gochart.Style{FillColor: background},
		XAxis: gochart.XAxis{
			Name:           "Timestamp",
			NameStyle:      axisStyle,
			Style:          axisStyle,
			ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		YAxis: gochart.YAxis{
			Name:      style.unit,
			NameStyle: axisStyle,
			Style:     axisStyle,
			Range:     &gochart.ContinuousRange{Min: minV, Max: maxV},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    style.unit,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: style.color,
					StrokeWidth: 2,
				},
			},
		},
	}

	return ch.Render(gochart.PNG, w)
}
