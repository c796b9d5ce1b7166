// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package report

// Chart is a chart.js-shaped payload the browser frontend renders directly.
type Chart struct {
	Type  string    `json:"type"`
	Title string    `json:"title"`
	Data  ChartData `json:"data"`
}

// ChartData holds the axis labels and series.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series. Colors are a single string or one per label.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     any       `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

const (
	blueFill   = "rgba(54, 162, 235, 0.8)"
	blueLine   = "rgba(54, 162, 235, 1)"
	greenFill  = "rgba(34, 197, 94, 0.8)"
	greenLine  = "rgba(34, 197, 94, 1)"
	violetFill = "rgba(102, 126, 234, 0.8)"
	violetLine = "rgba(102, 126, 234, 1)"
	tealLine   = "rgb(75, 192, 192)"
	tealFill   = "rgba(75, 192, 192, 0.2)"
	pinkLine   = "rgb(255, 99, 132)"
	pinkFill   = "rgba(255, 99, 132, 0.2)"
)

var (
	seriesFill = []string{"rgba(54, 162, 235, 0.8)", "rgba(255, 99, 132, 0.8)", "rgba(255, 205, 86, 0.8)", "rgba(75, 192, 192, 0.8)"}
	seriesLine = []string{"rgba(54, 162, 235, 1)", "rgba(255, 99, 132, 1)", "rgba(255, 205, 86, 1)", "rgba(75, 192, 192, 1)"}
	pieColors  = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}
)

func barChart(title, label string, labels []string, data []float64, fill, line any) Chart {
	return Chart{
		Type:  "bar",
		Title: title,
		Data: ChartData{
			Labels:   nonNil(labels),
			Datasets: []Dataset{{Label: label, Data: nonNilF(data), BackgroundColor: fill, BorderColor: line, BorderWidth: 2}},
		},
	}
}

func lineSeries(label string, data []float64, line, fill string) Dataset {
	return Dataset{Label: label, Data: nonNilF(data), BorderColor: line, BackgroundColor: fill, Tension: 0.4}
}

func lineChart(title string, labels []string, series ...Dataset) Chart {
	return Chart{Type: "line", Title: title, Data: ChartData{Labels: nonNil(labels), Datasets: series}}
}

func doughnutChart(title string, labels []string, data []float64) Chart {
	return Chart{
		Type:  "doughnut",
		Title: title,
		Data: ChartData{
			Labels:   nonNil(labels),
			Datasets: []Dataset{{Data: nonNilF(data), BackgroundColor: pieColors, BorderColor: "#fff", BorderWidth: 2}},
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilF(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}
