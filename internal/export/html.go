package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/roteiro.report/internal/stats"
)

// WriteHTMLReport renders the bairro occurrence chart and the per-date
// rollup charts as a single HTML page.
func WriteHTMLReport(w io.Writer, index stats.BairroIndex, days []stats.DayStats, top []stats.BairroVisit) error {
	page := components.NewPage()
	page.PageTitle = "Roteiro GPS"
	page.AddCharts(
		bairroIndexChart(index),
		dayDistanceChart(days),
		topBairrosChart(top),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

func bairroIndexChart(index stats.BairroIndex) *charts.Bar {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]opts.BarData, 0, len(names))
	for _, name := range names {
		data = append(data, opts.BarData{Value: index[name]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Registros por bairro", Subtitle: fmt.Sprintf("%d bairros", len(names))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("registros", data)
	return bar
}

func dayDistanceChart(days []stats.DayStats) *charts.Bar {
	dates := make([]string, 0, len(days))
	distances := make([]opts.BarData, 0, len(days))
	stopHours := make([]opts.BarData, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Date)
		distances = append(distances, opts.BarData{Value: d.DistanceKm})
		stopHours = append(stopHours, opts.BarData{Value: d.StopSeconds / 3600})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Resumo por dia", Subtitle: "distância (km) e tempo parado (h)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(dates)
	bar.AddSeries("distância (km)", distances)
	bar.AddSeries("parado (h)", stopHours)
	return bar
}

func topBairrosChart(top []stats.BairroVisit) *charts.Bar {
	names := make([]string, 0, len(top))
	data := make([]opts.BarData, 0, len(top))
	for _, v := range top {
		names = append(names, v.Bairro)
		data = append(data, opts.BarData{Value: v.Visits})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Bairros mais visitados", Subtitle: "paradas por bairro"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("paradas", data)
	return bar
}
