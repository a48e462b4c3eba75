package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/roteiro.report/internal/stats"
)

// SaveDayChart renders a per-date bar chart of stopped vs moving hours
// to path. The extension picks the format; reports use .pdf.
func SaveDayChart(path string, days []stats.DayStats) error {
	if len(days) == 0 {
		return fmt.Errorf("no day stats to chart")
	}

	stopHours := make(plotter.Values, len(days))
	moveHours := make(plotter.Values, len(days))
	dates := make([]string, len(days))
	for i, d := range days {
		stopHours[i] = d.StopSeconds / 3600
		moveHours[i] = d.MovementSeconds / 3600
		dates[i] = d.Date
	}

	p := plot.New()
	p.Title.Text = "Tempo parado vs em movimento"
	p.Y.Label.Text = "horas"
	p.NominalX(dates...)

	barWidth := vg.Points(18)

	stopBars, err := plotter.NewBarChart(stopHours, barWidth)
	if err != nil {
		return fmt.Errorf("failed to build stop bars: %w", err)
	}
	stopBars.Offset = -barWidth / 2
	stopBars.Color = plotutil.Color(0)

	moveBars, err := plotter.NewBarChart(moveHours, barWidth)
	if err != nil {
		return fmt.Errorf("failed to build movement bars: %w", err)
	}
	moveBars.Offset = barWidth / 2
	moveBars.Color = plotutil.Color(1)

	p.Add(stopBars, moveBars)
	p.Legend.Add("parado", stopBars)
	p.Legend.Add("em movimento", moveBars)
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save day chart: %w", err)
	}
	return nil
}
