package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roteiro.report/internal/stats"
)

// TestSaveDayChart renders a small chart and checks a non-empty PDF
// lands on disk.
func TestSaveDayChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.pdf")
	days := []stats.DayStats{
		{Date: "2024-03-01", StopSeconds: 6 * 3600, MovementSeconds: 2 * 3600, DistanceKm: 42},
		{Date: "2024-03-02", StopSeconds: 8 * 3600, MovementSeconds: 1 * 3600, DistanceKm: 12},
	}

	require.NoError(t, SaveDayChart(path, days))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "chart file should not be empty")
}

// TestSaveDayChart_NoData: an empty rollup is an error, not an empty
// chart.
func TestSaveDayChart_NoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.pdf")
	assert.Error(t, SaveDayChart(path, nil))
}
