// Command roteiro ingests a per-vehicle GPS log (CSV) and reconstructs
// the day-by-day itinerary: stop and movement segments with duration,
// distance and bairro, plus per-day and per-bairro statistics.
//
// File reading, CSV dialect handling and all rendering live here; the
// processing core under internal/ only ever sees tokenized rows.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/banshee-data/roteiro.report/internal/config"
	"github.com/banshee-data/roteiro.report/internal/export"
	"github.com/banshee-data/roteiro.report/internal/gps"
	"github.com/banshee-data/roteiro.report/internal/session"
	"github.com/banshee-data/roteiro.report/internal/store"
	"github.com/banshee-data/roteiro.report/internal/units"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Optional .env for default flag values; absence is not an error.
	_ = godotenv.Load()

	var (
		filePath    = flag.String("file", "", "GPS log CSV to ingest (required)")
		configPath  = flag.String("config", envOr("ROTEIRO_CONFIG", ""), "tuning config JSON (optional)")
		timezone    = flag.String("timezone", envOr("ROTEIRO_TZ", ""), "reporting timezone override")
		sessionPath = flag.String("db", envOr("ROTEIRO_DB", "roteiro.db"), "session database path (empty to disable persistence)")
		filterList  = flag.String("filter", "", "comma-separated bairros to show (empty = all, or last saved selection)")
		topN        = flag.Int("top", 0, "bairro ranking size (0 = configured default)")
		distUnits   = flag.String("units", units.KM, "distance units for the text report (km or mi)")
		csvOut      = flag.String("csv", "", "write itinerary CSV to this path")
		htmlOut     = flag.String("html", "", "write HTML report to this path")
		pdfOut      = flag.String("pdf", "", "write day chart (PDF) to this path")
		showHistory = flag.Bool("history", false, "print ingested-file history and exit")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath, *timezone)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if !units.IsValid(*distUnits) {
		log.Fatalf("Invalid units %q (valid: %s)", *distUnits, strings.Join(units.ValidUnits, ", "))
	}

	var sess *session.DB
	if *sessionPath != "" {
		sess, err = session.NewDB(*sessionPath)
		if err != nil {
			log.Fatalf("Failed to open session database: %v", err)
		}
		defer sess.Close()
	}

	if *showHistory {
		if sess == nil {
			log.Fatalf("File history requires a session database (-db)")
		}
		printHistory(sess)
		return
	}

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	rows, skipped, size, err := readLog(*filePath, cfg.GetMaxFileSizeBytes())
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *filePath, err)
	}

	st, err := store.New(cfg)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	worker := store.NewWorker(st)
	worker.Start()
	defer worker.Stop()

	result := <-worker.Ingest(rows)
	if result.Err != nil {
		log.Fatalf("Ingestion failed: %v", result.Err)
	}
	if result.Superseded {
		log.Fatalf("Ingestion superseded before completion")
	}

	// Rows the CSV reader could not hand over count as ignored.
	batchStats := result.Stats
	batchStats.Total += skipped
	batchStats.Ignored += skipped

	applyFilter(st, sess, *filterList)

	n := *topN
	if n <= 0 {
		n = cfg.GetTopN()
	}
	printReport(os.Stdout, st, batchStats, n, *distUnits)

	runExports(st, *csvOut, *htmlOut, *pdfOut, n)

	if sess != nil {
		saveSession(sess, st, *filePath, size, batchStats)
	}
}

func loadConfig(path, timezone string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if timezone != "" {
		cfg.Timezone = &timezone
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// readLog reads and tokenizes the CSV log, tolerating ragged rows and a
// header line. Rows the reader rejects are counted, not fatal; they map
// to the ignored counter. Files over the configured ceiling are refused
// before any parsing.
func readLog(path string, maxSize int64) (rows [][]string, skipped int, size int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, 0, err
	}
	if info.Size() > maxSize {
		return nil, 0, 0, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			skipped++
			continue
		}
		if len(rows) == 0 && skipped == 0 && isHeaderRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, info.Size(), nil
}

// isHeaderRow detects a column-name line: a first row whose latitude
// column is not numeric.
func isHeaderRow(row []string) bool {
	if len(row) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	return err != nil
}

// applyFilter installs the explicit -filter selection, or restores the
// last saved one when the flag is absent.
func applyFilter(st *store.Store, sess *session.DB, filterList string) {
	if filterList != "" {
		var selected []string
		for _, b := range strings.Split(filterList, ",") {
			if b = strings.TrimSpace(b); b != "" {
				selected = append(selected, b)
			}
		}
		st.SetFilter(selected)
		return
	}
	if sess == nil {
		return
	}
	saved, err := sess.LoadFilterState()
	if err != nil {
		log.Printf("Warning: could not restore filter state: %v", err)
		return
	}
	st.SetFilter(saved)
}

func printReport(w io.Writer, st *store.Store, batchStats gps.ProcessingStats, topN int, distUnits string) {
	fmt.Fprintf(w, "Processed %d rows: %d valid, %d ignored, %d invalid GPS\n\n",
		batchStats.Total, batchStats.Valid, batchStats.Ignored, batchStats.InvalidGPS)

	if selected := st.Filter(); len(selected) > 0 {
		fmt.Fprintf(w, "Filter: %s\n\n", strings.Join(selected, ", "))
	}

	dayStats := st.DayStats()
	dayByDate := make(map[string]int, len(dayStats))
	for i, d := range dayStats {
		dayByDate[d.Date] = i
	}

	for _, date := range st.Dates() {
		fmt.Fprintf(w, "== %s ==\n", date)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "kind\tstart\tend\tduration\tdistance\tbairro")
		for _, s := range st.Visible(date) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Kind,
				s.StartTime.Format("15:04:05"),
				s.EndTime.Format("15:04:05"),
				units.FormatDuration(time.Duration(s.DurationSeconds())*time.Second),
				units.FormatDistance(s.DistanceKm, distUnits),
				s.Bairro,
			)
		}
		tw.Flush()

		if i, ok := dayByDate[date]; ok {
			d := dayStats[i]
			fmt.Fprintf(w, "%d stops (%s), %d movements (%s, %s)",
				d.Stops, units.FormatDuration(time.Duration(d.StopSeconds)*time.Second),
				d.Movements, units.FormatDuration(time.Duration(d.MovementSeconds)*time.Second),
				units.FormatDistance(d.DistanceKm, distUnits))
			if d.Movements > 0 {
				fmt.Fprintf(w, ", mean %.1f km/h (p85 %.1f)", d.MeanSpeedKmh, d.P85SpeedKmh)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if top := st.TopBairros(topN); len(top) > 0 {
		fmt.Fprintf(w, "Top %d bairros by visits:\n", topN)
		for i, v := range top {
			fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, v.Bairro, v.Visits)
		}
	}
}

func runExports(st *store.Store, csvOut, htmlOut, pdfOut string, topN int) {
	itineraries := st.Itineraries()
	if csvOut != "" {
		if err := writeFile(csvOut, func(f *os.File) error {
			return export.WriteItineraryCSV(f, itineraries)
		}); err != nil {
			log.Fatalf("CSV export failed: %v", err)
		}
		log.Printf("Itinerary CSV written to %s", csvOut)
	}
	if htmlOut != "" {
		if err := writeFile(htmlOut, func(f *os.File) error {
			return export.WriteHTMLReport(f, st.BairroIndex(), st.DayStats(), st.TopBairros(topN))
		}); err != nil {
			log.Fatalf("HTML export failed: %v", err)
		}
		log.Printf("HTML report written to %s", htmlOut)
	}
	if pdfOut != "" {
		if err := export.SaveDayChart(pdfOut, st.DayStats()); err != nil {
			log.Fatalf("PDF export failed: %v", err)
		}
		log.Printf("Day chart written to %s", pdfOut)
	}
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveSession(sess *session.DB, st *store.Store, filePath string, size int64, batchStats gps.ProcessingStats) {
	if err := sess.SaveFilterState(st.Filter()); err != nil {
		log.Printf("Warning: could not save filter state: %v", err)
	}
	entry := &session.FileHistoryEntry{
		RunID:      uuid.NewString(),
		Filename:   filePath,
		SizeBytes:  size,
		Total:      batchStats.Total,
		Valid:      batchStats.Valid,
		Ignored:    batchStats.Ignored,
		InvalidGPS: batchStats.InvalidGPS,
	}
	if err := sess.RecordFileHistory(entry); err != nil {
		log.Printf("Warning: could not record file history: %v", err)
	}
}

func printHistory(sess *session.DB) {
	entries, err := sess.ListFileHistory(20)
	if err != nil {
		log.Fatalf("Failed to list file history: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No files ingested yet.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "when\tfile\tsize\trows\tvalid\tignored\tinvalid GPS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Filename, e.SizeBytes,
			e.Total, e.Valid, e.Ignored, e.InvalidGPS)
	}
	tw.Flush()
}
