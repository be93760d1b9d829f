// Package ingest reads raw period files into flight records and writes
// cleaned flights back out as CSV.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

// ErrMissingColumn is returned when a period file lacks a required header.
var ErrMissingColumn = errors.New("missing required column")

// Column headers of raw period files
const (
	ColDay        = "Day"
	ColDate       = "Date"
	ColCarrier    = "Carrier"
	ColOrigin     = "OriginAirportId"
	ColDest       = "DestAirportId"
	ColSchDep     = "SchDep"
	ColDepTime    = "DepTime"
	ColDepDelay   = "DepDelay"
	ColSchArr     = "SchArr"
	ColArrTime    = "ArrTime"
	ColArrDelay   = "ArrDelay"
	ColSchTime    = "SchTime"
	ColActualTime = "ActualTime"
	ColDistance   = "Distance"
)

var timingColumns = []string{
	ColSchDep, ColDepTime, ColDepDelay,
	ColSchArr, ColArrTime, ColArrDelay,
	ColSchTime, ColActualTime,
}

// columnTypes pins every known column so Carrier codes like "9E" or "02"
// never get coerced to numbers.
var columnTypes = map[string]series.Type{
	ColDay:        series.Float,
	ColDate:       series.String,
	ColCarrier:    series.String,
	ColOrigin:     series.Float,
	ColDest:       series.Float,
	ColSchDep:     series.Float,
	ColDepTime:    series.Float,
	ColDepDelay:   series.Float,
	ColSchArr:     series.Float,
	ColArrTime:    series.Float,
	ColArrDelay:   series.Float,
	ColSchTime:    series.Float,
	ColActualTime: series.Float,
	ColDistance:   series.Float,
}

// readRecords loads r into records. gota refuses a frame without rows, so
// a file holding only a header is checked against required here and
// yields an empty, non-nil slice.
func readRecords(r io.Reader, required []string) ([]models.FlightRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	if header, err := cr.Read(); err == nil {
		if _, err := cr.Read(); err == io.EOF {
			if err := checkColumns(header, required); err != nil {
				return nil, err
			}
			return []models.FlightRecord{}, nil
		}
	}

	df := dataframe.ReadCSV(bytes.NewReader(data), dataframe.WithTypes(columnTypes))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", df.Err)
	}
	return FromDataFrame(df, required...)
}

// ReadRecords parses a raw period file. Blank or non-integral timing cells
// become nil fields. Only the route columns and the timing columns are
// required; Day, Date and Distance are read when present.
func ReadRecords(r io.Reader) ([]models.FlightRecord, error) {
	return readRecords(r, append([]string{ColCarrier, ColOrigin, ColDest}, timingColumns...))
}

// ReadRouteDistances parses only the route and distance columns of a raw
// period file.
func ReadRouteDistances(r io.Reader) ([]models.FlightRecord, error) {
	return readRecords(r, []string{ColOrigin, ColDest, ColDistance})
}

func checkColumns(names, required []string) error {
	have := make(map[string]bool, len(names))
	for _, name := range names {
		have[name] = true
	}
	for _, name := range required {
		if !have[name] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return nil
}

// FromDataFrame converts a typed frame into records, failing with
// ErrMissingColumn when any of required is absent.
func FromDataFrame(df dataframe.DataFrame, required ...string) ([]models.FlightRecord, error) {
	if err := checkColumns(df.Names(), required); err != nil {
		return nil, err
	}
	have := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		have[name] = true
	}

	n := df.Nrow()
	records := make([]models.FlightRecord, n)

	floats := func(name string) []float64 {
		if !have[name] {
			return nil
		}
		return df.Col(name).Float()
	}
	strs := func(name string) []string {
		if !have[name] {
			return nil
		}
		return df.Col(name).Records()
	}

	day, date, carrier := floats(ColDay), strs(ColDate), strs(ColCarrier)
	origin, dest, distance := floats(ColOrigin), floats(ColDest), floats(ColDistance)

	timing := make(map[string][]float64, len(timingColumns))
	for _, name := range timingColumns {
		timing[name] = floats(name)
	}

	for i := 0; i < n; i++ {
		rec := &records[i]
		if day != nil {
			if v := intCell(day[i]); v != nil {
				rec.Day = *v
			}
		}
		if date != nil {
			rec.Date = date[i]
		}
		if carrier != nil {
			rec.Carrier = carrier[i]
		}
		if origin != nil {
			rec.OriginAirportID = int64Cell(origin[i])
		}
		if dest != nil {
			rec.DestAirportID = int64Cell(dest[i])
		}
		if distance != nil && !math.IsNaN(distance[i]) {
			d := distance[i]
			rec.Distance = &d
		}

		rec.SchDep = cell(timing[ColSchDep], i)
		rec.DepTime = cell(timing[ColDepTime], i)
		rec.DepDelay = cell(timing[ColDepDelay], i)
		rec.SchArr = cell(timing[ColSchArr], i)
		rec.ArrTime = cell(timing[ColArrTime], i)
		rec.ArrDelay = cell(timing[ColArrDelay], i)
		rec.SchTime = cell(timing[ColSchTime], i)
		rec.ActualTime = cell(timing[ColActualTime], i)
	}

	return records, nil
}

func cell(col []float64, i int) *int {
	if col == nil {
		return nil
	}
	return intCell(col[i])
}

func intCell(v float64) *int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return nil
	}
	n := int(v)
	return &n
}

func int64Cell(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(v)
}

// cleanColumns is the column order of cleaned period files.
var cleanColumns = []string{
	ColCarrier, ColDay, ColDate,
	ColOrigin, ColDest,
	ColSchDep, ColSchArr, ColSchTime,
}

// CleanFrame lays cleaned flights out in cleanColumns order.
func CleanFrame(flights []models.CleanFlight) dataframe.DataFrame {
	n := len(flights)
	carrier := make([]string, n)
	day := make([]int, n)
	date := make([]string, n)
	origin := make([]int, n)
	dest := make([]int, n)
	schDep := make([]int, n)
	schArr := make([]int, n)
	schTime := make([]int, n)

	for i, f := range flights {
		carrier[i] = f.Carrier
		day[i] = f.Day
		date[i] = f.Date
		origin[i] = int(f.OriginAirportID)
		dest[i] = int(f.DestAirportID)
		schDep[i] = f.SchDep
		schArr[i] = f.SchArr
		schTime[i] = f.SchTime
	}

	return dataframe.New(
		series.New(carrier, series.String, ColCarrier),
		series.New(day, series.Int, ColDay),
		series.New(date, series.String, ColDate),
		series.New(origin, series.Int, ColOrigin),
		series.New(dest, series.Int, ColDest),
		series.New(schDep, series.Int, ColSchDep),
		series.New(schArr, series.Int, ColSchArr),
		series.New(schTime, series.Int, ColSchTime),
	)
}

// WriteFlights writes cleaned flights as CSV with a header row.
func WriteFlights(w io.Writer, flights []models.CleanFlight) error {
	if len(flights) == 0 {
		// gota cannot build a frame without rows; emit the header alone.
		_, err := io.WriteString(w, strings.Join(cleanColumns, ",")+"\n")
		return err
	}
	if err := CleanFrame(flights).WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReadFlights parses a cleaned period file written by WriteFlights.
func ReadFlights(r io.Reader) ([]models.CleanFlight, error) {
	records, err := readRecords(r, []string{ColCarrier, ColOrigin, ColDest, ColSchDep, ColSchArr, ColSchTime})
	if err != nil {
		return nil, err
	}

	flights := make([]models.CleanFlight, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.SchDep == nil || rec.SchArr == nil || rec.SchTime == nil {
			continue
		}
		flights = append(flights, models.CleanFlight{
			Carrier:         rec.Carrier,
			Day:             rec.Day,
			Date:            rec.Date,
			OriginAirportID: rec.OriginAirportID,
			DestAirportID:   rec.DestAirportID,
			SchDep:          *rec.SchDep,
			SchArr:          *rec.SchArr,
			SchTime:         *rec.SchTime,
		})
	}
	return flights, nil
}
