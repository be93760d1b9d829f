// Command schedclean repairs flight schedule files period by period and
// builds the route distance table.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jengzang/flight-schedule-go/internal/config"
	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/ingest"
	"github.com/jengzang/flight-schedule-go/internal/middleware"
	"github.com/jengzang/flight-schedule-go/internal/period"
	"github.com/jengzang/flight-schedule-go/internal/reference"
	"github.com/jengzang/flight-schedule-go/internal/repository"
	"github.com/jengzang/flight-schedule-go/internal/schedule"
	"github.com/jengzang/flight-schedule-go/internal/service"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "schedclean - commands:")
	fmt.Fprintln(w, "  clean      - repair and normalize period files")
	fmt.Fprintln(w, "  distances  - build distance.csv from period files")
	fmt.Fprintln(w, "  token      - issue an admin API token")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  schedclean clean [-from 1987-10] [-to 2015-12] [-data dir] [-out dir] [-db file] [-workers n] [-stats]")
	fmt.Fprintln(w, "  schedclean distances [-from ..] [-to ..] [-data dir] [-out dir] [-db file] [-airports LatLong.csv] [-tolerance 0.05]")
	fmt.Fprintln(w, "  schedclean token -sub name [-ttl 24h]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Defaults come from SCHEDCLEAN_CONFIG and the environment.")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "clean":
		err = runClean(ctx, cfg, os.Args[2:])
	case "distances":
		err = runDistances(ctx, cfg, os.Args[2:])
	case "token":
		err = runToken(cfg, os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

type rangeFlags struct {
	from, to *string
	data     *string
	out      *string
	db       *string
}

func addRangeFlags(fs *flag.FlagSet, cfg *config.Config) rangeFlags {
	return rangeFlags{
		from: fs.String("from", cfg.FirstPeriod, "First period (YYYY-MM)"),
		to:   fs.String("to", cfg.LastPeriod, "Last period (YYYY-MM)"),
		data: fs.String("data", cfg.DataDir, "Directory of raw YEAR_MONTH.csv files"),
		out:  fs.String("out", cfg.OutputDir, "Output directory"),
		db:   fs.String("db", "", "SQLite database to store results in (optional)"),
	}
}

func (f rangeFlags) periods() ([]period.Period, error) {
	from, err := period.Parse(*f.from)
	if err != nil {
		return nil, err
	}
	to, err := period.Parse(*f.to)
	if err != nil {
		return nil, err
	}
	periods := period.Range(from, to)
	if len(periods) == 0 {
		return nil, fmt.Errorf("empty period range %s..%s", from, to)
	}
	return periods, nil
}

func (f rangeFlags) openDB() (*sql.DB, error) {
	if *f.db == "" {
		return nil, nil
	}
	conn, err := database.Open(*f.db)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func runClean(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	rf := addRangeFlags(fs, cfg)
	workers := fs.Int("workers", cfg.Workers, "Periods cleaned concurrently")
	fromArrival := fs.Bool("arrival-from-arrival", cfg.ArrivalFillFromArrival, "Fill missing SchArr from ArrTime/ArrDelay")
	showStats := fs.Bool("stats", false, "Print per-period counters to stderr")
	_ = fs.Parse(args)

	periods, err := rf.periods()
	if err != nil {
		return err
	}

	conn, err := rf.openDB()
	if err != nil {
		return err
	}
	var flights service.FlightStore
	var tasks service.TaskStore
	if conn != nil {
		defer conn.Close()
		flights = repository.NewFlightRepository(conn)
		tasks = repository.NewCleaningTaskRepository(conn)
	}

	engine := schedule.NewEngine(schedule.Options{ArrivalFillFromArrival: *fromArrival}, 0)
	svc := service.NewCleaningService(engine,
		ingest.NewDirSource(*rf.data), ingest.NewDirSink(*rf.out), flights, tasks, *workers)

	started := time.Now()
	results, runErr := svc.RunPeriods(ctx, periods, "cli")

	var in, out, shifted, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		in += r.Repair.Input
		out += r.Repair.Output
		shifted += r.Normalize.Shifted
		if *showStats {
			fmt.Fprintf(os.Stderr, "%s  in=%s out=%s selfloops=%s dropped=%s routes=%d shifted=%s\n",
				r.Period,
				humanize.Comma(int64(r.Repair.Input)),
				humanize.Comma(int64(r.Repair.Output)),
				humanize.Comma(int64(r.Repair.SelfLoops)),
				humanize.Comma(int64(r.Repair.Dropped)),
				r.Normalize.Routes,
				humanize.Comma(int64(r.Normalize.Shifted)))
		}
	}

	fmt.Fprintf(os.Stderr, "Cleaned %d/%d periods in %s: %s records in, %s out, %s outliers shifted\n",
		len(results)-failed, len(results), time.Since(started).Round(time.Second),
		humanize.Comma(int64(in)), humanize.Comma(int64(out)), humanize.Comma(int64(shifted)))

	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d periods failed", failed)
	}
	return nil
}

func runDistances(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("distances", flag.ExitOnError)
	rf := addRangeFlags(fs, cfg)
	airportsFile := fs.String("airports", cfg.AirportsFile, "Airport coordinates CSV for a great-circle cross-check")
	tolerance := fs.Float64("tolerance", 0.05, "Allowed relative deviation from the great-circle distance")
	_ = fs.Parse(args)

	periods, err := rf.periods()
	if err != nil {
		return err
	}

	source := ingest.NewDirSource(*rf.data)
	table := reference.NewDistanceTable()
	for _, p := range periods {
		records, err := source.LoadDistances(ctx, p)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			log.Printf("[distances] skipping %s: %v", p, err)
			continue
		}
		table.Add(records)
	}

	report := table.Check()
	fmt.Fprintf(os.Stderr, "Same origin and destination: %v\n", report.SelfLoops)
	for _, m := range report.MultipleDistances {
		fmt.Fprintf(os.Stderr, "Multiple distances %s: %v (frequency %v)\n", m.Route, m.Distances, m.Frequencies)
	}
	for _, m := range report.RoundTrips {
		fmt.Fprintf(os.Stderr, "Round trip mismatch %s: to %v, back %v\n", m.Route, m.Outbound, m.Return)
	}

	distances := table.Build()

	if err := os.MkdirAll(*rf.out, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(*rf.out, "distance.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := reference.WriteDistances(f, distances); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	conn, err := rf.openDB()
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
		if err := repository.NewDistanceRepository(conn).ReplaceAll(distances); err != nil {
			return err
		}
	}

	if *airportsFile != "" {
		af, err := os.Open(*airportsFile)
		if err != nil {
			return fmt.Errorf("failed to open airports file: %w", err)
		}
		airports, err := reference.LoadAirports(af)
		af.Close()
		if err != nil {
			return err
		}
		for _, d := range airports.CrossCheck(distances, *tolerance) {
			fmt.Fprintf(os.Stderr, "Distance %s: reported %.0f, great circle %.0f (x%.2f)\n",
				d.Route, d.Reported, d.GreatCircle, d.Ratio)
		}
	}

	fmt.Fprintf(os.Stderr, "Wrote %s routes to %s (%d problems found across %s routes)\n",
		humanize.Comma(int64(len(distances))), path, report.Problems(), humanize.Comma(int64(table.Routes())))
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("sub", "", "Token subject, recorded as created_by on tasks")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = fs.Parse(args)

	token, err := middleware.IssueToken(cfg.JWTSecret, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
