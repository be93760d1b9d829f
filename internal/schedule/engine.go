package schedule

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

// chunk is the number of records a worker repairs between cancellation checks.
const chunk = 4096

// Engine exposes the two batch operations: Repair and Normalize. Batches are
// independent, so one Engine may serve many periods concurrently.
type Engine struct {
	repairer *Repairer
	workers  int
}

// NewEngine creates an engine that spreads each batch over up to workers
// goroutines. workers <= 0 means runtime.NumCPU().
func NewEngine(opts Options, workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{repairer: NewRepairer(opts), workers: workers}
}

// Repairer returns the stage pipeline used by Repair.
func (e *Engine) Repairer() *Repairer {
	return e.repairer
}

// Repair drops self-loops, repairs every record and keeps those whose
// scheduled triple is consistent, projected to CleanFlight. Input order is
// preserved. Nothing is returned unless the whole batch completes.
func (e *Engine) Repair(ctx context.Context, batch []models.FlightRecord) ([]models.CleanFlight, RepairReport, error) {
	report := RepairReport{Input: len(batch)}
	if len(batch) == 0 {
		return []models.CleanFlight{}, report, nil
	}

	kept := make([]*models.CleanFlight, len(batch))
	partial := make([]RepairReport, (len(batch)+chunk-1)/chunk)
	timing := make([]bool, len(partial))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for c := range partial {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo, hi := c*chunk, min((c+1)*chunk, len(batch))
			local := &partial[c]
			for i := lo; i < hi; i++ {
				if batch[i].Route().SelfLoop() {
					local.SelfLoops++
					continue
				}
				w, hasTiming := e.repairer.run(batch[i], local)
				if hasTiming {
					timing[c] = true
				}
				if Keep(&w.rec) {
					f := Project(&w.rec)
					kept[i] = &f
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, RepairReport{}, err
	}

	usable := false
	for c := range partial {
		report.add(partial[c])
		usable = usable || timing[c]
	}
	if !usable && report.SelfLoops < len(batch) {
		return nil, RepairReport{}, ErrMalformedBatch
	}

	out := make([]models.CleanFlight, 0, len(batch))
	for _, f := range kept {
		if f != nil {
			out = append(out, *f)
		}
	}
	report.Output = len(out)
	report.Dropped = len(batch) - report.SelfLoops - report.Output
	return out, report, nil
}

// Normalize snaps elapsed-time outliers of each route toward the route
// median. The input slice is not modified; the result has the same length
// and order.
func (e *Engine) Normalize(ctx context.Context, flights []models.CleanFlight) ([]models.CleanFlight, NormalizeReport, error) {
	out := make([]models.CleanFlight, len(flights))
	copy(out, flights)
	if len(flights) == 0 {
		return out, NormalizeReport{}, nil
	}

	// Every flight must be grouped before any route statistic is computed.
	groups, order := groupByRoute(out)
	routeStats := make([]RouteStats, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, key := range order {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			routeStats[i] = normalizeGroup(key, groups[key], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NormalizeReport{}, err
	}

	return out, summarize(routeStats), nil
}
