package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/internal/period"
	"github.com/jengzang/flight-schedule-go/internal/schedule"
)

// BatchSource supplies the raw records of one period
type BatchSource interface {
	Load(ctx context.Context, p period.Period) ([]models.FlightRecord, error)
}

// BatchSink receives the cleaned flights of one period
type BatchSink interface {
	Store(ctx context.Context, p period.Period, flights []models.CleanFlight) error
}

// FlightStore persists cleaned flights, replacing a period wholesale
type FlightStore interface {
	ReplacePeriod(period string, flights []models.CleanFlight) error
}

// TaskStore records cleaning runs
type TaskStore interface {
	Create(task *models.CleaningTask) error
	GetByID(id int64) (*models.CleaningTask, error)
	List(period string, status string, limit int, offset int) ([]*models.CleaningTask, error)
	MarkAsRunning(id int64) error
	MarkAsCompleted(id int64, counts models.CleaningCounts, resultSummary string) error
	MarkAsFailed(id int64, errorMessage string) error
}

// ErrEmptyRange is returned when a requested period range has no months
var ErrEmptyRange = errors.New("empty period range")

// CleaningService runs the schedule engine over reporting periods
type CleaningService struct {
	engine  *schedule.Engine
	source  BatchSource
	sink    BatchSink
	flights FlightStore
	tasks   TaskStore
	workers int
}

// NewCleaningService creates a cleaning service. sink, flights and tasks
// may be nil to skip that output. workers bounds how many periods run at
// once; <= 0 means runtime.NumCPU().
func NewCleaningService(engine *schedule.Engine, source BatchSource, sink BatchSink, flights FlightStore, tasks TaskStore, workers int) *CleaningService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CleaningService{
		engine:  engine,
		source:  source,
		sink:    sink,
		flights: flights,
		tasks:   tasks,
		workers: workers,
	}
}

// PeriodResult is the outcome of cleaning one period
type PeriodResult struct {
	Period    period.Period            `json:"-"`
	TaskID    int64                    `json:"task_id,omitempty"`
	Repair    schedule.RepairReport    `json:"repair"`
	Normalize schedule.NormalizeReport `json:"normalize"`
	Stored    bool                     `json:"stored"`  // flights replaced in the database
	Written   bool                     `json:"written"` // cleaned file written by the sink
	Err       error                    `json:"-"`
}

// Counts converts the reports into task counters
func (r PeriodResult) Counts() models.CleaningCounts {
	return models.CleaningCounts{
		InputRecords:     r.Repair.Input,
		OutputRecords:    r.Repair.Output,
		DroppedRecords:   r.Repair.SelfLoops + r.Repair.Dropped,
		OutliersAdjusted: r.Normalize.Shifted,
	}
}

// summary is stored with the task; per-route statistics are left out.
func (r PeriodResult) summary() string {
	n := r.Normalize
	n.RouteStats = nil
	b, err := json.Marshal(struct {
		Repair    schedule.RepairReport    `json:"repair"`
		Normalize schedule.NormalizeReport `json:"normalize"`
	}{r.Repair, n})
	if err != nil {
		return ""
	}
	return string(b)
}

// CleanPeriod loads, repairs, normalizes and stores one period. No output
// is written unless every step before it succeeded. The database replace
// runs before the file write since only the former can roll back; Stored
// and Written report what was committed when a later step fails.
func (s *CleaningService) CleanPeriod(ctx context.Context, p period.Period) (PeriodResult, error) {
	result := PeriodResult{Period: p}

	records, err := s.source.Load(ctx, p)
	if err != nil {
		return result, fmt.Errorf("failed to load period %s: %w", p, err)
	}

	repaired, repair, err := s.engine.Repair(ctx, records)
	if err != nil {
		return result, fmt.Errorf("failed to repair period %s: %w", p, err)
	}
	result.Repair = repair

	cleaned, normalize, err := s.engine.Normalize(ctx, repaired)
	if err != nil {
		return result, fmt.Errorf("failed to normalize period %s: %w", p, err)
	}
	result.Normalize = normalize

	if s.flights != nil {
		if err := s.flights.ReplacePeriod(p.String(), cleaned); err != nil {
			return result, fmt.Errorf("failed to store period %s: %w", p, err)
		}
		result.Stored = true
	}
	if s.sink != nil {
		if err := s.sink.Store(ctx, p, cleaned); err != nil {
			return result, fmt.Errorf("failed to write period %s: %w", p, err)
		}
		result.Written = true
	}

	log.Printf("[CleaningService] period %s: %s in, %s out, %s dropped, %s outliers shifted",
		p,
		humanize.Comma(int64(repair.Input)),
		humanize.Comma(int64(repair.Output)),
		humanize.Comma(int64(repair.SelfLoops+repair.Dropped)),
		humanize.Comma(int64(normalize.Shifted)))

	return result, nil
}

// RunPeriods cleans every period with at most workers in flight. A failed
// period is recorded in its result and task and does not stop the others.
// The returned error is set only when bookkeeping fails or ctx ends.
func (s *CleaningService) RunPeriods(ctx context.Context, periods []period.Period, createdBy string) ([]PeriodResult, error) {
	tasks, err := s.createTasks(periods, createdBy)
	if err != nil {
		return nil, err
	}

	results := s.run(ctx, periods, tasks)
	return results, ctx.Err()
}

// StartCleaning creates one pending task per period in [from, to] and
// cleans them in the background.
func (s *CleaningService) StartCleaning(from, to period.Period, createdBy string) ([]*models.CleaningTask, error) {
	periods := period.Range(from, to)
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: %s..%s", ErrEmptyRange, from, to)
	}

	tasks, err := s.createTasks(periods, createdBy)
	if err != nil {
		return nil, err
	}

	go func() {
		started := time.Now()
		results := s.run(context.Background(), periods, tasks)
		log.Printf("[CleaningService] %d periods finished in %s, %d failed",
			len(results), time.Since(started).Round(time.Millisecond), countFailed(results))
	}()

	return tasks, nil
}

// GetTask returns a task by ID, or nil if it does not exist
func (s *CleaningService) GetTask(id int64) (*models.CleaningTask, error) {
	if s.tasks == nil {
		return nil, nil
	}
	return s.tasks.GetByID(id)
}

// ListTasks lists tasks, newest first
func (s *CleaningService) ListTasks(period string, status string, limit int, offset int) ([]*models.CleaningTask, error) {
	if s.tasks == nil {
		return []*models.CleaningTask{}, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tasks.List(period, status, limit, offset)
}

func (s *CleaningService) createTasks(periods []period.Period, createdBy string) ([]*models.CleaningTask, error) {
	tasks := make([]*models.CleaningTask, len(periods))
	if s.tasks == nil {
		return tasks, nil
	}
	for i, p := range periods {
		task := &models.CleaningTask{
			Period:    p.String(),
			Status:    models.TaskStatusPending,
			CreatedBy: createdBy,
		}
		if err := s.tasks.Create(task); err != nil {
			return nil, fmt.Errorf("failed to create task for %s: %w", p, err)
		}
		tasks[i] = task
	}
	return tasks, nil
}

// run never returns early: every period gets a result, and periods not
// started before ctx ends are marked failed with ctx's error.
func (s *CleaningService) run(ctx context.Context, periods []period.Period, tasks []*models.CleaningTask) []PeriodResult {
	results := make([]PeriodResult, len(periods))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, p := range periods {
		i, p := i, p
		task := tasks[i]
		g.Go(func() error {
			results[i] = s.runOne(ctx, p, task)
			return nil
		})
	}
	g.Wait()

	return results
}

func (s *CleaningService) runOne(ctx context.Context, p period.Period, task *models.CleaningTask) PeriodResult {
	if err := ctx.Err(); err != nil {
		s.fail(task, p, err)
		return PeriodResult{Period: p, TaskID: taskID(task), Err: err}
	}

	if task != nil {
		if err := s.tasks.MarkAsRunning(task.ID); err != nil {
			log.Printf("[CleaningService] failed to mark task %d running: %v", task.ID, err)
		}
	}

	result, err := s.CleanPeriod(ctx, p)
	result.TaskID = taskID(task)
	if err != nil {
		result.Err = err
		s.fail(task, p, err)
		return result
	}

	if task != nil {
		if err := s.tasks.MarkAsCompleted(task.ID, result.Counts(), result.summary()); err != nil {
			log.Printf("[CleaningService] failed to mark task %d completed: %v", task.ID, err)
		}
	}
	return result
}

func (s *CleaningService) fail(task *models.CleaningTask, p period.Period, err error) {
	log.Printf("[CleaningService] period %s failed: %v", p, err)
	if task == nil {
		return
	}
	if mErr := s.tasks.MarkAsFailed(task.ID, err.Error()); mErr != nil {
		log.Printf("[CleaningService] failed to mark task %d failed: %v", task.ID, mErr)
	}
}

func taskID(task *models.CleaningTask) int64 {
	if task == nil {
		return 0
	}
	return task.ID
}

func countFailed(results []PeriodResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
