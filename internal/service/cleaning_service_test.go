package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/internal/period"
	"github.com/jengzang/flight-schedule-go/internal/repository"
	"github.com/jengzang/flight-schedule-go/internal/schedule"
)

type fakeSource struct {
	batches map[period.Period][]models.FlightRecord
	delay   time.Duration

	active  int32
	maxSeen int32
}

func (f *fakeSource) Load(ctx context.Context, p period.Period) ([]models.FlightRecord, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(f.delay)

	batch, ok := f.batches[p]
	if !ok {
		return nil, fmt.Errorf("no file for %s", p)
	}
	return batch, nil
}

type fakeSink struct {
	mu     sync.Mutex
	stored map[period.Period][]models.CleanFlight
}

func (f *fakeSink) Store(ctx context.Context, p period.Period, flights []models.CleanFlight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		f.stored = make(map[period.Period][]models.CleanFlight)
	}
	f.stored[p] = flights
	return nil
}

func record(origin, dest int64) models.FlightRecord {
	return models.FlightRecord{
		Carrier: "AA", Date: "1987-10-01", Day: 4,
		OriginAirportID: origin, DestAirportID: dest,
		SchDep: models.Int(900), DepTime: models.Int(915), DepDelay: models.Int(15),
		SchArr: models.Int(1230), ArrTime: models.Int(1240), ArrDelay: models.Int(10),
		SchTime: models.Int(210), ActualTime: models.Int(205),
	}
}

func hopeless(origin, dest int64) models.FlightRecord {
	return models.FlightRecord{Carrier: "AA", OriginAirportID: origin, DestAirportID: dest, SchDep: models.Int(900)}
}

// blank carries no timing field at all
func blank(origin, dest int64) models.FlightRecord {
	return models.FlightRecord{Carrier: "AA", OriginAirportID: origin, DestAirportID: dest}
}

var (
	oct = period.New(1987, time.October)
	nov = period.New(1987, time.November)
	dec = period.New(1987, time.December)
)

func newService(t *testing.T, source BatchSource, sink BatchSink, workers int) (*CleaningService, *repository.CleaningTaskRepository, *repository.FlightRepository) {
	t.Helper()
	conn, err := database.Open(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	t.Cleanup(func() { conn.Close() })

	tasks := repository.NewCleaningTaskRepository(conn)
	flights := repository.NewFlightRepository(conn)
	engine := schedule.NewEngine(schedule.Options{}, 2)
	return NewCleaningService(engine, source, sink, flights, tasks, workers), tasks, flights
}

func TestRunPeriods(t *testing.T) {
	source := &fakeSource{batches: map[period.Period][]models.FlightRecord{
		oct: {record(1, 2), record(2, 1), record(3, 3), hopeless(1, 2)},
		// nov has no file
		dec: {blank(1, 2), blank(2, 1)},
	}}
	sink := &fakeSink{}
	svc, tasks, flights := newService(t, source, sink, 2)

	results, err := svc.RunPeriods(context.Background(), []period.Period{oct, nov, dec}, "cli")
	require.NoError(t, err)
	require.Len(t, results, 3)

	octResult := results[0]
	require.NoError(t, octResult.Err)
	assert.Equal(t, 4, octResult.Repair.Input)
	assert.Equal(t, 2, octResult.Repair.Output)
	assert.Equal(t, models.CleaningCounts{InputRecords: 4, OutputRecords: 2, DroppedRecords: 2}, octResult.Counts())
	assert.Len(t, sink.stored[oct], 2)

	stored, err := flights.CountByPeriod("1987-10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored)

	assert.Error(t, results[1].Err, "missing file fails only that period")
	assert.ErrorIs(t, results[2].Err, schedule.ErrMalformedBatch)
	_, wrote := sink.stored[dec]
	assert.False(t, wrote, "failed periods write nothing")

	task, err := tasks.GetByID(octResult.TaskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, "cli", task.CreatedBy)
	assert.Contains(t, task.ResultSummary, `"output":2`)
	assert.NotContains(t, task.ResultSummary, "route_stats")

	failed, err := tasks.List("", models.TaskStatusFailed, 10, 0)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestRunPeriodsRespectsWorkerLimit(t *testing.T) {
	batches := make(map[period.Period][]models.FlightRecord)
	periods := period.Range(period.New(1990, time.January), period.New(1990, time.December))
	for _, p := range periods {
		batches[p] = []models.FlightRecord{record(1, 2)}
	}
	source := &fakeSource{batches: batches, delay: 20 * time.Millisecond}
	svc, _, _ := newService(t, source, nil, 3)

	results, err := svc.RunPeriods(context.Background(), periods, "")
	require.NoError(t, err)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&source.maxSeen), int32(3))
	assert.Greater(t, atomic.LoadInt32(&source.maxSeen), int32(1))
}

func TestRunPeriodsCancelled(t *testing.T) {
	source := &fakeSource{batches: map[period.Period][]models.FlightRecord{oct: {record(1, 2)}}}
	svc, tasks, _ := newService(t, source, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := svc.RunPeriods(ctx, []period.Period{oct}, "")
	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)

	task, err := tasks.GetByID(results[0].TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
}

func TestStartCleaning(t *testing.T) {
	source := &fakeSource{batches: map[period.Period][]models.FlightRecord{
		oct: {record(1, 2)}, nov: {record(2, 1)},
	}}
	svc, _, _ := newService(t, source, nil, 2)

	_, err := svc.StartCleaning(nov, oct, "admin")
	assert.ErrorIs(t, err, ErrEmptyRange)

	created, err := svc.StartCleaning(oct, nov, "admin")
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "1987-10", created[0].Period)

	require.Eventually(t, func() bool {
		done, err := svc.ListTasks("", models.TaskStatusCompleted, 10, 0)
		return err == nil && len(done) == 2
	}, 5*time.Second, 10*time.Millisecond)

	task, err := svc.GetTask(created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, task.OutputRecords)
}

func TestRunPeriodsEmptyPeriod(t *testing.T) {
	source := &fakeSource{batches: map[period.Period][]models.FlightRecord{oct: {}}}
	sink := &fakeSink{}
	svc, tasks, _ := newService(t, source, sink, 1)

	results, err := svc.RunPeriods(context.Background(), []period.Period{oct}, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, models.CleaningCounts{}, results[0].Counts())
	assert.True(t, results[0].Stored)
	assert.True(t, results[0].Written)
	assert.Empty(t, sink.stored[oct])

	task, err := tasks.GetByID(results[0].TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Zero(t, task.InputRecords)
	assert.Zero(t, task.OutputRecords)
}

type failingStore struct{}

func (failingStore) ReplacePeriod(string, []models.CleanFlight) error {
	return errors.New("disk I/O error")
}

type failingSink struct{}

func (failingSink) Store(context.Context, period.Period, []models.CleanFlight) error {
	return errors.New("read-only file system")
}

func TestCleanPeriodOutputOrder(t *testing.T) {
	source := &fakeSource{batches: map[period.Period][]models.FlightRecord{oct: {record(1, 2)}}}
	engine := schedule.NewEngine(schedule.Options{}, 1)

	t.Run("store fails before the file is written", func(t *testing.T) {
		sink := &fakeSink{}
		svc := NewCleaningService(engine, source, sink, failingStore{}, nil, 1)

		result, err := svc.CleanPeriod(context.Background(), oct)
		require.Error(t, err)
		assert.False(t, result.Stored)
		assert.False(t, result.Written)
		_, wrote := sink.stored[oct]
		assert.False(t, wrote)
	})

	t.Run("sink failure reports the committed store", func(t *testing.T) {
		_, _, flights := newService(t, source, nil, 1)
		svc := NewCleaningService(engine, source, failingSink{}, flights, nil, 1)

		result, err := svc.CleanPeriod(context.Background(), oct)
		require.Error(t, err)
		assert.True(t, result.Stored)
		assert.False(t, result.Written)

		n, err := flights.CountByPeriod("1987-10")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
