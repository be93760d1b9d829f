package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/models"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := database.Open(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func flight(origin, dest int64, carrier string, schDep int) models.CleanFlight {
	return models.CleanFlight{
		Carrier: carrier, Day: 4, Date: "1987-10-01",
		OriginAirportID: origin, DestAirportID: dest,
		SchDep: schDep, SchArr: schDep + 100, SchTime: 60,
	}
}

func TestFlightRepositoryReplacePeriod(t *testing.T) {
	repo := NewFlightRepository(testDB(t))

	require.NoError(t, repo.ReplacePeriod("1987-10", []models.CleanFlight{
		flight(1, 2, "AA", 900), flight(2, 1, "AA", 1100), flight(1, 3, "UA", 1300),
	}))
	require.NoError(t, repo.ReplacePeriod("1987-11", []models.CleanFlight{flight(1, 2, "AA", 800)}))

	n, err := repo.CountByPeriod("1987-10")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, repo.ReplacePeriod("1987-10", []models.CleanFlight{flight(1, 2, "DL", 700)}))
	n, err = repo.CountByPeriod("1987-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "replace drops the previous run")

	n, err = repo.CountByPeriod("1987-11")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "other periods untouched")
}

func TestFlightRepositoryList(t *testing.T) {
	repo := NewFlightRepository(testDB(t))
	require.NoError(t, repo.ReplacePeriod("1987-10", []models.CleanFlight{
		flight(1, 2, "AA", 900), flight(1, 2, "UA", 1000), flight(2, 1, "AA", 1100),
	}))

	all, total, err := repo.List(models.FlightFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, "1987-10", all[0].Period)
	assert.NotZero(t, all[0].ID)

	route, total, err := repo.List(models.FlightFilter{Origin: 1, Dest: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, route, 2)

	aa, _, err := repo.List(models.FlightFilter{Carrier: "AA", Period: "1987-10"})
	require.NoError(t, err)
	assert.Len(t, aa, 2)

	page, total, err := repo.List(models.FlightFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "total ignores pagination")
	require.Len(t, page, 1)
	assert.Equal(t, 1100, page[0].SchDep)

	none, _, err := repo.List(models.FlightFilter{Period: "2015-12"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCleaningTaskLifecycle(t *testing.T) {
	repo := NewCleaningTaskRepository(testDB(t))

	task := &models.CleaningTask{Period: "1987-10", CreatedBy: "admin"}
	require.NoError(t, repo.Create(task))
	require.NotZero(t, task.ID)

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.TaskStatusPending, got.Status)
	assert.Equal(t, "admin", got.CreatedBy)

	require.NoError(t, repo.MarkAsRunning(task.ID))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRunning, got.Status)
	assert.NotZero(t, got.StartTime)

	counts := models.CleaningCounts{InputRecords: 10, OutputRecords: 7, DroppedRecords: 2, OutliersAdjusted: 1}
	require.NoError(t, repo.MarkAsCompleted(task.ID, counts, `{"ok":true}`))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, counts, got.CleaningCounts)
	assert.Equal(t, `{"ok":true}`, got.ResultSummary)

	missing, err := repo.GetByID(task.ID + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCleaningTaskList(t *testing.T) {
	repo := NewCleaningTaskRepository(testDB(t))

	for _, p := range []string{"1987-10", "1987-11", "1987-12"} {
		require.NoError(t, repo.Create(&models.CleaningTask{Period: p}))
	}
	require.NoError(t, repo.MarkAsFailed(2, "no usable timing fields"))

	all, err := repo.List("", "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1987-12", all[0].Period, "newest first")

	failed, err := repo.List("", models.TaskStatusFailed, 10, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "no usable timing fields", failed[0].ErrorMessage)

	byPeriod, err := repo.List("1987-10", "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, byPeriod, 1)

	paged, err := repo.List("", "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestDistanceRepository(t *testing.T) {
	repo := NewDistanceRepository(testDB(t))

	require.NoError(t, repo.ReplaceAll([]models.RouteDistance{
		{OriginAirportID: 1, DestAirportID: 2, Distance: 300, Frequency: 3, TotalFrequency: 4},
		{OriginAirportID: 2, DestAirportID: 1, Distance: 300, Frequency: 5, TotalFrequency: 5},
		{OriginAirportID: 1, DestAirportID: 3, Distance: 512.5, Frequency: 1, TotalFrequency: 1},
	}))

	all, err := repo.List(0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	fromOne, err := repo.List(1, 0)
	require.NoError(t, err)
	require.Len(t, fromOne, 2)
	assert.Equal(t, int64(2), fromOne[0].DestAirportID)

	d, err := repo.Get(models.RouteKey{Origin: 1, Dest: 3})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 512.5, d.Distance)

	d, err = repo.Get(models.RouteKey{Origin: 3, Dest: 1})
	require.NoError(t, err)
	assert.Nil(t, d)

	require.NoError(t, repo.ReplaceAll(nil))
	all, err = repo.List(0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}
