package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/flight-schedule-go/internal/models"
)

// CleaningTaskRepository handles database operations for cleaning tasks
type CleaningTaskRepository struct {
	db *sql.DB
}

// NewCleaningTaskRepository creates a new cleaning task repository
func NewCleaningTaskRepository(db *sql.DB) *CleaningTaskRepository {
	return &CleaningTaskRepository{db: db}
}

const taskColumns = `id, period, status, input_records, output_records, dropped_records,
	outliers_adjusted, start_time, end_time, result_summary, error_message,
	created_by, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*models.CleaningTask, error) {
	task := &models.CleaningTask{}
	err := s.Scan(
		&task.ID,
		&task.Period,
		&task.Status,
		&task.InputRecords,
		&task.OutputRecords,
		&task.DroppedRecords,
		&task.OutliersAdjusted,
		&task.StartTime,
		&task.EndTime,
		&task.ResultSummary,
		&task.ErrorMessage,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return task, err
}

// Create inserts a pending task and sets its ID
func (r *CleaningTaskRepository) Create(task *models.CleaningTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	result, err := r.db.Exec(`
		INSERT INTO cleaning_tasks (period, status, created_by)
		VALUES (?, ?, ?)
	`, task.Period, task.Status, task.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create cleaning task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a cleaning task by ID. A missing task is (nil, nil).
func (r *CleaningTaskRepository) GetByID(id int64) (*models.CleaningTask, error) {
	row := r.db.QueryRow("SELECT "+taskColumns+" FROM cleaning_tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cleaning task: %w", err)
	}
	return task, nil
}

// List retrieves cleaning tasks with optional filters, newest first
func (r *CleaningTaskRepository) List(period string, status string, limit int, offset int) ([]*models.CleaningTask, error) {
	query := "SELECT " + taskColumns + " FROM cleaning_tasks WHERE 1=1"

	args := []interface{}{}
	if period != "" {
		query += " AND period = ?"
		args = append(args, period)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleaning tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.CleaningTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cleaning task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// MarkAsRunning marks a task as running
func (r *CleaningTaskRepository) MarkAsRunning(id int64) error {
	_, err := r.db.Exec(`
		UPDATE cleaning_tasks
		SET status = ?, start_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.TaskStatusRunning, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a task as completed with its counters and summary
func (r *CleaningTaskRepository) MarkAsCompleted(id int64, counts models.CleaningCounts, resultSummary string) error {
	_, err := r.db.Exec(`
		UPDATE cleaning_tasks
		SET status = ?, end_time = ?, input_records = ?, output_records = ?,
			dropped_records = ?, outliers_adjusted = ?, result_summary = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.TaskStatusCompleted, time.Now().Unix(),
		counts.InputRecords, counts.OutputRecords, counts.DroppedRecords, counts.OutliersAdjusted,
		resultSummary, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *CleaningTaskRepository) MarkAsFailed(id int64, errorMessage string) error {
	_, err := r.db.Exec(`
		UPDATE cleaning_tasks
		SET status = ?, end_time = ?, error_message = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.TaskStatusFailed, time.Now().Unix(), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}
	return nil
}
