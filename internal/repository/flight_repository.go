package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/models"
)

// FlightRepository stores cleaned flights per reporting period
type FlightRepository struct {
	db *sql.DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db *sql.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// ReplacePeriod swaps the stored flights of a period for flights in one
// transaction. Readers see either the old or the new set.
func (r *FlightRepository) ReplacePeriod(period string, flights []models.CleanFlight) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM cleaned_flights WHERE period = ?", period); err != nil {
			return fmt.Errorf("failed to clear period %s: %w", period, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO cleaned_flights (
				period, carrier, day, date, origin_airport_id, dest_airport_id,
				sch_dep, sch_arr, sch_time
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range flights {
			_, err := stmt.Exec(period, f.Carrier, f.Day, f.Date, f.OriginAirportID, f.DestAirportID,
				f.SchDep, f.SchArr, f.SchTime)
			if err != nil {
				return fmt.Errorf("failed to insert flight: %w", err)
			}
		}
		return nil
	})
}

// List retrieves cleaned flights with filtering and pagination
func (r *FlightRepository) List(filter models.FlightFilter) ([]models.CleanFlight, int64, error) {
	query := `SELECT id, period, carrier, day, date, origin_airport_id, dest_airport_id,
		sch_dep, sch_arr, sch_time
		FROM cleaned_flights`

	var conditions []string
	var args []interface{}

	if filter.Period != "" {
		conditions = append(conditions, "period = ?")
		args = append(args, filter.Period)
	}
	if filter.Origin > 0 {
		conditions = append(conditions, "origin_airport_id = ?")
		args = append(args, filter.Origin)
	}
	if filter.Dest > 0 {
		conditions = append(conditions, "dest_airport_id = ?")
		args = append(args, filter.Dest)
	}
	if filter.Carrier != "" {
		conditions = append(conditions, "carrier = ?")
		args = append(args, filter.Carrier)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cleaned_flights"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count flights: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	offset := (filter.Page - 1) * filter.PageSize
	query += where + " ORDER BY period, id LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	flights := []models.CleanFlight{}
	for rows.Next() {
		var f models.CleanFlight
		err := rows.Scan(
			&f.ID, &f.Period, &f.Carrier, &f.Day, &f.Date,
			&f.OriginAirportID, &f.DestAirportID,
			&f.SchDep, &f.SchArr, &f.SchTime,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
	}

	return flights, total, rows.Err()
}

// CountByPeriod returns the number of stored flights of a period
func (r *FlightRepository) CountByPeriod(period string) (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM cleaned_flights WHERE period = ?", period).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count flights: %w", err)
	}
	return count, nil
}
