package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/models"
)

// DistanceRepository stores the accepted distance of every route
type DistanceRepository struct {
	db *sql.DB
}

// NewDistanceRepository creates a new distance repository
func NewDistanceRepository(db *sql.DB) *DistanceRepository {
	return &DistanceRepository{db: db}
}

// ReplaceAll swaps the whole table for distances
func (r *DistanceRepository) ReplaceAll(distances []models.RouteDistance) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM route_distances"); err != nil {
			return fmt.Errorf("failed to clear route distances: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO route_distances (
				origin_airport_id, dest_airport_id, distance, frequency, total_frequency
			) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range distances {
			if _, err := stmt.Exec(d.OriginAirportID, d.DestAirportID, d.Distance, d.Frequency, d.TotalFrequency); err != nil {
				return fmt.Errorf("failed to insert route distance: %w", err)
			}
		}
		return nil
	})
}

// List returns stored distances, optionally restricted to an origin and/or
// destination (zero means any).
func (r *DistanceRepository) List(origin, dest int64) ([]models.RouteDistance, error) {
	query := `SELECT origin_airport_id, dest_airport_id, distance, frequency, total_frequency
		FROM route_distances WHERE 1=1`
	var args []interface{}
	if origin > 0 {
		query += " AND origin_airport_id = ?"
		args = append(args, origin)
	}
	if dest > 0 {
		query += " AND dest_airport_id = ?"
		args = append(args, dest)
	}
	query += " ORDER BY origin_airport_id, dest_airport_id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query route distances: %w", err)
	}
	defer rows.Close()

	distances := []models.RouteDistance{}
	for rows.Next() {
		var d models.RouteDistance
		if err := rows.Scan(&d.OriginAirportID, &d.DestAirportID, &d.Distance, &d.Frequency, &d.TotalFrequency); err != nil {
			return nil, fmt.Errorf("failed to scan route distance: %w", err)
		}
		distances = append(distances, d)
	}
	return distances, rows.Err()
}

// Get returns the distance of one route, or nil if none is stored
func (r *DistanceRepository) Get(key models.RouteKey) (*models.RouteDistance, error) {
	d := &models.RouteDistance{}
	err := r.db.QueryRow(`
		SELECT origin_airport_id, dest_airport_id, distance, frequency, total_frequency
		FROM route_distances WHERE origin_airport_id = ? AND dest_airport_id = ?
	`, key.Origin, key.Dest).Scan(&d.OriginAirportID, &d.DestAirportID, &d.Distance, &d.Frequency, &d.TotalFrequency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route distance: %w", err)
	}
	return d, nil
}
