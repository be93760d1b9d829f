package schedule

import "github.com/jengzang/flight-schedule-go/internal/models"

// Keep reports whether a repaired record may leave the engine: it must not
// be a self-loop, SchDep, SchArr and a positive SchTime must be present, and
// SCH must hold.
func Keep(r *models.FlightRecord) bool {
	if r.Route().SelfLoop() {
		return false
	}
	return scheduleHolds(r)
}

// Project drops the actual-time and delay fields once a record is known to
// be consistent. The record must have passed Keep.
func Project(r *models.FlightRecord) models.CleanFlight {
	return models.CleanFlight{
		Carrier:         r.Carrier,
		Day:             r.Day,
		Date:            r.Date,
		OriginAirportID: r.OriginAirportID,
		DestAirportID:   r.DestAirportID,
		SchDep:          *r.SchDep,
		SchArr:          *r.SchArr,
		SchTime:         *r.SchTime,
	}
}
