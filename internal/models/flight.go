package models

// FlightRecord is one reported flight leg as delivered by the source files.
// Timing fields are optional; nil means the source left the field blank.
type FlightRecord struct {
	// Flight identification
	Day             int    `json:"day"`               // Day of week, informational
	Date            string `json:"date"`              // YYYY-MM-DD
	Carrier         string `json:"carrier"`           // Kept as a string even when numeric-looking
	OriginAirportID int64  `json:"origin_airport_id"` // BTS airport sequence ID
	DestAirportID   int64  `json:"dest_airport_id"`

	// Departure (clock times are hhmm)
	SchDep   *int `json:"sch_dep,omitempty"`
	DepTime  *int `json:"dep_time,omitempty"`
	DepDelay *int `json:"dep_delay,omitempty"` // Signed minutes

	// Arrival
	SchArr   *int `json:"sch_arr,omitempty"`
	ArrTime  *int `json:"arr_time,omitempty"`
	ArrDelay *int `json:"arr_delay,omitempty"`

	// Elapsed minutes
	SchTime    *int `json:"sch_time,omitempty"`
	ActualTime *int `json:"actual_time,omitempty"`

	Distance *float64 `json:"distance,omitempty"` // Miles, carried through unchanged
}

// Route returns the origin/destination pair of the record.
func (r *FlightRecord) Route() RouteKey {
	return RouteKey{Origin: r.OriginAirportID, Dest: r.DestAirportID}
}

// CleanFlight is a flight whose scheduled departure, arrival and elapsed
// time agree with each other modulo 60 minutes.
type CleanFlight struct {
	ID              int64  `json:"id,omitempty" db:"id"`
	Period          string `json:"period,omitempty" db:"period"` // YYYY-MM, set when stored
	Carrier         string `json:"carrier" db:"carrier"`
	Day             int    `json:"day" db:"day"`
	Date            string `json:"date" db:"date"`
	OriginAirportID int64  `json:"origin_airport_id" db:"origin_airport_id"`
	DestAirportID   int64  `json:"dest_airport_id" db:"dest_airport_id"`
	SchDep          int    `json:"sch_dep" db:"sch_dep"`
	SchArr          int    `json:"sch_arr" db:"sch_arr"`
	SchTime         int    `json:"sch_time" db:"sch_time"` // Scheduled elapsed minutes
}

// Route returns the origin/destination pair of the flight.
func (f *CleanFlight) Route() RouteKey {
	return RouteKey{Origin: f.OriginAirportID, Dest: f.DestAirportID}
}

// FlightFilter represents query filters for stored clean flights
type FlightFilter struct {
	Period   string `form:"period"`
	Origin   int64  `form:"origin"`
	Dest     int64  `form:"dest"`
	Carrier  string `form:"carrier"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Int returns a pointer to v. Handy for building optional timing fields.
func Int(v int) *int {
	return &v
}
