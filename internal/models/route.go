package models

import "fmt"

// RouteKey identifies a directed origin/destination airport pair
type RouteKey struct {
	Origin int64 `json:"origin_airport_id"`
	Dest   int64 `json:"dest_airport_id"`
}

// Reverse returns the key of the return leg
func (k RouteKey) Reverse() RouteKey {
	return RouteKey{Origin: k.Dest, Dest: k.Origin}
}

// SelfLoop reports whether origin and destination are the same airport
func (k RouteKey) SelfLoop() bool {
	return k.Origin == k.Dest
}

func (k RouteKey) String() string {
	return fmt.Sprintf("%d->%d", k.Origin, k.Dest)
}

// RouteDistance is the accepted distance for a route
type RouteDistance struct {
	OriginAirportID int64   `json:"origin_airport_id" db:"origin_airport_id"`
	DestAirportID   int64   `json:"dest_airport_id" db:"dest_airport_id"`
	Distance        float64 `json:"distance" db:"distance"` // Miles
	Frequency       int     `json:"frequency" db:"frequency"`
	TotalFrequency  int     `json:"total_frequency" db:"total_frequency"`
}

// Airport carries the reference coordinates of an airport
type Airport struct {
	ID        int64   `json:"airport_id"`
	Name      string  `json:"airport_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
