package schedule

import "github.com/jengzang/flight-schedule-go/internal/models"

// Flags are the validity and violation indicators of one record. A violation
// flag is set only when every input of its equation is present and the
// equation fails; missing inputs never count as a violation.
//
// Flags are derived state: recompute them whenever the record changes.
type Flags struct {
	SValid bool // SchTime present and positive
	AValid bool // ActualTime present and positive

	D   bool
	A   bool
	ACT bool
	TZ  bool
	SCH bool
}

// Evaluate computes the flags of r.
func Evaluate(r *models.FlightRecord) Flags {
	var f Flags

	f.SValid = r.SchTime != nil && *r.SchTime > 0
	f.AValid = r.ActualTime != nil && *r.ActualTime > 0

	if present(r.DepTime, r.DepDelay, r.SchDep) {
		f.D = mod(ToMinutes(*r.DepTime)-*r.DepDelay-ToMinutes(*r.SchDep), minutesPerDay) != 0
	}
	if present(r.ArrTime, r.ArrDelay, r.SchArr) {
		f.A = mod(ToMinutes(*r.ArrTime)-*r.ArrDelay-ToMinutes(*r.SchArr), minutesPerDay) != 0
	}
	if f.SValid && f.AValid && present(r.ArrDelay, r.DepDelay) {
		f.ACT = actualElapsed(r) != *r.SchTime
	}
	if f.AValid && present(r.DepTime, r.ArrTime) {
		f.TZ = mod(ToMinutes(*r.ArrTime)-ToMinutes(*r.DepTime)-*r.ActualTime, minutesPerHour) != 0
	}
	f.SCH = scheduleViolated(r, f.SValid)

	return f
}

// scheduleViolated evaluates the SCH equation alone.
func scheduleViolated(r *models.FlightRecord, sValid bool) bool {
	if !sValid || !present(r.SchArr, r.SchDep) {
		return false
	}
	return elapsedResidual(*r.SchDep, *r.SchArr, *r.SchTime) != 0
}

// scheduleHolds reports whether the scheduled triple is complete, positive
// and satisfies SCH.
func scheduleHolds(r *models.FlightRecord) bool {
	if r.SchTime == nil || *r.SchTime <= 0 || !present(r.SchArr, r.SchDep) {
		return false
	}
	return elapsedResidual(*r.SchDep, *r.SchArr, *r.SchTime) == 0
}

// elapsedResidual is (SchArr - SchDep - SchTime) mod 60.
func elapsedResidual(schDep, schArr, schTime int) int {
	return mod(ToMinutes(schArr)-ToMinutes(schDep)-schTime, minutesPerHour)
}

// actualElapsed is the scheduled elapsed time implied by the actual fields:
// (ActualTime - ArrDelay + DepDelay) mod 1440.
func actualElapsed(r *models.FlightRecord) int {
	return mod(*r.ActualTime-*r.ArrDelay+*r.DepDelay, minutesPerDay)
}

func present(vs ...*int) bool {
	for _, v := range vs {
		if v == nil {
			return false
		}
	}
	return true
}
