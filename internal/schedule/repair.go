package schedule

import "github.com/jengzang/flight-schedule-go/internal/models"

// Options tune the repair pipeline.
type Options struct {
	// ArrivalFillFromArrival derives a missing SchArr from ArrTime and
	// ArrDelay. When false a missing SchArr is derived from DepTime and
	// DepDelay, which is what the historical cleaner did. The departure
	// derivation is kept as the default until its intent is confirmed.
	ArrivalFillFromArrival bool
}

// RepairReport counts what the repair pipeline did to a batch.
type RepairReport struct {
	Input              int `json:"input"`
	SelfLoops          int `json:"self_loops"`
	InvalidClockFields int `json:"invalid_clock_fields"`
	FilledSchDep       int `json:"filled_sch_dep"`
	FilledSchArr       int `json:"filled_sch_arr"`
	DerivedFromActual  int `json:"derived_from_actual"`
	ElapsedSnaps       int `json:"elapsed_snaps"`
	DepartureRederived int `json:"departure_rederived"`
	ArrivalRederived   int `json:"arrival_rederived"`
	ElapsedRederived   int `json:"elapsed_rederived"`
	TimezoneSnaps      int `json:"timezone_snaps"`
	Dropped            int `json:"dropped"`
	Output             int `json:"output"`
}

func (r *RepairReport) add(o RepairReport) {
	r.Input += o.Input
	r.SelfLoops += o.SelfLoops
	r.InvalidClockFields += o.InvalidClockFields
	r.FilledSchDep += o.FilledSchDep
	r.FilledSchArr += o.FilledSchArr
	r.DerivedFromActual += o.DerivedFromActual
	r.ElapsedSnaps += o.ElapsedSnaps
	r.DepartureRederived += o.DepartureRederived
	r.ArrivalRederived += o.ArrivalRederived
	r.ElapsedRederived += o.ElapsedRederived
	r.TimezoneSnaps += o.TimezoneSnaps
	r.Dropped += o.Dropped
	r.Output += o.Output
}

// workingRecord is the mutable copy a record is repaired on. Optional fields
// are only ever replaced, never written through, so the caller's record is
// left untouched.
type workingRecord struct {
	rec       models.FlightRecord
	flags     Flags
	hasTiming bool
	report    *RepairReport
}

// repairStage is one named step of the pipeline. apply runs only when when
// holds against the flags of the latest evaluate stage.
type repairStage struct {
	name  string
	when  func(f Flags) bool
	apply func(w *workingRecord)
}

// Repairer runs the ordered repair stages over single records.
//
// The per-field re-derivations and the time-zone snap only run when SCH is
// violated. A record whose scheduled triple already agrees keeps its
// SchDep and SchArr even when D or A fails against the actual fields.
type Repairer struct {
	opts   Options
	stages []repairStage
}

// NewRepairer builds the stage pipeline.
func NewRepairer(opts Options) *Repairer {
	p := &Repairer{opts: opts}
	p.stages = []repairStage{
		// Clock fields outside hhmm range are treated as missing.
		{name: "sanitize-clock-fields", when: always, apply: sanitizeClockFields},

		// Fill SchDep/SchArr when blank; D and A then hold by construction.
		{name: "fill-missing-departure", when: always, apply: fillMissingDeparture},
		{name: "fill-missing-arrival", when: always, apply: p.fillMissingArrival},

		{name: "evaluate", when: always, apply: evaluate},

		// SchTime unusable, actual data trusted: D, A and TZ are assumed
		// to hold, so the actual fields determine the scheduled triple.
		{name: "derive-from-actual", when: func(f Flags) bool {
			return !f.SValid && f.AValid
		}, apply: deriveFromActual},

		// No actual data to check against: only SchTime can be moved.
		{name: "snap-elapsed-only", when: func(f Flags) bool {
			return f.SValid && !f.AValid && f.SCH
		}, apply: snapElapsed(func(r *RepairReport) { r.ElapsedSnaps++ })},

		// Both elapsed times usable and SCH fails: repair each field whose
		// own equation fails. All four stages read the same flags.
		{name: "rederive-departure", when: func(f Flags) bool {
			return bothValid(f) && f.SCH && f.D
		}, apply: rederiveDeparture},
		{name: "rederive-arrival", when: func(f Flags) bool {
			return bothValid(f) && f.SCH && f.A
		}, apply: rederiveArrival},
		{name: "rederive-elapsed", when: func(f Flags) bool {
			return bothValid(f) && f.SCH && f.ACT && !f.TZ
		}, apply: rederiveElapsed},

		// TZ and SCH both failing is the signature of a time-zone drift
		// in SchTime; snap it instead of trusting ActualTime.
		{name: "snap-timezone-drift", when: func(f Flags) bool {
			return bothValid(f) && f.SCH && f.TZ
		}, apply: snapElapsed(func(r *RepairReport) { r.TimezoneSnaps++ })},

		{name: "re-evaluate", when: always, apply: evaluate},
	}
	return p
}

// StageNames lists the pipeline stages in execution order.
func (p *Repairer) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// RepairRecord runs every stage over a copy of rec and returns the repaired
// copy with its final flags. Self-loop records are the caller's concern.
func (p *Repairer) RepairRecord(rec models.FlightRecord, report *RepairReport) (models.FlightRecord, Flags) {
	w, _ := p.run(rec, report)
	return w.rec, w.flags
}

func (p *Repairer) run(rec models.FlightRecord, report *RepairReport) (*workingRecord, bool) {
	w := &workingRecord{rec: rec, report: report}
	for _, s := range p.stages {
		if s.when(w.flags) {
			s.apply(w)
		}
	}
	return w, w.hasTiming
}

func always(Flags) bool { return true }

func bothValid(f Flags) bool { return f.SValid && f.AValid }

func evaluate(w *workingRecord) {
	w.flags = Evaluate(&w.rec)
}

func sanitizeClockFields(w *workingRecord) {
	r := &w.rec
	for _, field := range []**int{&r.SchDep, &r.DepTime, &r.SchArr, &r.ArrTime} {
		if *field == nil {
			continue
		}
		if _, err := ParseClock(**field); err != nil {
			*field = nil
			w.report.InvalidClockFields++
		}
	}
	w.hasTiming = !allMissing(r.SchDep, r.DepTime, r.DepDelay, r.SchArr, r.ArrTime, r.ArrDelay, r.SchTime, r.ActualTime)
}

func fillMissingDeparture(w *workingRecord) {
	r := &w.rec
	if r.SchDep != nil || !present(r.DepTime, r.DepDelay) {
		return
	}
	r.SchDep = models.Int(shiftClock(*r.DepTime, *r.DepDelay))
	w.report.FilledSchDep++
}

func (p *Repairer) fillMissingArrival(w *workingRecord) {
	r := &w.rec
	if r.SchArr != nil || !present(r.ArrTime, r.ArrDelay) {
		return
	}
	if p.opts.ArrivalFillFromArrival {
		r.SchArr = models.Int(shiftClock(*r.ArrTime, *r.ArrDelay))
	} else {
		if !present(r.DepTime, r.DepDelay) {
			return
		}
		r.SchArr = models.Int(shiftClock(*r.DepTime, *r.DepDelay))
	}
	w.report.FilledSchArr++
}

func deriveFromActual(w *workingRecord) {
	r := &w.rec
	if present(r.DepTime, r.DepDelay) {
		r.SchDep = models.Int(shiftClock(*r.DepTime, *r.DepDelay))
	}
	if present(r.ArrTime, r.ArrDelay) {
		r.SchArr = models.Int(shiftClock(*r.ArrTime, *r.ArrDelay))
	}
	if present(r.ArrDelay, r.DepDelay) {
		r.SchTime = models.Int(actualElapsed(r))
	}
	w.report.DerivedFromActual++
}

func rederiveDeparture(w *workingRecord) {
	r := &w.rec
	r.SchDep = models.Int(shiftClock(*r.DepTime, *r.DepDelay))
	w.report.DepartureRederived++
}

func rederiveArrival(w *workingRecord) {
	r := &w.rec
	r.SchArr = models.Int(shiftClock(*r.ArrTime, *r.ArrDelay))
	w.report.ArrivalRederived++
}

func rederiveElapsed(w *workingRecord) {
	r := &w.rec
	r.SchTime = models.Int(actualElapsed(r))
	w.report.ElapsedRederived++
}

func snapElapsed(count func(*RepairReport)) func(w *workingRecord) {
	return func(w *workingRecord) {
		r := &w.rec
		if !present(r.SchDep, r.SchArr, r.SchTime) {
			return
		}
		r.SchTime = models.Int(SnapElapsed(*r.SchDep, *r.SchArr, *r.SchTime))
		count(w.report)
	}
}

// SnapElapsed moves schTime into the 60-minute residue class implied by
// schDep and schArr. Of the two candidates one hour apart it takes
// schTime+residual-60 unless residual < 30 or that candidate is below 60
// minutes, in which case it takes schTime+residual. A residual of exactly
// 30 takes the downward shift. Already consistent values are unchanged.
func SnapElapsed(schDep, schArr, schTime int) int {
	residual := elapsedResidual(schDep, schArr, schTime)
	snapped := schTime + residual - minutesPerHour
	if residual < 30 || snapped < minutesPerHour {
		snapped += minutesPerHour
	}
	return snapped
}

func allMissing(vs ...*int) bool {
	for _, v := range vs {
		if v != nil {
			return false
		}
	}
	return true
}
