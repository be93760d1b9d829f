package schedule

import (
	"math"
	"sort"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/internal/stats"
)

const (
	// Routes with fewer flights compare every flight against the median.
	minQuartileSamples = 20
	// Upper bound on the fence width so wide routes still get checked.
	maxFenceMinutes = 30
)

// RouteStats describes the elapsed-time spread of one route in a batch.
type RouteStats struct {
	Origin  int64   `json:"origin_airport_id"`
	Dest    int64   `json:"dest_airport_id"`
	N       int     `json:"n"`
	Median  float64 `json:"median"`
	Q1      float64 `json:"q1"`
	Q3      float64 `json:"q3"`
	IQR     float64 `json:"iqr"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Flagged int     `json:"flagged"`
	Shifted int     `json:"shifted"`
}

// NormalizeReport summarizes an outlier pass over a batch.
type NormalizeReport struct {
	Routes      int          `json:"routes"`
	SmallRoutes int          `json:"small_routes"`
	Flagged     int          `json:"flagged"`
	Shifted     int          `json:"shifted"`
	RouteStats  []RouteStats `json:"route_stats,omitempty"`
}

// ComputeRouteStats derives median, quartiles and capped IQR from the
// elapsed times of one route.
func ComputeRouteStats(key models.RouteKey, elapsed []float64) RouteStats {
	rs := RouteStats{
		Origin: key.Origin,
		Dest:   key.Dest,
		N:      len(elapsed),
		Median: stats.Median(elapsed),
		Min:    stats.Min(elapsed),
		Max:    stats.Max(elapsed),
	}
	if rs.N < minQuartileSamples {
		rs.Q1, rs.Q3 = rs.Median, rs.Median
	} else {
		rs.Q1, rs.Q3 = stats.RankQuartiles(elapsed)
	}
	rs.IQR = stats.CappedIQR(rs.Q1, rs.Q3, maxFenceMinutes)
	return rs
}

// IsOutlier reports whether schTime sits on or beyond the route fences.
func (rs RouteStats) IsOutlier(schTime int) bool {
	return stats.OutsideFences(float64(schTime), rs.Q1, rs.Q3, rs.IQR)
}

// SnapToMedian shifts schTime by the multiple of 60 minutes that lands
// closest to median. Halves round to even. The result stays positive for
// positive input: a shift that would reach zero is reduced by whole hours.
func SnapToMedian(schTime int, median float64) int {
	hours := math.RoundToEven((median - float64(schTime)) / minutesPerHour)
	snapped := schTime + minutesPerHour*int(hours)
	for schTime > 0 && snapped <= 0 {
		snapped += minutesPerHour
	}
	return snapped
}

// groupByRoute returns flight indices per route and the routes in first-seen
// order.
func groupByRoute(flights []models.CleanFlight) (map[models.RouteKey][]int, []models.RouteKey) {
	groups := make(map[models.RouteKey][]int)
	var order []models.RouteKey
	for i := range flights {
		key := flights[i].Route()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return groups, order
}

// normalizeGroup rewrites the outliers of one route in out. It touches only
// the indices in idx.
func normalizeGroup(key models.RouteKey, idx []int, out []models.CleanFlight) RouteStats {
	elapsed := make([]float64, len(idx))
	for i, j := range idx {
		elapsed[i] = float64(out[j].SchTime)
	}

	rs := ComputeRouteStats(key, elapsed)
	for _, j := range idx {
		if !rs.IsOutlier(out[j].SchTime) {
			continue
		}
		rs.Flagged++
		snapped := SnapToMedian(out[j].SchTime, rs.Median)
		if snapped != out[j].SchTime {
			out[j].SchTime = snapped
			rs.Shifted++
		}
	}
	return rs
}

func summarize(all []RouteStats) NormalizeReport {
	report := NormalizeReport{Routes: len(all)}
	for _, rs := range all {
		if rs.N < minQuartileSamples {
			report.SmallRoutes++
		}
		report.Flagged += rs.Flagged
		report.Shifted += rs.Shifted
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Origin != all[j].Origin {
			return all[i].Origin < all[j].Origin
		}
		return all[i].Dest < all[j].Dest
	})
	report.RouteStats = all
	return report
}
