package analytics

import (
	"sort"
	"time"

	"fleetcheck-backend/internal/inspection"
	"fleetcheck-backend/internal/model"
)

// Aggregation is pure and stateless: it runs over a snapshot of records and
// vehicles, takes no locks, and may be recomputed concurrently with writes.

// DateRange is an inclusive calendar-date filter. A nil bound leaves that
// side unbounded. Comparison is by calendar date in the configured reference
// time zone, never by time-of-day.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// VehicleStats summarizes the checklist records of one vehicle.
type VehicleStats struct {
	VehicleID       int64   `json:"vehicleId"`
	Plate           string  `json:"plate"`
	TotalChecklists int     `json:"totalChecklists"`
	TotalKm         float64 `json:"totalKm"`
	AvgKmPerTrip    float64 `json:"avgKmPerTrip"`
}

// DailyTrendPoint is one calendar day of the fleet trend.
type DailyTrendPoint struct {
	Date    string  `json:"date"`
	Trips   int     `json:"trips"`
	Closed  int     `json:"closed"`
	TotalKm float64 `json:"totalKm"`
}

// FleetSummary is the fleet-wide roll-up over a filtered record set.
type FleetSummary struct {
	TotalChecklists  int               `json:"totalChecklists"`
	OpenCount        int               `json:"openCount"`
	ClosedCount      int               `json:"closedCount"`
	CompletenessRate float64           `json:"completenessRate"`
	TotalKm          float64           `json:"totalKm"`
	AvgKmPerTrip     float64           `json:"avgKmPerTrip"`
	VehiclesOut      int               `json:"vehiclesOut"`
	NonCompliant     int               `json:"nonCompliant"`
	PerVehicle       []VehicleStats    `json:"perVehicle"`
	DailyTrend       []DailyTrendPoint `json:"dailyTrend"`
}

// FilterByDate keeps the records whose start date's calendar day, in loc,
// falls inside the inclusive range.
func FilterByDate(records []model.ChecklistRecord, r DateRange, loc *time.Location) []model.ChecklistRecord {
	if loc == nil {
		loc = time.UTC
	}

	var out []model.ChecklistRecord
	for _, rec := range records {
		day := dateOnly(rec.StartDate, loc)
		if r.Start != nil && day.Before(dateOnly(*r.Start, loc)) {
			continue
		}
		if r.End != nil && day.After(dateOnly(*r.End, loc)) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// tripDistance returns the closed-trip distance of a record, or 0 when the
// record is open or its mileage pair is inconsistent, and whether the record
// contributed to distance totals.
func tripDistance(rec model.ChecklistRecord) (float64, bool) {
	if rec.KmFinal == nil {
		return 0, false
	}
	d := *rec.KmFinal - rec.KmInitial
	if d < 0 {
		return 0, false
	}
	return d, true
}

// PerVehicle groups records by vehicle and computes usage statistics,
// sorted by plate ascending. Vehicles without records in the set are
// omitted.
func PerVehicle(records []model.ChecklistRecord, vehicles []model.Vehicle) []VehicleStats {
	plates := make(map[int64]string, len(vehicles))
	for _, v := range vehicles {
		plates[v.ID] = v.Plate
	}

	type acc struct {
		stats        VehicleStats
		contributing int
	}
	byVehicle := make(map[int64]*acc)
	for _, rec := range records {
		a, ok := byVehicle[rec.VehicleID]
		if !ok {
			a = &acc{stats: VehicleStats{VehicleID: rec.VehicleID, Plate: plates[rec.VehicleID]}}
			byVehicle[rec.VehicleID] = a
		}
		a.stats.TotalChecklists++
		if d, ok := tripDistance(rec); ok {
			a.stats.TotalKm += d
			a.contributing++
		}
	}

	stats := make([]VehicleStats, 0, len(byVehicle))
	for _, a := range byVehicle {
		if a.contributing > 0 {
			a.stats.AvgKmPerTrip = a.stats.TotalKm / float64(a.contributing)
		}
		stats = append(stats, a.stats)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Plate != stats[j].Plate {
			return stats[i].Plate < stats[j].Plate
		}
		return stats[i].VehicleID < stats[j].VehicleID
	})
	return stats
}

// NonCompliant flags a closed record whose return inspection carries a
// non-empty notes entry. Open records and unparsable mappings are compliant;
// notes at return time are the proxy for "issue flagged".
func NonCompliant(rec model.ChecklistRecord) bool {
	if rec.Status != model.ChecklistClosedStatus || rec.InspectionEnd == nil {
		return false
	}
	return inspection.Notes(inspection.DecodeMap(*rec.InspectionEnd)) != ""
}

// Summarize builds the fleet summary over an already-filtered record set.
func Summarize(records []model.ChecklistRecord, vehicles []model.Vehicle, loc *time.Location) FleetSummary {
	if loc == nil {
		loc = time.UTC
	}

	summary := FleetSummary{
		TotalChecklists: len(records),
		PerVehicle:      PerVehicle(records, vehicles),
	}

	activeVehicles := make(map[int64]bool, len(vehicles))
	for _, v := range vehicles {
		if v.Status == model.VehicleActive {
			activeVehicles[v.ID] = true
		}
	}

	vehiclesOut := make(map[int64]bool)
	trend := make(map[string]*DailyTrendPoint)
	contributing := 0
	for _, rec := range records {
		day := dateOnly(rec.StartDate, loc).Format("2006-01-02")
		point, ok := trend[day]
		if !ok {
			point = &DailyTrendPoint{Date: day}
			trend[day] = point
		}
		point.Trips++

		if rec.Status == model.ChecklistClosedStatus {
			summary.ClosedCount++
			point.Closed++
		} else {
			summary.OpenCount++
			if activeVehicles[rec.VehicleID] {
				vehiclesOut[rec.VehicleID] = true
			}
		}

		if d, ok := tripDistance(rec); ok {
			summary.TotalKm += d
			point.TotalKm += d
			contributing++
		}

		if NonCompliant(rec) {
			summary.NonCompliant++
		}
	}

	if summary.TotalChecklists > 0 {
		summary.CompletenessRate = float64(summary.ClosedCount) / float64(summary.TotalChecklists)
	}
	if contributing > 0 {
		summary.AvgKmPerTrip = summary.TotalKm / float64(contributing)
	}
	summary.VehiclesOut = len(vehiclesOut)

	days := make([]string, 0, len(trend))
	for day := range trend {
		days = append(days, day)
	}
	sort.Strings(days)
	summary.DailyTrend = make([]DailyTrendPoint, 0, len(days))
	for _, day := range days {
		summary.DailyTrend = append(summary.DailyTrend, *trend[day])
	}

	return summary
}

// dateOnly truncates t to its calendar day in loc.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
