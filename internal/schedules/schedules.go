package schedules

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	ScheduleMap = cmap.New[*Schedule]()
)

// Schedule maps times of day to brightness percentages. Between the
// defined points the target is interpolated linearly, the segment between
// the last point of the day and the first point of the next wraps around
// midnight.
type Schedule struct {
	Config configuration.ScheduleConfig

	points []point
}

type point struct {
	minute  int
	percent int
}

func NewSchedule(config configuration.ScheduleConfig) (*Schedule, error) {
	points := make([]point, 0, len(config.Points))
	for clock, percent := range config.Points {
		minute, err := util.ParseClockTime(clock)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %s", config.ID, err)
		}
		points = append(points, point{minute: minute, percent: percent})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].minute < points[j].minute
	})
	// "9:00" and "09:00" are different map keys but the same minute
	for i := 1; i < len(points); i++ {
		if points[i].minute == points[i-1].minute {
			return nil, fmt.Errorf("schedule %s: duplicate point at %s", config.ID, util.FormatClockTime(points[i].minute))
		}
	}

	return &Schedule{
		Config: config,
		points: points,
	}, nil
}

func (schedule *Schedule) GetId() string {
	return schedule.Config.ID
}

// Evaluate returns the target percentage at the given time.
func (schedule *Schedule) Evaluate(at time.Time) int {
	return schedule.EvaluateAtMinute(at.Hour()*60 + at.Minute())
}

// EvaluateAtMinute returns the target percentage at the given minute of day.
func (schedule *Schedule) EvaluateAtMinute(minuteOfDay int) int {
	points := schedule.points
	if len(points) == 0 {
		return 0
	}
	if len(points) == 1 {
		return points[0].percent
	}

	first := points[0]
	last := points[len(points)-1]

	if minuteOfDay < first.minute || minuteOfDay >= last.minute {
		// wrap segment between the last point of the day and the first
		// point of the next
		next := point{minute: first.minute + util.MinutesPerDay, percent: first.percent}
		if minuteOfDay < first.minute {
			minuteOfDay += util.MinutesPerDay
		}
		return interpolate(last, next, minuteOfDay)
	}

	for i := 0; i < len(points)-1; i++ {
		if minuteOfDay >= points[i].minute && minuteOfDay < points[i+1].minute {
			return interpolate(points[i], points[i+1], minuteOfDay)
		}
	}

	return last.percent
}

// NextPoint returns the next defined point in time strictly after the
// given time, wrapping to the next day when no point is left today.
func (schedule *Schedule) NextPoint(after time.Time) time.Time {
	minuteOfDay := after.Hour()*60 + after.Minute()
	dayStart := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, after.Location())

	for _, p := range schedule.points {
		if p.minute > minuteOfDay {
			return dayStart.Add(time.Duration(p.minute) * time.Minute)
		}
	}

	return dayStart.Add(24 * time.Hour).Add(time.Duration(schedule.points[0].minute) * time.Minute)
}

func interpolate(prev point, next point, minuteOfDay int) int {
	ratio := util.Ratio(float64(minuteOfDay), float64(prev.minute), float64(next.minute))
	return int(math.Round(float64(prev.percent) + ratio*float64(next.percent-prev.percent)))
}
