package configuration

type ScheduleConfig struct {
	// ID is the unique identifier of this schedule.
	ID string `json:"id"`

	// Points maps a time of day in "HH:MM" format to a brightness
	// percentage in [0..100]. Between points the value is interpolated
	// linearly, wrapping around midnight.
	Points map[string]int `json:"points"`
}
