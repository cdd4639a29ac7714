package configuration

type MonitorConfig struct {
	// ID is the unique identifier of the monitor within brightless.
	// Detected monitors that are not matched by any entry use their
	// DRM connector name as id.
	ID string `json:"id"`

	Ddc       *DdcMonitorConfig       `json:"ddc,omitempty"`
	Backlight *BacklightMonitorConfig `json:"backlight,omitempty"`
	File      *FileMonitorConfig      `json:"file,omitempty"`

	// Schedule references a ScheduleConfig id.
	Schedule string `json:"schedule,omitempty"`

	// Restore enables state restoration on startup and resume for this
	// monitor, defaults to true.
	Restore DefaultTrueBool `json:"restore,omitempty"`
}

type DdcMonitorConfig struct {
	// Connector is a regex matched against the DRM connector name,
	// f.ex. "card0-DP-1" or "HDMI-A-.*".
	Connector string `json:"connector,omitempty"`
	// Name is a regex matched against the EDID display name,
	// f.ex. "DELL U2720Q".
	Name string `json:"name,omitempty"`
	// Bus pins this monitor to a specific I2C bus, bypassing matching.
	Bus *int `json:"bus,omitempty"`
}

type BacklightMonitorConfig struct {
	// Device is the name of a backlight device below /sys/class/backlight,
	// f.ex. "intel_backlight".
	Device string `json:"device"`
}

type FileMonitorConfig struct {
	// Path is a directory holding one plain file per feature
	// (brightness, contrast, volume, input, power), sliders with an
	// optional <feature>_max file next to them.
	Path string `json:"path"`
}
