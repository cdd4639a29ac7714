package monitors

import (
	"errors"
	"fmt"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/vcp"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	MaxPercentValue = 100
	MinPercentValue = 0
)

var (
	// ErrNotSupported is returned when a monitor does not support the
	// requested feature.
	ErrNotSupported = errors.New("feature not supported by this monitor")
	// ErrUnreachable is returned when a monitor has repeatedly failed to
	// answer and has been marked offline.
	ErrUnreachable = errors.New("monitor is unreachable")
)

var (
	MonitorMap = cmap.New[Monitor]()
)

// Capabilities describes which features a monitor supports. A continuous
// feature is supported when its raw maximum is greater than zero.
type Capabilities struct {
	BrightnessMax int `json:"brightnessMax"`
	ContrastMax   int `json:"contrastMax"`
	VolumeMax     int `json:"volumeMax"`

	InputSource bool `json:"inputSource"`
	PowerMode   bool `json:"powerMode"`

	ProbedAt time.Time `json:"probedAt"`
}

// FeatureMax returns the raw maximum of a continuous feature, 0 for
// unsupported or non-continuous features.
func (c Capabilities) FeatureMax(feature vcp.Feature) int {
	switch feature {
	case vcp.FeatureBrightness:
		return c.BrightnessMax
	case vcp.FeatureContrast:
		return c.ContrastMax
	case vcp.FeatureVolume:
		return c.VolumeMax
	}
	return 0
}

// CapabilitiesKey returns the key a monitor's cached capabilities are
// stored under: the EDID identity when known, the monitor id otherwise.
// Keyed on the identity, the cache follows a monitor across connectors.
func CapabilitiesKey(monitor Monitor) string {
	if ddcMonitor, ok := monitor.(*DdcMonitor); ok && ddcMonitor.Identity != nil {
		return ddcMonitor.Identity.Key()
	}
	return monitor.GetId()
}

type Monitor interface {
	GetId() string

	// GetName returns the human readable monitor name from the EDID, if known.
	GetName() string

	GetConfig() configuration.MonitorConfig

	// GetValue returns the current value of a continuous feature in percent.
	GetValue(feature vcp.Feature) (int, error)
	// SetValue sets a continuous feature to the given percentage.
	SetValue(feature vcp.Feature, percent int) error

	GetInputSource() (vcp.InputSource, error)
	SetInputSource(source vcp.InputSource) error

	GetPowerMode() (vcp.PowerMode, error)
	SetPowerMode(mode vcp.PowerMode) error

	// Supports reports whether the given feature can be read and written.
	Supports(feature vcp.Feature) bool

	// Probe queries the monitor for all known features and updates its
	// capabilities from the answers.
	Probe() (Capabilities, error)
	GetCapabilities() Capabilities
	SetCapabilities(capabilities Capabilities)

	// GetMovingAvg returns the moving average of this monitor's brightness
	GetMovingAvg() float64
	SetMovingAvg(avg float64)
}

func NewMonitor(config configuration.MonitorConfig) (Monitor, error) {
	if config.Ddc != nil {
		bus := -1
		if config.Ddc.Bus != nil {
			bus = *config.Ddc.Bus
		}
		return &DdcMonitor{
			ID:     config.ID,
			Bus:    bus,
			Config: config,
		}, nil
	}

	if config.Backlight != nil {
		return &BacklightMonitor{
			ID:     config.ID,
			Device: config.Backlight.Device,
			Config: config,
		}, nil
	}

	if config.File != nil {
		return &FileMonitor{
			ID:     config.ID,
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching monitor type for monitor: %s", config.ID)
}
