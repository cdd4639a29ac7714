package monitors

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
)

const BacklightClassPath = "/sys/class/backlight"

// BacklightMonitor controls an internal panel through the kernel
// backlight class. Only brightness is available on this path.
type BacklightMonitor struct {
	ID     string
	Device string
	Config configuration.MonitorConfig

	// ClassPath overrides the sysfs backlight class path, used in tests.
	ClassPath string

	Capabilities Capabilities

	MovingAvg float64
}

func (monitor *BacklightMonitor) GetId() string {
	return monitor.ID
}

func (monitor *BacklightMonitor) GetName() string {
	return monitor.Device
}

func (monitor *BacklightMonitor) GetConfig() configuration.MonitorConfig {
	return monitor.Config
}

func (monitor *BacklightMonitor) GetValue(feature vcp.Feature) (int, error) {
	if feature != vcp.FeatureBrightness {
		return 0, ErrNotSupported
	}
	max, err := monitor.maxBrightness()
	if err != nil {
		return 0, err
	}
	current, err := util.ReadIntFromFile(monitor.attributePath("brightness"))
	if err != nil {
		return 0, err
	}
	return vcp.Percent(current, 0, max), nil
}

func (monitor *BacklightMonitor) SetValue(feature vcp.Feature, percent int) error {
	if feature != vcp.FeatureBrightness {
		return ErrNotSupported
	}
	max, err := monitor.maxBrightness()
	if err != nil {
		return err
	}
	raw := vcp.Raw(percent, 0, max)
	// sysfs attributes cannot be replaced, so this must be a plain write
	return util.WriteIntToFile(raw, monitor.attributePath("brightness"))
}

func (monitor *BacklightMonitor) GetInputSource() (vcp.InputSource, error) {
	return 0, ErrNotSupported
}

func (monitor *BacklightMonitor) SetInputSource(source vcp.InputSource) error {
	return ErrNotSupported
}

func (monitor *BacklightMonitor) GetPowerMode() (vcp.PowerMode, error) {
	return 0, ErrNotSupported
}

func (monitor *BacklightMonitor) SetPowerMode(mode vcp.PowerMode) error {
	return ErrNotSupported
}

func (monitor *BacklightMonitor) Supports(feature vcp.Feature) bool {
	return feature == vcp.FeatureBrightness
}

func (monitor *BacklightMonitor) Probe() (Capabilities, error) {
	max, err := util.ReadIntFromFile(monitor.attributePath("max_brightness"))
	if err != nil {
		return Capabilities{}, fmt.Errorf("backlight device %s: %s", monitor.Device, err)
	}
	monitor.Capabilities = Capabilities{
		BrightnessMax: max,
		ProbedAt:      time.Now(),
	}
	return monitor.Capabilities, nil
}

func (monitor *BacklightMonitor) GetCapabilities() Capabilities {
	return monitor.Capabilities
}

func (monitor *BacklightMonitor) SetCapabilities(capabilities Capabilities) {
	monitor.Capabilities = capabilities
}

func (monitor *BacklightMonitor) GetMovingAvg() float64 {
	return monitor.MovingAvg
}

func (monitor *BacklightMonitor) SetMovingAvg(avg float64) {
	monitor.MovingAvg = avg
}

func (monitor *BacklightMonitor) maxBrightness() (int, error) {
	if monitor.Capabilities.BrightnessMax > 0 {
		return monitor.Capabilities.BrightnessMax, nil
	}
	max, err := util.ReadIntFromFile(monitor.attributePath("max_brightness"))
	if err != nil {
		return 0, err
	}
	monitor.Capabilities.BrightnessMax = max
	return max, nil
}

func (monitor *BacklightMonitor) attributePath(attribute string) string {
	classPath := monitor.ClassPath
	if classPath == "" {
		classPath = BacklightClassPath
	}
	return filepath.Join(classPath, monitor.Device, attribute)
}
