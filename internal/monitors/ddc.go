package monitors

import (
	"fmt"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/edid"
	"github.com/brightless/brightless/internal/vcp"
	"golang.org/x/exp/slices"
)

type DdcMonitor struct {
	ID string
	// Name is the display name decoded from the EDID.
	Name string
	// Bus is the I2C bus number the monitor answers DDC/CI requests on.
	Bus    int
	Config configuration.MonitorConfig

	// Identity is the EDID identity of the connected display, if the
	// connector exposed one.
	Identity *edid.Identity

	Client *ddcutil.Client

	Capabilities Capabilities

	MovingAvg float64
}

func (monitor *DdcMonitor) GetId() string {
	return monitor.ID
}

func (monitor *DdcMonitor) GetName() string {
	return monitor.Name
}

func (monitor *DdcMonitor) GetConfig() configuration.MonitorConfig {
	return monitor.Config
}

func (monitor *DdcMonitor) GetValue(feature vcp.Feature) (int, error) {
	if !slices.Contains(vcp.SliderFeatures, feature) {
		return 0, fmt.Errorf("%s is not a continuous feature", feature)
	}
	if !monitor.Supports(feature) {
		return 0, ErrNotSupported
	}

	value, err := monitor.Client.GetVCP(monitor.Bus, feature)
	if err != nil {
		return 0, err
	}
	return vcp.Percent(int(value.Current), 0, int(value.Maximum)), nil
}

func (monitor *DdcMonitor) SetValue(feature vcp.Feature, percent int) error {
	if !slices.Contains(vcp.SliderFeatures, feature) {
		return fmt.Errorf("%s is not a continuous feature", feature)
	}
	max := monitor.featureMax(feature)
	if max <= 0 {
		return ErrNotSupported
	}

	raw := vcp.Raw(percent, 0, max)
	return monitor.Client.SetVCP(monitor.Bus, feature, uint16(raw))
}

func (monitor *DdcMonitor) GetInputSource() (vcp.InputSource, error) {
	if !monitor.Capabilities.InputSource {
		return 0, ErrNotSupported
	}
	value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeatureInputSource)
	if err != nil {
		return 0, err
	}
	// the selector lives in the low byte, some monitors set reserved
	// bits in the high byte
	return vcp.InputSource(byte(value.Current)), nil
}

func (monitor *DdcMonitor) SetInputSource(source vcp.InputSource) error {
	if !monitor.Capabilities.InputSource {
		return ErrNotSupported
	}
	return monitor.Client.SetVCP(monitor.Bus, vcp.FeatureInputSource, uint16(source.Code()))
}

func (monitor *DdcMonitor) GetPowerMode() (vcp.PowerMode, error) {
	if !monitor.Capabilities.PowerMode {
		return 0, ErrNotSupported
	}
	value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeaturePowerMode)
	if err != nil {
		return 0, err
	}
	return vcp.PowerMode(byte(value.Current)), nil
}

func (monitor *DdcMonitor) SetPowerMode(mode vcp.PowerMode) error {
	if !monitor.Capabilities.PowerMode {
		return ErrNotSupported
	}
	return monitor.Client.SetVCP(monitor.Bus, vcp.FeaturePowerMode, uint16(mode.Code()))
}

func (monitor *DdcMonitor) Supports(feature vcp.Feature) bool {
	switch feature {
	case vcp.FeatureBrightness, vcp.FeatureContrast, vcp.FeatureVolume:
		return monitor.featureMax(feature) > 0
	case vcp.FeatureInputSource:
		return monitor.Capabilities.InputSource
	case vcp.FeaturePowerMode:
		return monitor.Capabilities.PowerMode
	}
	return false
}

// Probe reads every known feature once. Brightness must answer, it is the
// canary for DDC/CI support as a whole. The other features are optional
// and marked unsupported when the monitor reports an error or an
// implausible value.
func (monitor *DdcMonitor) Probe() (Capabilities, error) {
	capabilities := Capabilities{ProbedAt: time.Now()}

	brightness, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeatureBrightness)
	if err != nil {
		return capabilities, fmt.Errorf("monitor %s did not answer brightness probe: %w", monitor.ID, err)
	}
	capabilities.BrightnessMax = int(brightness.Maximum)

	if value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeatureContrast); err == nil {
		capabilities.ContrastMax = int(value.Maximum)
	}
	if value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeatureVolume); err == nil {
		capabilities.VolumeMax = int(value.Maximum)
	}

	// monitors without input switching or DPM tend to answer these
	// requests anyway, so the answer is checked for plausibility
	if value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeatureInputSource); err == nil {
		capabilities.InputSource = vcp.PlausibleInputSource(value.Current)
	}
	if value, err := monitor.Client.GetVCP(monitor.Bus, vcp.FeaturePowerMode); err == nil {
		capabilities.PowerMode = vcp.PlausiblePowerMode(value.Current)
	}

	monitor.Capabilities = capabilities
	return capabilities, nil
}

func (monitor *DdcMonitor) GetCapabilities() Capabilities {
	return monitor.Capabilities
}

func (monitor *DdcMonitor) SetCapabilities(capabilities Capabilities) {
	monitor.Capabilities = capabilities
}

func (monitor *DdcMonitor) GetMovingAvg() float64 {
	return monitor.MovingAvg
}

func (monitor *DdcMonitor) SetMovingAvg(avg float64) {
	monitor.MovingAvg = avg
}

func (monitor *DdcMonitor) featureMax(feature vcp.Feature) int {
	return monitor.Capabilities.FeatureMax(feature)
}
