package monitors

import (
	"fmt"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
	"golang.org/x/exp/slices"
)

// FileMonitor reads and writes monitor values from plain files in a
// directory, one file per feature. Useful for testing and for bridging
// hardware this daemon has no backend for.
//
// Slider features hold a raw value in <dir>/<feature>, with an optional
// <feature>_max file next to it (default 100). Input source and power
// mode hold their VCP code in <dir>/input and <dir>/power.
type FileMonitor struct {
	ID     string
	Config configuration.MonitorConfig

	Capabilities Capabilities

	MovingAvg float64
}

func (monitor *FileMonitor) GetId() string {
	return monitor.ID
}

func (monitor *FileMonitor) GetName() string {
	return monitor.ID
}

func (monitor *FileMonitor) GetConfig() configuration.MonitorConfig {
	return monitor.Config
}

func (monitor *FileMonitor) GetValue(feature vcp.Feature) (int, error) {
	if !slices.Contains(vcp.SliderFeatures, feature) {
		return 0, fmt.Errorf("%s is not a continuous feature", feature)
	}
	if !monitor.Supports(feature) {
		return 0, ErrNotSupported
	}

	filePath, err := monitor.featurePath(feature)
	if err != nil {
		return 0, err
	}
	value, err := util.ReadIntFromFile(filePath)
	if err != nil {
		return 0, err
	}
	return vcp.Percent(value, 0, monitor.featureMax(feature)), nil
}

func (monitor *FileMonitor) SetValue(feature vcp.Feature, percent int) error {
	if !slices.Contains(vcp.SliderFeatures, feature) {
		return fmt.Errorf("%s is not a continuous feature", feature)
	}
	if !monitor.Supports(feature) {
		return ErrNotSupported
	}

	filePath, err := monitor.featurePath(feature)
	if err != nil {
		return err
	}
	raw := vcp.Raw(percent, 0, monitor.featureMax(feature))
	return util.WriteIntToFileAtomic(raw, filePath)
}

func (monitor *FileMonitor) GetInputSource() (vcp.InputSource, error) {
	if !monitor.Capabilities.InputSource {
		return 0, ErrNotSupported
	}
	filePath, err := monitor.featurePath(vcp.FeatureInputSource)
	if err != nil {
		return 0, err
	}
	value, err := util.ReadIntFromFile(filePath)
	if err != nil {
		return 0, err
	}
	return vcp.InputSource(byte(value)), nil
}

func (monitor *FileMonitor) SetInputSource(source vcp.InputSource) error {
	if !monitor.Capabilities.InputSource {
		return ErrNotSupported
	}
	filePath, err := monitor.featurePath(vcp.FeatureInputSource)
	if err != nil {
		return err
	}
	return util.WriteIntToFileAtomic(int(source.Code()), filePath)
}

func (monitor *FileMonitor) GetPowerMode() (vcp.PowerMode, error) {
	if !monitor.Capabilities.PowerMode {
		return 0, ErrNotSupported
	}
	filePath, err := monitor.featurePath(vcp.FeaturePowerMode)
	if err != nil {
		return 0, err
	}
	value, err := util.ReadIntFromFile(filePath)
	if err != nil {
		return 0, err
	}
	return vcp.PowerMode(byte(value)), nil
}

func (monitor *FileMonitor) SetPowerMode(mode vcp.PowerMode) error {
	if !monitor.Capabilities.PowerMode {
		return ErrNotSupported
	}
	filePath, err := monitor.featurePath(vcp.FeaturePowerMode)
	if err != nil {
		return err
	}
	return util.WriteIntToFileAtomic(int(mode.Code()), filePath)
}

func (monitor *FileMonitor) Supports(feature vcp.Feature) bool {
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

// Probe derives the capabilities from the files present in the monitor
// directory. A brightness file must exist, everything else is optional.
func (monitor *FileMonitor) Probe() (Capabilities, error) {
	capabilities := Capabilities{ProbedAt: time.Now()}

	if _, err := monitor.readFeature(vcp.FeatureBrightness); err != nil {
		return capabilities, fmt.Errorf("monitor %s has no readable brightness file: %w", monitor.ID, err)
	}
	capabilities.BrightnessMax = monitor.readFeatureMax(vcp.FeatureBrightness)

	if _, err := monitor.readFeature(vcp.FeatureContrast); err == nil {
		capabilities.ContrastMax = monitor.readFeatureMax(vcp.FeatureContrast)
	}
	if _, err := monitor.readFeature(vcp.FeatureVolume); err == nil {
		capabilities.VolumeMax = monitor.readFeatureMax(vcp.FeatureVolume)
	}
	if _, err := monitor.readFeature(vcp.FeatureInputSource); err == nil {
		capabilities.InputSource = true
	}
	if _, err := monitor.readFeature(vcp.FeaturePowerMode); err == nil {
		capabilities.PowerMode = true
	}

	monitor.Capabilities = capabilities
	return capabilities, nil
}

func (monitor *FileMonitor) GetCapabilities() Capabilities {
	return monitor.Capabilities
}

func (monitor *FileMonitor) SetCapabilities(capabilities Capabilities) {
	monitor.Capabilities = capabilities
}

func (monitor *FileMonitor) GetMovingAvg() float64 {
	return monitor.MovingAvg
}

func (monitor *FileMonitor) SetMovingAvg(avg float64) {
	monitor.MovingAvg = avg
}

func (monitor *FileMonitor) readFeature(feature vcp.Feature) (int, error) {
	filePath, err := monitor.featurePath(feature)
	if err != nil {
		return 0, err
	}
	return util.ReadIntFromFile(filePath)
}

// readFeatureMax reads the optional <feature>_max file, falling back to
// treating the feature file content as a percentage.
func (monitor *FileMonitor) readFeatureMax(feature vcp.Feature) int {
	filePath, err := monitor.featurePath(feature)
	if err != nil {
		return MaxPercentValue
	}
	max, err := util.ReadIntFromFile(filePath + "_max")
	if err != nil || max <= 0 {
		return MaxPercentValue
	}
	return max
}

func (monitor *FileMonitor) featureMax(feature vcp.Feature) int {
	return monitor.Capabilities.FeatureMax(feature)
}

func (monitor *FileMonitor) featurePath(feature vcp.Feature) (string, error) {
	dirPath := monitor.Config.File.Path
	// resolve home dir path
	if strings.HasPrefix(dirPath, "~") {
		currentUser, err := user.Current()
		if err != nil {
			return "", err
		}
		dirPath = filepath.Join(currentUser.HomeDir, dirPath[1:])
	}

	var name string
	switch feature {
	case vcp.FeatureBrightness:
		name = "brightness"
	case vcp.FeatureContrast:
		name = "contrast"
	case vcp.FeatureVolume:
		name = "volume"
	case vcp.FeatureInputSource:
		name = "input"
	case vcp.FeaturePowerMode:
		name = "power"
	default:
		return "", fmt.Errorf("no file mapping for feature %s", feature)
	}

	return filepath.Join(dirPath, name), nil
}
