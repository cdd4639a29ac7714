package monitors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/stretchr/testify/assert"
)

func createFileMonitor(t *testing.T, files map[string]string) *FileMonitor {
	dirPath := t.TempDir()
	for name, content := range files {
		err := os.WriteFile(filepath.Join(dirPath, name), []byte(content), 0644)
		assert.NoError(t, err)
	}

	monitor := &FileMonitor{
		ID: "file",
		Config: configuration.MonitorConfig{
			ID: "file",
			File: &configuration.FileMonitorConfig{
				Path: dirPath,
			},
		},
	}
	if _, ok := files["brightness"]; ok {
		_, err := monitor.Probe()
		assert.NoError(t, err)
	}
	return monitor
}

func createBacklightMonitor(t *testing.T, brightness string, maxBrightness string) *BacklightMonitor {
	classPath := t.TempDir()
	devicePath := filepath.Join(classPath, "intel_backlight")
	err := os.MkdirAll(devicePath, 0755)
	assert.NoError(t, err)
	err = os.WriteFile(filepath.Join(devicePath, "brightness"), []byte(brightness), 0644)
	assert.NoError(t, err)
	err = os.WriteFile(filepath.Join(devicePath, "max_brightness"), []byte(maxBrightness), 0644)
	assert.NoError(t, err)

	return &BacklightMonitor{
		ID:        "laptop",
		Device:    "intel_backlight",
		ClassPath: classPath,
		Config: configuration.MonitorConfig{
			ID: "laptop",
			Backlight: &configuration.BacklightMonitorConfig{
				Device: "intel_backlight",
			},
		},
	}
}

func TestNewMonitorDdc(t *testing.T) {
	// GIVEN
	config := configuration.MonitorConfig{
		ID: "monitor",
		Ddc: &configuration.DdcMonitorConfig{
			Connector: "card0-DP-1",
		},
	}

	// WHEN
	monitor, err := NewMonitor(config)

	// THEN
	assert.NoError(t, err)
	ddcMonitor, ok := monitor.(*DdcMonitor)
	assert.True(t, ok)
	assert.Equal(t, "monitor", ddcMonitor.GetId())
	assert.Equal(t, -1, ddcMonitor.Bus)
}

func TestNewMonitorDdcWithPinnedBus(t *testing.T) {
	// GIVEN
	bus := 5
	config := configuration.MonitorConfig{
		ID: "monitor",
		Ddc: &configuration.DdcMonitorConfig{
			Bus: &bus,
		},
	}

	// WHEN
	monitor, err := NewMonitor(config)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 5, monitor.(*DdcMonitor).Bus)
}

func TestNewMonitorBacklight(t *testing.T) {
	// GIVEN
	config := configuration.MonitorConfig{
		ID: "laptop",
		Backlight: &configuration.BacklightMonitorConfig{
			Device: "intel_backlight",
		},
	}

	// WHEN
	monitor, err := NewMonitor(config)

	// THEN
	assert.NoError(t, err)
	_, ok := monitor.(*BacklightMonitor)
	assert.True(t, ok)
}

func TestNewMonitorFile(t *testing.T) {
	// GIVEN
	config := configuration.MonitorConfig{
		ID: "file",
		File: &configuration.FileMonitorConfig{
			Path: "/tmp/monitor",
		},
	}

	// WHEN
	monitor, err := NewMonitor(config)

	// THEN
	assert.NoError(t, err)
	_, ok := monitor.(*FileMonitor)
	assert.True(t, ok)
}

func TestNewMonitorWithoutBackend(t *testing.T) {
	// GIVEN
	config := configuration.MonitorConfig{
		ID: "monitor",
	}

	// WHEN
	_, err := NewMonitor(config)

	// THEN
	assert.EqualError(t, err, "no matching monitor type for monitor: monitor")
}

func TestFileMonitorGetValue(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{"brightness": "42"})

	// WHEN
	value, err := monitor.GetValue(vcp.FeatureBrightness)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestFileMonitorGetValueClamps(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{"brightness": "250"})

	// WHEN
	value, err := monitor.GetValue(vcp.FeatureBrightness)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 100, value)
}

func TestFileMonitorGetValueScalesRawRange(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness":     "128",
		"brightness_max": "255",
	})

	// WHEN
	value, err := monitor.GetValue(vcp.FeatureBrightness)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 50, value)
}

func TestFileMonitorSetValue(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{"brightness": "42"})

	// WHEN
	err := monitor.SetValue(vcp.FeatureBrightness, 60)

	// THEN
	assert.NoError(t, err)
	value, err := monitor.GetValue(vcp.FeatureBrightness)
	assert.NoError(t, err)
	assert.Equal(t, 60, value)
}

func TestFileMonitorSetValueScalesRawRange(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness":     "0",
		"brightness_max": "255",
	})

	// WHEN
	err := monitor.SetValue(vcp.FeatureBrightness, 50)

	// THEN
	assert.NoError(t, err)
	raw, err := util.ReadIntFromFile(filepath.Join(monitor.Config.File.Path, "brightness"))
	assert.NoError(t, err)
	assert.Equal(t, 127, raw)
}

func TestFileMonitorContrast(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness": "42",
		"contrast":   "30",
	})

	// WHEN
	value, err := monitor.GetValue(vcp.FeatureContrast)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 30, value)
	assert.True(t, monitor.Supports(vcp.FeatureContrast))
}

func TestFileMonitorUnsupportedFeature(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{"brightness": "42"})

	// WHEN
	_, err := monitor.GetValue(vcp.FeatureContrast)

	// THEN
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestFileMonitorInputSource(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness": "42",
		"input":      "17",
	})

	// WHEN
	source, err := monitor.GetInputSource()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, vcp.InputHdmi1, source)

	// WHEN
	err = monitor.SetInputSource(vcp.InputDisplayPort1)

	// THEN
	assert.NoError(t, err)
	source, err = monitor.GetInputSource()
	assert.NoError(t, err)
	assert.Equal(t, vcp.InputDisplayPort1, source)
}

func TestFileMonitorPowerMode(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness": "42",
		"power":      "1",
	})

	// WHEN
	mode, err := monitor.GetPowerMode()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, vcp.PowerOn, mode)

	// WHEN
	err = monitor.SetPowerMode(vcp.PowerStandby)

	// THEN
	assert.NoError(t, err)
	mode, err = monitor.GetPowerMode()
	assert.NoError(t, err)
	assert.Equal(t, vcp.PowerStandby, mode)
}

func TestFileMonitorProbe(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{
		"brightness": "42",
		"volume":     "10",
	})

	// WHEN
	capabilities, err := monitor.Probe()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, MaxPercentValue, capabilities.BrightnessMax)
	assert.Equal(t, MaxPercentValue, capabilities.VolumeMax)
	assert.Equal(t, 0, capabilities.ContrastMax)
	assert.False(t, capabilities.InputSource)
	assert.True(t, monitor.Supports(vcp.FeatureBrightness))
	assert.False(t, monitor.Supports(vcp.FeatureContrast))
}

func TestFileMonitorProbeWithoutBrightnessFile(t *testing.T) {
	// GIVEN
	monitor := createFileMonitor(t, map[string]string{})

	// WHEN
	_, err := monitor.Probe()

	// THEN
	assert.ErrorContains(t, err, "has no readable brightness file")
}

func TestBacklightMonitorGetValue(t *testing.T) {
	// GIVEN
	monitor := createBacklightMonitor(t, "48000", "96000")

	// WHEN
	value, err := monitor.GetValue(vcp.FeatureBrightness)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 50, value)
}

func TestBacklightMonitorSetValue(t *testing.T) {
	// GIVEN
	monitor := createBacklightMonitor(t, "48000", "96000")

	// WHEN
	err := monitor.SetValue(vcp.FeatureBrightness, 25)

	// THEN
	assert.NoError(t, err)
	value, err := monitor.GetValue(vcp.FeatureBrightness)
	assert.NoError(t, err)
	assert.Equal(t, 25, value)
}

func TestBacklightMonitorProbe(t *testing.T) {
	// GIVEN
	monitor := createBacklightMonitor(t, "48000", "96000")

	// WHEN
	capabilities, err := monitor.Probe()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 96000, capabilities.BrightnessMax)
}

func TestBacklightMonitorUnsupportedFeature(t *testing.T) {
	// GIVEN
	monitor := createBacklightMonitor(t, "48000", "96000")

	// WHEN
	_, err := monitor.GetInputSource()

	// THEN
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestDdcMonitorSupports(t *testing.T) {
	// GIVEN
	monitor := &DdcMonitor{
		ID:  "monitor",
		Bus: 5,
		Capabilities: Capabilities{
			BrightnessMax: 100,
			ContrastMax:   100,
			VolumeMax:     0,
			InputSource:   true,
			PowerMode:     false,
		},
	}

	// WHEN
	// THEN
	assert.True(t, monitor.Supports(vcp.FeatureBrightness))
	assert.True(t, monitor.Supports(vcp.FeatureContrast))
	assert.False(t, monitor.Supports(vcp.FeatureVolume))
	assert.True(t, monitor.Supports(vcp.FeatureInputSource))
	assert.False(t, monitor.Supports(vcp.FeaturePowerMode))
}

func TestDdcMonitorSetValueUnsupported(t *testing.T) {
	// GIVEN
	monitor := &DdcMonitor{
		ID:  "monitor",
		Bus: 5,
		Capabilities: Capabilities{
			BrightnessMax: 100,
		},
	}

	// WHEN
	err := monitor.SetValue(vcp.FeatureVolume, 50)

	// THEN
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestDdcMonitorGetValueRejectsNonContinuousFeature(t *testing.T) {
	// GIVEN
	monitor := &DdcMonitor{
		ID:  "monitor",
		Bus: 5,
	}

	// WHEN
	_, err := monitor.GetValue(vcp.FeatureInputSource)

	// THEN
	assert.EqualError(t, err, "input source is not a continuous feature")
}

func TestDdcMonitorInputSourceUnsupported(t *testing.T) {
	// GIVEN
	monitor := &DdcMonitor{
		ID:  "monitor",
		Bus: 5,
	}

	// WHEN
	_, err := monitor.GetInputSource()

	// THEN
	assert.ErrorIs(t, err, ErrNotSupported)
}
