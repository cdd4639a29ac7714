package controller

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/brightless/brightless/internal/schedules"
	"github.com/brightless/brightless/internal/transition"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/stretchr/testify/assert"
)

type MockMonitor struct {
	ID string

	Values map[vcp.Feature]int
	Input  vcp.InputSource
	Power  vcp.PowerMode

	Caps   monitors.Capabilities
	Config configuration.MonitorConfig

	MovingAvg float64

	GetError error
	SetError error
}

func (monitor *MockMonitor) GetId() string {
	return monitor.ID
}

func (monitor *MockMonitor) GetName() string {
	return monitor.ID
}

func (monitor *MockMonitor) GetConfig() configuration.MonitorConfig {
	return monitor.Config
}

func (monitor *MockMonitor) GetValue(feature vcp.Feature) (int, error) {
	if monitor.GetError != nil {
		return 0, monitor.GetError
	}
	return monitor.Values[feature], nil
}

func (monitor *MockMonitor) SetValue(feature vcp.Feature, percent int) error {
	if monitor.SetError != nil {
		return monitor.SetError
	}
	monitor.Values[feature] = percent
	return nil
}

func (monitor *MockMonitor) GetInputSource() (vcp.InputSource, error) {
	if monitor.GetError != nil {
		return 0, monitor.GetError
	}
	return monitor.Input, nil
}

func (monitor *MockMonitor) SetInputSource(source vcp.InputSource) error {
	if monitor.SetError != nil {
		return monitor.SetError
	}
	monitor.Input = source
	return nil
}

func (monitor *MockMonitor) GetPowerMode() (vcp.PowerMode, error) {
	if monitor.GetError != nil {
		return 0, monitor.GetError
	}
	return monitor.Power, nil
}

func (monitor *MockMonitor) SetPowerMode(mode vcp.PowerMode) error {
	if monitor.SetError != nil {
		return monitor.SetError
	}
	monitor.Power = mode
	return nil
}

func (monitor *MockMonitor) Supports(feature vcp.Feature) bool {
	switch feature {
	case vcp.FeatureBrightness, vcp.FeatureContrast, vcp.FeatureVolume:
		return monitor.Caps.FeatureMax(feature) > 0
	case vcp.FeatureInputSource:
		return monitor.Caps.InputSource
	case vcp.FeaturePowerMode:
		return monitor.Caps.PowerMode
	}
	return false
}

func (monitor *MockMonitor) Probe() (monitors.Capabilities, error) {
	return monitor.Caps, nil
}

func (monitor *MockMonitor) GetCapabilities() monitors.Capabilities {
	return monitor.Caps
}

func (monitor *MockMonitor) SetCapabilities(capabilities monitors.Capabilities) {
	monitor.Caps = capabilities
}

func (monitor *MockMonitor) GetMovingAvg() float64 {
	return monitor.MovingAvg
}

func (monitor *MockMonitor) SetMovingAvg(avg float64) {
	monitor.MovingAvg = avg
}

func configureController() {
	configuration.CurrentConfig.ValueRollingWindowSize = 10
	configuration.CurrentConfig.PollingRate = 2 * time.Second
	configuration.CurrentConfig.ScheduleTickRate = 1 * time.Minute
	configuration.CurrentConfig.TransitionTickRate = 500 * time.Millisecond
	configuration.CurrentConfig.MaxStepPerTick = 5
}

func createMockMonitor(id string) *MockMonitor {
	return &MockMonitor{
		ID: id,
		Values: map[vcp.Feature]int{
			vcp.FeatureBrightness: 40,
			vcp.FeatureContrast:   60,
		},
		Caps: monitors.Capabilities{
			BrightnessMax: 100,
			ContrastMax:   100,
		},
		Config: configuration.MonitorConfig{ID: id},
	}
}

func createController(t *testing.T, monitor monitors.Monitor) (*monitorController, persistence.Persistence) {
	configureController()
	p := persistence.NewPersistence(filepath.Join(t.TempDir(), "brightless.db"))
	return NewMonitorController(p, monitor).(*monitorController), p
}

func registerSchedule(t *testing.T, id string, points map[string]int) {
	schedule, err := schedules.NewSchedule(configuration.ScheduleConfig{
		ID:     id,
		Points: points,
	})
	assert.NoError(t, err)
	schedules.ScheduleMap.Set(id, schedule)
	t.Cleanup(func() {
		schedules.ScheduleMap.Remove(id)
	})
}

func TestPollUpdatesStateAndMovingAvg(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, p := createController(t, monitor)

	// WHEN
	c.Poll()

	// THEN
	state, err := p.LoadMonitorState("mock")
	assert.NoError(t, err)
	assert.Equal(t, 40, state.Brightness)
	assert.Equal(t, 60, state.Contrast)
	assert.Equal(t, -1, state.Volume)
	assert.Equal(t, 4.0, monitor.GetMovingAvg())
}

func TestPollMarksMonitorUnreachable(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)
	monitor.GetError = errors.New("i2c timeout")

	// WHEN
	for i := 0; i < UnreachableThreshold; i++ {
		c.Poll()
	}

	// THEN
	assert.False(t, c.Snapshot().Reachable)

	// WHEN the monitor answers again
	monitor.GetError = nil
	c.Poll()

	// THEN
	assert.True(t, c.Snapshot().Reachable)
}

func TestPollStaysReachableBelowThreshold(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)
	monitor.GetError = errors.New("i2c timeout")

	// WHEN
	c.Poll()
	c.Poll()

	// THEN
	assert.True(t, c.Snapshot().Reachable)
}

func TestPollDetectsExternalChange(t *testing.T) {
	// GIVEN
	registerSchedule(t, "office", map[string]int{"00:00": 50})
	monitor := createMockMonitor("mock")
	monitor.Config.Schedule = "office"
	c, _ := createController(t, monitor)

	c.UpdateTarget()
	assert.Equal(t, 50.0, c.Snapshot().ScheduleTarget)

	c.lastSet[vcp.FeatureBrightness] = 40
	monitor.Values[vcp.FeatureBrightness] = 70

	// WHEN
	c.Poll()

	// THEN schedule control backs off until the next point
	assert.Equal(t, -1.0, c.Snapshot().ScheduleTarget)
	c.UpdateTarget()
	assert.Equal(t, -1.0, c.Snapshot().ScheduleTarget)
}

func TestSetValueSuspendsSchedule(t *testing.T) {
	// GIVEN
	registerSchedule(t, "office", map[string]int{"00:00": 50})
	monitor := createMockMonitor("mock")
	monitor.Config.Schedule = "office"
	c, p := createController(t, monitor)

	c.UpdateTarget()
	assert.Equal(t, 50.0, c.Snapshot().ScheduleTarget)

	// WHEN
	err := c.SetValue(vcp.FeatureBrightness, 30)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 30, monitor.Values[vcp.FeatureBrightness])
	assert.Equal(t, -1.0, c.Snapshot().ScheduleTarget)

	state, err := p.LoadMonitorState("mock")
	assert.NoError(t, err)
	assert.Equal(t, 30, state.Brightness)
}

func TestSetValueQuantizesReadback(t *testing.T) {
	// GIVEN a monitor with a raw range that cannot represent every percent
	monitor := createMockMonitor("mock")
	monitor.Caps.BrightnessMax = 255
	c, _ := createController(t, monitor)

	// WHEN
	err := c.SetValue(vcp.FeatureBrightness, 50)

	// THEN the expected readback is the raw-quantized value
	assert.NoError(t, err)
	assert.Equal(t, 49, c.lastSet[vcp.FeatureBrightness])
	assert.Equal(t, 49, c.state.Brightness)
}

func TestStepTransitionApproachesTarget(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)
	c.transition = transition.NewInstantTransition()
	target := 80
	c.target = &target
	c.position = 50
	c.lastSet[vcp.FeatureBrightness] = 50

	// WHEN
	c.StepTransition()

	// THEN
	assert.Equal(t, 80, monitor.Values[vcp.FeatureBrightness])
	assert.Equal(t, 80.0, c.position)
}

func TestStepTransitionWithoutTarget(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)
	c.transition = transition.NewInstantTransition()
	c.position = 50

	// WHEN
	c.StepTransition()

	// THEN nothing is written
	assert.Equal(t, 40, monitor.Values[vcp.FeatureBrightness])
	assert.Equal(t, 50.0, c.position)
}

func TestUpdateTargetEvaluatesSchedule(t *testing.T) {
	// GIVEN
	registerSchedule(t, "constant", map[string]int{"00:00": 80})
	monitor := createMockMonitor("mock")
	monitor.Config.Schedule = "constant"
	c, _ := createController(t, monitor)

	// WHEN
	c.UpdateTarget()

	// THEN
	assert.Equal(t, 80.0, c.Snapshot().ScheduleTarget)
}

func TestNewTransitionUnlimitedStepIsInstant(t *testing.T) {
	// GIVEN
	configureController()
	configuration.CurrentConfig.MaxStepPerTick = 0

	// WHEN
	tr := newTransition()

	// THEN
	assert.IsType(t, transition.InstantTransition{}, tr)
}

func TestRestoreAppliesSavedState(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	monitor.Caps.InputSource = true
	c, p := createController(t, monitor)

	saved := persistence.NewState()
	saved.Brightness = 70
	saved.Contrast = 55
	saved.InputSource = int(vcp.InputHdmi1)
	assert.NoError(t, p.SaveMonitorState("mock", saved))

	// WHEN
	err := c.Restore()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 70, monitor.Values[vcp.FeatureBrightness])
	assert.Equal(t, 55, monitor.Values[vcp.FeatureContrast])
	assert.Equal(t, vcp.InputHdmi1, monitor.Input)
	assert.Equal(t, 1, c.Snapshot().Restores)
}

func TestRestoreSkipsUnsupportedFeatures(t *testing.T) {
	// GIVEN a monitor without volume support
	monitor := createMockMonitor("mock")
	c, p := createController(t, monitor)

	saved := persistence.NewState()
	saved.Brightness = 70
	saved.Volume = 30
	assert.NoError(t, p.SaveMonitorState("mock", saved))

	// WHEN
	err := c.Restore()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 70, monitor.Values[vcp.FeatureBrightness])
	_, ok := monitor.Values[vcp.FeatureVolume]
	assert.False(t, ok)
}

func TestRestoreDoesNotTouchPowerMode(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	monitor.Caps.PowerMode = true
	monitor.Power = vcp.PowerOn
	c, p := createController(t, monitor)

	saved := persistence.NewState()
	saved.Brightness = 70
	saved.PowerMode = int(vcp.PowerStandby)
	assert.NoError(t, p.SaveMonitorState("mock", saved))

	// WHEN
	err := c.Restore()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, vcp.PowerOn, monitor.Power)
}

func TestRestoreWithoutSavedState(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)

	// WHEN
	err := c.Restore()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Snapshot().Restores)
}

func TestApplyValues(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	monitor.Caps.InputSource = true
	c, _ := createController(t, monitor)

	brightness := 25
	source := vcp.InputDisplayPort1
	values := profiles.Values{
		Brightness:  &brightness,
		InputSource: &source,
	}

	// WHEN
	err := c.ApplyValues(values)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 25, monitor.Values[vcp.FeatureBrightness])
	assert.Equal(t, vcp.InputDisplayPort1, monitor.Input)
}

func TestApplyValuesSkipsUnsupportedFeatures(t *testing.T) {
	// GIVEN a monitor without volume support
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)

	volume := 30
	values := profiles.Values{Volume: &volume}

	// WHEN
	err := c.ApplyValues(values)

	// THEN
	assert.NoError(t, err)
	_, ok := monitor.Values[vcp.FeatureVolume]
	assert.False(t, ok)
}

func TestApplyValuesReportsWriteErrors(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	monitor.SetError = errors.New("write failed")
	c, _ := createController(t, monitor)

	brightness := 25
	contrast := 30
	values := profiles.Values{
		Brightness: &brightness,
		Contrast:   &contrast,
	}

	// WHEN
	err := c.ApplyValues(values)

	// THEN
	assert.Error(t, err)
	assert.Equal(t, 2, c.Snapshot().WriteErrors)
}

func TestSetValueFailsFastWhenUnreachable(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)
	monitor.GetError = errors.New("i2c timeout")
	for i := 0; i < UnreachableThreshold; i++ {
		c.Poll()
	}

	// WHEN
	err := c.SetValue(vcp.FeatureBrightness, 30)

	// THEN the write is not attempted
	assert.ErrorIs(t, err, monitors.ErrUnreachable)
	assert.Equal(t, 40, monitor.Values[vcp.FeatureBrightness])
}

func TestSnapshotCounters(t *testing.T) {
	// GIVEN
	monitor := createMockMonitor("mock")
	c, _ := createController(t, monitor)

	// WHEN
	assert.NoError(t, c.SetValue(vcp.FeatureBrightness, 10))
	assert.NoError(t, c.SetValue(vcp.FeatureContrast, 20))
	c.Poll()

	// THEN
	snapshot := c.Snapshot()
	assert.Equal(t, 2, snapshot.Writes)
	assert.Equal(t, 0, snapshot.WriteErrors)
	assert.True(t, snapshot.Reachable)
}
