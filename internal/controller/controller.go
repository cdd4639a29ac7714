package controller

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/brightless/brightless/internal/schedules"
	"github.com/brightless/brightless/internal/transition"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/oklog/run"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// UnreachableThreshold is the number of consecutive failed polls after
// which a monitor is reported unreachable.
const UnreachableThreshold = 3

var ControllerMap = cmap.New[MonitorController]()

type MonitorController interface {
	Run(ctx context.Context) error

	// Poll reads the current monitor values, maintains the reachability
	// state and persists changes.
	Poll()
	// UpdateTarget evaluates the schedule and sets the transition target.
	UpdateTarget()
	// StepTransition moves the brightness one step towards the target.
	StepTransition()

	// SetValue writes a continuous feature and suspends schedule control
	// until the next schedule point.
	SetValue(feature vcp.Feature, percent int) error
	SetInputSource(source vcp.InputSource) error
	SetPowerMode(mode vcp.PowerMode) error
	// ApplyValues applies all defined values the monitor supports,
	// returning the write errors joined.
	ApplyValues(values profiles.Values) error
	// Restore applies the last known state from persistence.
	Restore() error

	GetMonitor() monitors.Monitor
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of controller state for the statistics
// collectors.
type Snapshot struct {
	// State holds the last polled feature values, so that scraping metrics
	// never has to touch the DDC bus itself.
	State persistence.State

	Reachable bool
	// ScheduleTarget is the current schedule target percent, -1 when
	// schedule control is inactive or suspended.
	ScheduleTarget float64
	Writes         int
	WriteErrors    int
	Restores       int
	// PollLatency is the average duration of recent value reads in seconds.
	PollLatency float64
}

type monitorController struct {
	persistence persistence.Persistence
	monitor     monitors.Monitor
	schedule    *schedules.Schedule
	transition  transition.Transition

	// mu guards the mutable state below, polls, transition steps and
	// manual writes run on different goroutines
	mu sync.Mutex

	state persistence.State
	// position is the transition cursor in percent. A float keeps
	// sub-percent progress between ticks, integer rounding would stall
	// slow transitions.
	position float64
	target   *int
	// overrideUntil suspends schedule control after a manual or external
	// change, until the next schedule point.
	overrideUntil *time.Time
	lastSet       map[vcp.Feature]int

	unreachable       bool
	consecutiveMisses int

	latencyWindow *rolling.PointPolicy
	polls         int

	writes      int
	writeErrors int
	restores    int
}

func NewMonitorController(p persistence.Persistence, monitor monitors.Monitor) MonitorController {
	var schedule *schedules.Schedule
	if scheduleId := monitor.GetConfig().Schedule; scheduleId != "" {
		if s, ok := schedules.ScheduleMap.Get(scheduleId); ok {
			schedule = s
		}
	}

	return &monitorController{
		persistence:   p,
		monitor:       monitor,
		schedule:      schedule,
		transition:    newTransition(),
		state:         persistence.NewState(),
		lastSet:       map[vcp.Feature]int{},
		latencyWindow: util.CreateRollingWindow(configuration.CurrentConfig.ValueRollingWindowSize),
	}
}

// newTransition builds the ramp from the configured step limit. Without a
// limit targets are applied in a single step.
func newTransition() transition.Transition {
	maxStep := configuration.CurrentConfig.MaxStepPerTick
	tickRate := configuration.CurrentConfig.TransitionTickRate
	if maxStep <= 0 || tickRate <= 0 {
		return transition.NewInstantTransition()
	}
	return transition.NewDirectTransition(float64(maxStep) / tickRate.Seconds())
}

func (c *monitorController) Run(ctx context.Context) error {
	monitor := c.monitor

	if configuration.CurrentConfig.RestoreOnStartup && monitor.GetConfig().Restore.Get() {
		if err := c.Restore(); err != nil {
			ui.Warning("Unable to restore state of %s: %v", monitor.GetId(), err)
		}
	}

	ui.Info("Starting controller loop for monitor '%s'", monitor.GetId())

	var g run.Group
	{
		// === value monitoring
		pollingRate := configuration.CurrentConfig.PollingRate

		g.Add(func() error {
			tick := time.Tick(pollingRate)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-tick:
					c.Poll()
				}
			}
		}, func(err error) {
			if err != nil {
				ui.Warning("Error polling monitor %s: %v", monitor.GetId(), err)
			}
		})
	}
	if c.schedule != nil {
		// === schedule control
		g.Add(func() error {
			c.UpdateTarget()
			scheduleTick := time.Tick(configuration.CurrentConfig.ScheduleTickRate)
			transitionTick := time.Tick(configuration.CurrentConfig.TransitionTickRate)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-scheduleTick:
					c.UpdateTarget()
				case <-transitionTick:
					c.StepTransition()
				}
			}
		}, func(err error) {
			if err != nil {
				ui.Warning("Error in schedule control of monitor %s: %v", monitor.GetId(), err)
			}
		})
	}

	return g.Run()
}

func (c *monitorController) Poll() {
	monitor := c.monitor

	start := time.Now()
	brightness, err := monitor.GetValue(vcp.FeatureBrightness)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.latencyWindow.Append(elapsed.Seconds())
	c.polls++

	if err != nil {
		c.consecutiveMisses++
		if c.consecutiveMisses >= UnreachableThreshold && !c.unreachable {
			c.unreachable = true
			ui.ErrorAndNotify("Monitor unreachable", "Monitor %s stopped answering: %v", monitor.GetId(), err)
		}
		return
	}
	if c.unreachable {
		c.unreachable = false
		ui.Info("Monitor %s is answering again", monitor.GetId())
	}
	c.consecutiveMisses = 0

	// a value that differs from what was last set means someone else
	// changed it, f.ex. via the monitor's own buttons. Respect that and
	// keep the schedule out of the way until its next point.
	if lastSet, ok := c.lastSet[vcp.FeatureBrightness]; ok && lastSet != brightness {
		ui.Warning("Brightness of %s was changed externally! Last set value was: %d but is now: %d",
			monitor.GetId(), lastSet, brightness)
		c.suspendSchedule(time.Now())
	}
	c.lastSet[vcp.FeatureBrightness] = brightness
	c.position = float64(brightness)

	avg := util.UpdateSimpleMovingAvg(monitor.GetMovingAvg(), configuration.CurrentConfig.ValueRollingWindowSize, float64(brightness))
	monitor.SetMovingAvg(avg)

	changed := c.state.Brightness != brightness
	c.state.Brightness = brightness

	if monitor.Supports(vcp.FeatureContrast) {
		if value, err := monitor.GetValue(vcp.FeatureContrast); err == nil {
			changed = changed || c.state.Contrast != value
			c.state.Contrast = value
		}
	}
	if monitor.Supports(vcp.FeatureVolume) {
		if value, err := monitor.GetValue(vcp.FeatureVolume); err == nil {
			changed = changed || c.state.Volume != value
			c.state.Volume = value
		}
	}
	if monitor.Supports(vcp.FeatureInputSource) {
		if source, err := monitor.GetInputSource(); err == nil {
			changed = changed || c.state.InputSource != int(source)
			c.state.InputSource = int(source)
		}
	}
	if monitor.Supports(vcp.FeaturePowerMode) {
		if mode, err := monitor.GetPowerMode(); err == nil {
			changed = changed || c.state.PowerMode != int(mode)
			c.state.PowerMode = int(mode)
		}
	}

	if changed {
		c.saveState()
	}
}

func (c *monitorController) UpdateTarget() {
	if c.schedule == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.overrideUntil != nil {
		if now.Before(*c.overrideUntil) {
			return
		}
		c.overrideUntil = nil
	}

	target := c.schedule.Evaluate(now)
	c.target = &target
}

func (c *monitorController) StepTransition() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil || c.unreachable {
		return
	}

	delta := c.transition.Step(float64(*c.target), c.position)
	if delta == 0 {
		return
	}
	newPosition := c.position + delta

	percent := int(math.Round(newPosition))
	if percent != c.lastSet[vcp.FeatureBrightness] {
		if err := c.writeValue(vcp.FeatureBrightness, percent); err != nil {
			ui.Error("Error setting brightness of %s: %v", c.monitor.GetId(), err)
			return
		}
		c.saveState()
	}
	c.position = newPosition
}

func (c *monitorController) SetValue(feature vcp.Feature, percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// fail fast instead of blocking the caller on a write that will
	// time out, the next successful poll lifts the flag
	if c.unreachable {
		return monitors.ErrUnreachable
	}

	if err := c.writeValue(feature, percent); err != nil {
		return err
	}
	if feature == vcp.FeatureBrightness {
		c.position = float64(c.lastSet[feature])
		c.suspendSchedule(time.Now())
	}
	c.saveState()
	return nil
}

func (c *monitorController) SetInputSource(source vcp.InputSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unreachable {
		return monitors.ErrUnreachable
	}

	err := c.monitor.SetInputSource(source)
	c.countWrite(err)
	if err != nil {
		return err
	}

	c.state.InputSource = int(source)
	c.saveState()
	return nil
}

func (c *monitorController) SetPowerMode(mode vcp.PowerMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unreachable {
		return monitors.ErrUnreachable
	}

	err := c.monitor.SetPowerMode(mode)
	c.countWrite(err)
	if err != nil {
		return err
	}

	c.state.PowerMode = int(mode)
	c.saveState()
	return nil
}

func (c *monitorController) ApplyValues(values profiles.Values) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unreachable {
		return monitors.ErrUnreachable
	}

	var errs []error
	applied := false

	sliders := []struct {
		feature vcp.Feature
		value   *int
	}{
		{vcp.FeatureBrightness, values.Brightness},
		{vcp.FeatureContrast, values.Contrast},
		{vcp.FeatureVolume, values.Volume},
	}
	for _, slider := range sliders {
		if slider.value == nil || !c.monitor.Supports(slider.feature) {
			continue
		}
		if err := c.writeValue(slider.feature, *slider.value); err != nil {
			errs = append(errs, err)
			continue
		}
		applied = true
		if slider.feature == vcp.FeatureBrightness {
			c.position = float64(c.lastSet[vcp.FeatureBrightness])
			c.suspendSchedule(time.Now())
		}
	}

	if values.InputSource != nil && c.monitor.Supports(vcp.FeatureInputSource) {
		err := c.monitor.SetInputSource(*values.InputSource)
		c.countWrite(err)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.state.InputSource = int(*values.InputSource)
			applied = true
		}
	}
	if values.PowerMode != nil && c.monitor.Supports(vcp.FeaturePowerMode) {
		err := c.monitor.SetPowerMode(*values.PowerMode)
		c.countWrite(err)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.state.PowerMode = int(*values.PowerMode)
			applied = true
		}
	}

	if applied {
		c.saveState()
	}
	return errors.Join(errs...)
}

// Restore applies the last known slider values and input source. The power
// mode is deliberately not restored, waking up to a monitor that puts
// itself into standby is more surprising than losing that one setting.
func (c *monitorController) Restore() error {
	monitor := c.monitor

	state, err := c.persistence.LoadMonitorState(monitor.GetId())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ui.Debug("No saved state for monitor %s", monitor.GetId())
			return nil
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// adopt the loaded state as baseline so values that cannot be
	// restored right now are not wiped from persistence
	c.state = state

	restored := false
	sliders := []struct {
		feature vcp.Feature
		value   int
	}{
		{vcp.FeatureBrightness, state.Brightness},
		{vcp.FeatureContrast, state.Contrast},
		{vcp.FeatureVolume, state.Volume},
	}
	for _, slider := range sliders {
		if slider.value < 0 || !monitor.Supports(slider.feature) {
			continue
		}
		if err := c.writeValue(slider.feature, slider.value); err != nil {
			ui.Warning("Unable to restore %s of %s: %v", slider.feature, monitor.GetId(), err)
			continue
		}
		restored = true
	}

	if state.InputSource != 0 && monitor.Supports(vcp.FeatureInputSource) {
		source := vcp.InputSource(byte(state.InputSource))
		err := monitor.SetInputSource(source)
		c.countWrite(err)
		if err != nil {
			ui.Warning("Unable to restore input source of %s: %v", monitor.GetId(), err)
		} else {
			restored = true
		}
	}

	if restored {
		c.restores++
		c.position = float64(c.lastSet[vcp.FeatureBrightness])
		c.saveState()
		ui.Info("Restored state of monitor %s (brightness: %d)", monitor.GetId(), state.Brightness)
	}
	return nil
}

func (c *monitorController) GetMonitor() monitors.Monitor {
	return c.monitor
}

func (c *monitorController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := -1.0
	if c.target != nil {
		target = float64(*c.target)
	}
	latency := 0.0
	if c.polls > 0 {
		latency = util.GetWindowAvg(c.latencyWindow)
	}
	return Snapshot{
		State:          c.state,
		Reachable:      !c.unreachable,
		ScheduleTarget: target,
		Writes:         c.writes,
		WriteErrors:    c.writeErrors,
		Restores:       c.restores,
		PollLatency:    latency,
	}
}

// writeValue writes a continuous feature and records the value a readback
// will report. Write and readback go through the monitor's raw range, so
// the value is quantized the same way here. Callers must hold mu.
func (c *monitorController) writeValue(feature vcp.Feature, percent int) error {
	err := c.monitor.SetValue(feature, percent)
	c.countWrite(err)
	if err != nil {
		return err
	}

	max := c.monitor.GetCapabilities().FeatureMax(feature)
	readback := vcp.Percent(vcp.Raw(percent, 0, max), 0, max)
	c.lastSet[feature] = readback

	switch feature {
	case vcp.FeatureBrightness:
		c.state.Brightness = readback
	case vcp.FeatureContrast:
		c.state.Contrast = readback
	case vcp.FeatureVolume:
		c.state.Volume = readback
	}
	return nil
}

func (c *monitorController) countWrite(err error) {
	c.writes++
	if err != nil {
		c.writeErrors++
	}
}

// suspendSchedule keeps the schedule from fighting a manual change until
// the next schedule point. Callers must hold mu.
func (c *monitorController) suspendSchedule(now time.Time) {
	if c.schedule == nil {
		return
	}
	next := c.schedule.NextPoint(now)
	c.overrideUntil = &next
	c.target = nil
	ui.Debug("Schedule control of %s suspended until %s", c.monitor.GetId(), next.Format("15:04"))
}

// saveState persists the last known values. Callers must hold mu.
func (c *monitorController) saveState() {
	c.state.UpdatedAt = time.Now()
	if err := c.persistence.SaveMonitorState(c.monitor.GetId(), c.state); err != nil {
		ui.Warning("Unable to save state of monitor %s: %v", c.monitor.GetId(), err)
	}
}
