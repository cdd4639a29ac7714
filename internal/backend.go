package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brightless/brightless/internal/api"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/controller"
	"github.com/brightless/brightless/internal/ddc"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/drm"
	"github.com/brightless/brightless/internal/edid"
	"github.com/brightless/brightless/internal/hotplug"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/brightless/brightless/internal/schedules"
	"github.com/brightless/brightless/internal/statistics"
	"github.com/brightless/brightless/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// hotplugSettleDelay gives the display link time to settle, a single
// (un)plug fires several change uevents in a row.
const hotplugSettleDelay = 2 * time.Second

// controllers run as plain goroutines instead of run.Group actors, so
// hotplug can start and stop them while the daemon is running.
var (
	controllerCancels   = map[string]context.CancelFunc{}
	controllerCancelsMu sync.Mutex
	controllerWg        sync.WaitGroup
)

func RunDaemon() {
	checkI2cAccess()

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to open the state database %s: %v", configuration.CurrentConfig.DbPath, err)
	}

	client := ddcutil.NewClient(configuration.CurrentConfig.DdcutilPath, configuration.CurrentConfig.DdcTimeout)

	InitializeObjects(pers, client)

	statistics.Register(statistics.NewMonitorCollector(controller.ControllerMap))
	statistics.Register(statistics.NewControllerCollector(controller.ControllerMap))

	if monitors.MonitorMap.Count() == 0 {
		ui.Warning("No monitors detected or configured, waiting for hotplug events")
	}

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		enabled := configuration.CurrentConfig.Statistics.Enabled
		if enabled {
			// === Prometheus Exporter
			port := configuration.CurrentConfig.Statistics.Port
			addr := fmt.Sprintf(":%d", port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: addr, Handler: mux}

			g.Add(func() error {
				ui.Info("Starting statistics server on %s", addr)
				return server.ListenAndServe()
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: %v", err)
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		enabled := configuration.CurrentConfig.Api.Enabled
		if enabled {
			// === REST api
			restService := api.CreateRestService()
			addr := fmt.Sprintf("%s:%d", configuration.CurrentConfig.Api.Host, configuration.CurrentConfig.Api.Port)

			g.Add(func() error {
				ui.Info("Starting api server on %s", addr)
				return restService.Start(addr)
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := restService.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping api server: %v", err)
				} else {
					ui.Info("Api server stopped.")
				}
			})
		}
	}
	{
		// === monitor controllers
		for _, ctrl := range controller.ControllerMap.Items() {
			startController(ctx, ctrl)
		}

		g.Add(func() error {
			<-ctx.Done()
			controllerWg.Wait()
			return nil
		}, func(err error) {
			cancel()
		})
	}
	{
		// === hotplug watcher
		g.Add(func() error {
			watchHotplug(ctx, pers, client)
			return nil
		}, func(err error) {
			cancel()
		})
	}
	if configuration.CurrentConfig.RestoreOnResume {
		// === resume watcher
		g.Add(func() error {
			watchResume(ctx)
			return nil
		}, func(err error) {
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received exit signal, stopping...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects builds the schedule, profile and monitor registries from
// the current configuration and the detected hardware, and registers the
// metrics collectors on top of them.
func InitializeObjects(pers persistence.Persistence, client *ddcutil.Client) {
	for _, config := range configuration.CurrentConfig.Schedules {
		schedule, err := schedules.NewSchedule(config)
		if err != nil {
			ui.Fatal("Unable to process schedule configuration %s: %v", config.ID, err)
		}
		schedules.ScheduleMap.Set(config.ID, schedule)
	}

	for _, config := range configuration.CurrentConfig.Profiles {
		profiles.ProfileMap.Set(config.ID, profiles.NewProfile(config))
	}

	for _, config := range configuration.CurrentConfig.Monitors {
		if config.Ddc != nil {
			// bound against the detected hardware below
			continue
		}
		monitor, err := monitors.NewMonitor(config)
		if err != nil {
			ui.Fatal("Unable to process monitor configuration: %s", config.ID)
		}
		if _, err := monitor.Probe(); err != nil {
			ui.Fatal("Unable to probe monitor %s: %v", config.ID, err)
		}
		registerMonitor(pers, monitor)
	}

	mergeDdcMonitors(pers, client)
}

// mergeDdcMonitors reconciles the registries with the detected displays:
// configured ddc monitors claim their detected counterpart, the unmatched
// rest is auto-registered under its connector name, and auto-registered
// monitors whose connector disappeared are dropped. Returns the ids of
// added and removed monitors.
func mergeDdcMonitors(pers persistence.Persistence, client *ddcutil.Client) (added []string, removed []string) {
	detected := ddc.DetectMonitors(client)

	claimed := map[*ddc.DetectedMonitor]bool{}
	for _, config := range configuration.CurrentConfig.Monitors {
		if config.Ddc == nil {
			continue
		}

		var match *ddc.DetectedMonitor
		for _, d := range detected {
			if !claimed[d] && ddc.Matches(d, config.Ddc) {
				match = d
				break
			}
		}

		if match == nil {
			if monitors.MonitorMap.Has(config.ID) {
				// already registered, failing polls will mark it unreachable
				continue
			}
			if config.Ddc.Bus != nil {
				// a pinned bus is trusted even when detection saw nothing,
				// not every GPU driver exposes a ddc link for its connectors
				ui.Warning("Monitor %s was not detected, trusting the configured bus %d", config.ID, *config.Ddc.Bus)
				monitor := newDdcMonitor(client, config, *config.Ddc.Bus, nil, config.ID)
				resolveCapabilities(pers, monitor)
				registerMonitor(pers, monitor)
				added = append(added, config.ID)
			} else {
				ui.Warning("Monitor %s did not match any detected display, skipping. Check the connector and name patterns against 'brightless detect'.", config.ID)
			}
			continue
		}
		claimed[match] = true

		if replaceOnBusChange(config.ID, match.Bus) {
			removed = append(removed, config.ID)
		} else if monitors.MonitorMap.Has(config.ID) {
			continue
		}

		name := config.ID
		if match.Identity != nil {
			name = match.Identity.String()
		}
		monitor := newDdcMonitor(client, config, match.Bus, match.Identity, name)
		resolveCapabilities(pers, monitor)
		registerMonitor(pers, monitor)
		added = append(added, config.ID)
	}

	// auto-register detected displays nobody claimed
	unnamed := 0
	for _, d := range detected {
		if d.Identity == nil {
			unnamed++
		}
		if claimed[d] {
			continue
		}
		if d.Bus < 0 {
			ui.Debug("Connector %s exposes no usable DDC bus, ignoring", d.Connector.Name)
			continue
		}

		id := d.Connector.Name
		if replaceOnBusChange(id, d.Bus) {
			removed = append(removed, id)
		} else if monitors.MonitorMap.Has(id) {
			continue
		}

		name := fmt.Sprintf("Monitor %d", unnamed)
		if d.Identity != nil {
			name = d.Identity.String()
		}
		config := configuration.MonitorConfig{
			ID:  id,
			Ddc: &configuration.DdcMonitorConfig{},
		}
		monitor := newDdcMonitor(client, config, d.Bus, d.Identity, name)
		resolveCapabilities(pers, monitor)
		registerMonitor(pers, monitor)
		added = append(added, id)
	}

	// drop auto-registered monitors whose connector disappeared. Configured
	// monitors stay registered, their controller keeps them marked
	// unreachable until they answer again.
	connectors := map[string]bool{}
	for _, d := range detected {
		connectors[d.Connector.Name] = true
	}
	for id, monitor := range monitors.MonitorMap.Items() {
		if _, ok := monitor.(*monitors.DdcMonitor); !ok {
			continue
		}
		if isConfiguredMonitor(id) || connectors[id] {
			continue
		}
		removeMonitor(id)
		removed = append(removed, id)
	}

	return added, removed
}

// replaceOnBusChange drops a registered monitor when its bus moved, the
// caller re-registers it with the new bus. Mutating the bus of a monitor
// in place would race with its running controller.
func replaceOnBusChange(id string, bus int) bool {
	monitor, ok := monitors.MonitorMap.Get(id)
	if !ok {
		return false
	}
	ddcMonitor, ok := monitor.(*monitors.DdcMonitor)
	if !ok || ddcMonitor.Bus == bus {
		return false
	}
	ui.Info("Monitor %s moved from bus %d to bus %d", id, ddcMonitor.Bus, bus)
	removeMonitor(id)
	return true
}

func isConfiguredMonitor(id string) bool {
	for _, config := range configuration.CurrentConfig.Monitors {
		if config.ID == id {
			return true
		}
	}
	return false
}

func newDdcMonitor(client *ddcutil.Client, config configuration.MonitorConfig, bus int, identity *edid.Identity, name string) *monitors.DdcMonitor {
	return &monitors.DdcMonitor{
		ID:       config.ID,
		Name:     name,
		Bus:      bus,
		Config:   config,
		Identity: identity,
		Client:   client,
	}
}

// resolveCapabilities loads the cached capabilities of a monitor, falling
// back to a live probe whose result is cached. Probing all five features
// takes around a second per monitor, the cache keeps restarts fast.
// 'brightless monitor probe' refreshes a stale entry.
func resolveCapabilities(pers persistence.Persistence, monitor monitors.Monitor) {
	cacheKey := monitors.CapabilitiesKey(monitor)
	if capabilities, err := pers.LoadMonitorCapabilities(cacheKey); err == nil {
		monitor.SetCapabilities(capabilities)
		return
	}

	if _, err := monitor.Probe(); err != nil {
		ui.Warning("Unable to probe the capabilities of monitor %s: %v", monitor.GetId(), err)
		return
	}
	if err := pers.SaveMonitorCapabilities(cacheKey, monitor.GetCapabilities()); err != nil {
		ui.Warning("Unable to cache the capabilities of monitor %s: %v", monitor.GetId(), err)
	}
}

func registerMonitor(pers persistence.Persistence, monitor monitors.Monitor) {
	monitors.MonitorMap.Set(monitor.GetId(), monitor)
	controller.ControllerMap.Set(monitor.GetId(), controller.NewMonitorController(pers, monitor))
}

func removeMonitor(id string) {
	monitors.MonitorMap.Remove(id)
	controller.ControllerMap.Remove(id)
}

func startController(ctx context.Context, ctrl controller.MonitorController) {
	id := ctrl.GetMonitor().GetId()
	runCtx, cancelRun := context.WithCancel(ctx)

	controllerCancelsMu.Lock()
	controllerCancels[id] = cancelRun
	controllerCancelsMu.Unlock()

	controllerWg.Add(1)
	go func() {
		defer controllerWg.Done()
		err := ctrl.Run(runCtx)
		ui.Info("Controller for monitor %s stopped.", id)
		if err != nil {
			ui.Warning("Controller for monitor %s failed: %v", id, err)
		}
	}()
}

func stopController(id string) {
	controllerCancelsMu.Lock()
	defer controllerCancelsMu.Unlock()
	if cancelRun, ok := controllerCancels[id]; ok {
		cancelRun()
		delete(controllerCancels, id)
	}
}

func watchHotplug(ctx context.Context, pers persistence.Persistence, client *ddcutil.Client) {
	events, err := hotplug.Uevents(ctx)
	if err != nil {
		ui.Warning("Unable to watch for monitor hotplug events: %v", err)
		<-ctx.Done()
		return
	}
	ui.Info("Watching for monitor hotplug events")

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			select {
			case <-time.After(hotplugSettleDelay):
			case <-ctx.Done():
				return
			}
			drainEvents(events)
			RescanMonitors(ctx, pers, client)
		}
	}
}

// RescanMonitors re-runs the detection after a drm hotplug event and
// reconciles the running controllers with the result.
func RescanMonitors(ctx context.Context, pers persistence.Persistence, client *ddcutil.Client) {
	ui.Info("Display configuration changed, rescanning monitors...")

	added, removed := mergeDdcMonitors(pers, client)
	for _, id := range removed {
		ui.Info("Monitor %s disconnected", id)
		stopController(id)
	}
	for _, id := range added {
		ctrl, ok := controller.ControllerMap.Get(id)
		if !ok {
			continue
		}
		ui.Info("Monitor %s connected", id)
		startController(ctx, ctrl)
	}
}

func watchResume(ctx context.Context) {
	events, err := hotplug.ResumeEvents(ctx)
	if err != nil {
		ui.Warning("Unable to watch for system resume events: %v", err)
		<-ctx.Done()
		return
	}
	ui.Info("Watching for system resume events")

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			delay := configuration.CurrentConfig.ResumeDelay
			ui.Info("System resumed from sleep, restoring monitor state in %s", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			restoreAll()
		}
	}
}

// restoreAll writes the saved state back to every monitor that has
// restoration enabled. Monitors lose their DDC/CI state over deep power
// cycles.
func restoreAll() {
	for _, ctrl := range controller.ControllerMap.Items() {
		monitor := ctrl.GetMonitor()
		if !monitor.GetConfig().Restore.Get() {
			continue
		}
		if err := ctrl.Restore(); err != nil {
			ui.Warning("Unable to restore state of monitor %s: %v", monitor.GetId(), err)
		}
	}
}

func drainEvents(events <-chan struct{}) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

// checkI2cAccess warns early when DDC/CI communication is likely to fail.
// ddcutil needs read and write access to the /dev/i2c-* devices, which
// usually means root or membership in the i2c group.
func checkI2cAccess() {
	if os.Geteuid() == 0 {
		return
	}

	buses := drm.I2CDevices(drm.DevPath)
	if len(buses) == 0 {
		ui.Warning("No /dev/i2c-* devices found, is the i2c-dev kernel module loaded?")
		return
	}
	for _, bus := range buses {
		f, err := os.OpenFile(drm.I2CDevicePath(drm.DevPath, bus), os.O_RDWR, 0)
		if err == nil {
			_ = f.Close()
			return
		}
	}
	ui.Warning("No /dev/i2c-* device is accessible, DDC/CI communication will fail. Run brightless as root or add your user to the i2c group.")
}
