package hotplug

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const prepareForSleepSignal = "org.freedesktop.login1.Manager.PrepareForSleep"

// ResumeEvents delivers a signal when the system wakes from sleep.
// Monitors lose their DDC/CI state over deep power cycles, so saved
// values have to be written again after a resume.
func ResumeEvents(ctx context.Context) (<-chan struct{}, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}

	rule := "type='signal',interface='org.freedesktop.login1.Manager',member='PrepareForSleep'"
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, err
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)

	events := make(chan struct{}, 1)
	go func() {
		// the system bus connection is shared, only drop the subscription
		defer conn.RemoveSignal(signals)
		defer close(events)

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig == nil || sig.Name != prepareForSleepSignal || len(sig.Body) < 1 {
					continue
				}
				// true announces the sleep, false the wake afterwards
				sleeping, ok := sig.Body[0].(bool)
				if !ok || sleeping {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events, nil
}
