// Package ddc discovers DDC/CI capable displays by combining the DRM view
// of connected connectors with a scan of the i2c buses.
package ddc

import (
	"regexp"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/drm"
	"github.com/brightless/brightless/internal/edid"
	"github.com/brightless/brightless/internal/ui"
)

// DetectedMonitor is a connected display together with the i2c bus it
// answers DDC/CI requests on. Bus is -1 when no bus could be bound.
type DetectedMonitor struct {
	Connector *drm.Connector
	// Identity is nil when the connector exposed no parsable EDID.
	Identity *edid.Identity
	Bus      int
}

// Key returns a stable identifier for persistence lookups, preferring the
// EDID identity over the connector name.
func (m DetectedMonitor) Key() string {
	if m.Identity != nil {
		return m.Identity.Key()
	}
	return m.Connector.Name
}

// DetectMonitors finds all connected displays and binds each one to an i2c
// bus. The kernel names the bus directly for most connectors, the rest are
// bound by probing the remaining buses in ascending order. Each bus binds
// at most one monitor.
func DetectMonitors(client *ddcutil.Client) []*DetectedMonitor {
	connectors := drm.GetConnectedConnectors(drm.ClassDrmPath)
	buses := drm.I2CDevices(drm.DevPath)
	return detectMonitors(connectors, buses, client.Probe)
}

func detectMonitors(connectors []*drm.Connector, buses []int, probe func(bus int) error) []*DetectedMonitor {
	claimed := map[int]bool{}

	var detected []*DetectedMonitor
	var unbound []*DetectedMonitor
	for _, connector := range connectors {
		monitor := &DetectedMonitor{
			Connector: connector,
			Bus:       -1,
		}
		if connector.Edid != nil {
			identity, err := edid.Parse(connector.Edid)
			if err != nil {
				ui.Warning("Unable to parse EDID of %s: %v", connector.Name, err)
			} else {
				monitor.Identity = identity
			}
		}

		if connector.DdcBus >= 0 && !claimed[connector.DdcBus] {
			monitor.Bus = connector.DdcBus
			claimed[connector.DdcBus] = true
		} else {
			unbound = append(unbound, monitor)
		}
		detected = append(detected, monitor)
	}

	// connectors the kernel named no bus for get the first unclaimed bus
	// that answers a DDC/CI request
	for _, monitor := range unbound {
		for _, bus := range buses {
			if claimed[bus] {
				continue
			}
			if err := probe(bus); err != nil {
				continue
			}
			monitor.Bus = bus
			claimed[bus] = true
			break
		}
	}

	return detected
}

// Matches reports whether a detected monitor is the one described by the
// given ddc monitor configuration. All configured selectors must match.
func Matches(monitor *DetectedMonitor, config *configuration.DdcMonitorConfig) bool {
	if config.Bus != nil && *config.Bus != monitor.Bus {
		return false
	}
	if len(config.Connector) > 0 {
		matched, err := regexp.MatchString("(?i)"+config.Connector, monitor.Connector.Name)
		if err != nil || !matched {
			return false
		}
	}
	if len(config.Name) > 0 {
		if monitor.Identity == nil {
			return false
		}
		matched, err := regexp.MatchString("(?i)"+config.Name, monitor.Identity.String())
		if err != nil || !matched {
			return false
		}
	}
	return true
}
