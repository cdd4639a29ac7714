package drm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/brightless/brightless/internal/edid"
)

const (
	// ClassDrmPath is where the kernel exposes its view of display connectors.
	ClassDrmPath = "/sys/class/drm"
	// DevPath is where i2c character devices live.
	DevPath = "/dev"

	StatusConnected = "connected"
)

// Connector is a display connector as reported by the DRM subsystem.
type Connector struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	// Edid is the raw EDID blob, nil when the connector does not expose a
	// plausible one.
	Edid []byte `json:"-"`
	// DdcBus is the i2c bus number behind the connector's ddc link,
	// -1 when the kernel does not expose one.
	DdcBus int `json:"ddcBus"`
}

func (c Connector) Connected() bool {
	return c.Status == StatusConnected
}

// GetConnectors lists all display connectors found under the given
// /sys/class/drm style directory. Entries without a readable status
// file (the card devices themselves, render nodes) are skipped.
func GetConnectors(classDrmPath string) []*Connector {
	entries, err := os.ReadDir(classDrmPath)
	if err != nil {
		return nil
	}

	var connectors []*Connector
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "card") && !strings.Contains(name, "-") {
			continue
		}

		connectorPath := filepath.Join(classDrmPath, name)
		status, err := os.ReadFile(filepath.Join(connectorPath, "status"))
		if err != nil {
			continue
		}

		connector := &Connector{
			Name:   name,
			Status: strings.TrimSpace(string(status)),
			DdcBus: readDdcBus(connectorPath),
		}

		blob, err := os.ReadFile(filepath.Join(connectorPath, "edid"))
		if err == nil && len(blob) >= edid.MinLength {
			connector.Edid = blob
		}

		connectors = append(connectors, connector)
	}

	return connectors
}

// GetConnectedConnectors returns only the connectors with a connected display.
func GetConnectedConnectors(classDrmPath string) []*Connector {
	var connected []*Connector
	for _, connector := range GetConnectors(classDrmPath) {
		if connector.Connected() {
			connected = append(connected, connector)
		}
	}
	return connected
}

// readDdcBus resolves the connector's ddc link to an i2c bus number.
func readDdcBus(connectorPath string) int {
	target, err := filepath.EvalSymlinks(filepath.Join(connectorPath, "ddc"))
	if err != nil {
		return -1
	}
	bus, err := parseI2cBusNumber(filepath.Base(target))
	if err != nil {
		return -1
	}
	return bus
}

// I2CDevices lists the bus numbers of all i2c character devices below the
// given /dev style directory, in ascending order.
func I2CDevices(devPath string) []int {
	entries, err := os.ReadDir(devPath)
	if err != nil {
		return nil
	}

	var buses []int
	for _, entry := range entries {
		bus, err := parseI2cBusNumber(entry.Name())
		if err != nil {
			continue
		}
		buses = append(buses, bus)
	}
	sort.Ints(buses)

	return buses
}

// I2CDevicePath returns the character device path of the given i2c bus.
func I2CDevicePath(devPath string, bus int) string {
	return filepath.Join(devPath, "i2c-"+strconv.Itoa(bus))
}

func parseI2cBusNumber(name string) (int, error) {
	suffix, found := strings.CutPrefix(name, "i2c-")
	if !found {
		return 0, fmt.Errorf("not an i2c device: %s", name)
	}
	return strconv.Atoi(suffix)
}
