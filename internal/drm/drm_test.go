package drm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// helper function to create a fake drm connector directory
func createConnector(t *testing.T, classDrmPath string, name string, status string, edidBlob []byte) {
	t.Helper()

	connectorPath := filepath.Join(classDrmPath, name)
	assert.NoError(t, os.MkdirAll(connectorPath, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(connectorPath, "status"), []byte(status+"\n"), 0644))
	if edidBlob != nil {
		assert.NoError(t, os.WriteFile(filepath.Join(connectorPath, "edid"), edidBlob, 0644))
	}
}

func TestGetConnectors(t *testing.T) {
	// GIVEN
	classDrmPath := t.TempDir()
	edidBlob := make([]byte, 128)
	createConnector(t, classDrmPath, "card0-DP-1", "connected", edidBlob)
	createConnector(t, classDrmPath, "card0-HDMI-A-1", "disconnected", nil)
	// card device itself and loose files must be ignored
	assert.NoError(t, os.MkdirAll(filepath.Join(classDrmPath, "card0"), 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(classDrmPath, "version"), []byte("drm 1.1.0"), 0644))

	// WHEN
	connectors := GetConnectors(classDrmPath)

	// THEN
	assert.Len(t, connectors, 2)
	assert.Equal(t, "card0-DP-1", connectors[0].Name)
	assert.True(t, connectors[0].Connected())
	assert.Equal(t, edidBlob, connectors[0].Edid)
	assert.Equal(t, "card0-HDMI-A-1", connectors[1].Name)
	assert.False(t, connectors[1].Connected())
}

func TestGetConnectedConnectors(t *testing.T) {
	// GIVEN
	classDrmPath := t.TempDir()
	createConnector(t, classDrmPath, "card0-DP-1", "connected", nil)
	createConnector(t, classDrmPath, "card0-DP-2", "disconnected", nil)

	// WHEN
	connected := GetConnectedConnectors(classDrmPath)

	// THEN
	assert.Len(t, connected, 1)
	assert.Equal(t, "card0-DP-1", connected[0].Name)
}

func TestGetConnectorsIgnoresShortEdid(t *testing.T) {
	// GIVEN
	classDrmPath := t.TempDir()
	createConnector(t, classDrmPath, "card0-DP-1", "connected", make([]byte, 64))

	// WHEN
	connectors := GetConnectors(classDrmPath)

	// THEN
	assert.Len(t, connectors, 1)
	assert.Nil(t, connectors[0].Edid)
}

func TestConnectorDdcBus(t *testing.T) {
	// GIVEN
	classDrmPath := t.TempDir()
	createConnector(t, classDrmPath, "card0-DP-1", "connected", nil)
	busPath := filepath.Join(classDrmPath, "i2c-5")
	assert.NoError(t, os.MkdirAll(busPath, 0755))
	assert.NoError(t, os.Symlink(busPath, filepath.Join(classDrmPath, "card0-DP-1", "ddc")))

	// WHEN
	connectors := GetConnectors(classDrmPath)

	// THEN
	assert.Len(t, connectors, 1)
	assert.Equal(t, 5, connectors[0].DdcBus)
}

func TestConnectorWithoutDdcBus(t *testing.T) {
	// GIVEN
	classDrmPath := t.TempDir()
	createConnector(t, classDrmPath, "card0-DP-1", "connected", nil)

	// WHEN
	connectors := GetConnectors(classDrmPath)

	// THEN
	assert.Equal(t, -1, connectors[0].DdcBus)
}

func TestI2CDevices(t *testing.T) {
	// GIVEN
	devPath := t.TempDir()
	for _, name := range []string{"i2c-10", "i2c-0", "i2c-3", "tty0", "null"} {
		assert.NoError(t, os.WriteFile(filepath.Join(devPath, name), []byte{}, 0644))
	}

	// WHEN
	buses := I2CDevices(devPath)

	// THEN
	assert.Equal(t, []int{0, 3, 10}, buses)
}

func TestI2CDevicePath(t *testing.T) {
	// WHEN
	path := I2CDevicePath("/dev", 4)

	// THEN
	assert.Equal(t, "/dev/i2c-4", path)
}
