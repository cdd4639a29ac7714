// Package ddcutil drives DDC/CI communication by delegating to the
// ddcutil binary, which handles the wire protocol and its quirk database.
package ddcutil

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
)

// ErrUnsupported is returned when the monitor reports an error for the
// requested feature.
var ErrUnsupported = errors.New("feature not supported by monitor")

type Client struct {
	// Executable is the name or path of the ddcutil binary.
	Executable string
	// Timeout limits a single ddcutil invocation.
	Timeout time.Duration
}

func NewClient(executable string, timeout time.Duration) *Client {
	return &Client{
		Executable: executable,
		Timeout:    timeout,
	}
}

// GetVCP reads the given feature from the monitor on the given I2C bus.
func (c *Client) GetVCP(bus int, feature vcp.Feature) (vcp.Value, error) {
	executable, err := c.resolveExecutable()
	if err != nil {
		return vcp.Value{}, err
	}

	args := []string{
		"--bus", strconv.Itoa(bus),
		"--brief",
		"getvcp", fmt.Sprintf("0x%02X", byte(feature)),
	}
	output, err := util.SafeCmdExecution(executable, args, c.Timeout)
	if err != nil {
		return vcp.Value{}, fmt.Errorf("getvcp %s failed on bus %d: %w", feature, bus, err)
	}

	return parseGetVCPOutput(output, feature)
}

// SetVCP writes the given raw feature value to the monitor on the given
// I2C bus. The write is not verified, the regular polling loop picks up
// the effective value.
func (c *Client) SetVCP(bus int, feature vcp.Feature, value uint16) error {
	executable, err := c.resolveExecutable()
	if err != nil {
		return err
	}

	args := []string{
		"--bus", strconv.Itoa(bus),
		"--brief",
		"--noverify",
		"setvcp", fmt.Sprintf("0x%02X", byte(feature)), strconv.Itoa(int(value)),
	}
	_, err = util.SafeCmdExecution(executable, args, c.Timeout)
	if err != nil {
		return fmt.Errorf("setvcp %s failed on bus %d: %w", feature, bus, err)
	}

	return nil
}

// Probe reports whether a display answers DDC/CI requests on the given
// bus. Brightness is used as the canary, virtually every DDC/CI capable
// monitor implements it.
func (c *Client) Probe(bus int) error {
	_, err := c.GetVCP(bus, vcp.FeatureBrightness)
	return err
}

func (c *Client) resolveExecutable() (string, error) {
	executable := c.Executable
	if executable == "" {
		executable = "ddcutil"
	}
	if filepath.IsAbs(executable) {
		return executable, nil
	}
	resolved, err := exec.LookPath(executable)
	if err != nil {
		return "", fmt.Errorf("ddcutil executable '%s' not found: %s", executable, err)
	}
	return resolved, nil
}

// parseGetVCPOutput extracts a feature reading from ddcutil --brief output.
// Continuous features report decimal current and maximum values:
//
//	VCP 10 C 50 100
//
// Non-continuous features report hex bytes:
//
//	VCP D6 SNC x01
//	VCP 60 CNC x00 x00 x00 x0f
func parseGetVCPOutput(output string, feature vcp.Feature) (vcp.Value, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "VCP" {
			continue
		}
		code, err := strconv.ParseUint(fields[1], 16, 8)
		if err != nil || vcp.Feature(code) != feature {
			continue
		}

		switch fields[2] {
		case "C":
			if len(fields) < 5 {
				return vcp.Value{}, fmt.Errorf("malformed continuous reading: %s", line)
			}
			current, err := strconv.ParseUint(fields[3], 10, 16)
			if err != nil {
				return vcp.Value{}, fmt.Errorf("malformed continuous reading: %s", line)
			}
			maximum, err := strconv.ParseUint(fields[4], 10, 16)
			if err != nil {
				return vcp.Value{}, fmt.Errorf("malformed continuous reading: %s", line)
			}
			return vcp.Value{Current: uint16(current), Maximum: uint16(maximum)}, nil
		case "SNC":
			if len(fields) < 4 {
				return vcp.Value{}, fmt.Errorf("malformed non-continuous reading: %s", line)
			}
			current, err := parseHexField(fields[3])
			if err != nil {
				return vcp.Value{}, fmt.Errorf("malformed non-continuous reading: %s", line)
			}
			return vcp.Value{Current: current}, nil
		case "CNC":
			if len(fields) < 7 {
				return vcp.Value{}, fmt.Errorf("malformed non-continuous reading: %s", line)
			}
			mh, err1 := parseHexField(fields[3])
			ml, err2 := parseHexField(fields[4])
			sh, err3 := parseHexField(fields[5])
			sl, err4 := parseHexField(fields[6])
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return vcp.Value{}, fmt.Errorf("malformed non-continuous reading: %s", line)
			}
			return vcp.Value{Current: sh<<8 | sl, Maximum: mh<<8 | ml}, nil
		case "ERR":
			return vcp.Value{}, ErrUnsupported
		}
	}

	return vcp.Value{}, fmt.Errorf("no reading for feature %s in ddcutil output", feature)
}

func parseHexField(field string) (uint16, error) {
	field = strings.TrimPrefix(field, "x")
	value, err := strconv.ParseUint(field, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(value), nil
}
