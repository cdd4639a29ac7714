package vcp

import (
	"fmt"
	"strconv"
	"strings"
)

// Feature is a VCP feature code as defined by the MCCS standard.
type Feature byte

const (
	// FeatureBrightness is the luminance of the display (continuous).
	FeatureBrightness Feature = 0x10
	// FeatureContrast is the contrast of the display (continuous).
	FeatureContrast Feature = 0x12
	// FeatureInputSource selects the active video input (non-continuous).
	FeatureInputSource Feature = 0x60
	// FeatureVolume is the audio volume of the display speakers (continuous).
	FeatureVolume Feature = 0x62
	// FeaturePowerMode is the DPM power state of the display (non-continuous).
	FeaturePowerMode Feature = 0xD6
)

// SliderFeatures are the continuous features that map onto a 0..100 percent range.
var SliderFeatures = []Feature{FeatureBrightness, FeatureContrast, FeatureVolume}

func (f Feature) String() string {
	switch f {
	case FeatureBrightness:
		return "brightness"
	case FeatureContrast:
		return "contrast"
	case FeatureInputSource:
		return "input source"
	case FeatureVolume:
		return "volume"
	case FeaturePowerMode:
		return "power mode"
	}
	return fmt.Sprintf("0x%02X", byte(f))
}

// Value is a raw VCP reading.
type Value struct {
	Current uint16 `json:"current"`
	Maximum uint16 `json:"maximum"`
}

// Percent maps a raw value within [min, max] onto 0..100.
// Values outside the range are clamped, a degenerate range yields 0.
func Percent(current int, min int, max int) int {
	if max <= min {
		return 0
	}
	if current < min {
		current = min
	}
	if current > max {
		current = max
	}
	return (current - min) * 100 / (max - min)
}

// Raw maps a percent value 0..100 onto the raw range [min, max].
// Percentages outside 0..100 are clamped, a degenerate range yields min.
func Raw(percent int, min int, max int) int {
	if max <= min {
		return min
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return min + percent*(max-min)/100
}

// InputSource is a value of the input source feature.
type InputSource byte

const (
	InputVga          InputSource = 0x01
	InputDvi          InputSource = 0x03
	InputDisplayPort1 InputSource = 0x0F
	InputDisplayPort2 InputSource = 0x10
	InputHdmi1        InputSource = 0x11
	InputHdmi2        InputSource = 0x12
	InputHdmi3        InputSource = 0x13
	InputHdmi4        InputSource = 0x14
	InputUsbC         InputSource = 0x1B
)

// PlausibleInputSource reports whether a raw input source reading looks like a
// real selector value. Monitors without input switching tend to answer the
// request anyway, with garbage outside this range.
func PlausibleInputSource(value uint16) bool {
	return value >= 1 && value <= 27
}

func (s InputSource) Code() byte {
	return byte(s)
}

func (s InputSource) String() string {
	switch s {
	case InputVga:
		return "VGA"
	case InputDvi:
		return "DVI"
	case InputDisplayPort1:
		return "DisplayPort 1"
	case InputDisplayPort2:
		return "DisplayPort 2"
	case InputHdmi1:
		return "HDMI 1"
	case InputHdmi2:
		return "HDMI 2"
	case InputHdmi3:
		return "HDMI 3"
	case InputHdmi4:
		return "HDMI 4"
	case InputUsbC:
		return "USB-C"
	}
	return "Unknown"
}

// ParseInputSource accepts a numeric VCP code ("17", "0x11") or a
// case-insensitive human name ("HDMI 1", "hdmi1", "usb-c").
func ParseInputSource(value string) (InputSource, error) {
	if code, ok := parseCode(value); ok {
		return InputSource(code), nil
	}
	switch normalizeName(value) {
	case "vga":
		return InputVga, nil
	case "dvi":
		return InputDvi, nil
	case "displayport1", "dp1":
		return InputDisplayPort1, nil
	case "displayport2", "dp2":
		return InputDisplayPort2, nil
	case "hdmi1":
		return InputHdmi1, nil
	case "hdmi2":
		return InputHdmi2, nil
	case "hdmi3":
		return InputHdmi3, nil
	case "hdmi4":
		return InputHdmi4, nil
	case "usbc":
		return InputUsbC, nil
	}
	return 0, fmt.Errorf("unknown input source: %s", value)
}

// PowerMode is a value of the power mode feature.
type PowerMode byte

const (
	PowerOn      PowerMode = 0x01
	PowerStandby PowerMode = 0x02
	PowerSuspend PowerMode = 0x03
	PowerOff     PowerMode = 0x04
	PowerNormal  PowerMode = 0x05
)

// PlausiblePowerMode reports whether a raw power mode reading is one of the
// values the standard defines.
func PlausiblePowerMode(value uint16) bool {
	return value >= 1 && value <= 5
}

func (m PowerMode) Code() byte {
	return byte(m)
}

func (m PowerMode) String() string {
	switch m {
	case PowerOn:
		return "On"
	case PowerStandby:
		return "Standby"
	case PowerSuspend:
		return "Suspend"
	case PowerOff:
		return "Off"
	case PowerNormal:
		return "Normal"
	}
	return "Unknown"
}

// ParsePowerMode accepts a numeric VCP code ("4", "0x04") or a
// case-insensitive mode name ("Standby").
func ParsePowerMode(value string) (PowerMode, error) {
	if code, ok := parseCode(value); ok {
		return PowerMode(code), nil
	}
	switch normalizeName(value) {
	case "on":
		return PowerOn, nil
	case "standby":
		return PowerStandby, nil
	case "suspend":
		return PowerSuspend, nil
	case "off":
		return PowerOff, nil
	case "normal":
		return PowerNormal, nil
	}
	return 0, fmt.Errorf("unknown power mode: %s", value)
}

func parseCode(value string) (byte, bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 0, 8)
	if err != nil {
		return 0, false
	}
	return byte(parsed), true
}

func normalizeName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, sep := range []string{" ", "-", "_"} {
		value = strings.ReplaceAll(value, sep, "")
	}
	return value
}
