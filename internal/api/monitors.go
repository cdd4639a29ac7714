package api

import (
	"fmt"
	"net/http"

	"github.com/brightless/brightless/internal/controller"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

// valueDto is the body of the continuous feature endpoints. Writes set
// either an absolute Value or a relative Adjust, never both.
type valueDto struct {
	Value  *int `json:"value,omitempty"`
	Adjust *int `json:"adjust,omitempty"`
}

// selectionDto is the body of the input source and power mode endpoints.
// On writes Value accepts a numeric VCP code or a human readable name.
type selectionDto struct {
	Value any    `json:"value"`
	Name  string `json:"name,omitempty"`
}

func registerMonitorEndpoints(rest *echo.Echo) {
	group := rest.Group("/monitor")

	group.GET("/", getMonitors)
	group.GET("/:"+urlParamId+"/", getMonitor)

	group.GET("/:"+urlParamId+"/brightness/", getBrightness)
	group.PUT("/:"+urlParamId+"/brightness/", putBrightness)
	group.GET("/:"+urlParamId+"/contrast/", getContrast)
	group.PUT("/:"+urlParamId+"/contrast/", putContrast)
	group.GET("/:"+urlParamId+"/volume/", getVolume)
	group.PUT("/:"+urlParamId+"/volume/", putVolume)

	group.GET("/:"+urlParamId+"/input/", getInputSource)
	group.PUT("/:"+urlParamId+"/input/", putInputSource)
	group.GET("/:"+urlParamId+"/power/", getPowerMode)
	group.PUT("/:"+urlParamId+"/power/", putPowerMode)
}

// returns a list of all currently known monitors
func getMonitors(c echo.Context) error {
	data := reprint.This(monitors.MonitorMap.Items())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getMonitor(c echo.Context) error {
	id := c.Param(urlParamId)
	data, exists := monitors.MonitorMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	}
}

func getBrightness(c echo.Context) error {
	return getFeatureValue(c, vcp.FeatureBrightness)
}

func putBrightness(c echo.Context) error {
	return putFeatureValue(c, vcp.FeatureBrightness)
}

func getContrast(c echo.Context) error {
	return getFeatureValue(c, vcp.FeatureContrast)
}

func putContrast(c echo.Context) error {
	return putFeatureValue(c, vcp.FeatureContrast)
}

func getVolume(c echo.Context) error {
	return getFeatureValue(c, vcp.FeatureVolume)
}

func putVolume(c echo.Context) error {
	return putFeatureValue(c, vcp.FeatureVolume)
}

func getFeatureValue(c echo.Context, feature vcp.Feature) error {
	id := c.Param(urlParamId)
	monitor, exists := monitors.MonitorMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	if !monitor.Supports(feature) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support %s", id, feature))
	}

	value, err := monitor.GetValue(feature)
	if err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &valueDto{Value: &value}, indentationChar)
}

// putFeatureValue writes through the controller of the monitor, so that
// manual changes suspend schedule control the same way they do on the CLI.
func putFeatureValue(c echo.Context, feature vcp.Feature) error {
	id := c.Param(urlParamId)
	ctrl, exists := controller.ControllerMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	monitor := ctrl.GetMonitor()
	if !monitor.Supports(feature) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support %s", id, feature))
	}

	var dto valueDto
	if err := c.Bind(&dto); err != nil {
		return returnBadRequest(c, "body must be json with a 'value' or 'adjust' field")
	}

	var percent int
	switch {
	case dto.Value != nil && dto.Adjust != nil:
		return returnBadRequest(c, "'value' and 'adjust' are mutually exclusive")
	case dto.Value != nil:
		if *dto.Value < 0 || *dto.Value > 100 {
			return returnBadRequest(c, fmt.Sprintf("value %d is outside 0..100", *dto.Value))
		}
		percent = *dto.Value
	case dto.Adjust != nil:
		current, err := monitor.GetValue(feature)
		if err != nil {
			return returnMonitorError(c, err)
		}
		percent = util.CoerceInt(current+*dto.Adjust, 0, 100)
	default:
		return returnBadRequest(c, "body must contain a 'value' or 'adjust' field")
	}

	if err := ctrl.SetValue(feature, percent); err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &valueDto{Value: &percent}, indentationChar)
}

func getInputSource(c echo.Context) error {
	id := c.Param(urlParamId)
	monitor, exists := monitors.MonitorMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	if !monitor.Supports(vcp.FeatureInputSource) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support input source switching", id))
	}

	source, err := monitor.GetInputSource()
	if err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &selectionDto{Value: int(source), Name: source.String()}, indentationChar)
}

func putInputSource(c echo.Context) error {
	id := c.Param(urlParamId)
	ctrl, exists := controller.ControllerMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	if !ctrl.GetMonitor().Supports(vcp.FeatureInputSource) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support input source switching", id))
	}

	var dto selectionDto
	if err := c.Bind(&dto); err != nil {
		return returnBadRequest(c, "body must be json with a 'value' field")
	}
	source, err := parseInputSourceValue(dto.Value)
	if err != nil {
		return returnBadRequest(c, err.Error())
	}

	if err := ctrl.SetInputSource(source); err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &selectionDto{Value: int(source), Name: source.String()}, indentationChar)
}

func getPowerMode(c echo.Context) error {
	id := c.Param(urlParamId)
	monitor, exists := monitors.MonitorMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	if !monitor.Supports(vcp.FeaturePowerMode) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support power mode control", id))
	}

	mode, err := monitor.GetPowerMode()
	if err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &selectionDto{Value: int(mode), Name: mode.String()}, indentationChar)
}

func putPowerMode(c echo.Context) error {
	id := c.Param(urlParamId)
	ctrl, exists := controller.ControllerMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	if !ctrl.GetMonitor().Supports(vcp.FeaturePowerMode) {
		return returnBadRequest(c, fmt.Sprintf("monitor '%s' does not support power mode control", id))
	}

	var dto selectionDto
	if err := c.Bind(&dto); err != nil {
		return returnBadRequest(c, "body must be json with a 'value' field")
	}
	mode, err := parsePowerModeValue(dto.Value)
	if err != nil {
		return returnBadRequest(c, err.Error())
	}

	if err := ctrl.SetPowerMode(mode); err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, &selectionDto{Value: int(mode), Name: mode.String()}, indentationChar)
}

// parseInputSourceValue accepts the json forms "HDMI 1", "0x11" and 17.
func parseInputSourceValue(value any) (vcp.InputSource, error) {
	switch v := value.(type) {
	case string:
		return vcp.ParseInputSource(v)
	case float64:
		code := int(v)
		if code < 0 || !vcp.PlausibleInputSource(uint16(code)) {
			return 0, fmt.Errorf("input source code %d is outside the plausible range", code)
		}
		return vcp.InputSource(code), nil
	}
	return 0, fmt.Errorf("input source must be a name or a numeric code")
}

func parsePowerModeValue(value any) (vcp.PowerMode, error) {
	switch v := value.(type) {
	case string:
		return vcp.ParsePowerMode(v)
	case float64:
		code := int(v)
		if code < 0 || !vcp.PlausiblePowerMode(uint16(code)) {
			return 0, fmt.Errorf("power mode code %d is outside the defined range", code)
		}
		return vcp.PowerMode(code), nil
	}
	return 0, fmt.Errorf("power mode must be a name or a numeric code")
}
