package api

import (
	"errors"
	"net/http"

	"github.com/brightless/brightless/internal/controller"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

// applyDto restricts a profile application to a single monitor. An empty
// body applies the profile to every monitor.
type applyDto struct {
	Monitor string `json:"monitor,omitempty"`
}

func registerProfileEndpoints(rest *echo.Echo) {
	group := rest.Group("/profile")

	group.GET("/", getProfiles)
	group.GET("/:"+urlParamId+"/", getProfile)
	group.POST("/:"+urlParamId+"/apply/", applyProfile)
}

// returns a list of all currently configured profiles
func getProfiles(c echo.Context) error {
	data := reprint.This(profiles.ProfileMap.Items())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getProfile(c echo.Context) error {
	id := c.Param(urlParamId)
	data, exists := profiles.ProfileMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	}
}

func applyProfile(c echo.Context) error {
	id := c.Param(urlParamId)
	if _, exists := profiles.ProfileMap.Get(id); !exists {
		return returnNotFound(c, id)
	}

	values, err := profiles.Flatten(id)
	if err != nil {
		return returnError(c, err)
	}

	var dto applyDto
	if err := c.Bind(&dto); err != nil {
		return returnBadRequest(c, "body must be empty or json with a 'monitor' field")
	}

	targets := controller.ControllerMap.Items()
	if dto.Monitor != "" {
		ctrl, exists := controller.ControllerMap.Get(dto.Monitor)
		if !exists {
			return returnNotFound(c, dto.Monitor)
		}
		targets = map[string]controller.MonitorController{dto.Monitor: ctrl}
	}

	var errs []error
	for _, ctrl := range targets {
		if err := ctrl.ApplyValues(*values); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return returnMonitorError(c, err)
	}
	return c.JSONPretty(http.StatusOK, values, indentationChar)
}
