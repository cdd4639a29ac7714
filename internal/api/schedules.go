package api

import (
	"net/http"

	"github.com/brightless/brightless/internal/schedules"
	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"
)

func registerScheduleEndpoints(rest *echo.Echo) {
	group := rest.Group("/schedule")

	group.GET("/", getSchedules)
	group.GET("/:"+urlParamId+"/", getSchedule)
}

// returns a list of all currently configured schedules
func getSchedules(c echo.Context) error {
	data := reprint.This(schedules.ScheduleMap.Items())
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getSchedule(c echo.Context) error {
	id := c.Param(urlParamId)
	data, exists := schedules.ScheduleMap.Get(id)
	if !exists {
		return returnNotFound(c, id)
	} else {
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	}
}
