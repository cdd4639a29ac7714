package configuration

import (
	"fmt"
	"regexp"

	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/util"
	"github.com/looplab/tarjan"
	"golang.org/x/exp/slices"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	err := validateSchedules(config)
	if err != nil {
		return err
	}
	err = validateProfiles(config)
	if err != nil {
		return err
	}
	err = validateMonitors(config)
	if err != nil {
		return err
	}

	// ddcutilPath is taken from the config and executed as root, so the
	// config file itself must not be writable by unprivileged users.
	if containsDdcMonitors(config) && path != "" {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return fmt.Errorf("config file '%s' has invalid permissions: %s", path, err)
		}
	}

	return nil
}

// containsDdcMonitors returns true when ddcutil will be executed, either
// for an explicitly configured ddc monitor or because auto detection is
// active (no monitors configured at all).
func containsDdcMonitors(config *Configuration) bool {
	if len(config.Monitors) == 0 {
		return true
	}
	for _, monitorConfig := range config.Monitors {
		if monitorConfig.Ddc != nil {
			return true
		}
	}

	return false
}

func validateMonitors(config *Configuration) error {
	monitorIds := []string{}
	for _, monitorConfig := range config.Monitors {
		if slices.Contains(monitorIds, monitorConfig.ID) {
			return fmt.Errorf("duplicate monitor id detected: %s", monitorConfig.ID)
		}
		monitorIds = append(monitorIds, monitorConfig.ID)

		subConfigs := 0
		if monitorConfig.Ddc != nil {
			subConfigs++
		}
		if monitorConfig.Backlight != nil {
			subConfigs++
		}
		if monitorConfig.File != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("monitor %s: only one monitor type can be used per monitor definition block", monitorConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("monitor %s: sub-configuration for monitor is missing, use one of: ddc | backlight | file", monitorConfig.ID)
		}

		if monitorConfig.Ddc != nil {
			ddcConfig := monitorConfig.Ddc
			if ddcConfig.Connector == "" && ddcConfig.Name == "" && ddcConfig.Bus == nil {
				return fmt.Errorf("monitor %s: ddc monitor requires one of: connector | name | bus", monitorConfig.ID)
			}
			if ddcConfig.Bus != nil && *ddcConfig.Bus < 0 {
				return fmt.Errorf("monitor %s: invalid bus, must be >= 0", monitorConfig.ID)
			}
			if _, err := regexp.Compile(ddcConfig.Connector); err != nil {
				return fmt.Errorf("monitor %s: invalid connector pattern: %s", monitorConfig.ID, err)
			}
			if _, err := regexp.Compile(ddcConfig.Name); err != nil {
				return fmt.Errorf("monitor %s: invalid name pattern: %s", monitorConfig.ID, err)
			}
		}

		if monitorConfig.Backlight != nil {
			if len(monitorConfig.Backlight.Device) <= 0 {
				return fmt.Errorf("monitor %s: no backlight device provided", monitorConfig.ID)
			}
		}

		if monitorConfig.File != nil {
			if len(monitorConfig.File.Path) <= 0 {
				return fmt.Errorf("monitor %s: no file path provided", monitorConfig.ID)
			}
		}

		if monitorConfig.Schedule != "" && !scheduleIdExists(monitorConfig.Schedule, config) {
			return fmt.Errorf("monitor %s: no schedule definition with id '%s' found", monitorConfig.ID, monitorConfig.Schedule)
		}
	}

	return nil
}

func validateProfiles(config *Configuration) error {
	graph := make(map[interface{}][]interface{})

	profileIds := []string{}
	for _, profileConfig := range config.Profiles {
		if slices.Contains(profileIds, profileConfig.ID) {
			return fmt.Errorf("duplicate profile id detected: %s", profileConfig.ID)
		}
		profileIds = append(profileIds, profileConfig.ID)

		if profileConfig.Extends != "" {
			if profileConfig.Extends == profileConfig.ID {
				return fmt.Errorf("profile %s: a profile cannot extend itself", profileConfig.ID)
			}
			if !profileIdExists(profileConfig.Extends, config) {
				return fmt.Errorf("profile %s: no profile definition with id '%s' found", profileConfig.ID, profileConfig.Extends)
			}
			graph[profileConfig.ID] = []interface{}{profileConfig.Extends}
		}

		if err := validatePercent(profileConfig.ID, "brightness", profileConfig.Brightness); err != nil {
			return err
		}
		if err := validatePercent(profileConfig.ID, "contrast", profileConfig.Contrast); err != nil {
			return err
		}
		if err := validatePercent(profileConfig.ID, "volume", profileConfig.Volume); err != nil {
			return err
		}

		if profileConfig.InputSource != nil {
			if _, err := profileConfig.InputSource.Parse(); err != nil {
				return fmt.Errorf("profile %s: %s", profileConfig.ID, err)
			}
		}
		if profileConfig.PowerMode != nil {
			if _, err := profileConfig.PowerMode.Parse(); err != nil {
				return fmt.Errorf("profile %s: %s", profileConfig.ID, err)
			}
		}
	}

	return validateNoLoops(graph)
}

func validatePercent(profileId string, field string, value *int) error {
	if value == nil {
		return nil
	}
	if *value < 0 || *value > 100 {
		return fmt.Errorf("profile %s: %s must be in [0..100], got %d", profileId, field, *value)
	}

	return nil
}

func validateNoLoops(graph map[interface{}][]interface{}) error {
	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			return fmt.Errorf("you have created a profile dependency cycle: %v", items)
		}
	}
	return nil
}

func validateSchedules(config *Configuration) error {
	scheduleIds := []string{}
	for _, scheduleConfig := range config.Schedules {
		if slices.Contains(scheduleIds, scheduleConfig.ID) {
			return fmt.Errorf("duplicate schedule id detected: %s", scheduleConfig.ID)
		}
		scheduleIds = append(scheduleIds, scheduleConfig.ID)

		if len(scheduleConfig.Points) <= 0 {
			return fmt.Errorf("schedule %s: at least one point is required", scheduleConfig.ID)
		}

		for clock, percent := range scheduleConfig.Points {
			if _, err := util.ParseClockTime(clock); err != nil {
				return fmt.Errorf("schedule %s: %s", scheduleConfig.ID, err)
			}
			if percent < 0 || percent > 100 {
				return fmt.Errorf("schedule %s: point %s must be in [0..100], got %d", scheduleConfig.ID, clock, percent)
			}
		}

		if !isScheduleConfigInUse(scheduleConfig, config.Monitors) {
			ui.Warning("Unused schedule configuration: %s", scheduleConfig.ID)
		}
	}

	return nil
}

func isScheduleConfigInUse(config ScheduleConfig, monitors []MonitorConfig) bool {
	for _, monitorConfig := range monitors {
		if monitorConfig.Schedule == config.ID {
			return true
		}
	}

	return false
}

func scheduleIdExists(scheduleId string, config *Configuration) bool {
	for _, schedule := range config.Schedules {
		if schedule.ID == scheduleId {
			return true
		}
	}

	return false
}

func profileIdExists(profileId string, config *Configuration) bool {
	for _, profile := range config.Profiles {
		if profile.ID == profileId {
			return true
		}
	}

	return false
}
