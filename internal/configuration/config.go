package configuration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/brightless/brightless/internal/ui"
	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	// PollingRate is the interval between reads of monitor values.
	PollingRate            time.Duration `json:"pollingRate"`
	ValueRollingWindowSize int           `json:"valueRollingWindowSize"`

	// ScheduleTickRate is the interval between schedule evaluations.
	ScheduleTickRate time.Duration `json:"scheduleTickRate"`
	// TransitionTickRate is the interval between steps while approaching
	// a schedule target.
	TransitionTickRate time.Duration `json:"transitionTickRate"`
	// MaxStepPerTick limits the percent change applied per transition tick.
	// Zero disables the limit, targets are applied in a single step.
	MaxStepPerTick int `json:"maxStepPerTick"`

	// AdjustStep is the default percent step of relative value adjustments.
	AdjustStep int `json:"adjustStep"`

	DdcutilPath string        `json:"ddcutilPath"`
	DdcTimeout  time.Duration `json:"ddcTimeout"`

	RestoreOnStartup bool `json:"restoreOnStartup"`
	RestoreOnResume  bool `json:"restoreOnResume"`
	// ResumeDelay is the grace period between a resume event and state
	// restoration, giving monitors time to wake up.
	ResumeDelay time.Duration `json:"resumeDelay"`

	Monitors  []MonitorConfig  `json:"monitors"`
	Profiles  []ProfileConfig  `json:"profiles"`
	Schedules []ScheduleConfig `json:"schedules"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("brightless")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(home, ".config", "brightless"))
		viper.AddConfigPath("/etc/brightless/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/brightless/brightless.db")

	viper.SetDefault("pollingRate", 2*time.Second)
	viper.SetDefault("valueRollingWindowSize", 10)

	viper.SetDefault("scheduleTickRate", 1*time.Minute)
	viper.SetDefault("transitionTickRate", 500*time.Millisecond)
	viper.SetDefault("maxStepPerTick", 5)

	viper.SetDefault("adjustStep", 2)

	viper.SetDefault("ddcutilPath", "ddcutil")
	viper.SetDefault("ddcTimeout", 10*time.Second)

	viper.SetDefault("restoreOnStartup", true)
	viper.SetDefault("restoreOnResume", true)
	viper.SetDefault("resumeDelay", 3*time.Second)

	viper.SetDefault("monitors", []MonitorConfig{})
	viper.SetDefault("profiles", []ProfileConfig{})
	viper.SetDefault("schedules", []ScheduleConfig{})

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9612)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9613)
}

// DetectConfigFile detects the path of the first existing config file
func DetectConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	return GetFilePath()
}

// DetectAndReadConfigFile detects the path of the first existing config file and reads it
func DetectAndReadConfigFile() string {
	path := DetectConfigFile()
	LoadConfig()
	return path
}

// GetFilePath this is only populated _after_ viper.ReadInConfig()
func GetFilePath() string {
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	// load default configuration values
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			vcpValueHookFunc(),
			DefaultTrueBoolHookFunc(),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
