package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TudorHulban/tymbox"
)

const _EnvPrefix = "TYMBOX"

type Config struct {
	Timeline TimelineConfig
	Logger   LoggerConfig
	Plan     PlanConfig
}

type TimelineConfig struct {
	DayStart string // HH:MM local time
	Location string
	Duration time.Duration
}

type LoggerConfig struct {
	Level    string
	FilePath string
	Console  bool
}

type PlanConfig struct {
	Path   string
	Format string
}

// Load reads the configuration file at path, or looks for config.yaml
// in the usual places when path is empty.
// TYMBOX_ prefixed environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	if len(path) > 0 {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tymbox")
	}

	v.SetEnvPrefix(_EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if errRead := v.ReadInConfig(); errRead != nil {
		var errNotFound viper.ConfigFileNotFoundError

		if !errors.As(errRead, &errNotFound) {
			return nil,
				fmt.Errorf("error reading config file: %w", errRead)
		}
	}

	result := Config{
		Timeline: TimelineConfig{
			DayStart: v.GetString("timeline.day_start"),
			Duration: v.GetDuration("timeline.duration"),
			Location: v.GetString("timeline.location"),
		},

		Logger: LoggerConfig{
			Level:    v.GetString("logger.level"),
			Console:  v.GetBool("logger.console"),
			FilePath: v.GetString("logger.file_path"),
		},

		Plan: PlanConfig{
			Path:   v.GetString("plan.path"),
			Format: v.GetString("plan.format"),
		},
	}

	if _, errFormat := tymbox.ParseFormat(result.Plan.Format); errFormat != nil {
		return nil,
			errFormat
	}

	return &result,
		nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeline.day_start", "12:00")
	v.SetDefault("timeline.duration", "8h")
	v.SetDefault("timeline.location", "Local")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.console", true)
	v.SetDefault("plan.path", "tymbox.json")
	v.SetDefault("plan.format", string(tymbox.FormatJSON))
}

func (c *Config) LoadLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timeline.Location)
}

// TimelineFor returns the timeline of the day holding the given time.
func (c *Config) TimelineFor(day time.Time) (tymbox.Timeline, error) {
	location, errLocation := c.LoadLocation()
	if errLocation != nil {
		return tymbox.Timeline{},
			errLocation
	}

	clock, errParse := time.Parse("15:04", c.Timeline.DayStart)
	if errParse != nil {
		return tymbox.Timeline{},
			fmt.Errorf("timeline.day_start %q: %w", c.Timeline.DayStart, errParse)
	}

	if c.Timeline.Duration < time.Duration(tymbox.MinimumSeconds)*time.Second {
		return tymbox.Timeline{},
			fmt.Errorf(
				"timeline.duration %s: %w",

				c.Timeline.Duration,
				tymbox.ErrMinDurationViolation,
			)
	}

	local := day.In(location)

	return tymbox.Timeline{
			TimeStart: time.Date(
				local.Year(), local.Month(), local.Day(),
				clock.Hour(), clock.Minute(), 0, 0,
				location,
			).Unix(),

			SecondsDuration: int64(c.Timeline.Duration / time.Second),
		},
		nil
}
