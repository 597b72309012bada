// Package config loads daemon settings from flags, INDICATOR_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/turn-indicator/internal/gpio"
	"github.com/sweeney/turn-indicator/internal/logger"
	"github.com/sweeney/turn-indicator/internal/logic"
)

// EnvPrefix is prepended to every environment variable, e.g. INDICATOR_TICK.
const EnvPrefix = "INDICATOR"

// Defaults for settings that are not part of the controller timing.
const (
	DefaultBroker    = "tcp://localhost:1883"
	DefaultHeartbeat = 15 * time.Minute
	DefaultHTTPAddr  = ":80"
)

// Config is the fully resolved daemon configuration.
type Config struct {
	Timing     logic.Config
	GPIOChip   string
	Pins       gpio.Pins
	Serial     string // "" or "-" means stdout
	Broker     string // "" disables MQTT
	Heartbeat  time.Duration
	HTTPAddr   string // "" disables the status server
	LogLevel   string
	PrintState bool
	File       string
}

// Load parses args (without the program name) and resolves the configuration.
// It returns pflag.ErrHelp when --help was requested.
func Load(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Timing: logic.Config{
			TickPeriod:  v.GetDuration("tick"),
			LongPress:   v.GetDuration("long-press"),
			HazardHold:  v.GetDuration("hazard-hold"),
			BlinkTicks:  v.GetInt("blink-ticks"),
			StatusTicks: v.GetInt("status-ticks"),
		},
		GPIOChip: v.GetString("gpio-chip"),
		Pins: gpio.Pins{
			LeftButton:  v.GetInt("pin-left-button"),
			RightButton: v.GetInt("pin-right-button"),
			LeftLamp:    v.GetInt("pin-left-lamp"),
			RightLamp:   v.GetInt("pin-right-lamp"),
		},
		Serial:     v.GetString("serial"),
		Broker:     v.GetString("broker"),
		Heartbeat:  v.GetDuration("heartbeat"),
		HTTPAddr:   v.GetString("http"),
		LogLevel:   v.GetString("log-level"),
		PrintState: v.GetBool("print-state"),
		File:       v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	d := logic.DefaultConfig()
	pins := gpio.DefaultPins()

	fs := pflag.NewFlagSet("indicatord", pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.Duration("tick", d.TickPeriod, "Scheduler tick period")
	fs.Duration("long-press", d.LongPress, "Minimum hold for a press to toggle an indicator")
	fs.Duration("hazard-hold", d.HazardHold, "Both-button hold that turns the hazard lights on")
	fs.Int("blink-ticks", d.BlinkTicks, "Ticks between lamp toggles")
	fs.Int("status-ticks", d.StatusTicks, "Ticks between status lines")
	fs.String("gpio-chip", gpio.DefaultChip, "GPIO character device")
	fs.Int("pin-left-button", pins.LeftButton, "BCM pin for the left button")
	fs.Int("pin-right-button", pins.RightButton, "BCM pin for the right button")
	fs.Int("pin-left-lamp", pins.LeftLamp, "BCM pin for the left lamp")
	fs.Int("pin-right-lamp", pins.RightLamp, "BCM pin for the right lamp")
	fs.String("serial", "", `Serial device for log lines ("" or "-" for stdout)`)
	fs.String("broker", DefaultBroker, "MQTT broker address (empty to disable)")
	fs.Duration("heartbeat", DefaultHeartbeat, "Heartbeat interval (0 to disable)")
	fs.String("http", DefaultHTTPAddr, "HTTP status address (empty to disable)")
	fs.String("log-level", logger.InfoLevel, "Diagnostics log level (debug, info, warn, error)")
	fs.Bool("print-state", false, "Print current button state and exit")
	return fs
}

// setDefaults mirrors the flag defaults so file and env values that are
// unset fall back the same way.
func setDefaults(v *viper.Viper) {
	d := logic.DefaultConfig()
	v.SetDefault("tick", d.TickPeriod)
	v.SetDefault("long-press", d.LongPress)
	v.SetDefault("hazard-hold", d.HazardHold)
	v.SetDefault("blink-ticks", d.BlinkTicks)
	v.SetDefault("status-ticks", d.StatusTicks)
	v.SetDefault("gpio-chip", gpio.DefaultChip)
	v.SetDefault("heartbeat", DefaultHeartbeat)
	v.SetDefault("log-level", logger.InfoLevel)
}

// Validate rejects settings the controller cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Timing.TickPeriod <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %v", c.Timing.TickPeriod))
	}
	if c.Timing.LongPress <= 0 {
		errs = append(errs, fmt.Errorf("long-press must be positive, got %v", c.Timing.LongPress))
	}
	if c.Timing.HazardHold <= 0 {
		errs = append(errs, fmt.Errorf("hazard-hold must be positive, got %v", c.Timing.HazardHold))
	}
	if c.Timing.BlinkTicks < 1 {
		errs = append(errs, fmt.Errorf("blink-ticks must be at least 1, got %d", c.Timing.BlinkTicks))
	}
	if c.Timing.StatusTicks < 1 {
		errs = append(errs, fmt.Errorf("status-ticks must be at least 1, got %d", c.Timing.StatusTicks))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
