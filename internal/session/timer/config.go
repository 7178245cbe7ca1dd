package timer

import (
	"time"

	"github.com/smallbiznis/cyberdesk/internal/config"
)

const defaultTickInterval = time.Second

type Config struct {
	TickInterval time.Duration
	AlarmMode    string
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.AlarmMode == "" {
		c.AlarmMode = config.AlarmModeBell
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		TickInterval: cfg.Timer.TickInterval,
		AlarmMode:    cfg.Alarm.Mode,
	}.withDefaults()
}
