package resilience

import (
	"time"

	"github.com/richxcame/cod-risk/pkg/config"
)

const (
	defaultInterval         = time.Minute
	defaultOpenTimeout      = 30 * time.Second
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
)

// BuildSettings converts breaker configuration into Settings. Non-positive values take defaults.
func BuildSettings(name string, cfg config.BreakerConfig) Settings {
	settings := Settings{
		Name:             name,
		Interval:         defaultInterval,
		Timeout:          defaultOpenTimeout,
		FailureThreshold: defaultFailureThreshold,
		SuccessThreshold: defaultSuccessThreshold,
	}
	if cfg.IntervalSeconds > 0 {
		settings.Interval = time.Duration(cfg.IntervalSeconds) * time.Second
	}
	if cfg.TimeoutSeconds > 0 {
		settings.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.FailureThreshold > 0 {
		settings.FailureThreshold = uint32(cfg.FailureThreshold)
	}
	if cfg.SuccessThreshold > 0 {
		settings.SuccessThreshold = uint32(cfg.SuccessThreshold)
	}
	return settings
}
