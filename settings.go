package svc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

// Settings is the base configuration shared by Amptimal services. It
// covers the common knobs (logging, retry defaults, the health server
// port) and resolves each one from flags or environment variables, with
// environment variables derived from the flag names (--log-level comes
// from LOG_LEVEL, --health-port from HEALTH_PORT, and so on).
//
// Services with their own configuration register additional flags on
// [Settings.Flags] before calling [Settings.Load]:
//
//	settings := svc.NewSettings("pr-reviewer")
//	settings.Flags().AddFlag(ff.CoreFlagConfig{ ... })
//	if err := settings.Load(os.Args[1:]); err != nil { ... }
type Settings struct {
	// ServiceName identifies the service in logs and metrics.
	ServiceName string
	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string
	// LogFormat is "text", "json", "human" or "auto".
	LogFormat string
	// MaxRetryAttempts is the default attempt ceiling for retry loops.
	MaxRetryAttempts int
	// MaxBackoffSeconds is the default backoff ceiling for retry loops.
	MaxBackoffSeconds int
	// HealthPort is the listen port for the health/metrics server.
	HealthPort int
	// RedisURL is the shared Redis connection URL, empty if unused.
	RedisURL string

	flags *ff.CoreFlags
}

// NewSettings returns a Settings for the named service with the flag
// set built but not yet parsed.
func NewSettings(serviceName string) *Settings {
	s := &Settings{ServiceName: serviceName}
	flags := ff.NewFlags(serviceName + " settings")
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "log-level",
		Placeholder: "debug|info|warn|error",
		Usage:       "logging level",
		Value: &ffval.String{
			ParseFunc: oneOf("log level", "debug", "info", "warn", "error"),
			Pointer:   &s.LogLevel,
			Default:   "info",
		},
	})
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "log-format",
		Placeholder: "text|json|human|auto",
		Usage:       `logging format - "auto" picks 'human' if attached to a tty, 'json' otherwise`,
		Value: &ffval.String{
			ParseFunc: oneOf("log format", "text", "json", "human", "auto"),
			Pointer:   &s.LogFormat,
			Default:   "auto",
		},
	})
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "max-retry-attempts",
		Placeholder: "<n>",
		Usage:       "default max attempts for retry loops",
		Value: &ffval.Int{
			ParseFunc: atLeast("max retry attempts", 1),
			Pointer:   &s.MaxRetryAttempts,
			Default:   3,
		},
	})
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "max-backoff-seconds",
		Placeholder: "<seconds>",
		Usage:       "default backoff ceiling for retry loops",
		Value: &ffval.Int{
			ParseFunc: atLeast("max backoff seconds", 1),
			Pointer:   &s.MaxBackoffSeconds,
			Default:   300,
		},
	})
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "health-port",
		Placeholder: "<port>",
		Usage:       "listen port for the health/metrics server",
		Value: &ffval.Int{
			ParseFunc: atLeast("health port", 1),
			Pointer:   &s.HealthPort,
			Default:   8080,
		},
	})
	flags.AddFlag(ff.CoreFlagConfig{
		LongName:    "redis-url",
		Placeholder: "redis://<host>:<port>/<db>",
		Usage:       "shared Redis connection URL (optional)",
		Value: &ffval.String{
			Pointer: &s.RedisURL,
		},
	})
	s.flags = flags
	return s
}

// Flags exposes the underlying flag set so embedding services can add
// their own flags before Load.
func (s *Settings) Flags() *ff.CoreFlags {
	return s.flags
}

// Load parses args and the environment into the Settings. Environment
// variables take effect for any flag not set on the command line.
func (s *Settings) Load(args []string) error {
	return ff.Parse(s.flags, args, ff.WithEnvVars())
}

func oneOf(what string, valid ...string) func(string) (string, error) {
	return func(v string) (string, error) {
		v = strings.ToLower(v)
		for _, ok := range valid {
			if v == ok {
				return v, nil
			}
		}
		return "", fmt.Errorf("invalid %s %q", what, v)
	}
}

func atLeast(what string, minimum int) func(string) (int, error) {
	return func(v string) (int, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", what, v)
		}
		if n < minimum {
			return 0, fmt.Errorf("%s must be at least %d", what, minimum)
		}
		return n, nil
	}
}
