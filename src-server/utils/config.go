package utils

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"workdeck/src-server/schedule"
)

type Config struct {
	port          string
	dbPath        string
	sessionExpire time.Duration

	offDays      []time.Weekday
	graceBuffer  time.Duration
	workStartMin int
	workEndMin   int
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		dbPath: func() string {
			dbPath := os.Getenv("DB_PATH")
			if dbPath == "" {
				dbPath = "./sqlite.db"
			}
			slog.Debug("env", "DB_PATH", dbPath)
			return dbPath
		}(),

		sessionExpire: func() time.Duration {
			sessionExpire := os.Getenv("SESSION_EXPIRE")
			if sessionExpire == "" {
				slog.Warn("SESSION_EXPIRE is not set")
				sessionExpire = "168h" // 1 week
			}
			duration, err := time.ParseDuration(sessionExpire)
			if err != nil {
				slog.Error("invalid SESSION_EXPIRE", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SESSION_EXPIRE", sessionExpire, "duration", duration)
			return duration
		}(),

		offDays: func() []time.Weekday {
			raw := os.Getenv("OFF_DAYS")
			if raw == "" {
				raw = "Saturday,Sunday"
			}
			names := map[string]time.Weekday{
				"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
				"wednesday": time.Wednesday, "thursday": time.Thursday,
				"friday": time.Friday, "saturday": time.Saturday,
			}
			offDays := make([]time.Weekday, 0, 2)
			for _, name := range strings.Split(raw, ",") {
				wd, ok := names[strings.ToLower(strings.TrimSpace(name))]
				if !ok {
					slog.Error("invalid OFF_DAYS entry", "entry", name)
					os.Exit(1)
				}
				offDays = append(offDays, wd)
			}
			slog.Debug("env", "OFF_DAYS", raw)
			return offDays
		}(),

		graceBuffer: func() time.Duration {
			raw := os.Getenv("GRACE_BUFFER")
			if raw == "" {
				raw = "15m"
			}
			duration, err := time.ParseDuration(raw)
			if err != nil {
				slog.Error("invalid GRACE_BUFFER", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "GRACE_BUFFER", raw)
			return duration
		}(),

		workStartMin: envHour("WORK_START", 9),
		workEndMin:   envHour("WORK_END", 17),
	}
}

func envHour(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback * 60
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 24 {
		slog.Error("invalid hour env", "key", key, "value", raw)
		os.Exit(1)
	}
	slog.Debug("env", key, raw)
	return hour * 60
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DB_PATH env, default to ./sqlite.db
func (c *Config) GetDBPath() string {
	return c.dbPath
}

// Get SESSION_EXPIRE env
func (c *Config) GetSessionExpire() time.Duration {
	return c.sessionExpire
}

// Policy assembles the scheduling policy from the env-driven knobs,
// falling back to the stock policy's slot step.
func (c *Config) Policy() schedule.Policy {
	policy := schedule.DefaultPolicy()
	policy.OffDays = c.offDays
	policy.GraceBuffer = c.graceBuffer
	policy.WorkStartMin = c.workStartMin
	policy.WorkEndMin = c.workEndMin
	return policy
}
