package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the announcement tool.
// It is assembled once at startup and passed explicitly; nothing reads
// process-wide mutable state afterwards.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	CanvasBaseURL string
	CanvasToken   string

	DefaultCourseID     string
	LookaheadDays       int
	PublishNow          bool
	IncludeQuizQuestion bool
	QuizPrompt          string

	// EntryUTCOffsetHours is the fixed offset publish dates typed into the
	// form are assumed to be in before conversion to UTC.
	EntryUTCOffsetHours int

	ShutdownAfterPost bool
	ShutdownDelay     time.Duration

	UserSettingsFile string
}

// Provider resolves the effective configuration at call time. Wiring one
// that layers the settings store over the startup values lets saved
// overrides take effect without a restart.
type Provider func() Config

// Static returns a Provider that always yields cfg.
func Static(cfg Config) Provider {
	return func() Config { return cfg }
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// EntryLocation returns the fixed-offset zone publish dates are entered in.
func (c Config) EntryLocation() *time.Location {
	name := fmt.Sprintf("UTC%+d", c.EntryUTCOffsetHours)
	return time.FixedZone(name, c.EntryUTCOffsetHours*3600)
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CANANNOUNCE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "canannounce")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("lookahead.days", 30)
	v.SetDefault("publish.now", false)
	v.SetDefault("quiz.include", true)
	v.SetDefault("quiz.prompt", "Practice Question from Upcoming Quiz")
	v.SetDefault("entry.utc_offset_hours", -5)
	v.SetDefault("shutdown.after_post", true)
	v.SetDefault("shutdown.delay", "2s")
	v.SetDefault("settings.file", "user_settings.json")

	delay, err := time.ParseDuration(v.GetString("shutdown.delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid shutdown delay: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		CanvasBaseURL:       strings.TrimRight(v.GetString("canvas.base_url"), "/"),
		CanvasToken:         v.GetString("canvas.token"),
		DefaultCourseID:     v.GetString("default.course_id"),
		LookaheadDays:       v.GetInt("lookahead.days"),
		PublishNow:          v.GetBool("publish.now"),
		IncludeQuizQuestion: v.GetBool("quiz.include"),
		QuizPrompt:          v.GetString("quiz.prompt"),
		EntryUTCOffsetHours: v.GetInt("entry.utc_offset_hours"),
		ShutdownAfterPost:   v.GetBool("shutdown.after_post"),
		ShutdownDelay:       delay,
		UserSettingsFile:    v.GetString("settings.file"),
	}

	if cfg.CanvasBaseURL == "" || cfg.CanvasToken == "" {
		return Config{}, fmt.Errorf("canvas base URL and token must be provided")
	}

	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 30
	}

	return cfg, nil
}
