package service

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testProvider() config.Provider {
	return config.Static(testConfig())
}

func testConfig() config.Config {
	return config.Config{
		AppName:             "canannounce",
		LookaheadDays:       30,
		IncludeQuizQuestion: true,
		QuizPrompt:          "Practice Question from Upcoming Quiz",
		EntryUTCOffsetHours: -5,
		ShutdownAfterPost:   true,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func timePtr(t time.Time) *time.Time { return &t }
