package lifecycle

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// graceWindow bounds how long a graceful shutdown may take before the
// process is exited abruptly.
const graceWindow = 5 * time.Second

// Terminator is a one-shot deferred self-termination trigger. After a
// successful post the hosting process arms it; the delay lets the HTTP
// response flush before the server stops. Arming is idempotent and cannot
// be canceled.
type Terminator struct {
	shutdown func() error
	delay    time.Duration
	exit     func(code int)
	once     sync.Once
	logger   zerolog.Logger
}

// NewTerminator constructs a terminator around the given graceful shutdown
// func. A non-positive delay defaults to two seconds.
func NewTerminator(shutdown func() error, delay time.Duration, logger zerolog.Logger) *Terminator {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Terminator{
		shutdown: shutdown,
		delay:    delay,
		exit:     os.Exit,
		logger:   logger.With().Str("component", "terminator").Logger(),
	}
}

// Arm schedules the shutdown. Only the first call has any effect.
func (t *Terminator) Arm() {
	t.once.Do(func() {
		t.logger.Info().Dur("delay", t.delay).Msg("self-shutdown armed")
		go t.run()
	})
}

func (t *Terminator) run() {
	time.Sleep(t.delay)

	done := make(chan error, 1)
	go func() { done <- t.shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.logger.Error().Err(err).Msg("graceful shutdown failed, exiting")
			t.exit(0)
		}
	case <-time.After(graceWindow):
		t.logger.Error().Msg("graceful shutdown timed out, exiting")
		t.exit(0)
	}
}
