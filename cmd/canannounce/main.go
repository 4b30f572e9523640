package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/handler"
	"github.com/canannounce/canannounce/internal/lifecycle"
	"github.com/canannounce/canannounce/internal/middleware"
	"github.com/canannounce/canannounce/internal/router"
	"github.com/canannounce/canannounce/internal/service"
	"github.com/canannounce/canannounce/pkg/canvas"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	settings, err := config.NewSettingsStore(cfg.UserSettingsFile)
	if err != nil {
		log.Fatalf("failed to load user settings: %v", err)
	}

	// Services resolve the effective config through this at call time, so
	// settings saved while the tool is running apply without a restart.
	resolve := config.Provider(func() config.Config {
		return settings.Apply(cfg)
	})

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	client, err := canvas.New(canvas.Config{
		BaseURL: cfg.CanvasBaseURL,
		Token:   cfg.CanvasToken,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create canvas client: %v", err)
	}

	// Probe the token before serving anything; a bad token fails every
	// later call anyway, better to find out now.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 15*time.Second)
	profile, err := client.GetProfile(probeCtx)
	cancelProbe()
	if err != nil {
		log.Fatalf("canvas credential check failed: %v", err)
	}
	logger.Info().Str("user", profile.Name).Msg("canvas credentials verified")

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseService := service.NewCourseService(client, service.NewSemesterPatternMatcher(nil), logger)
	composerService := service.NewComposerService(client, resolve, nil, logger)
	announcementService := service.NewAnnouncementService(client, validate, resolve, nil, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    64 * 1024 * 1024,
	})

	terminator := lifecycle.NewTerminator(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.ShutdownWithContext(ctx)
	}, cfg.ShutdownDelay, logger)

	courseHandler := handler.NewCourseHandler(courseService, composerService, resolve, logger)
	announceHandler := handler.NewAnnounceHandler(announcementService, terminator, logger)
	settingsHandler := handler.NewSettingsHandler(cfg, settings, logger)

	middleware.Register(app)
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:   courseHandler,
		AnnounceHandler: announceHandler,
		SettingsHandler: settingsHandler,
		Settings:        settings,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(cfg.HTTPAddress())
	}()

	waitForShutdown(app, serverErr)
}

// waitForShutdown blocks until a termination signal arrives or the server
// stops on its own, which is what the post-submit self-shutdown does. Either
// way main returns and the process ends.
func waitForShutdown(app *fiber.App, serverErr <-chan error) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
		log.Println("server stopped")
		return
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
