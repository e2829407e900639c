package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendbot/internal/attendance"
	"attendbot/internal/bot"
	"attendbot/internal/config"
	"attendbot/internal/directory"
	"attendbot/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger(nil)
	log.Info("Starting attendbot application...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log = logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
		TimeFormat: "2006-01-02 15:04:05",
	})

	// Seed the user directory
	dir, err := directory.New(cfg.Users)
	if err != nil {
		log.Error("Failed to build user directory", "error", err)
		os.Exit(1)
	}
	log.Info("User directory loaded", "users", dir.Len(), "departments", dir.Departments())

	loc := cfg.Location()
	app := attendance.New(dir, attendance.Options{
		Now:    func() time.Time { return time.Now().In(loc) },
		Logger: log,
	})

	// Initialize bot
	discordBot, err := bot.New(cfg, app, log)
	if err != nil {
		log.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		s := <-signals
		log.Info("Received signal", "signal", s)
		cancel()
	}()

	// Start the bot
	go func() {
		if err := discordBot.Start(ctx); err != nil {
			log.Error("Error running bot", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Perform cleanup
	if err := discordBot.Shutdown(); err != nil {
		log.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}
