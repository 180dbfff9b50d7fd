package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"raffle/internal/config"
	"raffle/internal/handlers"
	"raffle/internal/jobs"
	"raffle/internal/services"
	"raffle/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Load settings from .env and the environment
	cfg, err := config.Load(".env")
	if err != nil {
		config.Exitf("Failed to load config: %v", err)
	}
	if err := run(cfg); err != nil {
		config.Exitf("%v", err)
	}
}

// run serves until the server stops. Every resource it opens is released
// before it returns.
func run(cfg config.Config) error {
	// 2. Initialize logging
	var logFile io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}
	defer logger.Init("raffle", cfg.Verbose, false, logFile).Close()

	// 3. Open the journal store
	var store services.Store
	if cfg.Ephemeral {
		store = services.NewMemoryStore()
		logger.Info("Running with an in-memory journal; state is lost on exit.")
	} else {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			logger.Errorf("Failed to open database %s: %v", cfg.DBPath, err)
			return err
		}
		defer db.Close()
		store = db
	}

	// 4. Initialize the Lottery Service and replay the journal
	ctx := context.Background()
	lotteryService := services.NewLotteryService(store, services.WithTreasury(services.LogTreasury{}))
	restored, err := lotteryService.Restore(ctx)
	if err != nil {
		logger.Errorf("Failed to restore lotteries: %v", err)
		return err
	}

	// 5. Deploy the configured lottery on first start
	if restored == 0 && cfg.DeployFile != "" {
		deployment, admin, err := config.LoadDeployment(cfg.DeployFile)
		if err != nil {
			logger.Errorf("Failed to load deployment: %v", err)
			return err
		}
		if _, err := lotteryService.Create(ctx, admin, deployment.Lottery); err != nil {
			logger.Errorf("Failed to deploy lottery: %v", err)
			return err
		}
	}

	// 6. Watch purchase windows in the background
	c := cron.New()
	if _, err := jobs.Schedule(c, cfg.WindowSchedule, jobs.NewWindowJob(lotteryService)); err != nil {
		logger.Errorf("Invalid window schedule %q: %v", cfg.WindowSchedule, err)
		return err
	}
	c.Start()
	defer c.Stop()

	// 7. Initialize the HTTP Handler and the Gin router
	httpHandler := handlers.NewHTTPHandler(lotteryService)
	r := gin.Default()

	// 8. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 9. Group routes that require a caller and apply middleware
	callerRoutes := r.Group("/")
	callerRoutes.Use(httpHandler.CallerMiddleware())
	httpHandler.RegisterCallerRoutes(callerRoutes)

	// 10. Run the server
	logger.Infof("Server starting on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		logger.Errorf("Failed to run server: %v", err)
		return err
	}
	return nil
}
