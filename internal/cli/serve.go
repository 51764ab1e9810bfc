package cli

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/symptomcy/internal/api"
	"github.com/terraincognita07/symptomcy/internal/health"
)

var healthReadTypes = []string{
	string(health.QuantityHRV),
	string(health.QuantityRestingHeartRate),
	string(health.CategorySleepAnalysis),
	string(health.CategoryMenstrualFlow),
	"workouts",
}

func newServeCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := options.config()
			if err != nil {
				return err
			}
			secretKey, err := resolveSecretKey()
			if err != nil {
				return err
			}
			port, err := resolvePort()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), config, secretKey, port)
		},
	}
}

func runServe(parent context.Context, config Config, secretKey string, port string) error {
	runtime, err := openRuntime(config)
	if err != nil {
		return err
	}
	defer runtime.Close()

	app, err := newServerApp(runtime, secretKey)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	lifecycleCtx, cancelLifecycle := context.WithCancel(parent)
	defer cancelLifecycle()

	if err := runtime.source.RequestAuthorization(lifecycleCtx, nil, healthReadTypes); err != nil {
		log.Printf("health: authorization request failed: %v", err)
	}
	runtime.baselines.Start(lifecycleCtx, config.BaselineInterval)

	sigCtx, stopSignals := signal.NotifyContext(lifecycleCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("symptomcy listening on http://0.0.0.0:%s (db: %s, tz: %s, source: %s)", port, config.DBPath, config.Location.String(), config.HealthSource)
	return app.Listen(":" + port)
}

func newServerApp(runtime *appRuntime, secretKey string) (*fiber.App, error) {
	handler, err := api.NewHandler(secretKey, api.Dependencies{
		Analysis:  runtime.analysis,
		Metrics:   runtime.resolver,
		Baselines: runtime.baselines,
		Cache:     runtime.cache,
		Location:  runtime.config.Location,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "Symptomcy",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	api.RegisterRoutes(app, handler)
	return app, nil
}
