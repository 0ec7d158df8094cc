package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/loader"
	"netbox-sync/core/logger"
	"netbox-sync/core/middleware/auth"
	"netbox-sync/core/middleware/rayid"
	"netbox-sync/core/storage"
	"netbox-sync/feature/netbox"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "netbox-sync/docs/swagger"
)

// @title Netbox Sync API
// @version 1.0
// @description Reconciles netbox records with collected device data.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the netbox intake server",
	Long:  `Starts the HTTP server, loads the snapshot and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		// The server still starts without one so /swagger stays reachable; the netbox feature stays disabled.
		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Error("Database connection failed", zap.Error(err))
		} else if err := netbox.VerifySchema(conn); err != nil {
			logg.Error("Inventory schema check failed", zap.Error(err))
		} else {
			db = conn
			logg = logg.With(zap.String("database", cfg.Database.Name))
			logg.Info("Connected to inventory database")
		}

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		if ok, err := store.BucketExists(context.Background(), cfg.Storage.Bucket); err != nil || !ok {
			logg.Warn("Storage bucket unavailable, storage runs will fail",
				zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// 6. Register Features
		mgr := loader.NewManager()
		nb := netbox.NewFeature(store, cfg.Storage.Bucket, logg, db, cfg.Reconcile)
		mgr.Register(nb)

		// Load the snapshot before accepting traffic. A failed load is logged and
		// every later lookup reports the netbox as unknown.
		if nb.IsEnabled() {
			if err := nb.Service().Initialize(context.Background()); err != nil {
				logg.Error("Snapshot load incomplete", zap.Error(err))
			}
		}

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger stays public
		app.Get("/swagger/*", swagger.HandlerDefault)

		if cfg.Server.IsProtected() {
			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		} else {
			logg.Warn("No API key configured, intake endpoints are unprotected")
		}

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		for _, f := range mgr.Features() {
			logg.Info("Feature", zap.String("name", f.Name()), zap.Bool("enabled", f.IsEnabled()))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
