package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pubmarket/internal/auth"
	"pubmarket/internal/config"
	"pubmarket/internal/db"
	"pubmarket/internal/email"
	"pubmarket/internal/jobs"
	"pubmarket/internal/lifecycle"
	"pubmarket/internal/memstore"
	"pubmarket/internal/metrics"
	"pubmarket/internal/scoring"
	"pubmarket/internal/server"
)

// store is everything the server needs from a persistence backend.
type store interface {
	lifecycle.Store
	Ping(ctx context.Context) error
	Close()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	yamlCfg, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", cfg.ConfigFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStore(ctx, cfg)
	defer st.Close()

	recorder := metrics.Init(st)
	manager := lifecycle.NewManager(st, newScoringEngine(cfg),
		lifecycle.WithConfig(managerConfig(yamlCfg)),
		lifecycle.WithObserver(recorder),
	)

	seedAdmins(ctx, manager, cfg, yamlCfg)

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Manager:  manager,
		Tokens:   auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		Notifier: email.NewNotifier(cfg, st),
		Store:    st,
	})

	if cfg.ReconcileSchedule != "" {
		reconciler := jobs.NewRoleReconciler(manager, cfg.ReconcileSchedule, recorder.ReconcileFinished)
		go func() {
			if err := reconciler.Start(ctx); err != nil {
				log.Printf("Role reconciler disabled: %v", err)
			}
		}()
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	<-ctx.Done()

	log.Println("Shutting down server...")
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// openStore connects the configured backend and runs migrations.
func openStore(ctx context.Context, cfg *config.Config) store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return memstore.New()
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		database.Close()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	return database
}

// newScoringEngine uses the remote analytics service when configured. A nil
// engine makes the manager fall back to the heuristic scorer.
func newScoringEngine(cfg *config.Config) *scoring.Engine {
	if !cfg.IsRemoteAnalyticsEnabled() {
		log.Println("Website analytics: heuristic scoring")
		return nil
	}
	log.Printf("Website analytics: remote service at %s", cfg.AnalyticsAPIURL)
	return scoring.NewEngine(scoring.NewRemote(cfg.AnalyticsAPIURL, cfg.AnalyticsAPIKey, cfg.AnalyticsTimeout))
}

// managerConfig overlays YAML thresholds on the defaults.
func managerConfig(y *config.YAMLConfig) lifecycle.Config {
	mc := lifecycle.DefaultConfig()
	if y == nil {
		return mc
	}

	hp := y.Marketplace.HighPerforming
	if hp.MinTrustScore > 0 {
		mc.HighPerformingMinTrust = hp.MinTrustScore
	}
	if hp.MinMonthlyTraffic > 0 {
		mc.HighPerformingMinTraffic = hp.MinMonthlyTraffic
	}
	if y.Pagination.DefaultLimit > 0 {
		mc.DefaultLimit = y.Pagination.DefaultLimit
	}
	if y.Pagination.MaxLimit > 0 {
		mc.MaxLimit = y.Pagination.MaxLimit
	}
	return mc
}

// seedAdmins ensures the YAML seed admins exist. It needs ADMIN_SEED_PASSWORD
// for accounts that have to be created.
func seedAdmins(ctx context.Context, manager *lifecycle.Manager, cfg *config.Config, y *config.YAMLConfig) {
	admins := y.GetSeedAdmins()
	if len(admins) == 0 {
		return
	}
	if cfg.AdminSeedPassword == "" {
		log.Printf("Skipping %d seed admins: ADMIN_SEED_PASSWORD is not set", len(admins))
		return
	}

	for _, a := range admins {
		_, created, err := manager.EnsureAdmin(ctx, a.FullName, a.Email, cfg.AdminSeedPassword)
		if err != nil {
			log.Printf("Failed to seed admin %s: %v", a.Email, err)
			continue
		}
		if created {
			log.Printf("Created admin account %s", a.Email)
		}
	}
}
