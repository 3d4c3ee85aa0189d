package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/adapters/cache"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/adapters/repository"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/adapters/repository/local"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/config"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/database"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the task tracker API server",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage Postgres migrations (up, down, version). The local SQLite store migrates itself on open.",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo account with welcome tasks",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			runSeed(email, password)
		},
	}

	seedCmd.Flags().String("email", "demo@example.com", "Demo account email")
	seedCmd.Flags().String("password", "demo-password", "Demo account password")

	return seedCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tasktracker v1.0.0")
		},
	}
}

// storageBundle holds the adapters for the configured storage driver.
type storageBundle struct {
	deps  server.Deps
	close func() error
}

// openStorage selects the persistence backend per configuration.
func openStorage(cfg *config.Config) (*storageBundle, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return &storageBundle{
			deps: server.Deps{
				TaskRepo:    repository.NewTaskRepository(db.DB),
				UserRepo:    repository.NewUserRepository(db.DB),
				HealthCheck: db.HealthCheck,
			},
			close: db.Close,
		}, nil
	case config.DriverLocal:
		store, err := local.Open(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return &storageBundle{
			deps: server.Deps{
				TaskRepo:    store.Tasks(),
				UserRepo:    store.Users(),
				HealthCheck: store.HealthCheck,
			},
			close: store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	storage, err := openStorage(cfg)
	if err != nil {
		appLogger.Fatal("Failed to open storage", "error", err, "driver", cfg.Storage.Driver)
	}
	defer storage.close()

	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", "error", err)
		}
		defer redisCache.Close()
		storage.deps.Cache = redisCache
	}

	srv, err := server.New(cfg, storage.deps, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	go func() {
		appLogger.Info("Starting task tracker API server",
			"port", cfg.Server.Port,
			"storage", cfg.Storage.Driver,
			"environment", cfg.App.Environment,
		)
		if err := srv.Start(); err != nil {
			appLogger.Info("Server stopped", "reason", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
}

func runMigration(direction string) {
	m := newMigrator()
	defer m.Close()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration %s failed: %v", direction, err)
	}

	log.Printf("Migration %s completed", direction)
}

func showMigrationVersion() {
	m := newMigrator()
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			log.Println("No migrations applied yet")
			return
		}
		log.Fatalf("Failed to read migration version: %v", err)
	}

	log.Printf("Migration version: %d (dirty: %v)", version, dirty)
}

func newMigrator() *migrate.Migrate {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatal("Migrations apply to the postgres driver only; the local store migrates itself on open")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}

	return m
}

// runSeed creates the demo user and the welcome tasks shown on first
// run.
func runSeed(email, password string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	storage, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if existing, err := storage.deps.UserRepo.GetByEmail(ctx, email); err == nil {
		log.Printf("Demo user %s already exists (%s)", email, existing.ID)
		return
	}

	if err := storage.deps.UserRepo.Create(ctx, user); err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	welcome := []*entities.Task{
		{
			ID:        uuid.New(),
			UserID:    user.ID,
			Title:     "Welcome to your todo list!",
			Completed: false,
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			UserID:    user.ID,
			Title:     "Click to mark tasks as complete",
			Completed: true,
			CreatedAt: now,
		},
	}

	for _, task := range welcome {
		if err := storage.deps.TaskRepo.Create(ctx, task); err != nil {
			log.Fatalf("Failed to create welcome task: %v", err)
		}
	}

	log.Printf("Seeded demo user %s with %d welcome tasks", email, len(welcome))
}
