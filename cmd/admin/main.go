package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shikshaleap/internal/config"
	"shikshaleap/internal/database"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

func main() {
	// Define subcommands
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import-schools", flag.ExitOnError)
	pruneCmd := flag.NewFlagSet("prune-otps", flag.ExitOnError)
	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	activeCmd := flag.NewFlagSet("set-active", flag.ExitOnError)

	importFile := importCmd.String("file", "", "UDISE school CSV file (required)")
	activeContact := activeCmd.String("contact", "", "Email or mobile number of the account (required)")
	activeValue := activeCmd.Bool("active", true, "Enable (true) or disable (false) the account")
	pruneRetention := pruneCmd.Duration("retention", 0, "Delete codes expired longer than this (default: OTP_RETENTION)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	applied, err := db.RunMigrations(ctx)
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	switch os.Args[1] {
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		log.Info("migrations completed", "applied", applied)

	case "import-schools":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			fmt.Println("Error: -file flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImportSchools(ctx, db, *importFile, log)

	case "prune-otps":
		pruneCmd.Parse(os.Args[2:])
		retention := *pruneRetention
		if retention <= 0 {
			retention = cfg.OTPRetention
		}
		handlePruneOTPs(ctx, db, retention, log)

	case "set-active":
		activeCmd.Parse(os.Args[2:])
		contact, ok := models.ParseContact(*activeContact)
		if !ok {
			fmt.Println("Error: -contact flag is required")
			activeCmd.PrintDefaults()
			os.Exit(1)
		}
		handleSetActive(ctx, db, contact, *activeValue, log)

	case "stats":
		statsCmd.Parse(os.Args[2:])
		handleStats(ctx, db, log)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleImportSchools(ctx context.Context, db *database.DB, path string, log *logger.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("failed to open school CSV", "file", path, "error", err)
	}
	defer f.Close()

	start := time.Now()
	count, err := service.NewSchoolService(db).ImportCSV(ctx, f)
	if err != nil {
		log.Fatal("school import failed", "file", path, "error", err)
	}
	log.Info("school import complete", "schools", count, "duration", time.Since(start))
}

func handlePruneOTPs(ctx context.Context, db *database.DB, retention time.Duration, log *logger.Logger) {
	// Pruning needs neither delivery nor cross-instance locking
	authService := service.NewAuthService(db, service.NewConsoleDelivery(log), security.NewKeyedMutex(), service.AuthOptions{}, log)

	deleted, err := authService.PruneOTPs(ctx, retention)
	if err != nil {
		log.Fatal("failed to prune OTPs", "error", err)
	}
	fmt.Printf("Deleted %d expired OTP records\n", deleted)
}

func handleSetActive(ctx context.Context, db *database.DB, contact models.Contact, active bool, log *logger.Logger) {
	authService := service.NewAuthService(db, service.NewConsoleDelivery(log), security.NewKeyedMutex(), service.AuthOptions{}, log)

	if err := authService.SetAccountActive(ctx, contact, active); err != nil {
		log.Fatal("failed to change account status", "contact", contact.Value, "error", err)
	}
	fmt.Printf("Account active: %t\n", active)
}

func handleStats(ctx context.Context, db *database.DB, log *logger.Logger) {
	users, err := repository.NewUserRepository(db).CountUsers(ctx)
	if err != nil {
		log.Fatal("failed to count users", "error", err)
	}
	schools, err := repository.NewSchoolRepository(db).CountSchools(ctx)
	if err != nil {
		log.Fatal("failed to count schools", "error", err)
	}
	fmt.Printf("Users:   %d\n", users)
	fmt.Printf("Schools: %d\n", schools)
}

func printUsage() {
	fmt.Println("Shiksha Leap Admin Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  admin migrate                      Apply pending database migrations")
	fmt.Println("  admin import-schools -file <csv>   Replace the UDISE school directory")
	fmt.Println("  admin prune-otps [-retention 24h]  Delete expired OTP records")
	fmt.Println("  admin set-active -contact <c> -active=false  Disable or re-enable an account")
	fmt.Println("  admin stats                        Print user and school counts")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./shiksha_leap.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  OTP_RETENTION    Retention for expired OTP records (default: 24h)")
}
