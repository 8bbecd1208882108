package db

import (
	"fmt"
	"log"
	"os"
)

// RunMigrateCommand handles the 'migrate' subcommand dispatching
func RunMigrateCommand(args []string, dbPath, migrationsDir string) {
	if len(args) < 1 {
		PrintMigrateHelp()
		os.Exit(1)
	}

	action := args[0]

	database, err := NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(migrationsDir); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("✓ All migrations applied successfully")
		version, dirty, _ := database.MigrateVersion(migrationsDir)
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(migrationsDir); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("✓ Migration rolled back successfully")
		version, dirty, _ := database.MigrateVersion(migrationsDir)
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "status":
		version, dirty, err := database.MigrateVersion(migrationsDir)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		status, err := database.GetMigrationStatus(migrationsDir)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		fmt.Println("=== Migration Status ===")
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Dirty: %v\n", dirty)
		fmt.Printf("Schema migrations table exists: %v\n", status["schema_migrations_exists"])
		if dirty {
			fmt.Println("\n⚠️  WARNING: Database is in a dirty state!")
			fmt.Println("A migration failed mid-execution. You may need to:")
			fmt.Println("  1. Inspect the database manually")
			fmt.Println("  2. Fix any issues")
			fmt.Println("  3. Run: mtms-report migrate force <version>")
		}

	case "version":
		if len(args) < 2 {
			log.Fatal("Usage: mtms-report migrate version <version_number>")
		}
		var targetVersion uint
		if _, err := fmt.Sscanf(args[1], "%d", &targetVersion); err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}
		log.Printf("Migrating to version %d...", targetVersion)
		if err := database.MigrateTo(migrationsDir, targetVersion); err != nil {
			log.Fatalf("Migration to version %d failed: %v", targetVersion, err)
		}
		log.Printf("✓ Migrated to version %d successfully", targetVersion)

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: mtms-report migrate force <version_number>")
		}
		var forceVersion int
		if _, err := fmt.Sscanf(args[1], "%d", &forceVersion); err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}
		fmt.Printf("⚠️  WARNING: Forcing migration version to %d\n", forceVersion)
		fmt.Println("This should only be used to recover from a dirty migration state.")
		fmt.Print("Continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			log.Println("Aborted")
			os.Exit(0)
		}
		if err := database.MigrateForce(migrationsDir, forceVersion); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("✓ Migration version forced to %d", forceVersion)

	case "baseline":
		if len(args) < 2 {
			log.Fatal("Usage: mtms-report migrate baseline <version_number>")
		}
		var baselineVersion uint
		if _, err := fmt.Sscanf(args[1], "%d", &baselineVersion); err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}
		log.Printf("Baselining database at version %d...", baselineVersion)
		if err := database.BaselineAtVersion(baselineVersion); err != nil {
			log.Fatalf("Baseline failed: %v", err)
		}
		log.Printf("✓ Database baselined at version %d", baselineVersion)

	case "help":
		PrintMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp()
		os.Exit(1)
	}
}

// PrintMigrateHelp displays the help message for the migrate command
func PrintMigrateHelp() {
	fmt.Println("Database Migration Commands")
	fmt.Println()
	fmt.Println("Usage: mtms-report migrate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up              Apply all pending migrations")
	fmt.Println("  down            Rollback one migration")
	fmt.Println("  status          Show current migration status and version")
	fmt.Println("  version <N>     Migrate to specific version N")
	fmt.Println("  force <N>       Force migration version to N (recovery only)")
	fmt.Println("  baseline <N>    Set migration version to N without running migrations")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mtms-report migrate up")
	fmt.Println("  mtms-report migrate status")
	fmt.Println("  mtms-report migrate baseline 1")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --db <path>    Path to database file (default: mtms.db)")
}
