// ABOUTME: Migration utility for moving saved visits between storage backends.
// ABOUTME: Provides dry-run and backup capabilities for safe migration.

package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/harperreed/onsite/config"
	"github.com/harperreed/onsite/db"
)

func main() {
	from := flag.String("from", "", "Source backend: badger, sqlite or charm (required)")
	fromPath := flag.String("from-path", "", "Source path (default: the backend's default location)")
	to := flag.String("to", "", "Destination backend: badger, sqlite or charm (required)")
	toPath := flag.String("to-path", "", "Destination path (default: the backend's default location)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	force := flag.Bool("force", false, "Replace visits already in the destination (they are backed up first)")
	flag.Parse()

	if *from == "" || *to == "" {
		log.Fatal("Error: -from and -to flags are required")
	}

	if err := migrate(*from, resolve(*from, *fromPath), *to, resolve(*to, *toPath), *dryRun, *force); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func resolve(kind, path string) string {
	if path != "" {
		return path
	}
	return db.DefaultPath(config.DataDir(), kind)
}

func migrate(from, fromPath, to, toPath string, dryRun, force bool) error {
	if from == to && fromPath == toPath {
		return fmt.Errorf("source and destination are the same")
	}

	src, err := db.Open(from, fromPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := db.Open(to, toPath)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = dst.Close() }()

	result, err := db.Migrate(src, dst, db.MigrateOptions{DryRun: dryRun, Force: force})
	if err != nil {
		if result != nil && result.Replaced > 0 {
			log.Printf("Destination holds %d visits", result.Replaced)
		}
		return err
	}

	if result.NothingToDo {
		log.Printf("No visits found in %s (%s)", from, fromPath)
		return nil
	}

	if dryRun {
		log.Printf("[DRY RUN] Would copy %d visits from %s to %s", result.Visits, from, to)
		if result.BackupKey != "" {
			log.Printf("[DRY RUN] Would back up %d existing visits under %s", result.Replaced, result.BackupKey)
		}
		return nil
	}

	if result.BackupKey != "" {
		log.Printf("Backed up %d existing visits under %s", result.Replaced, result.BackupKey)
	}
	log.Printf("Copied %d visits from %s to %s", result.Visits, from, to)
	log.Println("Migration completed successfully")
	return nil
}
