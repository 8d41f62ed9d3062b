// ABOUTME: Copies the visit collection from one storage backend to another
// ABOUTME: Refuses to overwrite existing visits unless forced, and backs them up first
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/onsite/models"
)

// MigrateOptions controls Migrate. Now stamps the backup key.
type MigrateOptions struct {
	DryRun bool
	Force  bool
	Now    func() time.Time
}

// MigrateResult reports what Migrate found and did.
type MigrateResult struct {
	Visits      int
	Replaced    int
	BackupKey   string
	NothingToDo bool
}

// Migrate copies the visits stored in src into dst. A source payload that
// does not parse is an error, so unreadable data is never propagated.
func Migrate(src, dst Backend, opts MigrateOptions) (*MigrateResult, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	raw, err := src.Get([]byte(VisitsKey))
	if errors.Is(err, ErrKeyNotFound) {
		return &MigrateResult{NothingToDo: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source visits: %w", err)
	}

	var visits []models.Visit
	if err := json.Unmarshal(raw, &visits); err != nil {
		return nil, fmt.Errorf("source visits are unreadable: %w", err)
	}
	result := &MigrateResult{Visits: len(visits)}

	existing, err := dst.Get([]byte(VisitsKey))
	switch {
	case errors.Is(err, ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read destination visits: %w", err)
	default:
		var current []models.Visit
		if json.Unmarshal(existing, &current) == nil {
			result.Replaced = len(current)
		}
		if !opts.Force {
			return result, fmt.Errorf("destination already holds visits, use -force to replace them")
		}
		result.BackupKey = fmt.Sprintf("%s.backup.%s", VisitsKey, now().Format("20060102-150405"))
	}

	if opts.DryRun {
		return result, nil
	}

	if result.BackupKey != "" {
		if err := dst.Set([]byte(result.BackupKey), existing); err != nil {
			return nil, fmt.Errorf("failed to back up destination visits: %w", err)
		}
	}
	if err := dst.Set([]byte(VisitsKey), raw); err != nil {
		return nil, fmt.Errorf("failed to write destination visits: %w", err)
	}
	return result, nil
}
