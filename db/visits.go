// ABOUTME: VisitStore persists the whole visit collection as one JSON array
// ABOUTME: Corrupt payloads read as an empty collection and are backed up before being overwritten
package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/onsite/models"
)

// VisitsKey is the single key the collection lives under.
const VisitsKey = "onsite-recap-visits"

const corruptSuffix = ".corrupt"

type VisitStore struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time
	mu      sync.Mutex
}

func NewVisitStore(b Backend, logger *log.Logger) *VisitStore {
	if logger == nil {
		logger = log.Default()
	}
	return &VisitStore{backend: b, logger: logger, now: time.Now}
}

// SetClock replaces the time source used to stamp UpdatedAt.
func (s *VisitStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// LoadAll returns every saved visit in stored order.
func (s *VisitStore) LoadAll() ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, _, err := s.load()
	return visits, err
}

// load reads the collection. corrupt is true when bytes exist but do not parse.
func (s *VisitStore) load() (visits []models.Visit, corrupt []byte, err error) {
	raw, err := s.backend.Get([]byte(VisitsKey))
	if errors.Is(err, ErrKeyNotFound) {
		return []models.Visit{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read visits: %w", err)
	}

	if err := json.Unmarshal(raw, &visits); err != nil {
		s.logger.Warn("saved visits are unreadable, treating as empty", "err", err, "bytes", len(raw))
		return []models.Visit{}, raw, nil
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	return visits, nil, nil
}

// Save inserts or replaces the visit with the same ID and refreshes UpdatedAt.
func (s *VisitStore) Save(v *models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, corrupt, err := s.load()
	if err != nil {
		return err
	}
	if corrupt != nil {
		if err := s.backend.Set([]byte(VisitsKey+corruptSuffix), corrupt); err != nil {
			return fmt.Errorf("failed to back up unreadable visits: %w", err)
		}
	}

	v.UpdatedAt = s.now()

	replaced := false
	for i := range visits {
		if visits[i].ID == v.ID {
			visits[i] = *v
			replaced = true
			break
		}
	}
	if !replaced {
		visits = append(visits, *v)
	}

	return s.write(visits)
}

// Get returns a copy of the visit with the given ID.
func (s *VisitStore) Get(id uuid.UUID) (*models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, _, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range visits {
		if visits[i].ID == id {
			return &visits[i], nil
		}
	}
	return nil, fmt.Errorf("visit %s: %w", id, models.ErrNotFound)
}

func (s *VisitStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	visits, corrupt, err := s.load()
	if err != nil {
		return err
	}
	if corrupt != nil {
		return fmt.Errorf("visit %s: %w", id, models.ErrNotFound)
	}

	for i := range visits {
		if visits[i].ID == id {
			visits = append(visits[:i], visits[i+1:]...)
			return s.write(visits)
		}
	}
	return fmt.Errorf("visit %s: %w", id, models.ErrNotFound)
}

func (s *VisitStore) write(visits []models.Visit) error {
	data, err := json.Marshal(visits)
	if err != nil {
		return fmt.Errorf("failed to encode visits: %w", err)
	}
	if err := s.backend.Set([]byte(VisitsKey), data); err != nil {
		return fmt.Errorf("failed to write visits: %w", err)
	}
	return nil
}

func (s *VisitStore) Close() error {
	return s.backend.Close()
}
