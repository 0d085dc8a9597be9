package switcher

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// journal records a swap in progress. It is written before the first rename and
// removed after the second, so a journal left on disk means the swap was interrupted.
type journal struct {
	Active  string    `yaml:"active"`
	ParkAs  string    `yaml:"park_as"`
	Promote string    `yaml:"promote"`
	Started time.Time `yaml:"started"`
	Product string    `yaml:"product,omitempty"`
}

func (s *Switcher) writeJournal(path string, j journal) error {
	data, err := yaml.Marshal(&j)
	if err != nil {
		return fmt.Errorf("failed to encode swap journal: %w", err)
	}
	if err := s.storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write swap journal: %w", err)
	}
	return nil
}

func (s *Switcher) readJournal(path string) (journal, error) {
	var j journal
	data, err := s.storage.ReadFile(path)
	if err != nil {
		return j, err
	}
	if err := yaml.Unmarshal(data, &j); err != nil {
		return j, fmt.Errorf("failed to decode swap journal %s: %w", path, err)
	}
	if j.Active == "" || j.ParkAs == "" || j.Promote == "" {
		return j, fmt.Errorf("swap journal %s is incomplete", path)
	}
	return j, nil
}

func (s *Switcher) removeJournal(path string) error {
	if err := s.storage.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove swap journal: %w", err)
	}
	return nil
}
