// Package switcher swaps an IDE config directory with its parked .test/.prod alternate.
//
// The state of a directory pair is never stored; it is read off the filesystem:
//
//	neither sibling   UNINITIALIZED   copy active to .prod
//	.test present     TEST_AVAILABLE  active -> .prod, .test -> active
//	.prod present     PROD_AVAILABLE  active -> .test, .prod -> active
//
// The two renames of a swap are not atomic as a pair. A journal next to the
// active directory records the planned renames until both are done, a failed
// second rename rolls the first one back, and Resume finishes a swap whose
// process was killed in between. Nothing guards against two jbtool processes
// switching the same pair at once, and the IDE may start between the process
// check and the renames.
package switcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/paths"
	"github.com/OpenGG/jbtool/internal/jbt/process"
	"github.com/OpenGG/jbtool/internal/jbt/storage"
)

// State is the inferred state of a directory pair.
type State int

const (
	StateUninitialized State = iota
	StateTestAvailable
	StateProdAvailable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "unconfigured"
	case StateTestAvailable:
		return "test parked"
	case StateProdAvailable:
		return "prod parked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result describes a completed switch.
type Result struct {
	Product string
	// From is the state the pair was in before the switch.
	From   State
	Active string
	// ParkedAt is where the previously active configuration now lives.
	// For the first switch it is the fresh .prod copy.
	ParkedAt string
	// PromotedFrom is the parked directory that became active; empty for the first switch.
	PromotedFrom string
	// LeftoverRemoved is the staging copy of an earlier interrupted first switch
	// that was deleted before copying again.
	LeftoverRemoved string
}

// Switcher performs guarded directory swaps.
type Switcher struct {
	storage  *storage.Storage
	matcher  process.Matcher
	products []string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Switcher. A nil matcher skips the running-IDE check; a nil
// logger discards log output. products replaces KnownProducts when non-empty.
func New(storage *storage.Storage, matcher process.Matcher, products []string, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(products) == 0 {
		products = KnownProducts
	}
	return &Switcher{
		storage:  storage,
		matcher:  matcher,
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNow allows overriding the clock for testing.
func (s *Switcher) SetNow(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Guard identifies the product owning configDir and refuses to continue while it runs.
// It returns domain.ErrUnrecognizedProduct when the directory name names no known
// product and domain.ErrProcessRunning when a matching process is found.
func (s *Switcher) Guard(configDir string) (string, error) {
	name := paths.New(configDir).Name()
	product, ok := IdentifyProduct(name, s.products)
	if !ok {
		return "", fmt.Errorf("%w: %q matches none of %v", domain.ErrUnrecognizedProduct, name, s.products)
	}
	if s.matcher == nil {
		s.logger.Warn("no process matcher configured, skipping running IDE check", "product", product)
		return product, nil
	}
	running, err := s.matcher.Running(product)
	if err != nil {
		return product, err
	}
	if running {
		return product, fmt.Errorf("%w: %s", domain.ErrProcessRunning, product)
	}
	return product, nil
}

// Detect infers the state of the pair derived from configDir.
func (s *Switcher) Detect(configDir string) (State, error) {
	pair := paths.PairFor(configDir)

	if pending, err := s.storage.Exists(pair.Journal()); err != nil {
		return 0, err
	} else if pending {
		return 0, fmt.Errorf("%w: journal %s found, run switch-config --resume", domain.ErrPartialSwap, pair.Journal())
	}

	testExists, err := s.storage.IsDir(pair.Test)
	if err != nil {
		return 0, err
	}
	prodExists, err := s.storage.IsDir(pair.Prod)
	if err != nil {
		return 0, err
	}

	activeExists, err := s.storage.Exists(pair.Active)
	if err != nil {
		return 0, err
	}
	if !activeExists {
		if testExists || prodExists {
			return 0, fmt.Errorf("%w: %s is missing while a parked copy exists", domain.ErrPartialSwap, pair.Active)
		}
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, pair.Active)
	}
	if isDir, err := s.storage.IsDir(pair.Active); err != nil {
		return 0, err
	} else if !isDir {
		return 0, fmt.Errorf("%w: %s", domain.ErrConfigDirNotDir, pair.Active)
	}

	switch {
	case testExists && prodExists:
		return 0, fmt.Errorf("%w: %s and %s", domain.ErrInconsistentPair, pair.Test, pair.Prod)
	case testExists:
		return StateTestAvailable, nil
	case prodExists:
		return StateProdAvailable, nil
	default:
		return StateUninitialized, nil
	}
}

// Switch swaps the active configuration with its parked alternate, or creates the
// first .prod copy when nothing is parked yet.
func (s *Switcher) Switch(configDir string) (Result, error) {
	pair := paths.PairFor(configDir)
	result := Result{Active: pair.Active}

	product, err := s.Guard(pair.Active)
	result.Product = product
	if err != nil {
		return result, err
	}
	if err := s.storage.ValidatePathSafety(pair.Active); err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrConfigDirSymlink, err)
	}

	state, err := s.Detect(pair.Active)
	if err != nil {
		return result, err
	}
	result.From = state

	switch state {
	case StateUninitialized:
		leftover, err := s.bootstrap(pair)
		if leftover {
			result.LeftoverRemoved = pair.Staging()
		}
		if err != nil {
			return result, err
		}
		result.ParkedAt = pair.Prod
	case StateTestAvailable:
		if err := s.swap(pair, product, pair.Prod, pair.Test); err != nil {
			return result, err
		}
		result.ParkedAt, result.PromotedFrom = pair.Prod, pair.Test
	case StateProdAvailable:
		if err := s.swap(pair, product, pair.Test, pair.Prod); err != nil {
			return result, err
		}
		result.ParkedAt, result.PromotedFrom = pair.Test, pair.Prod
	}

	s.logger.Info("configuration switched",
		"product", product,
		"from", state.String(),
		"active", pair.Active,
		"parked_at", result.ParkedAt)
	return result, nil
}

// bootstrap copies the active directory to .prod through a staging directory so
// an interrupted copy never looks like a parked configuration. It reports whether
// a staging copy left by an earlier run was deleted.
func (s *Switcher) bootstrap(pair paths.Pair) (bool, error) {
	staging := pair.Staging()
	leftover, err := s.storage.Exists(staging)
	if err != nil {
		return false, err
	}
	if leftover {
		s.logger.Debug("removing leftover staging copy", "path", staging)
		if err := s.storage.RemoveAll(staging); err != nil {
			return false, fmt.Errorf("failed to remove leftover %s: %w", staging, err)
		}
	}

	if err := s.storage.CopyDir(pair.Active, staging); err != nil {
		return leftover, errors.Join(fmt.Errorf("failed to copy %s: %w", pair.Active, err), s.discardStaging(staging))
	}
	if err := s.storage.Rename(staging, pair.Prod); err != nil {
		return leftover, errors.Join(err, s.discardStaging(staging))
	}
	return leftover, nil
}

func (s *Switcher) discardStaging(staging string) error {
	if err := s.storage.RemoveAll(staging); err != nil {
		s.logger.Warn("staging copy left behind", "path", staging, "error", err)
		return fmt.Errorf("failed to remove %s: %w", staging, err)
	}
	return nil
}

// swap moves the active directory to parkAs and promote into its place.
func (s *Switcher) swap(pair paths.Pair, product, parkAs, promote string) error {
	journalPath := pair.Journal()
	j := journal{Active: pair.Active, ParkAs: parkAs, Promote: promote, Started: s.now().UTC(), Product: product}
	if err := s.writeJournal(journalPath, j); err != nil {
		return err
	}

	if err := s.storage.Rename(pair.Active, parkAs); err != nil {
		if jerr := s.removeJournal(journalPath); jerr != nil {
			return errors.Join(err, jerr)
		}
		return err
	}

	if err := s.storage.Rename(promote, pair.Active); err != nil {
		if rbErr := s.storage.Rename(parkAs, pair.Active); rbErr != nil {
			return fmt.Errorf("%w: %v; rollback failed: %v; run switch-config --resume", domain.ErrPartialSwap, err, rbErr)
		}
		if jerr := s.removeJournal(journalPath); jerr != nil {
			return errors.Join(err, jerr)
		}
		return fmt.Errorf("swap rolled back: %w", err)
	}

	return s.removeJournal(journalPath)
}

// ResumeAction tells what Resume did with an interrupted swap.
type ResumeAction int

const (
	// ResumeCompleted means the second rename was performed.
	ResumeCompleted ResumeAction = iota
	// ResumeDiscarded means no rename had happened; the journal was dropped.
	ResumeDiscarded
	// ResumeAlreadyDone means both renames had happened; the journal was dropped.
	ResumeAlreadyDone
)

func (a ResumeAction) String() string {
	switch a {
	case ResumeCompleted:
		return "completed"
	case ResumeDiscarded:
		return "discarded"
	case ResumeAlreadyDone:
		return "already done"
	default:
		return fmt.Sprintf("ResumeAction(%d)", int(a))
	}
}

// ResumeResult describes what Resume found and did.
type ResumeResult struct {
	Product  string
	Action   ResumeAction
	Active   string
	ParkedAt string
	Promoted string
}

// Resume finishes or discards a swap interrupted between its two renames, using
// the journal the swap left behind. The same running-IDE guard as Switch applies.
func (s *Switcher) Resume(configDir string) (ResumeResult, error) {
	pair := paths.PairFor(configDir)
	result := ResumeResult{Active: pair.Active}

	product, err := s.Guard(pair.Active)
	result.Product = product
	if err != nil {
		return result, err
	}

	journalPath := pair.Journal()
	if exists, err := s.storage.Exists(journalPath); err != nil {
		return result, err
	} else if !exists {
		return result, fmt.Errorf("%w: no interrupted switch for %s", domain.ErrNotFound, pair.Active)
	}
	j, err := s.readJournal(journalPath)
	if err != nil {
		return result, err
	}
	if j.Active != pair.Active {
		return result, fmt.Errorf("%w: journal %s belongs to %s", domain.ErrPartialSwap, journalPath, j.Active)
	}
	result.ParkedAt, result.Promoted = j.ParkAs, j.Promote

	activeExists, err := s.storage.Exists(j.Active)
	if err != nil {
		return result, err
	}
	parkedExists, err := s.storage.Exists(j.ParkAs)
	if err != nil {
		return result, err
	}
	promoteExists, err := s.storage.Exists(j.Promote)
	if err != nil {
		return result, err
	}

	switch {
	case !activeExists && parkedExists && promoteExists:
		if err := s.storage.Rename(j.Promote, j.Active); err != nil {
			return result, err
		}
		result.Action = ResumeCompleted
	case activeExists && !parkedExists && promoteExists:
		result.Action = ResumeDiscarded
	case activeExists && parkedExists && !promoteExists:
		result.Action = ResumeAlreadyDone
	default:
		return result, fmt.Errorf("%w: cannot tell how far the switch got (active=%t %s=%t %s=%t), fix the directories by hand and delete %s",
			domain.ErrPartialSwap, activeExists, j.ParkAs, parkedExists, j.Promote, promoteExists, journalPath)
	}

	if err := s.removeJournal(journalPath); err != nil {
		return result, err
	}
	s.logger.Info("interrupted switch resolved", "active", j.Active, "action", result.Action.String())
	return result, nil
}
