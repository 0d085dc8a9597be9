package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OpenGG/jbtool/internal/jbt/storage"
)

const backupExt = ".xml"

// Service keeps content-addressed copies of interpreter tables taken before jbtool rewrites them.
type Service struct {
	storage   *storage.Storage
	backupDir string
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a new backup Service.
func New(storage *storage.Storage, backupDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		storage:   storage,
		backupDir: backupDir,
		now:       time.Now,
		logger:    logger,
	}
}

// SetNow allows overriding the clock for testing.
func (s *Service) SetNow(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// CalculateHash returns the SHA-256 hash of the given file.
// Empty files return a special "empty" marker and log a warning.
// Missing files return an empty string without error.
func (s *Service) CalculateHash(path string) (string, error) {
	if err := s.storage.ValidatePathSafety(path); err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}

	info, err := s.storage.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat file for hashing: %w", err)
	}
	if info.Size() == 0 {
		s.logger.Warn("empty file detected during hash calculation",
			"path", path,
			"operation", "hash")
		return "empty", nil
	}

	f, err := s.storage.FileSystem().Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BackupFile copies path into the backup directory as <label>-<sha256>.xml and returns
// the backup path. Identical content reuses the existing backup and only bumps its mtime,
// which is what PruneBackups ages by. Missing files are skipped and return "".
func (s *Service) BackupFile(label, path string) (backupPath string, err error) {
	hash, err := s.CalculateHash(path)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", nil
	}

	if err := s.storage.MkdirAll(s.backupDir); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath = filepath.Join(s.backupDir, backupName(label, hash))
	now := s.now()
	if _, err := s.storage.Stat(backupPath); err == nil {
		if err := s.storage.Chtimes(backupPath, now, now); err != nil {
			return "", fmt.Errorf("failed to update backup timestamp: %w", err)
		}
		s.logger.Debug("backup already exists, updated timestamp",
			"path", path,
			"hash", hash,
			"backup_path", backupPath)
		return backupPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat backup: %w", err)
	}

	source, err := s.storage.FileSystem().Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for backup: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close source: %w", cerr)
		}
	}()

	dst, err := s.storage.FileSystem().OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	_, copyErr := io.Copy(dst, source)
	closeErr := dst.Close()

	if copyErr != nil {
		s.storage.Remove(backupPath)
		return "", fmt.Errorf("failed to copy backup: %w", copyErr)
	}
	if closeErr != nil {
		s.storage.Remove(backupPath)
		return "", fmt.Errorf("failed to close backup: %w", closeErr)
	}

	if err := s.storage.Chtimes(backupPath, now, now); err != nil {
		return "", fmt.Errorf("failed to update backup timestamp: %w", err)
	}

	s.logger.Info("backup created",
		"path", path,
		"hash", hash,
		"backup_path", backupPath)

	return backupPath, nil
}

// PruneBackups removes backup files whose mtime is older than olderThan and
// returns how many were deleted. A backup directory that was never created holds nothing to prune.
func (s *Service) PruneBackups(olderThan time.Duration) (int, error) {
	exists, err := s.storage.Exists(s.backupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to check backup directory: %w", err)
	}
	if !exists {
		return 0, nil
	}

	entries, err := s.storage.ReadDir(s.backupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}
	cutoff := s.now().Add(-olderThan)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}
		path := filepath.Join(s.backupDir, entry.Name())
		if entry.ModTime().Before(cutoff) {
			if err := s.storage.Remove(path); err != nil {
				return deleted, fmt.Errorf("failed to delete backup: %w", err)
			}
			s.logger.Debug("backup pruned", "backup_path", path)
			deleted++
		}
	}
	return deleted, nil
}

// BackupDir returns the backup directory path.
func (s *Service) BackupDir() string {
	return s.backupDir
}

func backupName(label, hash string) string {
	label = strings.Map(func(r rune) rune {
		if r == filepath.Separator || r == '/' {
			return '_'
		}
		return r
	}, label)
	if label == "" {
		return hash + backupExt
	}
	return label + "-" + hash + backupExt
}
