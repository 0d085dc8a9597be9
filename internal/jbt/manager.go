// Package jbt wires the jbtool services together behind a single Manager.
package jbt

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/OpenGG/jbtool/internal/jbt/backup"
	"github.com/OpenGG/jbtool/internal/jbt/catalog"
	"github.com/OpenGG/jbtool/internal/jbt/cleaner"
	"github.com/OpenGG/jbtool/internal/jbt/interpreters"
	"github.com/OpenGG/jbtool/internal/jbt/paths"
	"github.com/OpenGG/jbtool/internal/jbt/process"
	"github.com/OpenGG/jbtool/internal/jbt/storage"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
	"github.com/OpenGG/jbtool/internal/jbt/validator"
)

// Manager coordinates the operations jbtool offers on IDE config directories.
// It delegates to focused services:
//   - cleaner: interpreter table edits
//   - switcher: guarded directory swaps
//   - catalog: config root listing
//   - backup: table backups before every save
//   - validator: config directory argument checks
type Manager struct {
	fs         afero.Fs
	logger     *slog.Logger
	tool       *paths.ToolPaths
	configRoot string
	config     Config
	matcher    process.Matcher

	storage   *storage.Storage
	backup    *backup.Service
	store     *interpreters.Store
	cleaner   *cleaner.Cleaner
	switcher  *switcher.Switcher
	catalog   *catalog.Catalog
	validator *validator.Validator
}

// NewManager constructs a Manager. toolHome holds backups and config.yaml,
// configRoot is the JetBrains directory listed by ListConfigs. A nil matcher
// disables the running-IDE check; a nil logger discards log output.
func NewManager(fs afero.Fs, toolHome, configRoot string, matcher process.Matcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	stor := storage.New(fs)
	tool := paths.NewToolPaths(toolHome)
	store := interpreters.New(stor, logger)

	m := &Manager{
		fs:         fs,
		logger:     logger,
		tool:       tool,
		configRoot: configRoot,
		matcher:    matcher,
		storage:    stor,
		backup:     backup.New(stor, tool.BackupDir(), logger),
		store:      store,
		cleaner:    cleaner.New(stor, store, logger),
		validator:  validator.New(),
	}
	m.cleaner.SetBeforeSave(m.backupTable)
	m.applyConfig(Config{})
	return m
}

// InitInfra loads config.yaml from the tool home and applies it.
func (m *Manager) InitInfra() error {
	cfg, err := LoadConfig(m.storage, m.tool.ConfigFile())
	if err != nil {
		return err
	}
	m.applyConfig(cfg)
	return nil
}

func (m *Manager) applyConfig(cfg Config) {
	m.config = cfg
	products := cfg.ProductList()
	m.switcher = switcher.New(m.storage, m.matcher, products, m.logger)
	m.catalog = catalog.New(m.storage, m.configRoot, products)
}

// SetNow overrides the clock used for backups and swap journals.
func (m *Manager) SetNow(now func() time.Time) {
	m.backup.SetNow(now)
	m.switcher.SetNow(now)
}

// FileSystem returns the filesystem the manager operates on.
func (m *Manager) FileSystem() afero.Fs {
	return m.fs
}

// ToolHome returns the jbtool home directory.
func (m *Manager) ToolHome() string {
	return m.tool.Home()
}

// ConfigRoot returns the directory scanned for IDE config directories.
func (m *Manager) ConfigRoot() string {
	return m.configRoot
}

// BackupDir returns the directory holding table backups.
func (m *Manager) BackupDir() string {
	return m.tool.BackupDir()
}

// ValidateConfigDir checks a --config-dir argument.
func (m *Manager) ValidateConfigDir(dir string) (bool, error) {
	return m.validator.ValidateConfigDir(dir)
}

// FreeVenv clears the project association of every interpreter in dir.
func (m *Manager) FreeVenv(dir string) (cleaner.VenvResult, error) {
	configDir, err := m.validator.NormalizeConfigDir(dir)
	if err != nil {
		return cleaner.VenvResult{}, fmt.Errorf("invalid config directory: %w", err)
	}
	return m.cleaner.FreeVenv(configDir)
}

// ClearRemotes removes remote interpreters and deployment settings from dir.
func (m *Manager) ClearRemotes(dir string) (cleaner.RemotesResult, error) {
	configDir, err := m.validator.NormalizeConfigDir(dir)
	if err != nil {
		return cleaner.RemotesResult{}, fmt.Errorf("invalid config directory: %w", err)
	}
	return m.cleaner.ClearRemotes(configDir)
}

// SwitchConfig swaps dir with its parked alternate.
func (m *Manager) SwitchConfig(dir string) (switcher.Result, error) {
	configDir, err := m.validator.NormalizeConfigDir(dir)
	if err != nil {
		return switcher.Result{}, fmt.Errorf("invalid config directory: %w", err)
	}
	return m.switcher.Switch(configDir)
}

// ResumeSwitch finishes or discards an interrupted swap of dir.
func (m *Manager) ResumeSwitch(dir string) (switcher.ResumeResult, error) {
	configDir, err := m.validator.NormalizeConfigDir(dir)
	if err != nil {
		return switcher.ResumeResult{}, fmt.Errorf("invalid config directory: %w", err)
	}
	return m.switcher.Resume(configDir)
}

// ListConfigs describes every config directory under the config root.
func (m *Manager) ListConfigs() ([]catalog.ListEntry, error) {
	return m.catalog.ListEntries(m.switcher.Detect)
}

// ConfigDirs returns the active config directories under the config root.
func (m *Manager) ConfigDirs() ([]string, error) {
	return m.catalog.ListActive()
}

// PruneBackups deletes table backups older than olderThan.
func (m *Manager) PruneBackups(olderThan time.Duration) (int, error) {
	return m.backup.PruneBackups(olderThan)
}

// backupTable runs before every table save. Backups are labelled with the
// config directory name so copies from different IDEs stay apart.
func (m *Manager) backupTable(configDir, tablePath string) error {
	if !m.config.BackupsEnabled() {
		return nil
	}
	backupPath, err := m.backup.BackupFile(filepath.Base(configDir), tablePath)
	if err != nil {
		return fmt.Errorf("failed to back up %s: %w", tablePath, err)
	}
	m.logger.Debug("interpreter table backed up", "table", tablePath, "backup", backupPath)
	return nil
}
