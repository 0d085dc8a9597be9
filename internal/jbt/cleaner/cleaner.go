// Package cleaner removes remote interpreters and venv associations from an IDE config directory.
package cleaner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/interpreters"
	"github.com/OpenGG/jbtool/internal/jbt/paths"
	"github.com/OpenGG/jbtool/internal/jbt/storage"
)

// SaveHook runs with the table path right before the table is rewritten.
type SaveHook func(configDir, tablePath string) error

// Cleaner edits options/jdk.table.xml and options/webServers.xml.
type Cleaner struct {
	storage    *storage.Storage
	store      *interpreters.Store
	logger     *slog.Logger
	beforeSave SaveHook
}

// New creates a Cleaner. A nil logger discards log output.
func New(storage *storage.Storage, store *interpreters.Store, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cleaner{storage: storage, store: store, logger: logger}
}

// SetBeforeSave installs a hook that runs before every table save. A failing hook aborts the save.
func (c *Cleaner) SetBeforeSave(hook SaveHook) {
	c.beforeSave = hook
}

// RemotesResult describes what ClearRemotes did.
type RemotesResult struct {
	TablePath         string
	DeploymentPath    string
	DeploymentRemoved bool
	// Removed holds the names of removed interpreters in document order.
	Removed []string
}

// VenvResult describes what FreeVenv did.
type VenvResult struct {
	TablePath string
	// Freed holds the names of interpreters whose project association was cleared, in document order.
	Freed []string
}

// ClearRemotes deletes the deployment file and every interpreter that carries path mappings.
//
// A missing interpreter table is fatal and leaves everything untouched. A missing
// deployment file is not. The returned result is filled in as far as the operation got.
func (c *Cleaner) ClearRemotes(configDir string) (RemotesResult, error) {
	pb := paths.New(configDir)
	var result RemotesResult

	tablePath, err := c.requireTable(pb)
	if err != nil {
		return result, err
	}
	result.TablePath = tablePath

	deploymentPath, err := pb.WebServersPath()
	if err != nil {
		return result, err
	}
	result.DeploymentPath = deploymentPath
	removed, err := c.removeIfExists(deploymentPath)
	if err != nil {
		return result, err
	}
	result.DeploymentRemoved = removed

	table, err := c.store.Load(tablePath)
	if err != nil {
		return result, err
	}

	var remotes []*interpreters.Entry
	for _, entry := range table.Entries() {
		if entry.HasRemoteMapping() {
			remotes = append(remotes, entry)
			result.Removed = append(result.Removed, entry.Name())
		}
	}
	table.Remove(remotes...)
	c.logger.Debug("remote interpreters selected", "config_dir", pb.ConfigDir(), "count", len(remotes))

	if err := c.save(pb, table, tablePath); err != nil {
		return result, err
	}
	return result, nil
}

// FreeVenv clears ASSOCIATED_PROJECT_PATH on every interpreter bound to a project.
// The table is saved even when nothing changed.
func (c *Cleaner) FreeVenv(configDir string) (VenvResult, error) {
	pb := paths.New(configDir)
	var result VenvResult

	tablePath, err := c.requireTable(pb)
	if err != nil {
		return result, err
	}
	result.TablePath = tablePath

	table, err := c.store.Load(tablePath)
	if err != nil {
		return result, err
	}

	for _, entry := range table.Entries() {
		if _, bound := entry.ProjectPath(); !bound {
			continue
		}
		result.Freed = append(result.Freed, entry.Name())
		entry.ClearProjectPath()
	}
	c.logger.Debug("venv associations cleared", "config_dir", pb.ConfigDir(), "count", len(result.Freed))

	if err := c.save(pb, table, tablePath); err != nil {
		return result, err
	}
	return result, nil
}

func (c *Cleaner) requireTable(pb *paths.PathBuilder) (string, error) {
	tablePath, err := pb.JdkTablePath()
	if err != nil {
		return "", err
	}
	exists, err := c.storage.Exists(tablePath)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", tablePath, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, tablePath)
	}
	return tablePath, nil
}

func (c *Cleaner) removeIfExists(path string) (bool, error) {
	if err := c.storage.ValidatePathSafety(path); err != nil {
		return false, err
	}
	if err := c.storage.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	c.logger.Debug("deployment settings removed", "path", path)
	return true, nil
}

func (c *Cleaner) save(pb *paths.PathBuilder, table *interpreters.Table, tablePath string) error {
	if c.beforeSave != nil {
		if err := c.beforeSave(pb.ConfigDir(), tablePath); err != nil {
			return err
		}
	}
	return c.store.Save(table, tablePath)
}
