// Package catalog lists the IDE configuration directories under a JetBrains config root.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/paths"
	"github.com/OpenGG/jbtool/internal/jbt/storage"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
)

// Catalog scans a config root such as ~/.config/JetBrains.
type Catalog struct {
	storage  *storage.Storage
	root     string
	products []string
}

// New creates a Catalog over root. products falls back to switcher.KnownProducts.
func New(storage *storage.Storage, root string, products []string) *Catalog {
	if len(products) == 0 {
		products = switcher.KnownProducts
	}
	return &Catalog{storage: storage, root: root, products: products}
}

// ListActive returns the paths of active config directories belonging to a known
// product, sorted by name. Parked siblings, staging copies and journals are skipped.
// A missing root yields an empty list.
func (c *Catalog) ListActive() ([]string, error) {
	names, err := c.scan()
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, n := range names.active {
		dirs = append(dirs, filepath.Join(c.root, n))
	}
	return dirs, nil
}

// ListEntry describes a config directory for list output.
type ListEntry struct {
	Name       string
	Path       string
	Product    string
	Prefix     string
	Qualifiers []string
}

// ListEntries computes formatted entries for the list command.
//
// Prefixes:
//   - "*" the directory has a parked alternate and can be switched
//   - " " nothing parked yet; the first switch creates .prod
//   - "!" needs attention: interrupted switch, both siblings parked, or the
//     active directory is gone while a parked copy remains
//
// detect is normally (*switcher.Switcher).Detect.
func (c *Catalog) ListEntries(detect func(string) (switcher.State, error)) ([]ListEntry, error) {
	names, err := c.scan()
	if err != nil {
		return nil, err
	}

	var entries []ListEntry
	for _, name := range names.active {
		path := filepath.Join(c.root, name)
		product, _ := switcher.IdentifyProduct(name, c.products)
		entry := ListEntry{Name: name, Path: path, Product: product, Prefix: " "}

		state, err := detect(path)
		switch {
		case err == nil:
			entry.Qualifiers = append(entry.Qualifiers, state.String())
			if state != switcher.StateUninitialized {
				entry.Prefix = "*"
			}
		case errors.Is(err, domain.ErrPartialSwap):
			entry.Prefix = "!"
			entry.Qualifiers = append(entry.Qualifiers, "interrupted!")
		case errors.Is(err, domain.ErrInconsistentPair):
			entry.Prefix = "!"
			entry.Qualifiers = append(entry.Qualifiers, "both parked!")
		default:
			return nil, err
		}

		if hasTable, err := c.hasTable(path); err != nil {
			return nil, err
		} else if !hasTable {
			entry.Qualifiers = append(entry.Qualifiers, "no jdk.table.xml")
		}
		entries = append(entries, entry)
	}

	for _, name := range names.orphans {
		product, _ := switcher.IdentifyProduct(name, c.products)
		entries = append(entries, ListEntry{
			Name:       name,
			Path:       filepath.Join(c.root, name),
			Product:    product,
			Prefix:     "!",
			Qualifiers: []string{"active missing!"},
		})
	}

	return entries, nil
}

type scanResult struct {
	active []string
	// orphans are active names whose directory is gone while a sibling is parked.
	orphans []string
}

func (c *Catalog) scan() (scanResult, error) {
	var res scanResult
	isDir, err := c.storage.IsDir(c.root)
	if err != nil {
		return res, err
	}
	if !isDir {
		return res, nil
	}

	infos, err := c.storage.ReadDir(c.root)
	if err != nil {
		return res, fmt.Errorf("failed to read config root: %w", err)
	}

	dirs := make(map[string]bool, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			dirs[info.Name()] = true
		}
	}

	orphans := make(map[string]bool)
	for name := range dirs {
		if _, ok := switcher.IdentifyProduct(name, c.products); !ok {
			continue
		}
		if paths.IsParked(name) {
			active := strings.TrimSuffix(strings.TrimSuffix(name, paths.TestSuffix), paths.ProdSuffix)
			if !dirs[active] {
				orphans[active] = true
			}
			continue
		}
		if strings.HasSuffix(name, ".tmp") || paths.IsJournal(name) {
			continue
		}
		res.active = append(res.active, name)
	}
	for name := range orphans {
		res.orphans = append(res.orphans, name)
	}
	sort.Strings(res.active)
	sort.Strings(res.orphans)
	return res, nil
}

func (c *Catalog) hasTable(dir string) (bool, error) {
	tablePath, err := paths.New(dir).JdkTablePath()
	if err != nil {
		return false, err
	}
	return c.storage.Exists(tablePath)
}
