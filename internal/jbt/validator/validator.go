package validator

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/paths"
)

// Validator checks config directory arguments before any file is touched.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateConfigDir validates the path given as --config-dir.
//
// The function checks for:
//   - Empty or whitespace-only paths
//   - A base name of "." or ".." (the swap renames siblings of the base name)
//   - Null bytes and control characters
//   - Parked .test/.prod copies, which must never be edited or swapped directly
//
// Returns (true, nil) if valid, or (false, error) with a descriptive error.
func (v *Validator) ValidateConfigDir(dir string) (bool, error) {
	trimmed := strings.TrimSpace(dir)
	if len(trimmed) == 0 {
		return false, domain.ErrConfigDirEmpty
	}
	if strings.ContainsRune(trimmed, 0) {
		return false, domain.ErrConfigDirNullByte
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false, domain.ErrConfigDirNonPrintable
		}
	}

	base := filepath.Base(filepath.Clean(trimmed))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return false, domain.ErrConfigDirDot
	}
	if paths.IsParked(base) {
		return false, domain.ErrConfigDirParked
	}
	return true, nil
}

// NormalizeConfigDir trims whitespace, cleans the path and validates it.
func (v *Validator) NormalizeConfigDir(dir string) (string, error) {
	trimmed := strings.TrimSpace(dir)
	if ok, err := v.ValidateConfigDir(trimmed); !ok {
		return "", err
	}
	return filepath.Clean(trimmed), nil
}
