package validator

// Tests for config directory validation.
//
// The config directory's base name is used to derive sibling paths that get
// renamed. These tests prevent:
// - Dot navigation (., ..) and the filesystem root
// - Injection attacks (null bytes, control chars)
// - Operating on a parked .test/.prod copy

import (
	"errors"
	"testing"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
)

func TestValidateConfigDir_ValidPaths(t *testing.T) {
	v := New()

	validPaths := []string{
		"/home/me/.config/JetBrains/PyCharm2024.1",
		"/home/me/.config/JetBrains/IntelliJIdea2023.3/",
		"relative/GoLand2024.2",
		"PyCharmCE2024.1",
		"/Users/me/Library/Application Support/JetBrains/WebStorm2024.1",
		"/home/jürgen/.config/JetBrains/CLion2024.1",
	}

	for _, path := range validPaths {
		t.Run(path, func(t *testing.T) {
			valid, err := v.ValidateConfigDir(path)
			if !valid || err != nil {
				t.Errorf("expected valid for %q, got valid=%v err=%v", path, valid, err)
			}
		})
	}
}

func TestValidateConfigDir_Invalid(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty string", "", domain.ErrConfigDirEmpty},
		{"only spaces", "   ", domain.ErrConfigDirEmpty},
		{"single dot", ".", domain.ErrConfigDirDot},
		{"double dot", "..", domain.ErrConfigDirDot},
		{"root", "/", domain.ErrConfigDirDot},
		{"null byte", "/cfg/Py\x00Charm", domain.ErrConfigDirNullByte},
		{"newline", "/cfg/Py\nCharm", domain.ErrConfigDirNonPrintable},
		{"escape", "/cfg/Py\x1bCharm", domain.ErrConfigDirNonPrintable},
		{"DEL", "/cfg/Py\x7fCharm", domain.ErrConfigDirNonPrintable},
		{"parked test", "/cfg/PyCharm2024.1.test", domain.ErrConfigDirParked},
		{"parked prod", "/cfg/PyCharm2024.1.prod/", domain.ErrConfigDirParked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := v.ValidateConfigDir(tt.input)
			if valid {
				t.Errorf("expected invalid for %q", tt.input)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeConfigDir(t *testing.T) {
	v := New()

	got, err := v.NormalizeConfigDir("  /cfg/PyCharm2024.1/  ")
	if err != nil {
		t.Fatalf("NormalizeConfigDir error: %v", err)
	}
	if got != "/cfg/PyCharm2024.1" {
		t.Errorf("NormalizeConfigDir() = %q, want %q", got, "/cfg/PyCharm2024.1")
	}

	if _, err := v.NormalizeConfigDir(".."); !errors.Is(err, domain.ErrConfigDirDot) {
		t.Errorf("expected ErrConfigDirDot, got %v", err)
	}
}
