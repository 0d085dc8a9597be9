package paths

import (
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	pb := New("/home/test/.config/JetBrains/PyCharm2024.1/")

	if pb == nil {
		t.Fatal("New() returned nil")
	}
	if pb.ConfigDir() != "/home/test/.config/JetBrains/PyCharm2024.1" {
		t.Errorf("ConfigDir() = %q, want cleaned path", pb.ConfigDir())
	}
	if pb.Name() != "PyCharm2024.1" {
		t.Errorf("Name() = %q, want %q", pb.Name(), "PyCharm2024.1")
	}
}

func TestJdkTablePath(t *testing.T) {
	pb := New("/cfg/PyCharm2024.1")

	got, err := pb.JdkTablePath()
	if err != nil {
		t.Fatalf("JdkTablePath() error: %v", err)
	}
	want := filepath.Join("/cfg/PyCharm2024.1", OptionsDirName, JdkTableFileName)
	if got != want {
		t.Errorf("JdkTablePath() = %q, want %q", got, want)
	}
}

func TestWebServersPath(t *testing.T) {
	pb := New("/cfg/PyCharm2024.1")

	got, err := pb.WebServersPath()
	if err != nil {
		t.Fatalf("WebServersPath() error: %v", err)
	}
	want := filepath.Join("/cfg/PyCharm2024.1", OptionsDirName, WebServersFileName)
	if got != want {
		t.Errorf("WebServersPath() = %q, want %q", got, want)
	}
}

func TestOptionsPathStaysInsideConfigDir(t *testing.T) {
	pb := New("/cfg/PyCharm2024.1")

	got, err := pb.OptionsPath("../../../etc/passwd")
	if err != nil {
		t.Fatalf("OptionsPath() error: %v", err)
	}
	want := filepath.Join("/cfg/PyCharm2024.1", "etc", "passwd")
	if got != want {
		t.Errorf("OptionsPath() = %q, want %q", got, want)
	}
}

func TestPair(t *testing.T) {
	pair := PairFor("/cfg/IntelliJIdea2024.1")

	if pair.Active != "/cfg/IntelliJIdea2024.1" {
		t.Errorf("Active = %q", pair.Active)
	}
	if pair.Test != "/cfg/IntelliJIdea2024.1.test" {
		t.Errorf("Test = %q", pair.Test)
	}
	if pair.Prod != "/cfg/IntelliJIdea2024.1.prod" {
		t.Errorf("Prod = %q", pair.Prod)
	}
	if pair.Journal() != "/cfg/.IntelliJIdea2024.1.switch.yaml" {
		t.Errorf("Journal() = %q", pair.Journal())
	}
	if pair.Staging() != "/cfg/IntelliJIdea2024.1.prod.tmp" {
		t.Errorf("Staging() = %q", pair.Staging())
	}
}

func TestIsParked(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"PyCharm2024.1", false},
		{"PyCharm2024.1.test", true},
		{"PyCharm2024.1.prod", true},
		{"PyCharm2024.1.production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsParked(tt.name); got != tt.want {
				t.Errorf("IsParked(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsJournal(t *testing.T) {
	if !IsJournal(".PyCharm2024.1.switch.yaml") {
		t.Error("expected journal name to be recognized")
	}
	if IsJournal("PyCharm2024.1") {
		t.Error("config directory must not be treated as journal")
	}
}

func TestToolPaths(t *testing.T) {
	tp := NewToolPaths("/home/test/.config/jbtool")

	if tp.Home() != "/home/test/.config/jbtool" {
		t.Errorf("Home() = %q", tp.Home())
	}
	if got, want := tp.BackupDir(), filepath.Join("/home/test/.config/jbtool", BackupDirName); got != want {
		t.Errorf("BackupDir() = %q, want %q", got, want)
	}
	if got, want := tp.ConfigFile(), filepath.Join("/home/test/.config/jbtool", ConfigFileName); got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
}
