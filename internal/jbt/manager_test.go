package jbt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
)

const (
	testHome   = "/home/test/.config/jbtool"
	testRoot   = "/home/test/.config/JetBrains"
	testConfig = testRoot + "/PyCharm2024.1"
	testTable  = testConfig + "/options/jdk.table.xml"
)

const sampleTable = `<application>
  <component name="ProjectJdkTable">
    <jdk version="2">
      <name value="A"/>
      <additional SDK_UUID="a"/>
    </jdk>
    <jdk version="2">
      <name value="B"/>
      <additional HOST="h"><PathMappingSettings><option name="pathMappings"/></PathMappingSettings></additional>
    </jdk>
    <jdk version="2">
      <name value="C"/>
      <additional ASSOCIATED_PROJECT_PATH="/p" SDK_UUID="c"/>
    </jdk>
  </component>
</application>`

type stubMatcher struct {
	running bool
}

func (s stubMatcher) Running(string) (bool, error) {
	return s.running, nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr := NewManager(fs, testHome, testRoot, nil, nil) // nil logger = discard logger for tests
	if err := mgr.InitInfra(); err != nil {
		t.Fatalf("InitInfra failed: %v", err)
	}
	return mgr
}

func writeTable(t *testing.T, mgr *Manager) {
	t.Helper()
	if err := afero.WriteFile(mgr.FileSystem(), testTable, []byte(sampleTable), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
}

func backupNames(t *testing.T, mgr *Manager) []string {
	t.Helper()
	infos, err := afero.ReadDir(mgr.FileSystem(), mgr.BackupDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		t.Fatalf("read backups: %v", err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names
}

func TestFreeVenvBacksUpBeforeSaving(t *testing.T) {
	mgr := newTestManager(t)
	writeTable(t, mgr)

	res, err := mgr.FreeVenv(testConfig)
	if err != nil {
		t.Fatalf("FreeVenv failed: %v", err)
	}
	if len(res.Freed) != 1 || res.Freed[0] != "C" {
		t.Fatalf("expected [C] freed, got %v", res.Freed)
	}

	backups := backupNames(t, mgr)
	if len(backups) != 1 || !strings.HasPrefix(backups[0], "PyCharm2024.1-") {
		t.Fatalf("expected one PyCharm backup, got %v", backups)
	}
	saved, err := afero.ReadFile(mgr.FileSystem(), filepath.Join(mgr.BackupDir(), backups[0]))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(saved) != sampleTable {
		t.Fatalf("backup should hold the table before the edit")
	}
}

func TestClearRemotes(t *testing.T) {
	mgr := newTestManager(t)
	writeTable(t, mgr)

	res, err := mgr.ClearRemotes(testConfig)
	if err != nil {
		t.Fatalf("ClearRemotes failed: %v", err)
	}
	if len(res.Removed) != 1 || res.Removed[0] != "B" {
		t.Fatalf("expected [B] removed, got %v", res.Removed)
	}
	if res.DeploymentRemoved {
		t.Fatalf("no deployment file existed")
	}
}

func TestBackupsCanBeDisabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, filepath.Join(testHome, "config.yaml"), []byte("backups: false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	mgr := NewManager(fs, testHome, testRoot, nil, nil)
	if err := mgr.InitInfra(); err != nil {
		t.Fatalf("InitInfra failed: %v", err)
	}
	writeTable(t, mgr)

	if _, err := mgr.FreeVenv(testConfig); err != nil {
		t.Fatalf("FreeVenv failed: %v", err)
	}
	if backups := backupNames(t, mgr); len(backups) != 0 {
		t.Fatalf("expected no backups, got %v", backups)
	}
}

func TestMissingTableIsNotFound(t *testing.T) {
	mgr := newTestManager(t)

	if _, err := mgr.FreeVenv(testConfig); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FreeVenv: expected ErrNotFound, got %v", err)
	}
	if _, err := mgr.ClearRemotes(testConfig); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ClearRemotes: expected ErrNotFound, got %v", err)
	}
}

func TestOperationsRejectInvalidConfigDir(t *testing.T) {
	mgr := newTestManager(t)

	if _, err := mgr.FreeVenv(""); !errors.Is(err, domain.ErrConfigDirEmpty) {
		t.Fatalf("expected ErrConfigDirEmpty, got %v", err)
	}
	if _, err := mgr.ClearRemotes(testConfig + ".prod"); !errors.Is(err, domain.ErrConfigDirParked) {
		t.Fatalf("expected ErrConfigDirParked, got %v", err)
	}
	if _, err := mgr.SwitchConfig(testConfig + ".test"); !errors.Is(err, domain.ErrConfigDirParked) {
		t.Fatalf("expected ErrConfigDirParked, got %v", err)
	}
	if _, err := mgr.ResumeSwitch("."); !errors.Is(err, domain.ErrConfigDirDot) {
		t.Fatalf("expected ErrConfigDirDot, got %v", err)
	}
}

func TestSwitchConfigRoundTrip(t *testing.T) {
	root := t.TempDir()
	active := filepath.Join(root, "GoLand2024.2")
	if err := os.MkdirAll(filepath.Join(active, "options"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mgr := NewManager(afero.NewOsFs(), filepath.Join(root, "home"), root, stubMatcher{}, nil)
	mgr.SetNow(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })

	res, err := mgr.SwitchConfig(active)
	if err != nil {
		t.Fatalf("first switch failed: %v", err)
	}
	if res.From != switcher.StateUninitialized || res.Product != "goland" {
		t.Fatalf("unexpected first switch result: %+v", res)
	}

	res, err = mgr.SwitchConfig(active)
	if err != nil {
		t.Fatalf("second switch failed: %v", err)
	}
	if res.From != switcher.StateProdAvailable {
		t.Fatalf("expected prod parked before second switch, got %v", res.From)
	}
	if _, err := os.Stat(active + ".test"); err != nil {
		t.Fatalf("expected .test sibling: %v", err)
	}
}

func TestSwitchConfigWhileRunning(t *testing.T) {
	root := t.TempDir()
	active := filepath.Join(root, "GoLand2024.2")
	if err := os.MkdirAll(active, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mgr := NewManager(afero.NewOsFs(), filepath.Join(root, "home"), root, stubMatcher{running: true}, nil)

	if _, err := mgr.SwitchConfig(active); !errors.Is(err, domain.ErrProcessRunning) {
		t.Fatalf("expected ErrProcessRunning, got %v", err)
	}
	if _, err := os.Stat(active + ".prod"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("nothing should be created while the IDE runs")
	}
}

func TestExtraProductsFromConfig(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	active := filepath.Join(root, "AndroidStudio2024.1")
	if err := os.MkdirAll(active, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("products:\n  - AndroidStudio\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	mgr := NewManager(afero.NewOsFs(), home, root, nil, nil)
	if _, err := mgr.SwitchConfig(active); !errors.Is(err, domain.ErrUnrecognizedProduct) {
		t.Fatalf("before InitInfra: expected ErrUnrecognizedProduct, got %v", err)
	}
	if err := mgr.InitInfra(); err != nil {
		t.Fatalf("InitInfra failed: %v", err)
	}
	res, err := mgr.SwitchConfig(active)
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if res.Product != "androidstudio" {
		t.Fatalf("expected androidstudio, got %q", res.Product)
	}

	dirs, err := mgr.ConfigDirs()
	if err != nil {
		t.Fatalf("ConfigDirs failed: %v", err)
	}
	if len(dirs) != 1 || dirs[0] != active {
		t.Fatalf("expected [%s], got %v", active, dirs)
	}
}

func TestListConfigs(t *testing.T) {
	mgr := newTestManager(t)
	writeTable(t, mgr)
	if err := mgr.FileSystem().MkdirAll(testConfig+".test", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := mgr.ListConfigs()
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %+v", entries)
	}
	if entries[0].Prefix != "*" || entries[0].Product != "pycharm" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestPruneBackups(t *testing.T) {
	mgr := newTestManager(t)
	writeTable(t, mgr)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr.SetNow(func() time.Time { return old })
	if _, err := mgr.FreeVenv(testConfig); err != nil {
		t.Fatalf("FreeVenv failed: %v", err)
	}

	mgr.SetNow(func() time.Time { return old.Add(48 * time.Hour) })
	removed, err := mgr.PruneBackups(24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneBackups failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 backup pruned, got %d", removed)
	}
}

func TestConfigProductList(t *testing.T) {
	cfg := Config{Products: []string{" AndroidStudio ", "pycharm", ""}}
	list := cfg.ProductList()
	if list[len(list)-1] != "androidstudio" {
		t.Fatalf("expected extra product appended, got %v", list)
	}
	count := 0
	for _, p := range list {
		if p == "pycharm" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected pycharm once, got %d", count)
	}
	if !cfg.BackupsEnabled() {
		t.Fatalf("backups should default to enabled")
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, filepath.Join(testHome, "config.yaml"), []byte("products: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	mgr := NewManager(fs, testHome, testRoot, nil, nil)
	if err := mgr.InitInfra(); err == nil {
		t.Fatalf("expected parse error")
	}
}
