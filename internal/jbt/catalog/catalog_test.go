package catalog

// Tests for config root scanning and list annotations.
//
// Focus: which directory names count as active configs, orphaned parked copies,
// and the prefix/qualifier mapping for every pair state.

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/OpenGG/jbtool/internal/jbt/storage"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
)

const root = "/cfg/JetBrains"

func newTestCatalog(t *testing.T, dirs ...string) (*Catalog, *switcher.Switcher, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, d := range dirs {
		if err := fs.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("setup %s: %v", d, err)
		}
	}
	stor := storage.New(fs)
	return New(stor, root, nil), switcher.New(stor, nil, nil, nil), fs
}

func TestListActive(t *testing.T) {
	cat, _, fs := newTestCatalog(t,
		"PyCharm2024.1",
		"PyCharm2024.1.test",
		"GoLand2024.2",
		"GoLand2024.2.prod.tmp",
		"consentOptions",
		"IntelliJIdea2024.1",
	)
	if err := afero.WriteFile(fs, filepath.Join(root, ".PyCharm2024.1.switch.yaml"), nil, 0o644); err != nil {
		t.Fatalf("setup journal: %v", err)
	}

	got, err := cat.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "GoLand2024.2"),
		filepath.Join(root, "IntelliJIdea2024.1"),
		filepath.Join(root, "PyCharm2024.1"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListActive = %v, want %v", got, want)
	}
}

func TestListActive_MissingRoot(t *testing.T) {
	cat := New(storage.New(afero.NewMemMapFs()), "/nowhere", nil)

	got, err := cat.ListActive()
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no directories, got %v", got)
	}
}

func TestListEntries(t *testing.T) {
	cat, sw, fs := newTestCatalog(t,
		"CLion2024.1", "CLion2024.1.test", "CLion2024.1.prod",
		"GoLand2024.2",
		"PyCharm2024.1", "PyCharm2024.1.test",
		"RustRover2024.1", "RustRover2024.1.prod",
		"WebStorm2024.1",
		"DataGrip2024.1.prod",
	)
	if err := afero.WriteFile(fs, filepath.Join(root, "PyCharm2024.1", "options", "jdk.table.xml"), []byte("<application/>"), 0o644); err != nil {
		t.Fatalf("setup table: %v", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(root, ".WebStorm2024.1.switch.yaml"), []byte("active: x\n"), 0o644); err != nil {
		t.Fatalf("setup journal: %v", err)
	}

	entries, err := cat.ListEntries(sw.Detect)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}

	want := []ListEntry{
		{Name: "CLion2024.1", Product: "clion", Prefix: "!", Qualifiers: []string{"both parked!", "no jdk.table.xml"}},
		{Name: "GoLand2024.2", Product: "goland", Prefix: " ", Qualifiers: []string{"unconfigured", "no jdk.table.xml"}},
		{Name: "PyCharm2024.1", Product: "pycharm", Prefix: "*", Qualifiers: []string{"test parked"}},
		{Name: "RustRover2024.1", Product: "rustrover", Prefix: "*", Qualifiers: []string{"prod parked", "no jdk.table.xml"}},
		{Name: "WebStorm2024.1", Product: "webstorm", Prefix: "!", Qualifiers: []string{"interrupted!", "no jdk.table.xml"}},
		{Name: "DataGrip2024.1", Product: "datagrip", Prefix: "!", Qualifiers: []string{"active missing!"}},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, w := range want {
		got := entries[i]
		if got.Name != w.Name || got.Product != w.Product || got.Prefix != w.Prefix {
			t.Errorf("entry %d = %+v, want %+v", i, got, w)
		}
		if got.Path != filepath.Join(root, w.Name) {
			t.Errorf("entry %d path = %q", i, got.Path)
		}
		if !reflect.DeepEqual(got.Qualifiers, w.Qualifiers) {
			t.Errorf("entry %d qualifiers = %v, want %v", i, got.Qualifiers, w.Qualifiers)
		}
	}
}

func TestListEntries_ExtraProducts(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(filepath.Join(root, "AndroidStudio2024.1"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	stor := storage.New(fs)
	cat := New(stor, root, append([]string{"androidstudio"}, switcher.KnownProducts...))

	entries, err := cat.ListEntries(switcher.New(stor, nil, nil, nil).Detect)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Product != "androidstudio" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
