package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// File and directory name constants used inside a JetBrains config directory.
const (
	OptionsDirName     = "options"
	JdkTableFileName   = "jdk.table.xml"
	WebServersFileName = "webServers.xml"

	TestSuffix = ".test"
	ProdSuffix = ".prod"

	ToolDirName    = "jbtool"
	BackupDirName  = "backups"
	ConfigFileName = "config.yaml"
	JetBrainsDir   = "JetBrains"
	journalPrefix  = "."
	journalSuffix  = ".switch.yaml"
	stagingSuffix  = ".tmp"
)

// PathBuilder derives the files jbtool touches inside one IDE config directory.
type PathBuilder struct {
	configDir string
}

// New creates a new PathBuilder for the given config directory.
func New(configDir string) *PathBuilder {
	return &PathBuilder{configDir: filepath.Clean(configDir)}
}

// ConfigDir returns the cleaned config directory path.
func (p *PathBuilder) ConfigDir() string {
	return p.configDir
}

// Name returns the base name of the config directory, e.g. "PyCharm2024.1".
func (p *PathBuilder) Name() string {
	return filepath.Base(p.configDir)
}

// OptionsPath resolves name inside the options directory without letting it escape the config directory.
func (p *PathBuilder) OptionsPath(name string) (string, error) {
	joined, err := securejoin.SecureJoin(p.configDir, filepath.Join(OptionsDirName, name))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return joined, nil
}

// JdkTablePath returns the path to options/jdk.table.xml.
func (p *PathBuilder) JdkTablePath() (string, error) {
	return p.OptionsPath(JdkTableFileName)
}

// WebServersPath returns the path to options/webServers.xml.
func (p *PathBuilder) WebServersPath() (string, error) {
	return p.OptionsPath(WebServersFileName)
}

// Pair holds the active config directory and its parked alternates.
type Pair struct {
	Active string
	Test   string
	Prod   string
}

// PairFor derives the directory pair for an active config directory.
func PairFor(active string) Pair {
	active = filepath.Clean(active)
	return Pair{
		Active: active,
		Test:   active + TestSuffix,
		Prod:   active + ProdSuffix,
	}
}

// Journal returns the path of the swap journal kept next to the active directory.
func (p Pair) Journal() string {
	dir, name := filepath.Split(p.Active)
	return filepath.Join(dir, journalPrefix+name+journalSuffix)
}

// Staging returns the temporary directory used while creating the first .prod copy.
func (p Pair) Staging() string {
	return p.Prod + stagingSuffix
}

// IsParked reports whether name carries a .test or .prod suffix.
func IsParked(name string) bool {
	return strings.HasSuffix(name, TestSuffix) || strings.HasSuffix(name, ProdSuffix)
}

// IsJournal reports whether name is a swap journal file.
func IsJournal(name string) bool {
	return strings.HasPrefix(name, journalPrefix) && strings.HasSuffix(name, journalSuffix)
}

// ToolPaths locates the directories jbtool owns.
type ToolPaths struct {
	home string
}

// NewToolPaths creates ToolPaths rooted at home.
func NewToolPaths(home string) *ToolPaths {
	return &ToolPaths{home: home}
}

// Home returns the jbtool home directory.
func (t *ToolPaths) Home() string {
	return t.home
}

// BackupDir returns the directory where jdk.table.xml backups are stored.
func (t *ToolPaths) BackupDir() string {
	return filepath.Join(t.home, BackupDirName)
}

// ConfigFile returns the path to the optional config.yaml.
func (t *ToolPaths) ConfigFile() string {
	return filepath.Join(t.home, ConfigFileName)
}
