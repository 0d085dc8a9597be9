// Package process answers whether an IDE is currently running.
package process

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ps "github.com/shirou/gopsutil/v3/process"
)

// Matcher reports whether a process belonging to product is running.
type Matcher interface {
	Running(product string) (bool, error)
}

// Info is the part of a process the matcher looks at.
type Info struct {
	PID  int32
	Name string
	Exe  string
}

// Lister enumerates running processes.
type Lister func() ([]Info, error)

// System matches against the processes of the local machine.
type System struct {
	list   Lister
	self   int32
	logger *slog.Logger
}

// NewSystem creates a matcher backed by gopsutil.
func NewSystem(logger *slog.Logger) *System {
	return NewWithLister(ListProcesses, logger)
}

// NewWithLister creates a matcher over a custom process source.
func NewWithLister(list Lister, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &System{list: list, self: int32(os.Getpid()), logger: logger}
}

// Running reports whether a process other than jbtool itself belongs to product,
// ignoring case. A process belongs to product when its name or executable file
// name contains it, or when it runs the bundled JBR of an install directory
// named after it, which is how IDEs show up as "java".
func (s *System) Running(product string) (bool, error) {
	needle := strings.ToLower(product)
	if needle == "" {
		return false, nil
	}
	procs, err := s.list()
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}
	for _, p := range procs {
		if p.PID == s.self {
			continue
		}
		if matches(p, needle) {
			s.logger.Debug("matching process found", "product", product, "pid", p.PID, "name", p.Name, "exe", p.Exe)
			return true, nil
		}
	}
	return false, nil
}

func matches(p Info, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	if p.Exe == "" {
		return false
	}
	segments := strings.Split(strings.ToLower(filepath.ToSlash(p.Exe)), "/")
	if strings.Contains(segments[len(segments)-1], needle) {
		return true
	}
	// <install>/jbr/bin/java, or <install>.app/Contents/jbr/... on macOS.
	for i, seg := range segments {
		if seg != jbrDir {
			continue
		}
		for _, parent := range segments[:i] {
			if strings.HasPrefix(parent, needle) {
				return true
			}
		}
		return false
	}
	return false
}

const jbrDir = "jbr"

// ListProcesses returns the running processes. Processes that vanish or deny
// access while being inspected are skipped.
func ListProcesses() ([]Info, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		// Exe needs more privileges than Name on some platforms.
		exe, _ := p.Exe()
		infos = append(infos, Info{PID: p.Pid, Name: name, Exe: exe})
	}
	return infos, nil
}
