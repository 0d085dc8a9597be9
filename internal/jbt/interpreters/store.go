// Package interpreters reads and writes the IDE's SDK table (options/jdk.table.xml).
//
// The document is kept as an etree tree. Elements jbtool does not touch are
// written back from their source bytes, so entity spelling, quoting and
// self-closing tags of the IDE's own output survive a save.
package interpreters

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/OpenGG/jbtool/internal/jbt/domain"
	"github.com/OpenGG/jbtool/internal/jbt/storage"
)

const (
	nameTag       = "name"
	valueAttr     = "value"
	additionalTag = "additional"
	mappingTag    = "PathMappingSettings"

	// ProjectPathAttr links an interpreter to the project whose venv it is.
	ProjectPathAttr = "ASSOCIATED_PROJECT_PATH"
)

// Store loads and saves interpreter tables through Storage.
type Store struct {
	storage *storage.Storage
	logger  *slog.Logger
}

// New creates a Store. A nil logger discards log output.
func New(storage *storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{storage: storage, logger: logger}
}

// Load reads the table at path. Missing files yield domain.ErrNotFound before any parsing.
func (s *Store) Load(path string) (*Table, error) {
	exists, err := s.storage.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err := s.storage.ValidatePathSafety(path); err != nil {
		return nil, err
	}

	data, err := s.storage.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.logger.Debug("interpreter table loaded", "path", path, "entries", len(table.entries))
	return table, nil
}

// Save overwrites path with the whole table.
func (s *Store) Save(table *Table, path string) error {
	if err := s.storage.WriteFileAtomic(path, table.Bytes()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	s.logger.Debug("interpreter table saved", "path", path, "entries", len(table.entries))
	return nil
}

// Table is the ordered list of interpreter entries of one document.
type Table struct {
	doc     *etree.Document
	list    *etree.Element
	entries []*Entry
	starts  map[*etree.Element]startTag
}

// Parse builds a Table from raw XML. The root's first child element holds the entries,
// and every entry must carry an <additional> block.
func Parse(data []byte) (*Table, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", domain.ErrMalformedData)
	}
	children := root.ChildElements()
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: <%s> has no interpreter list", domain.ErrMalformedData, root.Tag)
	}

	starts, err := captureStartTags(data, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
	}

	list := children[0]
	table := &Table{doc: doc, list: list, starts: starts}
	for i, el := range list.ChildElements() {
		entry := &Entry{elem: el, additional: el.SelectElement(additionalTag)}
		if entry.additional == nil {
			return nil, fmt.Errorf("%w: entry %d (%q) has no <%s> block",
				domain.ErrMalformedData, i, entry.Name(), additionalTag)
		}
		table.entries = append(table.entries, entry)
	}
	return table, nil
}

// Entries returns the entries in document order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Remove deletes the given entries. Remaining entries keep their relative order.
func (t *Table) Remove(entries ...*Entry) {
	drop := make(map[*Entry]struct{}, len(entries))
	for _, e := range entries {
		drop[e] = struct{}{}
	}

	kept := t.entries[:0]
	for _, e := range t.entries {
		if _, ok := drop[e]; !ok {
			kept = append(kept, e)
			continue
		}
		t.detach(e.elem)
	}
	t.entries = kept
}

// detach removes el together with the indentation in front of it.
func (t *Table) detach(el *etree.Element) {
	idx := el.Index()
	if idx < 0 {
		return
	}
	t.list.RemoveChildAt(idx)
	if idx > 0 {
		if cd, ok := t.list.Child[idx-1].(*etree.CharData); ok && cd.IsWhitespace() {
			t.list.RemoveChildAt(idx - 1)
		}
	}
}

// Bytes serializes the whole document.
func (t *Table) Bytes() []byte {
	var b strings.Builder
	t.writeTokens(&b, t.doc.Child)
	return []byte(b.String())
}

// Attribute is one key/value pair of an entry's <additional> block.
type Attribute struct {
	Key   string
	Value string
}

// Entry is one SDK definition.
type Entry struct {
	elem       *etree.Element
	additional *etree.Element
}

// Name returns the value of the entry's <name value="..."/> child.
func (e *Entry) Name() string {
	name := e.elem.SelectElement(nameTag)
	if name == nil {
		return ""
	}
	return name.SelectAttrValue(valueAttr, "")
}

// Attributes returns the <additional> attributes in document order.
func (e *Entry) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(e.additional.Attr))
	for _, a := range e.additional.Attr {
		attrs = append(attrs, Attribute{Key: a.FullKey(), Value: a.Value})
	}
	return attrs
}

// HasRemoteMapping reports whether <additional> carries a non-empty <PathMappingSettings>.
// An element without child elements does not count.
func (e *Entry) HasRemoteMapping() bool {
	mapping := e.additional.SelectElement(mappingTag)
	return mapping != nil && len(mapping.ChildElements()) > 0
}

// ProjectPath returns ASSOCIATED_PROJECT_PATH and whether it is set to a non-empty value.
func (e *Entry) ProjectPath() (string, bool) {
	attr := e.additional.SelectAttr(ProjectPathAttr)
	if attr == nil || attr.Value == "" {
		return "", false
	}
	return attr.Value, true
}

// ClearProjectPath removes ASSOCIATED_PROJECT_PATH and reports whether it was present.
func (e *Entry) ClearProjectPath() bool {
	return e.additional.RemoveAttr(ProjectPathAttr) != nil
}
