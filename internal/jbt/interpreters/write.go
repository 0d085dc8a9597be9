package interpreters

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// startTag is the source text of an element's start tag together with the
// attributes it was parsed into.
type startTag struct {
	raw   []byte
	attrs []etree.Attr
}

func (st startTag) selfClosing() bool {
	return bytes.HasSuffix(st.raw, []byte("/>"))
}

// emptySuffix returns how the tag closed itself, " />" (IntelliJ) or "/>".
func (st startTag) emptySuffix() string {
	if bytes.HasSuffix(st.raw, []byte(" />")) {
		return " />"
	}
	return "/>"
}

func (st startTag) unchanged(el *etree.Element) bool {
	if len(st.attrs) != len(el.Attr) {
		return false
	}
	for i, a := range el.Attr {
		if a.Space != st.attrs[i].Space || a.Key != st.attrs[i].Key || a.Value != st.attrs[i].Value {
			return false
		}
	}
	return true
}

// captureStartTags pairs every element of doc with its start tag in data.
// etree drops entity spelling, quoting and the form of empty elements, so
// untouched elements are written back from these slices.
func captureStartTags(data []byte, doc *etree.Document) (map[*etree.Element]startTag, error) {
	var raws [][]byte
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.StartElement); ok {
			raws = append(raws, data[offset:dec.InputOffset()])
		}
	}

	elements := collectElements(doc.Child, nil)
	if len(elements) != len(raws) {
		return nil, fmt.Errorf("found %d start tags for %d elements", len(raws), len(elements))
	}
	tags := make(map[*etree.Element]startTag, len(elements))
	for i, el := range elements {
		tags[el] = startTag{raw: raws[i], attrs: append([]etree.Attr(nil), el.Attr...)}
	}
	return tags, nil
}

func collectElements(tokens []etree.Token, out []*etree.Element) []*etree.Element {
	for _, tok := range tokens {
		if el, ok := tok.(*etree.Element); ok {
			out = append(out, el)
			out = collectElements(el.Child, out)
		}
	}
	return out
}

// writeTokens serializes tokens the way IntelliJ writes its option files.
func (t *Table) writeTokens(b *strings.Builder, tokens []etree.Token) {
	for _, tok := range tokens {
		switch v := tok.(type) {
		case *etree.Element:
			t.writeElement(b, v)
		case *etree.CharData:
			if v.IsCData() {
				b.WriteString("<![CDATA[" + v.Data + "]]>")
			} else {
				escapeText(b, v.Data)
			}
		case *etree.Comment:
			b.WriteString("<!--" + v.Data + "-->")
		case *etree.Directive:
			b.WriteString("<!" + v.Data + ">")
		case *etree.ProcInst:
			b.WriteString("<?" + v.Target)
			if v.Inst != "" {
				b.WriteString(" " + v.Inst)
			}
			b.WriteString("?>")
		}
	}
}

func (t *Table) writeElement(b *strings.Builder, el *etree.Element) {
	st, known := t.starts[el]
	empty := len(el.Child) == 0 && (!known || st.selfClosing())

	if known && st.unchanged(el) && (empty || !st.selfClosing()) {
		b.Write(st.raw)
	} else {
		b.WriteString("<" + el.FullTag())
		for _, a := range el.Attr {
			b.WriteString(" " + a.FullKey() + `="`)
			escapeAttr(b, a.Value)
			b.WriteString(`"`)
		}
		switch {
		case !empty:
			b.WriteString(">")
		case known:
			b.WriteString(st.emptySuffix())
		default:
			b.WriteString(" />")
		}
	}

	if empty {
		return
	}
	t.writeTokens(b, el.Child)
	b.WriteString("</" + el.FullTag() + ">")
}

// escapeAttr escapes an attribute value with IntelliJ's character references,
// keeping line breaks and tabs as references so they survive reparsing.
func escapeAttr(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#10;")
		case '\r':
			b.WriteString("&#13;")
		case '\t':
			b.WriteString("&#9;")
		default:
			b.WriteRune(r)
		}
	}
}

func escapeText(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
}
