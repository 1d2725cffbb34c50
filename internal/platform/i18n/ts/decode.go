package ts

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoRoot is returned when the input has no <TS> root element.
var ErrNoRoot = errors.New("ts: missing <TS> root element")

// ParseWarning describes a recoverable problem in a .ts file.
type ParseWarning struct {
	Line    int
	Context string
	Message string
}

func (w ParseWarning) String() string {
	if w.Context == "" {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", w.Line, w.Context, w.Message)
}

// ParseFile reads and parses the .ts file at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a .ts document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ts: read: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a .ts document.
func ParseBytes(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	p := &parser{dec: dec}
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	doc.TrailingNewline = bytes.HasSuffix(data, []byte("\n"))
	doc.Warnings = p.warnings
	return doc, nil
}

type parser struct {
	dec      *xml.Decoder
	warnings []ParseWarning
}

func (p *parser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *parser) warn(line int, context, format string, args ...any) {
	p.warnings = append(p.warnings, ParseWarning{
		Line:    line,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) next() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("ts: unexpected end of document: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		return nil, fmt.Errorf("ts: decode: %w", err)
	}
	return tok, nil
}

func (p *parser) skip() error {
	if err := p.dec.Skip(); err != nil {
		return fmt.Errorf("ts: decode: %w", err)
	}
	return nil
}

func (p *parser) document() (*Document, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil, ErrNoRoot
		}
		if err != nil {
			return nil, fmt.Errorf("ts: decode: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "TS" {
			return nil, fmt.Errorf("%w: found <%s>", ErrNoRoot, start.Name.Local)
		}
		doc := &Document{
			Version:        attr(start, "version"),
			Language:       attr(start, "language"),
			SourceLanguage: attr(start, "sourcelanguage"),
		}
		if err := p.root(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
}

func (p *parser) root(doc *Document) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "context" {
				if err := p.skip(); err != nil {
					return err
				}
				continue
			}
			c, err := p.context()
			if err != nil {
				return err
			}
			doc.Contexts = append(doc.Contexts, c)
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) context() (Context, error) {
	var c Context
	for {
		tok, err := p.next()
		if err != nil {
			return Context{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if c.Name, err = p.text(); err != nil {
					return Context{}, err
				}
			case "comment":
				if c.Comment, err = p.text(); err != nil {
					return Context{}, err
				}
			case "message":
				messages, err := p.message(t, c.Name)
				if err != nil {
					return Context{}, err
				}
				c.Messages = append(c.Messages, messages...)
			default:
				if err := p.skip(); err != nil {
					return Context{}, err
				}
			}
		case xml.EndElement:
			return c, nil
		}
	}
}

// message parses one <message>. Hand-edited files sometimes pack several
// source/translation pairs into one element; each extra <source> starts a
// new message.
func (p *parser) message(start xml.StartElement, contextName string) ([]Message, error) {
	line := p.line()
	cur := Message{
		ID:      attr(start, "id"),
		Numerus: attr(start, "numerus") == "yes",
	}
	hasSource := false
	var out []Message

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var target *string
			switch t.Name.Local {
			case "location":
				cur.Locations = append(cur.Locations, Location{
					Filename: attr(t, "filename"),
					Line:     attr(t, "line"),
				})
				if err := p.skip(); err != nil {
					return nil, err
				}
				continue
			case "source":
				text, err := p.text()
				if err != nil {
					return nil, err
				}
				if hasSource {
					p.warn(p.line(), contextName, "message %q holds more than one <source>; split into separate messages", cur.Source)
					out = append(out, cur)
					cur = Message{Numerus: cur.Numerus}
				}
				cur.Source = text
				hasSource = true
				continue
			case "translation":
				tr, err := p.translation(t, cur.Numerus, contextName)
				if err != nil {
					return nil, err
				}
				cur.Translation = tr
				continue
			case "oldsource":
				target = &cur.OldSource
			case "comment":
				target = &cur.Comment
			case "oldcomment":
				target = &cur.OldComment
			case "extracomment":
				target = &cur.ExtraComment
			case "translatorcomment":
				target = &cur.TranslatorComment
			default:
				if err := p.skip(); err != nil {
					return nil, err
				}
				continue
			}
			if *target, err = p.text(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if !hasSource {
				p.warn(line, contextName, "message without <source> dropped")
				return out, nil
			}
			return append(out, cur), nil
		}
	}
}

func (p *parser) translation(start xml.StartElement, numerus bool, contextName string) (Translation, error) {
	typ := attr(start, "type")
	status, ok := ParseStatus(typ)
	if !ok {
		p.warn(p.line(), contextName, "unknown translation type %q treated as finished", typ)
	}
	tr := Translation{Status: status}

	var b strings.Builder
	sawVariant := false
	for {
		tok, err := p.next()
		if err != nil {
			return Translation{}, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if !numerus && !sawVariant {
				b.Write(t)
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "numerusform":
				form, err := p.text()
				if err != nil {
					return Translation{}, err
				}
				tr.NumerusForms = append(tr.NumerusForms, form)
			case "lengthvariant":
				// Only the first (longest) variant is kept.
				variant, err := p.text()
				if err != nil {
					return Translation{}, err
				}
				if !sawVariant {
					b.Reset()
					b.WriteString(variant)
					sawVariant = true
				}
			case "byte":
				if r, ok := byteValue(t); ok && !numerus {
					b.WriteRune(r)
				}
				if err := p.skip(); err != nil {
					return Translation{}, err
				}
			default:
				if err := p.skip(); err != nil {
					return Translation{}, err
				}
			}
		case xml.EndElement:
			if !numerus {
				tr.Text = b.String()
			}
			return tr, nil
		}
	}
}

// text collects character data up to the end of the current element,
// expanding <byte value="..."/> markers.
func (p *parser) text() (string, error) {
	var b strings.Builder
	for {
		tok, err := p.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			if t.Name.Local == "byte" {
				if r, ok := byteValue(t); ok {
					b.WriteRune(r)
				}
			}
			if err := p.skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// byteValue decodes value="x1b" (hex) or value="27" (decimal).
func byteValue(start xml.StartElement) (rune, bool) {
	value := attr(start, "value")
	if value == "" {
		return 0, false
	}
	base := 10
	if value[0] == 'x' || value[0] == 'X' {
		value = value[1:]
		base = 16
	}
	n, err := strconv.ParseUint(value, base, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
