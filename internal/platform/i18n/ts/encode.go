package ts

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

const (
	indent1 = "    "
	indent2 = indent1 + indent1
	indent3 = indent2 + indent1
)

// Marshal serializes doc in lupdate's layout.
func Marshal(doc *Document) []byte {
	var buf bytes.Buffer
	_, _ = doc.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes d in lupdate's layout. Documents parsed from lupdate
// output are reproduced byte for byte.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	out := &countingWriter{w: w}
	out.str(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	out.str("<!DOCTYPE TS>\n")
	out.str("<TS")
	out.attr("version", d.Version)
	out.attr("language", d.Language)
	out.attr("sourcelanguage", d.SourceLanguage)
	out.str(">\n")
	for _, c := range d.Contexts {
		writeContext(out, c)
	}
	out.str("</TS>")
	if d.TrailingNewline {
		out.str("\n")
	}
	return out.n, out.err
}

func writeContext(out *countingWriter, c Context) {
	out.str("<context>\n")
	out.element(indent1, "name", c.Name)
	if c.Comment != "" {
		out.element(indent1, "comment", c.Comment)
	}
	for _, m := range c.Messages {
		writeMessage(out, m)
	}
	out.str("</context>\n")
}

func writeMessage(out *countingWriter, m Message) {
	out.str(indent1 + "<message")
	out.attr("id", m.ID)
	if m.Numerus {
		out.str(` numerus="yes"`)
	}
	out.str(">\n")
	for _, loc := range m.Locations {
		out.str(indent2 + "<location")
		out.attr("filename", loc.Filename)
		out.attr("line", loc.Line)
		out.str("/>\n")
	}
	out.element(indent2, "source", m.Source)
	optional := []struct{ name, value string }{
		{"oldsource", m.OldSource},
		{"comment", m.Comment},
		{"oldcomment", m.OldComment},
		{"extracomment", m.ExtraComment},
		{"translatorcomment", m.TranslatorComment},
	}
	for _, field := range optional {
		if field.value != "" {
			out.element(indent2, field.name, field.value)
		}
	}
	writeTranslation(out, m)
	out.str(indent1 + "</message>\n")
}

func writeTranslation(out *countingWriter, m Message) {
	out.str(indent2 + "<translation")
	out.attr("type", m.Translation.Status.typeAttr())
	out.str(">")
	if !m.Numerus {
		out.str(protect(m.Translation.Text))
		out.str("</translation>\n")
		return
	}
	out.str("\n")
	for _, form := range m.Translation.NumerusForms {
		out.element(indent3, "numerusform", form)
	}
	out.str(indent2 + "</translation>\n")
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) str(s string) {
	if c.err != nil {
		return
	}
	n, err := io.WriteString(c.w, s)
	c.n += int64(n)
	c.err = err
}

// attr writes name="value" when value is non-empty.
func (c *countingWriter) attr(name, value string) {
	if value == "" {
		return
	}
	c.str(" " + name + `="` + protect(value) + `"`)
}

func (c *countingWriter) element(prefix, name, text string) {
	c.str(prefix + "<" + name + ">" + protect(text) + "</" + name + ">\n")
}

// protect escapes text the way lupdate does: the five XML entities, and
// control characters other than tab and newline as <byte> elements.
func protect(s string) string {
	if !needsProtect(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
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
		case '\'':
			b.WriteString("&apos;")
		default:
			if r < 0x20 && r != '\n' && r != '\t' {
				fmt.Fprintf(&b, `<byte value="x%x"/>`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsProtect(s string) bool {
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '&', ch == '<', ch == '>', ch == '"', ch == '\'':
			return true
		case ch < 0x20 && ch != '\n' && ch != '\t':
			return true
		}
	}
	return false
}
