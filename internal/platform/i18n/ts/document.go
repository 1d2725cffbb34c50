// Package ts reads and writes Qt Linguist translation source (.ts) files.
//
// A Document mirrors the XML layout produced by lupdate: an ordered list of
// contexts, each holding ordered messages. Parsing and writing are lossless
// for files in lupdate's layout, so a document can be loaded, inspected and
// written back without spurious diffs.
package ts

import "strings"

// Status is the translation state recorded in a message's translation type.
type Status int

const (
	// StatusFinished marks an approved translation (no type attribute).
	StatusFinished Status = iota
	// StatusUnfinished marks a translation that still needs work.
	StatusUnfinished
	// StatusVanished marks a message whose source no longer exists.
	StatusVanished
	// StatusObsolete marks a message dropped by an older lupdate.
	StatusObsolete
)

// String returns the status label used in reports.
func (s Status) String() string {
	switch s {
	case StatusUnfinished:
		return "unfinished"
	case StatusVanished:
		return "vanished"
	case StatusObsolete:
		return "obsolete"
	default:
		return "finished"
	}
}

// typeAttr returns the translation type attribute value for the status.
func (s Status) typeAttr() string {
	if s == StatusFinished {
		return ""
	}
	return s.String()
}

// ParseStatus maps a translation type attribute onto a Status.
// The empty string is StatusFinished.
func ParseStatus(value string) (Status, bool) {
	switch strings.TrimSpace(value) {
	case "", "finished":
		return StatusFinished, true
	case "unfinished":
		return StatusUnfinished, true
	case "vanished":
		return StatusVanished, true
	case "obsolete":
		return StatusObsolete, true
	default:
		return StatusFinished, false
	}
}

// Document is one parsed .ts file.
type Document struct {
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []Context

	// TrailingNewline records whether the file ended with a newline.
	TrailingNewline bool

	// Warnings collects recoverable problems found while parsing.
	// They are not serialized.
	Warnings []ParseWarning
}

// Context groups the messages of one UI unit.
type Context struct {
	Name     string
	Comment  string
	Messages []Message
}

// Location points at the code that uses a message.
// Line may be relative ("+3") when written by lupdate.
type Location struct {
	Filename string
	Line     string
}

// Message is one translatable string and its translation.
type Message struct {
	ID                string
	Numerus           bool
	Locations         []Location
	Source            string
	OldSource         string
	Comment           string // disambiguation
	OldComment        string
	ExtraComment      string
	TranslatorComment string
	Translation       Translation
}

// Translation holds the translated text, or the plural forms of a numerus message.
type Translation struct {
	Status       Status
	Text         string
	NumerusForms []string
}

// Key identifies a message for lookup.
type Key struct {
	Context        string
	Source         string
	Disambiguation string
}

// Key returns the lookup key of m within the named context.
func (m Message) Key(context string) Key {
	return Key{Context: context, Source: m.Source, Disambiguation: m.Comment}
}

// Status returns the translation status of the message.
func (m Message) Status() Status {
	return m.Translation.Status
}

// Texts returns the translated strings: the numerus forms for numerus
// messages, otherwise the single translation text.
func (m Message) Texts() []string {
	if m.Numerus {
		return m.Translation.NumerusForms
	}
	return []string{m.Translation.Text}
}

// IsEmpty reports whether no translated text has been authored.
func (m Message) IsEmpty() bool {
	for _, text := range m.Texts() {
		if text != "" {
			return false
		}
	}
	return true
}

// Context returns the context with the given name, or nil.
func (d *Document) Context(name string) *Context {
	if d == nil {
		return nil
	}
	for i := range d.Contexts {
		if d.Contexts[i].Name == name {
			return &d.Contexts[i]
		}
	}
	return nil
}

// MessageCount returns the number of messages across all contexts.
func (d *Document) MessageCount() int {
	if d == nil {
		return 0
	}
	total := 0
	for _, c := range d.Contexts {
		total += len(c.Messages)
	}
	return total
}

// Location formats the first location of m as "file:line".
func (m Message) Location() string {
	if len(m.Locations) == 0 {
		return ""
	}
	loc := m.Locations[0]
	if loc.Line == "" {
		return loc.Filename
	}
	return loc.Filename + ":" + loc.Line
}
