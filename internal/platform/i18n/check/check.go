// Package check validates the translations of a .ts document.
package check

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"golang.org/x/text/language"
)

// Names of the individual checks.
const (
	CheckParse        = "parse"
	CheckPlaceholders = "placeholders"
	CheckUnfinished   = "unfinished"
	CheckEmpty        = "empty"
	CheckWhitespace   = "whitespace"
	CheckPunctuation  = "punctuation"
	CheckAccelerator  = "accelerator"
	CheckNumerus      = "numerus"
	CheckDuplicate    = "duplicate"
)

// messageContext is the catalog context holding finding messages.
const messageContext = "Check"

// Finding message sources.
const (
	msgMissingPlaceholders = "Translation is missing placeholders %1."
	msgExtraPlaceholders   = "Translation uses placeholders %1 that the source does not contain."
	msgUnfinished          = "Translation is unfinished."
	msgEmpty               = "Translation is empty."
	msgWhitespace          = "Leading or trailing whitespace differs from the source."
	msgPunctuation         = "Ending punctuation differs from the source: %1 vs %2."
	msgAccelerator         = "Accelerator count differs from the source: %1 vs %2."
	msgNumerus             = "Message has %1 plural forms but %2 uses %3."
	msgDuplicate           = "Duplicate message; the occurrence at %1 is used."
	msgParse               = "Parse warning: %1"
)

// Finding is one problem found in a document.
type Finding struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Context        string   `json:"context"`
	Source         string   `json:"source,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	Location       string   `json:"location,omitempty"`
	Message        string   `json:"message"`
}

func (f Finding) String() string {
	var b strings.Builder
	if f.Location != "" {
		b.WriteString(f.Location)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s [%s] %s", f.Severity, f.Check, f.Context)
	if f.Source != "" {
		fmt.Fprintf(&b, " %q", f.Source)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

// Options configure a run.
type Options struct {
	// Locale selects the language of finding messages.
	Locale string
	// Skip disables checks by name.
	Skip []string
}

type runner struct {
	tr      *catalog.Translator
	plural  language.Tag
	skip    map[string]bool
	out     []Finding
	context string
}

// Run checks every message of doc. Vanished and obsolete messages are
// not checked.
func Run(doc *ts.Document, opts Options) []Finding {
	if doc == nil {
		return nil
	}
	r := &runner{
		tr:   catalog.Default().Translator(opts.Locale),
		skip: map[string]bool{},
	}
	for _, name := range opts.Skip {
		r.skip[strings.TrimSpace(name)] = true
	}
	if tag, err := catalog.ParseLocale(doc.Language); err == nil {
		r.plural = tag
	}

	for _, w := range doc.Warnings {
		r.context = w.Context
		r.add(SeverityWarning, CheckParse, ts.Message{}, msgParse, fmt.Sprintf("line %d: %s", w.Line, w.Message))
	}
	for _, c := range doc.Contexts {
		r.context = c.Name
		first := map[ts.Key]string{}
		for _, msg := range c.Messages {
			key := msg.Key(c.Name)
			if loc, ok := first[key]; ok {
				r.add(SeverityWarning, CheckDuplicate, msg, msgDuplicate, locationOr(loc, c.Name))
				continue
			}
			first[key] = msg.Location()
			r.message(msg)
		}
	}
	return r.out
}

func locationOr(loc, fallback string) string {
	if loc == "" {
		return fallback
	}
	return loc
}

func (r *runner) add(severity Severity, check string, msg ts.Message, source string, args ...any) {
	if r.skip[check] {
		return
	}
	r.out = append(r.out, Finding{
		Severity:       severity,
		Check:          check,
		Context:        r.context,
		Source:         msg.Source,
		Disambiguation: msg.Comment,
		Location:       msg.Location(),
		Message:        r.tr.Tr(messageContext, source, args...),
	})
}

func (r *runner) message(msg ts.Message) {
	switch msg.Status() {
	case ts.StatusVanished, ts.StatusObsolete:
		return
	case ts.StatusUnfinished:
		r.add(SeverityInfo, CheckUnfinished, msg, msgUnfinished)
		if msg.IsEmpty() {
			return
		}
	case ts.StatusFinished:
		if msg.IsEmpty() {
			r.add(SeverityError, CheckEmpty, msg, msgEmpty)
			return
		}
	}

	if msg.Numerus && r.plural != language.Und {
		want := len(ts.NumerusForms(r.plural))
		if got := len(msg.Translation.NumerusForms); got != want {
			r.add(SeverityWarning, CheckNumerus, msg, msgNumerus, got, r.plural.String(), want)
		}
	}

	missing, extra := map[string]bool{}, map[string]bool{}
	whitespace, punctuation, accelerator := false, false, false
	var srcEnd, dstEnd string
	var srcAcc, dstAcc int
	for _, text := range msg.Texts() {
		if text == "" {
			continue
		}
		for _, id := range ts.MissingPlaceholders(msg.Source, text) {
			if msg.Numerus && id == "%n" {
				continue
			}
			missing[id] = true
		}
		for _, id := range ts.ExtraPlaceholders(msg.Source, text) {
			extra[id] = true
		}
		if !whitespace && !sameEdgeSpace(msg.Source, text) {
			whitespace = true
		}
		if a, b := endPunctuation(msg.Source), endPunctuation(text); !punctuation && a != b {
			punctuation, srcEnd, dstEnd = true, a, b
		}
		if a, b := accelerators(msg.Source), accelerators(text); !accelerator && a != b {
			accelerator, srcAcc, dstAcc = true, a, b
		}
	}

	if len(missing) > 0 {
		r.add(SeverityError, CheckPlaceholders, msg, msgMissingPlaceholders, joinIDs(missing))
	}
	if len(extra) > 0 {
		r.add(SeverityWarning, CheckPlaceholders, msg, msgExtraPlaceholders, joinIDs(extra))
	}
	if whitespace {
		r.add(SeverityWarning, CheckWhitespace, msg, msgWhitespace)
	}
	if punctuation {
		r.add(SeverityWarning, CheckPunctuation, msg, msgPunctuation, fmt.Sprintf("%q", srcEnd), fmt.Sprintf("%q", dstEnd))
	}
	if accelerator {
		r.add(SeverityWarning, CheckAccelerator, msg, msgAccelerator, srcAcc, dstAcc)
	}
}

func joinIDs(set map[string]bool) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return strings.Join(ids, ", ")
}

func sameEdgeSpace(a, b string) bool {
	return hasLeadingSpace(a) == hasLeadingSpace(b) && hasTrailingSpace(a) == hasTrailingSpace(b)
}

func hasLeadingSpace(s string) bool {
	return s != strings.TrimLeftFunc(s, unicode.IsSpace)
}

func hasTrailingSpace(s string) bool {
	return s != strings.TrimRightFunc(s, unicode.IsSpace)
}

var fullWidth = map[rune]rune{'。': '.', '：': ':', '？': '?', '！': '!', '…': '.'}

// endPunctuation returns the sentence punctuation ending s, or "".
func endPunctuation(s string) string {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	last := runes[len(runes)-1]
	if mapped, ok := fullWidth[last]; ok {
		last = mapped
	}
	switch last {
	case '.', ':', '?', '!':
		return string(last)
	}
	return ""
}

// accelerators counts keyboard accelerator markers (&X); && is a literal
// ampersand.
func accelerators(s string) int {
	count := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '&' || i+1 >= len(runes) {
			continue
		}
		next := runes[i+1]
		if next == '&' {
			i++
			continue
		}
		if !unicode.IsSpace(next) {
			count++
		}
	}
	return count
}
