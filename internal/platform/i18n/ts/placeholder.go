package ts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is one positional marker found in a string: %1..%99, the
// localized form %L1, or the numerus count %n / %Ln.
type Placeholder struct {
	Token     string
	Number    int // 0 for %n
	Localized bool
	Numerus   bool
	Offset    int
}

// ID is the marker identity used when comparing source and translation;
// %1 and %L1 share the ID "%1".
func (p Placeholder) ID() string {
	if p.Numerus {
		return "%n"
	}
	return "%" + strconv.Itoa(p.Number)
}

// Placeholders returns the markers of text in order of appearance.
func Placeholders(text string) []Placeholder {
	var out []Placeholder
	for i := 0; i < len(text); i++ {
		if text[i] != '%' {
			continue
		}
		j := i + 1
		localized := false
		if j < len(text) && text[j] == 'L' {
			localized = true
			j++
		}
		if j >= len(text) {
			break
		}
		if text[j] == 'n' {
			out = append(out, Placeholder{Token: text[i : j+1], Localized: localized, Numerus: true, Offset: i})
			i = j
			continue
		}
		if text[j] < '1' || text[j] > '9' {
			continue
		}
		n := int(text[j] - '0')
		k := j + 1
		if k < len(text) && text[k] >= '0' && text[k] <= '9' {
			n = n*10 + int(text[k]-'0')
			k++
		}
		out = append(out, Placeholder{Token: text[i:k], Number: n, Localized: localized, Offset: i})
		i = k - 1
	}
	return out
}

// MissingPlaceholders returns the IDs present in source but absent from
// translation, sorted.
func MissingPlaceholders(source, translation string) []string {
	return difference(placeholderIDs(source), placeholderIDs(translation))
}

// ExtraPlaceholders returns the IDs present in translation but absent from
// source, sorted.
func ExtraPlaceholders(source, translation string) []string {
	return difference(placeholderIDs(translation), placeholderIDs(source))
}

func placeholderIDs(text string) map[string]struct{} {
	ids := map[string]struct{}{}
	for _, p := range Placeholders(text) {
		ids[p.ID()] = struct{}{}
	}
	return ids
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return placeholderOrder(out[i]) < placeholderOrder(out[j])
	})
	return out
}

func placeholderOrder(id string) int {
	if id == "%n" {
		return 0
	}
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "%"))
	return n
}

// Arg substitutes args into the numbered markers of text using Qt's
// multi-argument rule: the lowest marker number receives the first
// argument, the next lowest the second, and so on. Markers without an
// argument are left verbatim.
func Arg(text string, args ...any) string {
	return ArgLocale(language.Und, text, args...)
}

// ArgLocale is Arg with %L markers formatted for tag.
func ArgLocale(tag language.Tag, text string, args ...any) string {
	if len(args) == 0 {
		return text
	}
	markers := Placeholders(text)
	if len(markers) == 0 {
		return text
	}

	var numbers []int
	seen := map[int]bool{}
	for _, m := range markers {
		if m.Numerus || seen[m.Number] {
			continue
		}
		seen[m.Number] = true
		numbers = append(numbers, m.Number)
	}
	sort.Ints(numbers)
	slot := make(map[int]int, len(numbers))
	for i, n := range numbers {
		if i < len(args) {
			slot[n] = i
		}
	}

	var printer *message.Printer
	var b strings.Builder
	last := 0
	for _, m := range markers {
		if m.Numerus {
			continue
		}
		idx, ok := slot[m.Number]
		if !ok {
			continue
		}
		b.WriteString(text[last:m.Offset])
		if m.Localized {
			if printer == nil {
				printer = message.NewPrinter(tag)
			}
			b.WriteString(printer.Sprint(args[idx]))
		} else {
			b.WriteString(fmt.Sprint(args[idx]))
		}
		last = m.Offset + len(m.Token)
	}
	b.WriteString(text[last:])
	return b.String()
}

// ReplaceNumerus substitutes n into the %n and %Ln markers of text.
func ReplaceNumerus(tag language.Tag, text string, n int) string {
	markers := Placeholders(text)
	var b strings.Builder
	last := 0
	for _, m := range markers {
		if !m.Numerus {
			continue
		}
		b.WriteString(text[last:m.Offset])
		if m.Localized {
			b.WriteString(message.NewPrinter(tag).Sprint(n))
		} else {
			b.WriteString(strconv.Itoa(n))
		}
		last = m.Offset + len(m.Token)
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}
