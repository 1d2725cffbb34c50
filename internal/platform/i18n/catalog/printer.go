package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	msgcatalog "golang.org/x/text/message/catalog"
)

// printerMessage converts an entry into an x/text catalog message.
func printerMessage(tag language.Tag, entry Entry) msgcatalog.Message {
	if !entry.Numerus {
		return msgcatalog.String(printfFormat(entry.Texts[0], 1))
	}
	forms := ts.NumerusForms(tag)
	cases := make([]any, 0, 2*len(entry.Texts))
	for i, text := range entry.Texts {
		selector := "other"
		if i < len(forms) {
			selector = formSelector(forms[i])
		}
		if i == len(entry.Texts)-1 {
			selector = "other"
		}
		cases = append(cases, selector, printfFormat(text, 2))
	}
	return plural.Selectf(1, "%d", cases...)
}

func formSelector(form plural.Form) string {
	switch form {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

// printfFormat rewrites Qt markers as explicit printf argument indexes.
// Numbered markers are compressed Qt style: the lowest number takes
// argument first, counted from first. %n always refers to argument 1.
func printfFormat(text string, first int) string {
	markers := ts.Placeholders(text)
	var numbers []int
	seen := map[int]bool{}
	for _, m := range markers {
		if !m.Numerus && !seen[m.Number] {
			seen[m.Number] = true
			numbers = append(numbers, m.Number)
		}
	}
	sort.Ints(numbers)
	index := make(map[int]int, len(numbers))
	for i, n := range numbers {
		index[n] = first + i
	}

	var b strings.Builder
	last := 0
	for _, m := range markers {
		b.WriteString(escapePercent(text[last:m.Offset]))
		if m.Numerus {
			b.WriteString("%[1]d")
		} else {
			b.WriteString("%[" + strconv.Itoa(index[m.Number]) + "]v")
		}
		last = m.Offset + len(m.Token)
	}
	b.WriteString(escapePercent(text[last:]))
	return b.String()
}

func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
