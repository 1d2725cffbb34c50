package ts

import (
	"sync"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// numerusOrder is the order in which Qt lists plural forms.
var numerusOrder = []plural.Form{plural.Zero, plural.One, plural.Two, plural.Few, plural.Many, plural.Other}

var numerusCache sync.Map // language.Tag -> []plural.Form

// NumerusForms returns the plural forms a language uses for integer counts,
// in the order numerusform elements appear in a .ts file.
func NumerusForms(tag language.Tag) []plural.Form {
	if cached, ok := numerusCache.Load(tag); ok {
		return cached.([]plural.Form)
	}
	seen := map[plural.Form]bool{}
	for i := 0; i <= 200; i++ {
		seen[plural.Cardinal.MatchPlural(tag, i, 0, 0, 0, 0)] = true
	}
	forms := make([]plural.Form, 0, len(numerusOrder))
	for _, form := range numerusOrder {
		if seen[form] {
			forms = append(forms, form)
		}
	}
	numerusCache.Store(tag, forms)
	return forms
}

// NumerusIndex returns which numerusform element holds the translation for
// count n. A negative n selects the first form.
func NumerusIndex(tag language.Tag, n int) int {
	if n < 0 {
		return 0
	}
	form := plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0)
	for i, candidate := range NumerusForms(tag) {
		if candidate == form {
			return i
		}
	}
	return 0
}
