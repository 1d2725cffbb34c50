package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

// CSV writes one row per message. Numerus forms are joined with " | ".
type CSV struct {
	// Comma overrides the field separator.
	Comma rune
}

func (CSV) Format() string { return "csv" }

func (e CSV) Export(doc *ts.Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	_ = w.Write([]string{"context", "source", "disambiguation", "translation", "status", "location"})
	for _, c := range doc.Contexts {
		for _, m := range c.Messages {
			_ = w.Write([]string{
				c.Name,
				m.Source,
				m.Comment,
				strings.Join(m.Texts(), " | "),
				m.Status().String(),
				m.Location(),
			})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
