package export

import (
	"bytes"
	"encoding/json"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"gopkg.in/yaml.v3"
)

type documentView struct {
	Language       string        `json:"language" yaml:"language"`
	SourceLanguage string        `json:"sourceLanguage,omitempty" yaml:"sourceLanguage,omitempty"`
	Contexts       []contextView `json:"contexts" yaml:"contexts"`
}

type contextView struct {
	Name     string        `json:"name" yaml:"name"`
	Messages []messageView `json:"messages" yaml:"messages"`
}

type messageView struct {
	ID             string   `json:"id,omitempty" yaml:"id,omitempty"`
	Source         string   `json:"source" yaml:"source"`
	Disambiguation string   `json:"disambiguation,omitempty" yaml:"disambiguation,omitempty"`
	Translation    string   `json:"translation,omitempty" yaml:"translation,omitempty"`
	NumerusForms   []string `json:"numerusForms,omitempty" yaml:"numerusForms,omitempty"`
	Status         string   `json:"status" yaml:"status"`
	Locations      []string `json:"locations,omitempty" yaml:"locations,omitempty"`
	Comment        string   `json:"comment,omitempty" yaml:"comment,omitempty"`
}

func viewOf(doc *ts.Document) documentView {
	view := documentView{
		Language:       doc.Language,
		SourceLanguage: doc.SourceLanguage,
		Contexts:       make([]contextView, 0, len(doc.Contexts)),
	}
	for _, c := range doc.Contexts {
		cv := contextView{Name: c.Name, Messages: make([]messageView, 0, len(c.Messages))}
		for _, m := range c.Messages {
			mv := messageView{
				ID:             m.ID,
				Source:         m.Source,
				Disambiguation: m.Comment,
				Status:         m.Status().String(),
				Comment:        m.TranslatorComment,
			}
			if m.Numerus {
				mv.NumerusForms = append([]string(nil), m.Translation.NumerusForms...)
			} else {
				mv.Translation = m.Translation.Text
			}
			for _, loc := range m.Locations {
				if loc.Line == "" {
					mv.Locations = append(mv.Locations, loc.Filename)
					continue
				}
				mv.Locations = append(mv.Locations, loc.Filename+":"+loc.Line)
			}
			cv.Messages = append(cv.Messages, mv)
		}
		view.Contexts = append(view.Contexts, cv)
	}
	return view
}

// JSON writes an indented JSON view of the document.
type JSON struct{}

func (JSON) Format() string { return "json" }

func (JSON) Export(doc *ts.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(viewOf(doc)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAML writes the same view as JSON in YAML.
type YAML struct{}

func (YAML) Format() string { return "yaml" }

func (YAML) Export(doc *ts.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(viewOf(doc)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
