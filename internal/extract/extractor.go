// Package extract pulls candidate field values out of a loaded page through
// two channels: structural selector queries and image-based text recognition.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/navigate"
)

// Page wraps a parsed snapshot for repeated selector queries.
type Page struct {
	doc      *goquery.Document
	snapshot *navigate.PageSnapshot
}

// ParsePage parses the snapshot's HTML once for all field extractions.
func ParsePage(snapshot *navigate.PageSnapshot) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse page")
	}
	return &Page{doc: doc, snapshot: snapshot}, nil
}

// Screenshot returns the rendered image bytes, or nil if the navigator
// could not supply one.
func (p *Page) Screenshot() []byte {
	return p.snapshot.Screenshot
}

// Structural runs a selector query for one field mapping and scores the
// result. Confidence depends on the element kind: attribute-backed values
// (form inputs, meta tags) carry tighter semantics than free-flowing text.
// A missing element or empty value scores zero; that is a valid negative
// outcome, not an error.
func (p *Page) Structural(mapping model.FieldMapping) model.ExtractionResult {
	result := model.ExtractionResult{
		Field:  mapping.SourceField,
		Method: model.MethodStructural,
	}

	sel := p.doc.Find(mapping.TargetSelector).First()
	if sel.Length() == 0 {
		return result
	}

	value, confidence := readElement(sel)
	value = strings.TrimSpace(value)
	if value == "" {
		return result
	}

	result.Value = &value
	result.Confidence = confidence
	return result
}

// readElement extracts the value of a matched element and assigns a
// kind-dependent confidence.
func readElement(sel *goquery.Selection) (string, float64) {
	switch {
	case sel.Is("meta"):
		return sel.AttrOr("content", ""), 0.98
	case sel.Is("input"), sel.Is("textarea"):
		if v, ok := sel.Attr("value"); ok {
			return v, 0.95
		}
		return sel.Text(), 0.9
	case sel.Is("select"):
		return sel.Find("option[selected]").First().Text(), 0.95
	case sel.Is("td"), sel.Is("th"):
		return sel.Text(), 0.92
	case sel.Is("a"):
		// Prefer visible text; href is a location, not a value.
		return sel.Text(), 0.9
	default:
		return sel.Text(), 0.85
	}
}
