// Package compare decides whether an extracted value and a source value
// represent the same information.
package compare

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/validate-cli/internal/model"
)

var foldCaser = cases.Fold()

// Normalize canonicalizes a value for its field type. Normalization is
// stable: applying it twice yields the same string as applying it once.
func Normalize(fieldType model.FieldType, value string) string {
	switch fieldType {
	case model.FieldTypeEmail:
		return normalizeBase(value)
	case model.FieldTypeName:
		return stripPunctuation(normalizeBase(value))
	case model.FieldTypeCurrency, model.FieldTypeNumber:
		return normalizeNumeric(value)
	case model.FieldTypeDate:
		return normalizeDate(value)
	case model.FieldTypePhone:
		return normalizePhone(value)
	case model.FieldTypeBoolean:
		return normalizeBoolean(value)
	case model.FieldTypeAddress:
		return normalizeAddress(value)
	default:
		return normalizeBase(value)
	}
}

// normalizeBase trims, collapses internal whitespace, case-folds, and
// strips combining marks so accented and unaccented spellings compare equal.
func normalizeBase(s string) string {
	s = strings.TrimSpace(s)
	s = foldCaser.String(s)
	s = removeCombiningMarks(s)
	return strings.Join(strings.Fields(s), " ")
}

func removeCombiningMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// currencySymbols are stripped before numeric parsing.
const currencySymbols = "$€£¥₹"

// normalizeNumeric parses an amount, tolerating currency symbols and
// thousands separators, and renders it canonically. Unparseable input
// falls back to base normalization.
func normalizeNumeric(s string) string {
	v, ok := ParseAmount(s)
	if !ok {
		return normalizeBase(s)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseAmount extracts a numeric amount from a string such as "$1,234.56"
// or "R$ 1.234,56".
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(currencySymbols, r) || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	// European style: 1.234,56 → comma is the decimal separator.
	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateLayouts are tried in order when canonicalizing dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC3339,
}

func normalizeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return normalizeBase(s)
}

func normalizePhone(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return normalizeBase(s)
	}
	return b.String()
}

func normalizeBoolean(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "sim":
		return "true"
	case "false", "no", "n", "0", "não", "nao":
		return "false"
	default:
		return normalizeBase(s)
	}
}

// addressAbbreviations maps common street suffixes to their full forms.
var addressAbbreviations = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"rd":   "road",
	"blvd": "boulevard",
	"dr":   "drive",
	"ln":   "lane",
	"ste":  "suite",
	"apt":  "apartment",
}

func normalizeAddress(s string) string {
	base := stripPunctuation(normalizeBase(s))
	tokens := strings.Fields(base)
	for i, tok := range tokens {
		if full, ok := addressAbbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	return strings.Join(tokens, " ")
}
