// Package taxparser extracts the French progressive income tax scale
// (barème de l'impôt sur le revenu) from a published PDF or plain-text
// tax notice, so a household's marginal rate (TMI) can be derived from
// their taxable income instead of entered by hand.
package taxparser

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TaxBracket is one slice of the progressive scale: income between
// UpperBound of the previous bracket (exclusive) and UpperBound
// (inclusive) is taxed at Rate. The final bracket has no real ceiling;
// its UpperBound is stored as openEndedUpperBound, and callers treat
// the last entry in a sorted slice as open-ended.
type TaxBracket struct {
	UpperBound float64 `json:"upper_bound"`
	Rate       float64 `json:"rate"`
}

// Bareme is a full progressive scale for a given tax year, per-part
// (par part de quotient familial).
type Bareme struct {
	TaxYear     int          `json:"tax_year,omitempty"`
	Brackets    []TaxBracket `json:"brackets"`
	Confidence  float64      `json:"confidence"`
	ParseErrors []string     `json:"parse_errors,omitempty"`
	RawText     string       `json:"-"`
}

// Bracket lines come in three shapes, tolerant of thin/narrow no-break
// spaces used as French thousands separators:
//   - "Jusqu'à 11 497 € ... 0 %"            (first bracket)
//   - "De 11 497 € à 29 315 € ... 11 %"     (middle brackets)
//   - "De 180 294 € ... 45 %"               (final, open-ended bracket)
var (
	rangeBracketLine = regexp.MustCompile(`(?i)de\s*[\d\s\x{202F}\x{00A0}]+\s*€\s*à\s*([\d\s\x{202F}\x{00A0}]+)\s*€.*?(\d+(?:[.,]\d+)?)\s*%`)
	untilBracketLine = regexp.MustCompile(`(?i)jusqu'?à\s*([\d\s\x{202F}\x{00A0}]+)\s*€.*?(\d+(?:[.,]\d+)?)\s*%`)
	openBracketLine  = regexp.MustCompile(`(?i)(?:de|au-delà de)\s*[\d\s\x{202F}\x{00A0}]+\s*€.*?(\d+(?:[.,]\d+)?)\s*%`)
)

// openEndedUpperBound stands in for the final bracket's unbounded
// ceiling; callers treat the last entry in a sorted slice as
// open-ended regardless of the stored value, so this only needs to
// sort after every real bound.
const openEndedUpperBound = 1e15

var yearRegex = regexp.MustCompile(`(?i)(?:revenus|imposition)\s*(?:de\s*l'année\s*)?(\d{4})`)

// ParseBaremePDF extracts the progressive scale from a PDF document
// such as the DGFiP's published barème notice.
func ParseBaremePDF(pdfBytes []byte) (*Bareme, error) {
	reader := bytes.NewReader(pdfBytes)
	pdfReader, err := pdf.NewReader(reader, int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("taxparser: reading pdf: %w", err)
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return ParseBaremeText(textBuilder.String())
}

// ParseBaremeText extracts the scale from already-extracted plain
// text, useful for notices pasted directly rather than uploaded as PDF.
func ParseBaremeText(rawText string) (*Bareme, error) {
	b := &Bareme{RawText: rawText}

	if match := yearRegex.FindStringSubmatch(rawText); len(match) > 1 {
		if year, err := strconv.Atoi(match[1]); err == nil {
			b.TaxYear = year
			b.Confidence += 0.1
		}
	}

	for _, line := range strings.Split(rawText, "\n") {
		bracket, ok := parseBracketLine(line)
		if !ok {
			continue
		}
		b.Brackets = append(b.Brackets, bracket)
	}

	if len(b.Brackets) == 0 {
		b.ParseErrors = append(b.ParseErrors, "no tax brackets recognized in document")
		return b, nil
	}

	sort.Slice(b.Brackets, func(i, j int) bool {
		return b.Brackets[i].UpperBound < b.Brackets[j].UpperBound
	})
	b.Confidence += 0.1 * float64(len(b.Brackets))
	if b.Confidence > 1.0 {
		b.Confidence = 1.0
	}

	return b, nil
}

func parseBracketLine(line string) (TaxBracket, bool) {
	if match := rangeBracketLine.FindStringSubmatch(line); len(match) > 0 {
		return bracketFromMatch(match[1], match[2])
	}
	if match := untilBracketLine.FindStringSubmatch(line); len(match) > 0 {
		return bracketFromMatch(match[1], match[2])
	}
	if match := openBracketLine.FindStringSubmatch(line); len(match) > 0 {
		rateVal, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
		if err != nil {
			return TaxBracket{}, false
		}
		return TaxBracket{UpperBound: openEndedUpperBound, Rate: rateVal / 100}, true
	}
	return TaxBracket{}, false
}

func bracketFromMatch(upperRaw, rateRaw string) (TaxBracket, bool) {
	upperVal, err := parseFrenchAmount(upperRaw)
	if err != nil {
		return TaxBracket{}, false
	}
	rateVal, err := strconv.ParseFloat(strings.ReplaceAll(rateRaw, ",", "."), 64)
	if err != nil {
		return TaxBracket{}, false
	}
	return TaxBracket{UpperBound: upperVal, Rate: rateVal / 100}, true
}

// parseFrenchAmount strips the thin/narrow no-break spaces French
// notices use as thousands separators before parsing.
func parseFrenchAmount(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00A0', '\u202F':
			return -1
		}
		return r
	}, s)
	return strconv.ParseFloat(cleaned, 64)
}

// TMI returns the marginal rate applying to the given taxable income
// per part: the rate of the first bracket whose upper bound is at or
// above the income (or the last bracket's rate if income exceeds every
// bound).
func (b *Bareme) TMI(taxableIncomePerPart float64) float64 {
	if len(b.Brackets) == 0 {
		return 0
	}
	for _, bracket := range b.Brackets {
		if taxableIncomePerPart <= bracket.UpperBound {
			return bracket.Rate
		}
	}
	return b.Brackets[len(b.Brackets)-1].Rate
}
