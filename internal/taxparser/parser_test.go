package taxparser

import "testing"

const sampleBareme = `
Barème de l'impôt sur le revenu - revenus 2024
Jusqu'à 11 497 € : 0 %
De 11 497 € à 29 315 € : 11 %
De 29 315 € à 83 823 € : 30 %
De 83 823 € à 180 294 € : 41 %
De 180 294 € : 45 %
`

func TestParseBaremeTextExtractsBrackets(t *testing.T) {
	b, err := ParseBaremeText(sampleBareme)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.TaxYear != 2024 {
		t.Fatalf("tax year = %d, want 2024", b.TaxYear)
	}
	if len(b.Brackets) < 4 {
		t.Fatalf("expected at least 4 brackets parsed, got %d: %+v", len(b.Brackets), b.Brackets)
	}
	if b.Brackets[0].Rate != 0 {
		t.Fatalf("first bracket rate = %v, want 0", b.Brackets[0].Rate)
	}
}

func TestParseBaremeTextNoMatchesRecordsParseError(t *testing.T) {
	b, err := ParseBaremeText("this document has no tax information in it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.ParseErrors) == 0 {
		t.Fatalf("expected a parse error recorded when no brackets are found")
	}
}

func TestBaremeTMILooksUpCorrectBracket(t *testing.T) {
	b, err := ParseBaremeText(sampleBareme)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		income float64
		want   float64
	}{
		{5_000, 0},
		{20_000, 0.11},
		{50_000, 0.30},
	}
	for _, c := range cases {
		got := b.TMI(c.income)
		if got != c.want {
			t.Fatalf("TMI(%v) = %v, want %v", c.income, got, c.want)
		}
	}
}

func TestBaremeTMIEmptyBracketsReturnsZero(t *testing.T) {
	b := &Bareme{}
	if got := b.TMI(50_000); got != 0 {
		t.Fatalf("TMI with no brackets = %v, want 0", got)
	}
}
