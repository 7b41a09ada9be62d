package reports

import (
	"fmt"
	"time"

	"github.com/finviz/longview/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReportData contains everything needed to render a retirement
// projection report for one household.
type ReportData struct {
	ClientName    string
	AdvisorName   string
	GeneratedAt   time.Time
	Accounts      []models.InvestmentAccount
	TotalCapital  float64
	Capitalization *models.MonteCarloResult
	Retirement    *models.RetirementMonteCarloResult
}

// GenerateFinancialPlanReport creates a PDF retirement projection report
func GenerateFinancialPlanReport(data ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	mrt := maroto.New(cfg)
	m := maroto.NewMetricsDecorator(mrt)

	addHeader(m, data)
	addExecutiveSummary(m, data)
	addPortfolioSection(m, data)

	if data.Capitalization != nil {
		addCapitalizationSection(m, data)
	}
	if data.Retirement != nil {
		addRetirementSection(m, data)
		if len(data.Retirement.CumulativeTaxByKind) > 0 {
			addTaxByKindTable(m, data.Retirement.CumulativeTaxByKind)
		}
	}
	if len(data.Accounts) > 0 {
		addAccountTable(m, data.Accounts)
	}

	addDisclaimer(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, data ReportData) {
	m.AddRow(20,
		col.New(12).Add(
			text.New("Retirement Projection Report", props.Text{
				Size:  24,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(8,
		col.New(6).Add(
			text.New(fmt.Sprintf("Prepared for: %s", data.ClientName), props.Text{
				Size:  12,
				Style: fontstyle.Bold,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Date: %s", data.GeneratedAt.Format("January 2, 2006")), props.Text{
				Size:  12,
				Align: align.Right,
			}),
		),
	)

	if data.AdvisorName != "" {
		m.AddRow(6,
			col.New(12).Add(
				text.New(fmt.Sprintf("Prepared by: %s", data.AdvisorName), props.Text{
					Size: 10,
				}),
			),
		)
	}

	m.AddRow(5, line.NewCol(12))
}

func addExecutiveSummary(m core.Maroto, data ReportData) {
	m.AddRow(12,
		col.New(12).Add(
			text.New("Executive Summary", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	summary := fmt.Sprintf(
		"This report summarizes the retirement capital projection for %s across %d account(s), "+
			"currently totaling %s.",
		data.ClientName,
		len(data.Accounts),
		formatCurrency(data.TotalCapital),
	)

	if data.Capitalization != nil {
		summary += fmt.Sprintf(
			" Based on %d Monte Carlo paths, the median projected capital at retirement is %s.",
			data.Capitalization.Iterations,
			formatCurrency(data.Capitalization.FinalCapital.P50),
		)
	}

	m.AddRow(20,
		col.New(12).Add(
			text.New(summary, props.Text{
				Size: 10,
			}),
		),
	)

	m.AddRow(3)
}

func addPortfolioSection(m core.Maroto, data ReportData) {
	m.AddRow(12,
		col.New(12).Add(
			text.New("Current Portfolio", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(12,
		col.New(12).Add(
			text.New(formatCurrency(data.TotalCapital), props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: &props.Color{Red: 0, Green: 150, Blue: 100},
			}),
		),
	)

	m.AddRow(5)
}

func addCapitalizationSection(m core.Maroto, data ReportData) {
	res := data.Capitalization

	m.AddRow(12,
		col.New(12).Add(
			text.New("Accumulation Projection", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(6,
		col.New(12).Add(
			text.New(fmt.Sprintf("%d Monte Carlo paths, confidence reached: %t", res.Iterations, res.ConfidenceReached), props.Text{
				Size:  9,
				Color: &props.Color{Red: 100, Green: 100, Blue: 100},
			}),
		),
	)

	addPercentileTable(m, "Final Capital", res.FinalCapital)
	m.AddRow(5)
}

func addRetirementSection(m core.Maroto, data ReportData) {
	res := data.Retirement

	m.AddRow(12,
		col.New(12).Add(
			text.New("Decumulation Projection", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(6,
		col.New(12).Add(
			text.New(fmt.Sprintf("%d Monte Carlo paths, confidence reached: %t", res.Iterations, res.ConfidenceReached), props.Text{
				Size:  9,
				Color: &props.Color{Red: 100, Green: 100, Blue: 100},
			}),
		),
	)

	addPercentileTable(m, "Remaining Capital", res.FinalCapital)
	m.AddRow(5)
}

func addPercentileTable(m core.Maroto, label string, p models.Percentiles) {
	m.AddRow(8,
		col.New(12).Add(text.New(label, props.Text{Size: 10, Style: fontstyle.Bold})),
	)
	m.AddRow(8,
		col.New(2).Add(text.New("P5", props.Text{Size: 9, Align: align.Center, Color: &props.Color{Red: 100, Green: 100, Blue: 100}})),
		col.New(2).Add(text.New("P10", props.Text{Size: 9, Align: align.Center, Color: &props.Color{Red: 100, Green: 100, Blue: 100}})),
		col.New(4).Add(text.New("P50 (median)", props.Text{Size: 9, Align: align.Center, Color: &props.Color{Red: 100, Green: 100, Blue: 100}})),
		col.New(2).Add(text.New("P90", props.Text{Size: 9, Align: align.Center, Color: &props.Color{Red: 100, Green: 100, Blue: 100}})),
		col.New(2).Add(text.New("P95", props.Text{Size: 9, Align: align.Center, Color: &props.Color{Red: 100, Green: 100, Blue: 100}})),
	)
	m.AddRow(8,
		col.New(2).Add(text.New(formatCurrency(p.P5), props.Text{Size: 9, Align: align.Center})),
		col.New(2).Add(text.New(formatCurrency(p.P10), props.Text{Size: 9, Align: align.Center})),
		col.New(4).Add(text.New(formatCurrency(p.P50), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Center})),
		col.New(2).Add(text.New(formatCurrency(p.P90), props.Text{Size: 9, Align: align.Center})),
		col.New(2).Add(text.New(formatCurrency(p.P95), props.Text{Size: 9, Align: align.Center})),
	)
}

func addAccountTable(m core.Maroto, accounts []models.InvestmentAccount) {
	m.AddRow(12,
		col.New(12).Add(
			text.New("Account Detail", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(8,
		col.New(4).Add(text.New("Account Type", props.Text{Size: 10, Style: fontstyle.Bold})),
		col.New(4).Add(text.New("Balance", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
		col.New(4).Add(text.New("Monthly Contribution", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
	)

	for _, acc := range accounts {
		contribution := "—"
		if acc.MonthlyContribution != nil {
			contribution = formatCurrency(*acc.MonthlyContribution)
		}
		m.AddRow(6,
			col.New(4).Add(text.New(accountKindLabel(acc.Kind), props.Text{Size: 9})),
			col.New(4).Add(text.New(formatCurrency(acc.CurrentBalance), props.Text{Size: 9, Align: align.Right})),
			col.New(4).Add(text.New(contribution, props.Text{Size: 9, Align: align.Right})),
		)
	}

	m.AddRow(5)
}

func addTaxByKindTable(m core.Maroto, byKind map[models.AccountKind]models.TaxKindBreakdown) {
	m.AddRow(12,
		col.New(12).Add(
			text.New("Cumulative Tax by Account", props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Color: &props.Color{Red: 0, Green: 82, Blue: 147},
			}),
		),
	)

	m.AddRow(8,
		col.New(3).Add(text.New("Account Type", props.Text{Size: 10, Style: fontstyle.Bold})),
		col.New(3).Add(text.New("Gross Withdrawn", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		col.New(3).Add(text.New("Income Tax + PS", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
		col.New(3).Add(text.New("Net Withdrawn", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
	)

	for kind, b := range byKind {
		m.AddRow(6,
			col.New(3).Add(text.New(accountKindLabel(kind), props.Text{Size: 9})),
			col.New(3).Add(text.New(formatCurrency(b.GrossWithdrawal), props.Text{Size: 9, Align: align.Right})),
			col.New(3).Add(text.New(formatCurrency(b.IncomeTax+b.SocialContributions), props.Text{Size: 9, Align: align.Right})),
			col.New(3).Add(text.New(formatCurrency(b.NetWithdrawal), props.Text{Size: 9, Align: align.Right})),
		)
	}

	m.AddRow(5)
}

func accountKindLabel(k models.AccountKind) string {
	switch k {
	case models.AccountPEA:
		return "PEA"
	case models.AccountPER:
		return "PER"
	case models.AccountAssuranceVie:
		return "Assurance-vie"
	case models.AccountLivret:
		return "Livret"
	case models.AccountCrypto:
		return "Crypto"
	case models.AccountCTO:
		return "CTO"
	default:
		return "Autre"
	}
}

func addDisclaimer(m core.Maroto) {
	m.AddRow(3, line.NewCol(12))

	m.AddRow(20,
		col.New(12).Add(
			text.New("IMPORTANT DISCLOSURE: This report is for informational purposes only and does not "+
				"constitute financial, investment, tax, or legal advice. Past performance does not guarantee "+
				"future results. Monte Carlo simulations are based on stated assumptions; actual outcomes will "+
				"vary. French tax treatment is approximated per current rules at the time of generation and may "+
				"change. Please consult with a qualified financial advisor, tax professional, or notaire before "+
				"making any significant financial decisions.", props.Text{
				Size:  8,
				Color: &props.Color{Red: 100, Green: 100, Blue: 100},
			}),
		),
	)
}

func formatCurrency(amount float64) string {
	if amount >= 1000000 {
		return fmt.Sprintf("%.2fM €", amount/1000000)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%.0fK €", amount/1000)
	}
	if amount < 0 {
		return fmt.Sprintf("-%.2f €", -amount)
	}
	return fmt.Sprintf("%.2f €", amount)
}
