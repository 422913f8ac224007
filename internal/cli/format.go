package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/pricing"
)

// FormatPercent renders a rate such as 0.0825 as "8.25%".
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// FormatLearnSummary renders the outcome of one learn cycle.
func FormatLearnSummary(factors *model.RegionalFactors, lowConfidenceThreshold float64) string {
	lines := []string{
		fmt.Sprintf("Tax rate:        %s", FormatPercent(factors.AggregateTaxRate)),
		fmt.Sprintf("O&P rate:        %s", FormatPercent(factors.AggregateOPRate)),
		fmt.Sprintf("Line items:      %d", factors.TotalLineItems),
		fmt.Sprintf("Item amount:     %s", FormatMoney(factors.TotalItemAmount)),
		fmt.Sprintf("Categories:      %d", len(factors.CategoryAdjustments)),
		fmt.Sprintf("Confidence:      %s", FormatPercent(factors.Confidence)),
	}

	out := RenderBox(ChartIcon+" Regional factors learned", strings.Join(lines, "\n"))
	if warning := pricing.Warning(factors, lowConfidenceThreshold); warning != "" {
		out += "\n" + FormatWarning(warning)
	}
	return out
}

// FormatFactors renders a project's stored snapshot and tax config. A nil
// snapshot is reported as bootstrap mode.
func FormatFactors(projectID string, factors *model.RegionalFactors, taxConfig *model.TaxConfig) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Regional factors for " + projectID))
	b.WriteString("\n")

	if factors == nil {
		b.WriteString(FormatWarning("No regional factors learned yet (bootstrap mode)."))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "Source estimate: %s\n", factors.SourceEstimateID)
		fmt.Fprintf(&b, "Updated:         %s\n", factors.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "Tax rate:        %s\n", FormatPercent(factors.AggregateTaxRate))
		fmt.Fprintf(&b, "O&P rate:        %s\n", FormatPercent(factors.AggregateOPRate))
		fmt.Fprintf(&b, "Line items:      %d\n", factors.TotalLineItems)
		fmt.Fprintf(&b, "Confidence:      %s\n", FormatPercent(factors.Confidence))
	}

	if taxConfig != nil {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.UnsetMargins().Render("Tax config"))
		b.WriteString("\n")
		if taxConfig.LearnedTaxRate != nil {
			fmt.Fprintf(&b, "Learned rate:    %s\n", FormatPercent(*taxConfig.LearnedTaxRate))
		}
		if taxConfig.ManualOverrideRate != nil {
			state := "disabled"
			if taxConfig.UseManualOverride {
				state = "enabled"
			}
			fmt.Fprintf(&b, "Manual override: %s (%s)\n", FormatPercent(*taxConfig.ManualOverrideRate), state)
		}
		if location := strings.TrimSpace(strings.Join([]string{taxConfig.TaxCity, taxConfig.TaxState, taxConfig.TaxZipCode}, " ")); location != "" {
			fmt.Fprintf(&b, "Location:        %s\n", location)
		}
	}

	if factors != nil && len(factors.CategoryAdjustments) > 0 {
		rows := make([][]string, 0, len(factors.CategoryAdjustments))
		for _, adj := range factors.CategoryAdjustments {
			activity := pricing.AllActivities
			if adj.Activity != nil {
				activity = *adj.Activity
			}
			rows = append(rows, []string{
				adj.CategoryCode,
				activity,
				fmt.Sprintf("%.4f", adj.MedianVariance),
				fmt.Sprintf("%.4f", adj.AvgVariance),
				fmt.Sprint(adj.SampleSize),
			})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Category", "Activity", "Median", "Average", "Samples"}, rows))
	}

	return b.String()
}

// FormatExtrapolation renders priced items as a table followed by the
// distinct warnings and the quote total.
func FormatExtrapolation(items []model.ExtrapolatedItem) string {
	if len(items) == 0 {
		return FormatInfo("No items to price.")
	}

	rows := make([][]string, 0, len(items))
	var warnings []string
	seen := map[string]bool{}
	for _, item := range items {
		rows = append(rows, []string{
			item.Item.ID,
			item.Item.CategoryCode + "/" + item.Item.SelectionCode,
			FormatMoney(item.Item.UnitPrice),
			fmt.Sprintf("%.4f (%s)", item.CategoryAdjustmentFactor, item.CategoryAdjustmentSource),
			FormatPercent(item.TaxRate),
			FormatPercent(item.OPRate),
			FormatMoney(item.FinalUnitPrice),
			fmt.Sprint(item.Quantity),
			FormatMoney(item.ExtendedPrice),
		})
		if item.HasWarning() && !seen[item.Warning] {
			seen[item.Warning] = true
			warnings = append(warnings, item.Warning)
		}
	}

	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"Item", "Code", "Base", "Factor", "Tax", "O&P", "Unit", "Qty", "Extended"},
		rows,
	))
	fmt.Fprintf(&b, "\n%s %s\n", BoldStyle.Render("Total:"), FormatMoney(pricing.TotalExtended(items)))
	for _, warning := range warnings {
		b.WriteString(FormatWarning(warning))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	renderRow := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{TableHeaderStyle.Render(renderRow(headers))}
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}
	return strings.Join(lines, "\n") + "\n"
}
