package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/modules/catalog"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

const labelWidth = 26

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}
	return m.viewport.View()
}

func (m *Model) rebuildContent() {
	m.viewport.SetContent(lipgloss.NewStyle().Padding(0, 2).Render(m.render()))
}

// render draws the whole page.
func (m Model) render() string {
	sections := []string{
		gradientText("ETF Optimizer", theme.Primary, theme.Accent),
		m.viewPreview(),
		"",
		m.viewForm(),
		m.viewIsinList(),
	}
	if m.mode != modeBrowse {
		sections = append(sections, "", m.input.View())
	}
	if status := m.viewStatus(); status != "" {
		sections = append(sections, "", status)
	}
	if m.notice != "" {
		style := noticeStyle
		if m.noticeErr {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		sections = append(sections, style.Render(m.notice))
	}
	if result := m.viewResult(); result != "" {
		sections = append(sections, "", result)
	}
	sections = append(sections, "", m.help.View(keys))
	return strings.Join(sections, "\n")
}

func (m Model) viewPreview() string {
	p := m.snapshot.Preview
	if p == nil {
		return mutedStyle.Render("ETFs matching filters: ...")
	}
	return labelStyle.Render(fmt.Sprintf("ETFs matching filters: %d out of %d", p.Matching, p.Total))
}

func (m Model) viewForm() string {
	var lines []string
	for i, f := range m.fields {
		if i == 0 {
			lines = append(lines, sectionStyle.Render("Optimizer parameters"))
		}
		if f.filter && (i == 0 || !m.fields[i-1].filter) {
			lines = append(lines, "", sectionStyle.Render("ETF filters"))
		}

		marker := "  "
		label := labelStyle.Width(labelWidth).Render(f.Label)
		if i == m.cursor {
			marker = selectedStyle.Render("> ")
			label = selectedStyle.Width(labelWidth).Render(f.Label)
		}
		lines = append(lines, marker+label+m.viewValue(f))
	}
	if m.snapshot.Catalog == nil {
		lines = append(lines, mutedStyle.Render("  loading catalog options..."))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewValue(f field) string {
	value := m.session.DisplayValue(f.Name)
	if value == "" {
		return mutedStyle.Render("-")
	}
	switch f.Kind {
	case configuration.KindEnum:
		value = catalog.DisplayLabel(value)
	case configuration.KindCurrency:
		var n int64
		if _, err := fmt.Sscan(value, &n); err == nil {
			value = humanize.Comma(n) + " €"
		}
	}
	return valueStyle.Render(value)
}

func (m Model) viewIsinList() string {
	list := m.session.IsinList()
	if len(list) == 0 {
		return "\n" + labelStyle.Render("ISIN list:") + " " + mutedStyle.Render("none")
	}
	return "\n" + labelStyle.Render("ISIN list:") + " " + valueStyle.Render(fmt.Sprintf("%d ISINs", len(list)))
}

func (m Model) viewStatus() string {
	switch st := m.snapshot.Request.(type) {
	case domain.Pending:
		return pendingStyle.Render(fmt.Sprintf("Optimizing... %ds", st.ElapsedSeconds))
	case domain.Failed:
		return errorBanner.Render(st.Message + "  (esc to dismiss)")
	}
	return ""
}

func (m Model) viewResult() string {
	if m.snapshot.Summary == nil {
		return ""
	}
	s := m.snapshot.Summary

	pair := func(label, value string) string {
		return mutedStyle.Render(label+":") + " " + valueStyle.Render(value)
	}
	summary := strings.Join([]string{
		strings.Join([]string{
			pair("Sharpe Ratio", s.SharpeRatio),
			pair("Expected Return", s.ExpectedReturn),
			pair("Annual Volatility", s.AnnualVolatility),
		}, "   "),
		strings.Join([]string{
			pair("ETFs matching filters", s.ETFsMatchingFilters),
			pair("ETFs used", s.ETFsUsedForOptimization),
			pair("Portfolio size", s.PortfolioSize),
		}, "   "),
		strings.Join([]string{
			pair("Initial value", s.InitialValue),
			pair("Leftover funds", s.LeftoverFunds),
		}, "   "),
	}, "\n")

	return sectionStyle.Render("Portfolio") + "\n" + summary + "\n" + renderRows(m.snapshot.Rows)
}

// renderRows draws the holdings table with the aggregate row in bold.
func renderRows(rows []presenter.Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Cells()
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(presenter.Columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cellStyle.Foreground(theme.Info).Bold(true)
			case row >= 0 && row < len(rows) && rows[row].Bold:
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		String()
}
