package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/antigravity-tools/quota-monitor/internal/models"
	"github.com/antigravity-tools/quota-monitor/internal/ui/components"
	"github.com/antigravity-tools/quota-monitor/internal/ui/styles"
)

// View renders the dashboard.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	if m.report == nil {
		if m.err != nil {
			return styles.CenterBoth(m.renderError(), width, max(m.height, 10))
		}
		return styles.CenterBoth(m.spinner.ViewWithLabel(), width, max(m.height, 10))
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	if m.err != nil {
		sections = append(sections, styles.ErrorTextStyle.Render("⚠ "+m.err.Error()))
	}
	if credits := m.renderCredits(width); credits != "" {
		sections = append(sections, credits)
	}
	sections = append(sections, m.renderPools(width))
	if history := m.renderHistory(width); history != "" {
		sections = append(sections, history)
	}
	sections = append(sections, m.renderHelp())

	return styles.DocStyle.Render(strings.Join(sections, "\n\n"))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Antigravity Quota Monitor")

	plan := styles.PlanStyle.Render(m.report.PlanName)
	if m.report.PlanTier != "" {
		plan += styles.HelpStyle.Render(" (" + m.report.PlanTier + ")")
	}

	identity := ""
	if m.report.UserEmail != "" {
		identity = styles.HelpStyle.Render("  " + m.report.UserEmail)
	}

	return title + "\n" + plan + identity
}

func (m *Model) renderError() string {
	return styles.ErrorTextStyle.Render("✗ " + m.err.Error() + "\n\n") +
		styles.HelpStyle.Render("press r to retry, q to quit")
}

func (m *Model) renderCredits(width int) string {
	barWidth := min(width-8, 60)

	var lines []string
	if block := m.report.PromptCredits; block != nil {
		lines = append(lines, creditLine("Prompt credits", block, barWidth))
	}
	if block := m.report.FlowCredits; block != nil {
		lines = append(lines, creditLine("Flow credits  ", block, barWidth))
	}
	if len(lines) == 0 {
		return ""
	}

	return styles.SubTitleStyle.Render("Credits") + "\n" + strings.Join(lines, "\n")
}

func creditLine(label string, block *models.CreditBlock, width int) string {
	bar := components.QuotaBar(block.RemainingPercentage, label, width, false)
	detail := styles.HelpStyle.Render(fmt.Sprintf("  %d / %d left", block.Available, block.Monthly))
	return bar + detail
}

func (m *Model) renderPools(width int) string {
	if len(m.report.Pools) == 0 {
		return styles.HelpStyle.Render("No tracked models reported.")
	}

	barWidth := min(width-8, 72)

	var lines []string
	for _, pool := range m.report.Pools {
		remaining := 0.0
		if pool.RemainingPercentage != nil {
			remaining = *pool.RemainingPercentage
		}

		label := pool.Name
		if pool.ModelCount > 1 {
			label = fmt.Sprintf("%s (%d)", pool.Name, pool.ModelCount)
		}

		line := components.QuotaBar(remaining, label, barWidth, pool.IsExhausted)
		if countdown := components.FormatCountdown(pool.TimeUntilResetMs); countdown != "" {
			line += styles.HelpStyle.Render("  resets in " + countdown)
		}
		lines = append(lines, line)
	}

	return styles.SubTitleStyle.Render("Model Pools") + "\n" + strings.Join(lines, "\n")
}

func (m *Model) renderHistory(width int) string {
	var values []float64
	for _, snap := range m.history {
		if snap.MinRemainingPct != nil {
			values = append(values, *snap.MinRemainingPct)
		}
	}
	if len(values) < 2 {
		return ""
	}

	spark := components.RenderSparkline(values, min(width-20, 48))
	return styles.SubTitleStyle.Render("Lowest Remaining (24h)") + "\n" +
		lipgloss.NewStyle().Foreground(styles.Secondary).Render(spark)
}

func (m *Model) renderHelp() string {
	parts := []string{
		styles.HelpKeyStyle.Render("r") + styles.HelpDescStyle.Render(" refresh"),
		styles.HelpKeyStyle.Render("i") + styles.HelpDescStyle.Render(" re-detect"),
		styles.HelpKeyStyle.Render("q") + styles.HelpDescStyle.Render(" quit"),
	}
	help := strings.Join(parts, styles.HelpStyle.Render(" • "))

	if !m.lastUpdated.IsZero() {
		help += styles.HelpStyle.Render("   updated " + m.lastUpdated.Format("15:04:05"))
	}
	return help
}
