package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Colour palette of command output.
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6C7086") // Medium gray
	colorSuccess = lipgloss.Color("#A6E3A1") // Green
	colorWarning = lipgloss.Color("#F9E2AF") // Yellow
	colorError   = lipgloss.Color("#F38BA8") // Red
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

var analysisStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// renderAnalysis highlights a completed analysis for the terminal.
func renderAnalysis(file, analysis string) string {
	header := titleStyle.Render("Análise concluída")
	if file != "" {
		header += " " + mutedStyle.Render(file)
	}
	return header + "\n" + analysisStyle.Render(analysis)
}

// renderResult formats a classification result for the terminal.
func renderResult(res *domain.ClassificationResult) string {
	if res.NotAnIntimation {
		return warningStyle.Render(res.Verdict)
	}

	out := labelStyle.Render("Classificação: ") + res.Classification + "\n" +
		labelStyle.Render("Ação Sugerida: ") + res.SuggestedAction
	if res.Risk != nil {
		out += "\n" + labelStyle.Render("Risco: ") +
			lipgloss.JoinHorizontal(lipgloss.Top,
				errorStyle.Render(strconv.Itoa(res.Risk.FileRisk)+"% interpor"),
				mutedStyle.Render(" / "),
				successStyle.Render(strconv.Itoa(res.Risk.SkipRisk)+"% não interpor"),
			)
	}
	for _, d := range res.Deadlines {
		line := "  - " + d.Name + ": " + strconv.Itoa(d.Days) + " dias úteis"
		if d.DueDate != nil {
			line += mutedStyle.Render(" (vence em " + d.DueDate.Format("02/01/2006") + ")")
		}
		out += "\n" + line
	}
	return out
}
