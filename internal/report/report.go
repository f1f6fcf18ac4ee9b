// Package report renders health scores for the terminal using lipgloss.
package report

import (
	"fmt"
	"strings"

	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

var (
	excellentColor = lipgloss.Color("#4ECDC4")
	goodColor      = lipgloss.Color("#95E1D3")
	fairColor      = lipgloss.Color("#FFE66D")
	needsWorkColor = lipgloss.Color("#FF6B6B")
	subtleColor    = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	nameStyle = lipgloss.NewStyle().
			Width(20)
)

func statusColor(status string) lipgloss.Color {
	switch status {
	case models.StatusExcellent:
		return excellentColor
	case models.StatusGood:
		return goodColor
	case models.StatusFair:
		return fairColor
	default:
		return needsWorkColor
	}
}

// Bar draws a fixed-width bar for a 0-100 score.
func Bar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// Render formats a score result as a bordered terminal report.
func Render(result models.ScoreResult) string {
	headline := lipgloss.NewStyle().
		Bold(true).
		Foreground(statusColor(result.Status)).
		Render(fmt.Sprintf("%d / 100  %s", result.Score, result.Status))

	sections := []string{
		titleStyle.Render("Financial Health Score"),
		headline,
	}

	if len(result.Factors) > 0 {
		rows := make([]string, 0, len(result.Factors))
		for _, f := range result.Factors {
			bar := lipgloss.NewStyle().Foreground(statusColor(f.Status)).Render(Bar(f.Score))
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
				nameStyle.Render(f.Name),
				bar,
				fmt.Sprintf(" %3d  ", f.Score),
				subtleStyle.Render(fmt.Sprintf("%s / %s", f.Current.StringFixed(2), f.Target.String())),
			))
		}
		sections = append(sections, "", lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	if len(result.Recommendations) > 0 {
		lines := make([]string, 0, len(result.Recommendations)+1)
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Recommendations"))
		for _, rec := range result.Recommendations {
			lines = append(lines, "• "+rec)
		}
		sections = append(sections, "", lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
