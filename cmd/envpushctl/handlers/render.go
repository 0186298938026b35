package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ericfisherdev/envpush/internal/domain/model"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorRed    = lipgloss.Color("#ef4444")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

func styleFor(kind model.ResultKind) (lipgloss.Style, string) {
	switch kind {
	case model.ResultSuccess:
		return successStyle, "✓"
	case model.ResultWarning:
		return warningStyle, "!"
	default:
		return errorStyle, "✗"
	}
}

// renderHeader describes the run about to start.
func renderHeader(p model.ConnectionParams, items int) string {
	return titleStyle.Render(fmt.Sprintf("  envpush apply: %s", p.RepoFullName())) + "\n" +
		dimStyle.Render(fmt.Sprintf("  environment %s, %d %s", p.Environment, items, p.Kind)) + "\n"
}

// renderEntry formats one result line.
func renderEntry(e model.ResultEntry) string {
	style, mark := styleFor(e.Kind)
	return "  " + style.Render(mark+" "+e.Message)
}

// renderSummary formats the final state of a run.
func renderSummary(s model.RunSnapshot) string {
	var b strings.Builder

	b.WriteString("\n")
	style := successStyle
	switch {
	case s.Progress.Phase == model.RunPhaseFailed:
		style = errorStyle
	case s.ErrorCount() > 0:
		style = warningStyle
	}
	b.WriteString(style.Render(fmt.Sprintf("  %s (%d/%d steps)", s.Progress.Status, s.Progress.Current, s.Progress.Total)))

	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" in %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))))
	}
	b.WriteString("\n")

	return b.String()
}

// renderHistory formats stored runs, newest first, relative to now.
func renderHistory(runs []model.RunSnapshot, now time.Time) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("  Recent runs"))
	b.WriteString("\n")

	if len(runs) == 0 {
		b.WriteString(dimStyle.Render("  no runs recorded"))
		b.WriteString("\n")
		return b.String()
	}

	for _, s := range runs {
		style := successStyle
		switch {
		case s.Progress.Phase == model.RunPhaseFailed:
			style = errorStyle
		case s.ErrorCount() > 0:
			style = warningStyle
		}

		when := humanize.RelTime(s.StartedAt, now, "ago", "from now")
		line := fmt.Sprintf("  %-14s %-30s %-12s %-9s %s",
			when, s.Owner+"/"+s.Repo, s.Environment, s.Kind, s.Progress.Status)
		b.WriteString(style.Render(line))
		b.WriteString(dimStyle.Render("  " + s.ID))
		b.WriteString("\n")
	}

	return b.String()
}
