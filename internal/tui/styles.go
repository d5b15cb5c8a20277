package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kong/ideamixer/internal/theme"
)

type styles struct {
	title       lipgloss.Style
	status      lipgloss.Style
	label       lipgloss.Style
	button      lipgloss.Style
	buttonFocus lipgloss.Style
	buttonOff   lipgloss.Style
	result      lipgloss.Style
	errorText   lipgloss.Style
	noticeText  lipgloss.Style
	flash       lipgloss.Style
	overlay     lipgloss.Style
	spinner     lipgloss.Style
	prompt      lipgloss.Style
	placeholder lipgloss.Style
}

func buildStyles(p theme.Palette, useColor bool) styles {
	if !useColor {
		plain := lipgloss.NewStyle()
		return styles{
			title:       plain.Bold(true),
			status:      plain,
			label:       plain,
			button:      plain,
			buttonFocus: plain.Reverse(true),
			buttonOff:   plain,
			result:      plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			errorText:   plain,
			noticeText:  plain,
			flash:       plain,
			overlay:     plain.Border(lipgloss.NormalBorder()).Padding(1, 2),
			spinner:     plain,
			prompt:      plain,
			placeholder: plain,
		}
	}
	return styles{
		title: lipgloss.NewStyle().
			Foreground(p.Adaptive(theme.ColorPrimary)).
			Bold(true),
		status: p.ForegroundStyle(theme.ColorTextMuted),
		label: p.ForegroundStyle(theme.ColorTextPrimary).
			Bold(true),
		button: p.ForegroundStyle(theme.ColorTextPrimary),
		buttonFocus: lipgloss.NewStyle().
			Foreground(p.Adaptive(theme.ColorPrimaryText)).
			Background(p.Adaptive(theme.ColorPrimary)).
			Bold(true),
		buttonOff: p.ForegroundStyle(theme.ColorTextMuted),
		result: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Adaptive(theme.ColorBorder)).
			Padding(0, 1),
		errorText:  p.ForegroundStyle(theme.ColorDanger),
		noticeText: p.ForegroundStyle(theme.ColorTextMuted).Italic(true),
		flash:      p.ForegroundStyle(theme.ColorSuccess),
		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Adaptive(theme.ColorFocus)).
			Padding(1, 2),
		spinner:     p.ForegroundStyle(theme.ColorPrimary),
		prompt:      p.ForegroundStyle(theme.ColorFocus),
		placeholder: p.ForegroundStyle(theme.ColorTextMuted),
	}
}
