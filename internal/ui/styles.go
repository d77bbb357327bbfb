package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/style"
)

// StyleManager holds the styles of the presentation chrome around a slide
type StyleManager struct {
	Author lipgloss.Style
	Date   lipgloss.Style
	Slides lipgloss.Style

	// Chrome styles
	Divider lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style

	Margin  config.Spacing
	Padding config.Spacing
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Author:  lipgloss.NewStyle(),
		Date:    lipgloss.NewStyle(),
		Slides:  lipgloss.NewStyle().Bold(true),
		Divider: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// LoadFromStyles updates styles from the presentation styles
func (s *StyleManager) LoadFromStyles(st config.Styles) {
	s.Author = fromDef(st.Author)
	s.Date = fromDef(st.Date)
	s.Slides = fromDef(st.Slides)
	s.Divider = fromDef(st.Hrule.Style)
	s.Margin = st.Margin
	s.Padding = st.Padding
}

func fromDef(d config.StyleDef) lipgloss.Style {
	return style.New(d.Fg, d.Bg).Lipgloss()
}
