package cliui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// hexColor drops the alpha channel some palette entries carry.
func hexColor(hex string) lipgloss.Color {
	if len(hex) == 9 {
		hex = hex[:7]
	}
	return lipgloss.Color(hex)
}

// Badge renders a paper id on the paper's palette color.
func Badge(p *paper.Paper) string {
	c := p.Color()
	return lipgloss.NewStyle().
		Background(hexColor(c.Hex)).
		Foreground(hexColor(c.TextColor)).
		Padding(0, 1).
		Render(fmt.Sprintf("%d", p.ID))
}

// PaperLine renders a one-line summary: badge, title, nickname, type and a
// pin marker for papers excluded from automatic layout.
func PaperLine(p *paper.Paper) string {
	var b strings.Builder
	b.WriteString(Badge(p))
	b.WriteString(" ")
	b.WriteString(TitleStyle.Render(p.Title))
	if p.Nickname != "" {
		b.WriteString(StepStyle.Render(" (" + p.Nickname + ")"))
	}
	if p.Type != "" {
		b.WriteString(StepStyle.Render(" [" + string(p.Type) + "]"))
	}
	if p.Pinned() {
		b.WriteString(" 📌")
	}
	return b.String()
}
