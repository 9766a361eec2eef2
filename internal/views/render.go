package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header       string
	Tabs         []string
	ActiveTab    string
	MainPane     string
	SidePane     string
	StatusLine   string
	StatusError  bool
	Footer       string
	Notification string
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14")).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goalStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func RenderApp(data AppData) string {
	main := panelStyle.Width(58).Render(data.MainPane)
	row := main
	if strings.TrimSpace(data.SidePane) != "" {
		side := panelStyle.Width(46).Render(data.SidePane)
		row = lipgloss.JoinHorizontal(lipgloss.Top, main, side)
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, headerStyle.Render(data.Header), " ", renderTabs(data.Tabs, data.ActiveTab)),
		row,
	}
	if data.StatusLine != "" {
		if data.StatusError {
			lines = append(lines, errorStyle.Render(data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func renderTabs(tabs []string, active string) string {
	rendered := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := string(rune('1'+i)) + " " + tab
		if tab == active {
			rendered = append(rendered, activeTabStyle.Render(label))
			continue
		}
		rendered = append(rendered, tabStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
