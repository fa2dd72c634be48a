package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"myday/internal/config"
	"myday/internal/report"
	"myday/internal/task"
)

var (
	colorBlue  = lipgloss.Color("#7aa2f7")
	colorGray  = lipgloss.Color("#565f89")
	colorWhite = lipgloss.Color("#c0caf5")
	colorRed   = lipgloss.Color("#f7768e")
	colorGold  = lipgloss.Color("#e0af68")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorBlue).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorGray)
	overdueStyle   = lipgloss.NewStyle().Foreground(colorRed)
	starStyle      = lipgloss.NewStyle().Foreground(colorGold)
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(colorGray)
	panelStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("My Day"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.svc.Today().String()))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.tab {
	case tabReport:
		b.WriteString(m.renderReport())
	default:
		b.WriteString(m.renderSubtitle())
		b.WriteString(m.renderTaskList())
		b.WriteString("\n")
		b.WriteString(m.renderDetailPanel())
	}

	b.WriteString("\n")
	if m.mode != modeList {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderSubtitle() string {
	switch m.tab {
	case tabPlan:
		return mutedStyle.Render(fmt.Sprintf("Plan: %s (%s to cycle)", m.plan, m.cfg.Keys.Filter)) + "\n"
	case tabAll:
		if m.query != "" {
			return mutedStyle.Render(fmt.Sprintf("Search: %q", m.query)) + "\n"
		}
	}
	return ""
}

func (m Model) renderTaskList() string {
	visible := m.visible()
	if len(visible) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No tasks here. Press '%s' to add one.", m.cfg.Keys.Add)) + "\n"
	}

	today := m.svc.Today()
	var b strings.Builder
	for i, t := range visible {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}

		name := t.Name
		switch {
		case t.Completed:
			name = doneStyle.Render(name)
		case t.OverdueOn(today):
			name = overdueStyle.Render(name)
		}
		star := " "
		if t.Important {
			star = starStyle.Render("*")
		}

		b.WriteString(fmt.Sprintf("%s %s %s %s  %s\n", cursor, checkbox, star, name, mutedStyle.Render(t.Due.String())))
	}
	return b.String()
}

func (m Model) renderDetailPanel() string {
	visible := m.visible()
	if len(visible) == 0 {
		return ""
	}
	t := visible[clampCursor(m.cursor, len(visible))]
	today := m.svc.Today()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Task      : %s\n", t.Name))
	b.WriteString(fmt.Sprintf("Due       : %s\n", emptyPlaceholder(t.Due.String())))
	b.WriteString(fmt.Sprintf("Status    : %s\n", humanDone(t.Completed)))
	b.WriteString(fmt.Sprintf("Important : %t\n", t.Important))
	b.WriteString(fmt.Sprintf("Overdue   : %t", t.OverdueOn(today)))
	if !t.Due.Valid() {
		b.WriteString("\n" + overdueStyle.Render("Due date could not be read"))
	}
	return panelStyle.Render(b.String()) + "\n"
}

func (m Model) renderReport() string {
	res := report.Summarize(m.tasks, m.reportFilter, m.svc.Today())

	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s (%s to cycle)", m.reportFilter.Label(), m.cfg.Keys.Filter)))
	b.WriteString("\n\n")
	for _, s := range res.Summaries {
		b.WriteString(fmt.Sprintf("%-16s %3d  (%d important)\n", s.Name, s.Total, s.Important))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Completion: %s %.0f%%\n", progressBar(res.CompletionPercent, 20), res.CompletionPercent))
	return panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))
	return starStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s/%s view • %s add • %q toggle • %s star • %s postpone • %s delete • %s undo • %s search • %s filter • %s quit",
		k.Up, k.Down, k.NextTab, k.PrevTab, k.Add, k.Toggle, k.Star, k.Postpone, k.Delete, k.Undo, k.Search, k.Filter, k.Quit)
}

// FormatTask renders t on one plain line for command output.
func FormatTask(t task.Task) string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	star := ""
	if t.Important {
		star = " *"
	}
	return fmt.Sprintf("[%s] %d %s (%s)%s", mark, t.ID, t.Name, t.Due, star)
}
