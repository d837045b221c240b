package primerui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func trackColumns() []table.Column {
	return []table.Column{
		{Title: "Class", Width: 24},
		{Title: "Track", Width: 36},
		{Title: "AI range", Width: 9},
		{Title: "Levels", Width: 6},
		{Title: "Player best", Width: 11},
	}
}

func levelColumns(withPlayer bool) []table.Column {
	cols := []table.Column{
		{Title: "Level", Width: 5},
		{Title: "Lap time", Width: 9},
		{Title: "Samples", Width: 7},
		{Title: "Source", Width: 11},
	}
	if withPlayer {
		cols = append(cols, table.Column{Title: "Δ player", Width: 9})
	}
	return cols
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 2
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	// Table height excludes the header row and its border.
	tableHeight := max(1, bodyHeight-2)
	m.trackTable.SetWidth(m.width)
	m.trackTable.SetHeight(tableHeight)
	m.levelTable.SetWidth(m.width)
	m.levelTable.SetHeight(tableHeight)
	m.curveView.Width = m.width
	m.curveView.Height = bodyHeight
	for i := range m.settingInputs {
		m.settingInputs[i].Width = max(10, m.width-lipgloss.Width(m.settingInputs[i].Prompt)-2)
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	selected := "none"
	if m.selected != nil {
		selected = fmt.Sprintf("%s - %s", m.assets.ClassName(m.selected.classID), m.assets.TrackName(m.selected.trackID))
	}
	summary := fmt.Sprintf("Track: %s  window=%d  spacing=%d  range=%d-%d",
		selected, m.cfg.NumLevels, m.cfg.Spacing, m.cfg.MinLevel, m.cfg.MaxLevel)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody(height int) string {
	if m.settingsMode {
		return fitLines(m.renderSettingsForm(), m.width, height)
	}
	switch m.activeTab {
	case tabTracks:
		if len(m.tracks) == 0 {
			return fitLines("No lap times yet. Import an adaptation export first.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.trackTable.View()), m.width, height)
	case tabLevels:
		if m.selected == nil {
			return fitLines("No track selected. Press enter on the Tracks tab.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.levelTable.View()), m.width, height)
	default:
		return fitLines(m.curveView.View(), m.width, height)
	}
}

func (m *Model) renderFooter() string {
	if m.settingsMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Select: enter  Apply: a  Remove generated: x  Reset: X  Settings: /  Quit: q"
	line := ""
	switch {
	case m.errMsg != "":
		line = errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.status != "":
		line = statusStyle.Render(truncateLine(m.status, m.width))
	}
	return headerStyle.Render(truncateLine(help, m.width)) + "\n" + line
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.settingInputs {
		lines = append(lines, input.View())
	}
	if m.settingsError != "" {
		lines = append(lines, errorStyle.Render(m.settingsError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderConfirm() string {
	question := "Remove every level holding a single lap time?"
	if m.confirm == confirmReset {
		question = "Discard all lap times and player times?"
	}
	body := []string{
		cardValueStyle.Render("Confirm"),
		question,
		headerStyle.Render("y to confirm / any other key to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
