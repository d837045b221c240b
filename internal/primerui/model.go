// Package primerui provides the Bubble Tea interface for browsing lap times
// and applying level windows.
package primerui

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/aiprimer/internal/model"
	"github.com/verte-zerg/aiprimer/internal/primer"
	"github.com/verte-zerg/aiprimer/internal/stats"
)

const (
	tabTracks = iota
	tabLevels
	tabCurve
)

const plotHeight = 10

const (
	confirmNone = iota
	confirmRemove
	confirmReset
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// RefreshMsg asks the model to reload the session snapshot, for example
// after a watched export was ingested.
type RefreshMsg struct{}

// Options configures a Model.
type Options struct {
	Session *primer.Session
	Assets  *model.Assets
	Config  model.PrimerConfig
	// OnChange is called with the new snapshot after every mutation.
	OnChange func(primer.Snapshot) error
}

type trackKey struct {
	classID string
	trackID string
}

// Model implements the Bubble Tea primer UI.
type Model struct {
	session  *primer.Session
	assets   *model.Assets
	cfg      model.PrimerConfig
	onChange func(primer.Snapshot) error

	snap     primer.Snapshot
	tracks   []trackKey
	selected *trackKey
	levels   []int

	tabs       []string
	activeTab  int
	trackTable table.Model
	levelTable table.Model
	curveView  viewport.Model

	width  int
	height int

	status string
	errMsg string

	confirm int

	settingsMode  bool
	settingInputs []textinput.Model
	settingIndex  int
	settingsError string
}

// NewModel constructs a primer UI model.
func NewModel(opts Options) *Model {
	m := &Model{
		session:  opts.Session,
		assets:   opts.Assets,
		cfg:      opts.Config,
		onChange: opts.OnChange,
		tabs:     []string{"Tracks", "Levels", "Curve"},
	}
	m.trackTable = newTable(trackColumns())
	m.levelTable = newTable(levelColumns(false))
	m.curveView = viewport.New(0, 0)
	m.settingInputs = []textinput.Model{
		newInput("Levels per apply: "),
		newInput("Spacing: "),
	}
	m.trackTable.Focus()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderCurve()
		return m, nil
	case RefreshMsg:
		m.refresh()
		m.status = "Export reloaded."
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.settingsMode {
			return m.updateSettings(msg)
		}
		if m.confirm != confirmNone {
			return m.updateConfirm(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabTracks {
				m.selectTrack()
				m.moveTab(1)
			}
			return m, nil
		case "a":
			m.applyWindow()
			return m, nil
		case "x":
			m.confirm = confirmRemove
			return m, nil
		case "X":
			m.confirm = confirmReset
			return m, nil
		case "/":
			return m.startSettings()
		}
		return m.updateActive(msg)
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabTracks:
		m.trackTable, cmd = m.trackTable.Update(msg)
	case tabLevels:
		m.levelTable, cmd = m.levelTable.Update(msg)
	default:
		m.curveView, cmd = m.curveView.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.confirm
	m.confirm = confirmNone
	if msg.String() != "y" {
		m.status = "Cancelled."
		return m, nil
	}
	switch action {
	case confirmRemove:
		removed := m.session.RemoveGenerated()
		m.status = fmt.Sprintf("Removed %d generated levels.", removed)
		if removed > 0 {
			m.commit()
		}
	case confirmReset:
		m.session.Reset()
		m.selected = nil
		m.status = "Database reset."
		m.commit()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirm != confirmNone {
		return fitLines(m.renderConfirm(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// refresh reloads the snapshot and rebuilds every table.
func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.tracks = m.tracks[:0]
	rows := []table.Row{}
	for _, classID := range m.snap.Processed.ClassIDs() {
		class := m.snap.Processed.Classes[classID]
		for _, trackID := range class.TrackIDs() {
			track := class.Tracks[trackID]
			if len(track.AILevels) == 0 {
				continue
			}
			m.tracks = append(m.tracks, trackKey{classID: classID, trackID: trackID})
			rows = append(rows, table.Row{
				m.assets.ClassName(classID),
				m.assets.TrackName(trackID),
				formatBounds(track.Bounds),
				strconv.Itoa(len(track.AILevels)),
				playerBest(m.snap.PlayerTimes.Track(classID, trackID)),
			})
		}
	}
	cursor := m.trackTable.Cursor()
	m.trackTable.SetRows(rows)
	clampCursor(&m.trackTable, cursor)
	if m.selected != nil && m.snap.Processed.Track(m.selected.classID, m.selected.trackID) == nil {
		m.selected = nil
	}
	m.refreshLevels()
	m.renderCurve()
}

func (m *Model) refreshLevels() {
	m.levels = m.levels[:0]
	cursor := m.levelTable.Cursor()
	if m.selected == nil {
		m.levelTable.SetRows(nil)
		m.levelTable.SetColumns(levelColumns(false))
		return
	}
	track := m.snap.Processed.Track(m.selected.classID, m.selected.trackID)
	player := m.snap.PlayerTimes.Track(m.selected.classID, m.selected.trackID)
	hasPlayer := player != nil && player.BestTime != nil
	rows := make([]table.Row, 0, len(track.AILevels))
	for _, level := range track.Levels() {
		agg := track.AILevels[level]
		m.levels = append(m.levels, level)
		row := table.Row{
			strconv.Itoa(level),
			model.FormatLapTime(agg.Time, ""),
			strconv.Itoa(agg.Count),
			agg.Provenance.String(),
		}
		if hasPlayer {
			row = append(row, fmt.Sprintf("%+.3f", agg.Time-*player.BestTime))
		}
		rows = append(rows, row)
	}
	m.levelTable.SetRows(nil)
	m.levelTable.SetColumns(levelColumns(hasPlayer))
	m.levelTable.SetRows(rows)
	clampCursor(&m.levelTable, cursor)
}

// clampCursor restores cursor after the rows were replaced. The table
// reports -1 once it has been empty, so the saved position is clamped to
// the new rows.
func clampCursor(t *table.Model, cursor int) {
	rows := len(t.Rows())
	if rows == 0 {
		return
	}
	t.SetCursor(min(max(cursor, 0), rows-1))
}

func (m *Model) selectTrack() {
	idx := m.trackTable.Cursor()
	if idx < 0 || idx >= len(m.tracks) {
		return
	}
	key := m.tracks[idx]
	m.selected = &key
	m.levelTable.SetRows(nil)
	m.refreshLevels()
	m.renderCurve()
}

// applyWindow applies the configured level window around the highlighted
// level of the selected track.
func (m *Model) applyWindow() {
	m.errMsg = ""
	if m.selected == nil {
		m.errMsg = "Select a track first (enter on the Tracks tab)."
		return
	}
	idx := m.levelTable.Cursor()
	if idx < 0 || idx >= len(m.levels) {
		m.errMsg = "No level highlighted."
		return
	}
	from, to, step := primer.Window(m.levels[idx], m.cfg.NumLevels, m.cfg.Spacing, m.cfg.MinLevel, m.cfg.MaxLevel)
	added, err := m.session.Apply(m.selected.classID, m.selected.trackID, from, to, step)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s - %s: %d-%d step %d, added %d levels.",
		m.assets.ClassName(m.selected.classID), m.assets.TrackName(m.selected.trackID), from, to, step, added)
	if added > 0 {
		m.commit()
	}
}

func (m *Model) commit() {
	m.refresh()
	if m.onChange == nil {
		return
	}
	if err := m.onChange(m.snap); err != nil {
		m.errMsg = fmt.Sprintf("failed to save: %v", err)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.trackTable.Blur()
	m.levelTable.Blur()
	switch m.activeTab {
	case tabTracks:
		m.trackTable.Focus()
	case tabLevels:
		m.levelTable.Focus()
	}
}

func (m *Model) startSettings() (tea.Model, tea.Cmd) {
	m.settingsMode = true
	m.settingsError = ""
	m.settingInputs[0].SetValue(strconv.Itoa(m.cfg.NumLevels))
	m.settingInputs[1].SetValue(strconv.Itoa(m.cfg.Spacing))
	return m, m.setSettingIndex(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsMode = false
		m.settingsError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applySettings(); err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.settingsMode = false
		m.settingsError = ""
		return m, nil
	case tea.KeyTab:
		return m, m.setSettingIndex(m.settingIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setSettingIndex(m.settingIndex - 1)
	}
	var cmd tea.Cmd
	m.settingInputs[m.settingIndex], cmd = m.settingInputs[m.settingIndex].Update(msg)
	return m, cmd
}

func (m *Model) setSettingIndex(idx int) tea.Cmd {
	count := len(m.settingInputs)
	m.settingIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.settingInputs {
		if i == m.settingIndex {
			cmd = m.settingInputs[i].Focus()
		} else {
			m.settingInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applySettings() error {
	levels, err := strconv.Atoi(strings.TrimSpace(m.settingInputs[0].Value()))
	if err != nil || levels < 1 {
		return errors.New("invalid levels per apply (use integer >= 1)")
	}
	spacing, err := strconv.Atoi(strings.TrimSpace(m.settingInputs[1].Value()))
	if err != nil || spacing < 1 {
		return errors.New("invalid spacing (use integer >= 1)")
	}
	m.cfg.NumLevels = levels
	m.cfg.Spacing = spacing
	return nil
}

func (m *Model) renderCurve() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	var b strings.Builder
	b.WriteString(renderSummaryCards(stats.Summarize(m.snap.Database, m.snap.PlayerTimes), width))
	b.WriteString("\n\n")
	if m.selected == nil {
		b.WriteString("No track selected.")
		m.curveView.SetContent(b.String())
		return
	}
	track := m.snap.Processed.Track(m.selected.classID, m.selected.trackID)
	title := fmt.Sprintf("%s - %s", m.assets.ClassName(m.selected.classID), m.assets.TrackName(m.selected.trackID))
	var buf bytes.Buffer
	if err := stats.PlotLapTimesWithColor(&buf, title, stats.TrackSeries(track), stats.PlotWidthFor(width), plotHeight, true); err != nil {
		b.WriteString(fmt.Sprintf("Failed to render curve: %v", err))
	} else {
		b.WriteString(strings.TrimRight(buf.String(), "\n"))
	}
	m.curveView.SetContent(b.String())
}

func renderSummaryCards(s stats.Summary, width int) string {
	cards := []string{
		metricCard("Classes", strconv.Itoa(s.Classes)),
		metricCard("Tracks", strconv.Itoa(s.Tracks)),
		metricCard("Levels", strconv.Itoa(s.Levels)),
		metricCard("Samples", strconv.Itoa(s.Samples)),
		metricCard("Likely generated", strconv.Itoa(s.LikelyGenerated)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func formatBounds(r *model.Range) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func playerBest(pt *model.PlayerTrack) string {
	if pt == nil || pt.BestTime == nil {
		return "-"
	}
	return model.FormatLapTime(*pt.BestTime, "")
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 4
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}
