package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackvity/doc-scanner/internal/cli/hooks"
	"github.com/stackvity/doc-scanner/pkg/docscan"
	"github.com/stackvity/doc-scanner/pkg/docscan/finding"
)

// listHeightMargin is the number of lines taken by the header, progress bar,
// error line and footer.
const listHeightMargin = 5

const (
	phaseInitializing = "Initializing..."
	phaseCounting     = "Counting files..."
	phaseScanning     = "Scanning..."
	phaseComplete     = "Complete"
	phaseIncomplete   = "Incomplete"
)

// Model represents the state of the scan TUI: a spinner and progress bar for
// the running session, and a scrollable list of the findings produced so far.
type Model struct {
	list     list.Model
	spinner  spinner.Model
	progress progress.Model

	width       int
	height      int
	initialized bool

	version string
	// cancel stops the scan when the user quits early. May be nil.
	cancel func()

	findings      []findingItem
	listDirty     bool // an UpdateListMsg is already scheduled
	summary       Summary
	percent       float64
	currentPath   string
	phaseMessage  string
	fatalError    string
	quitting      bool
	done          bool
	statusPerFile map[string]docscan.Status
}

// findingItem is one finding in the TUI list.
type findingItem struct {
	f finding.Finding
}

// Summary holds the aggregated statistics displayed in the TUI footer.
type Summary struct {
	Discovered   int
	ScannedCount int
	SkippedCount int
	ErrorCount   int
	Counts       map[finding.Category]int
	StartTime    time.Time
}

// NewModel creates the initial model for the TUI. cancel is called when the
// user quits before the scan finishes.
func NewModel(version string, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorStatusScanning)

	p := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:          l,
		spinner:       s,
		progress:      p,
		version:       version,
		cancel:        cancel,
		summary:       newSummary(),
		phaseMessage:  phaseInitializing,
		findings:      make([]findingItem, 0, 256),
		statusPerFile: make(map[string]docscan.Status),
	}
}

func newSummary() Summary {
	return Summary{Counts: make(map[finding.Category]int), StartTime: time.Now()}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles user input and scan events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.progress.Width = max(m.width-4, 10)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.done {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	// --- Scan events ---
	case hooks.RunStartMsg:
		m.reset()
		m.phaseMessage = phaseCounting
		if len(msg.Roots) > 0 {
			m.currentPath = strings.Join(msg.Roots, ", ")
		}

	case hooks.FileDiscoveredMsg:
		if _, seen := m.statusPerFile[msg.Path]; !seen {
			m.statusPerFile[msg.Path] = docscan.StatusPending
			m.summary.Discovered++
		}

	case hooks.FileStatusUpdateMsg:
		m.applyStatus(msg)

	case hooks.FindingMsg:
		m.findings = append(m.findings, findingItem{f: msg.Finding})
		m.summary.Counts[msg.Finding.Category]++
		cmds = append(cmds, m.scheduleListUpdate())

	case hooks.ProgressMsg:
		m.percent = msg.Progress.Percent
		m.currentPath = msg.Progress.Path

	case hooks.RunCompleteMsg:
		m.complete(msg.Report)
		cmds = append(cmds, m.list.SetItems(m.items()), tea.Quit)

	case UpdateListMsg:
		m.listDirty = false
		cmds = append(cmds, m.list.SetItems(m.items()))
	}

	return m, tea.Batch(cmds...)
}

// reset clears the state of the previous session.
func (m *Model) reset() {
	m.findings = m.findings[:0]
	m.statusPerFile = make(map[string]docscan.Status)
	m.summary = newSummary()
	m.percent = 0
	m.currentPath = ""
	m.fatalError = ""
	m.done = false
	m.list.SetItems(nil)
}

func (m *Model) applyStatus(msg hooks.FileStatusUpdateMsg) {
	old, seen := m.statusPerFile[msg.Path]
	if !seen {
		m.summary.Discovered++
	}
	if old == msg.Status {
		return
	}
	m.statusPerFile[msg.Path] = msg.Status
	m.adjustCount(old, -1)
	m.adjustCount(msg.Status, 1)

	if msg.Status == docscan.StatusScanning {
		m.phaseMessage = phaseScanning
		m.currentPath = msg.Path
	}
}

func (m *Model) adjustCount(status docscan.Status, delta int) {
	switch status {
	case docscan.StatusScanned:
		m.summary.ScannedCount += delta
	case docscan.StatusSkipped:
		m.summary.SkippedCount += delta
	case docscan.StatusFailed:
		m.summary.ErrorCount += delta
	}
}

// complete replaces the running counters with the report's verified totals.
func (m *Model) complete(report docscan.Report) {
	m.done = true
	m.summary.ScannedCount = report.Summary.ScannedCount
	m.summary.SkippedCount = report.Summary.SkippedCount
	for _, c := range finding.Categories {
		m.summary.Counts[c] = report.Count(c)
	}
	if report.Summary.Complete {
		m.phaseMessage = phaseComplete
		m.percent = 100
		return
	}
	m.phaseMessage = phaseIncomplete
	m.fatalError = "Scan did not complete."
	for _, e := range report.Errors {
		if e.IsFatal {
			if e.Path != "" {
				m.fatalError = fmt.Sprintf("Fatal Error: %s (%s)", e.Error, e.Path)
			} else {
				m.fatalError = fmt.Sprintf("Fatal Error: %s", e.Error)
			}
			break
		}
	}
}

func (m *Model) items() []list.Item {
	items := make([]list.Item, len(m.findings))
	for i, item := range m.findings {
		items[i] = item
	}
	return items
}

// View renders the TUI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.initialized {
		return phaseInitializing
	}

	// --- Header ---
	headerLeft := fmt.Sprintf("docscan %s", m.version)
	headerRight := m.phaseMessage
	if !m.done && m.phaseMessage != phaseInitializing {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	header := HeaderStyle.Width(m.width).Render(spread(m.width, headerLeft, headerRight))

	// --- Progress ---
	progressLine := m.progress.ViewAs(m.percent/100) + fmt.Sprintf(" %3.0f%%", m.percent)
	if m.currentPath != "" && !m.done {
		progressLine += " " + PathStyle.Render(filepath.Base(m.currentPath))
	}

	errorView := ""
	if m.fatalError != "" {
		errorView = StatusStyleFailed.Render(m.fatalError)
	}

	// --- Footer ---
	elapsed := time.Since(m.summary.StartTime).Round(time.Millisecond)
	footerLeft := fmt.Sprintf(
		"Files: %d | Scanned: %d | Skipped: %d | Failed: %d | Header: %d | Header Info: %d | Function: %d | Class: %d | %s",
		m.summary.Discovered,
		m.summary.ScannedCount,
		m.summary.SkippedCount,
		m.summary.ErrorCount,
		m.summary.Counts[finding.MissingHeader],
		m.summary.Counts[finding.MissingHeaderInfo],
		m.summary.Counts[finding.MissingFunctionDoc],
		m.summary.Counts[finding.MissingClassDoc],
		elapsed,
	)
	footer := FooterStyle.Width(m.width).Render(spread(m.width, footerLeft, "q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		progressLine,
		m.list.View(),
		errorView,
		footer,
	)
}

// spread places left and right at the two ends of a line of the given width.
func spread(width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

// --- List Item Interface ---

// FilterValue implements the list.Item interface.
func (i findingItem) FilterValue() string { return i.f.File }

// Title implements the list.Item interface.
func (i findingItem) Title() string { return fmt.Sprintf("%s:%d", i.f.File, i.f.Line) }

// Description implements the list.Item interface.
func (i findingItem) Description() string {
	desc := CategoryStyle(i.f.Category).Render(i.f.Category.Prefix())
	if len(i.f.Detail) > 0 {
		desc += " => " + strings.Join(i.f.Detail, ", ")
	}
	return desc
}

// --- Update Throttling ---

// UpdateListMsg signals that the list component should refresh its items.
type UpdateListMsg struct{}

const listUpdateInterval = 50 * time.Millisecond // ~20 list refreshes/sec max

// scheduleListUpdate refreshes the list at most once per listUpdateInterval,
// however fast findings arrive.
func (m *Model) scheduleListUpdate() tea.Cmd {
	if m.listDirty {
		return nil
	}
	m.listDirty = true
	return tea.Tick(listUpdateInterval, func(time.Time) tea.Msg {
		return UpdateListMsg{}
	})
}

// --- Styles ---

const (
	ColorHeaderFg = lipgloss.Color("252")
	ColorHeaderBg = lipgloss.Color("62")

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("56")

	ColorNormalFg     = lipgloss.Color("250")
	ColorNormalDescFg = lipgloss.Color("244")

	ColorSelectedFg     = lipgloss.Color("255")
	ColorSelectedBg     = lipgloss.Color("56")
	ColorSelectedDescFg = lipgloss.Color("248")

	ColorStatusFailed   = lipgloss.Color("196")
	ColorStatusScanning = lipgloss.Color("205")
	ColorPath           = lipgloss.Color("244")

	ColorHeaderFinding     = lipgloss.Color("196")
	ColorHeaderInfoFinding = lipgloss.Color("170")
	ColorFunctionFinding   = lipgloss.Color("214")
	ColorClassFinding      = lipgloss.Color("39")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleFailed = lipgloss.NewStyle().Foreground(ColorStatusFailed).Bold(true)
	PathStyle         = lipgloss.NewStyle().Foreground(ColorPath)

	categoryStyles = map[finding.Category]lipgloss.Style{
		finding.MissingHeader:      lipgloss.NewStyle().Foreground(ColorHeaderFinding),
		finding.MissingHeaderInfo:  lipgloss.NewStyle().Foreground(ColorHeaderInfoFinding),
		finding.MissingFunctionDoc: lipgloss.NewStyle().Foreground(ColorFunctionFinding),
		finding.MissingClassDoc:    lipgloss.NewStyle().Foreground(ColorClassFinding),
	}
)

// CategoryStyle returns the style used for findings of category c.
func CategoryStyle(c finding.Category) lipgloss.Style {
	if s, ok := categoryStyles[c]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
