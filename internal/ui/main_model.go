package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/widget"
)

// Presenter is the presentation shown by the TUI
type Presenter interface {
	RenderSlide(n int) (widget.Widget, error)
	SlideCount() int
	Meta() parser.Meta
	Styles() config.Styles
	Title() ([]widget.Span, error)
	Reload() error
}

// ============================================================================
// Messages
// ============================================================================

// ReloadedMsg reports a finished reload of the presentation source
type ReloadedMsg struct {
	Err error
}

// reload re-reads the source off the event loop
func reload(p Presenter) tea.Cmd {
	return func() tea.Msg {
		return ReloadedMsg{Err: p.Reload()}
	}
}

// ============================================================================
// Main Model
// ============================================================================

// chrome is the number of lines taken by the header and the footer
const chrome = 4

// mainModel is the Bubble Tea model showing one slide at a time
type mainModel struct {
	pres   Presenter
	styles *StyleManager
	debug  bool

	width    int
	height   int
	viewport viewport.Model
	current  int
	quitting bool

	// sortPending is set after s, the next digit picks the column
	sortPending bool
	// table is the index of the table on the slide that sorting applies to
	table int

	// err is the render error of the current slide
	err error
	// status is a transient message shown in the footer
	status string
}

// newMainModel creates a model starting at slide start
func newMainModel(p Presenter, start int, debug bool) mainModel {
	m := mainModel{
		pres:     p,
		styles:   DefaultStyles(),
		debug:    debug,
		width:    80,
		height:   24,
		viewport: viewport.New(80, 24-chrome),
	}
	m.styles.LoadFromStyles(p.Styles())
	m.current = clamp(start, 0, max(p.SlideCount()-1, 0))
	m.renderCurrent()
	return m
}

// Init implements tea.Model
func (m mainModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderCurrent()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case ReloadedMsg:
		if msg.Err != nil {
			m.status = "reload failed: " + firstLine(msg.Err.Error())
		} else {
			m.status = "reloaded " + time.Now().Format("15:04:05")
		}
		m.styles.LoadFromStyles(m.pres.Styles())
		m.current = clamp(m.current, 0, max(m.pres.SlideCount()-1, 0))
		m.renderCurrent()
	}
	return m, nil
}

// handleKey processes keyboard input
func (m *mainModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.sortPending {
		m.sortPending = false
		m.status = ""
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 {
			m.sortColumn(n - 1)
			return nil
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "left", "h", "k", "backspace", "delete":
		m.goTo(m.current - 1)
	case "right", "l", "j", " ", "space":
		m.goTo(m.current + 1)
	case "r":
		return reload(m.pres)
	case "s":
		m.sortPending = true
		m.status = "sort by column: 1-9"
	case "t":
		if n := len(m.tables()); n > 0 {
			m.table = (m.table + 1) % n
			m.status = fmt.Sprintf("table %d of %d", m.table+1, n)
		}
	case "up":
		m.viewport.ScrollUp(1)
	case "down":
		m.viewport.ScrollDown(1)
	case "pgup":
		m.viewport.ScrollUp(max(m.viewport.Height-1, 1))
	case "pgdown":
		m.viewport.ScrollDown(max(m.viewport.Height-1, 1))
	}
	return nil
}

// goTo switches to slide n if it exists
func (m *mainModel) goTo(n int) {
	n = clamp(n, 0, max(m.pres.SlideCount()-1, 0))
	if n == m.current {
		return
	}
	m.current = n
	m.status = ""
	m.table = 0
	m.renderCurrent()
}

// tables returns the sortable tables of the current slide
func (m mainModel) tables() []*widget.Table {
	if m.pres.SlideCount() == 0 {
		return nil
	}
	w, err := m.pres.RenderSlide(m.current)
	if err != nil {
		return nil
	}
	return widget.Tables(w)
}

// sortColumn cycles the sort of column col of the selected table. Only the
// body rows move, the header stays on top.
func (m *mainModel) sortColumn(col int) {
	tables := m.tables()
	if len(tables) == 0 {
		m.status = "no table on this slide"
		return
	}
	t := tables[m.table%len(tables)]
	if col >= len(t.Header) {
		m.status = fmt.Sprintf("table has %d columns", len(t.Header))
		return
	}
	dir := t.CycleSort(col)
	m.status = fmt.Sprintf("sorted column %d %s", col+1, dir)
	m.refresh()
}

// bodySize returns the width and height available to the slide
func (m mainModel) bodySize() (int, int) {
	mg, pd := m.styles.Margin, m.styles.Padding
	width := m.width - mg.Left - mg.Right - pd.Left - pd.Right
	height := m.height - mg.Top - mg.Bottom - chrome
	return max(width, 10), max(height, 1)
}

// renderCurrent renders the current slide into the viewport, scrolled to
// the top
func (m *mainModel) renderCurrent() {
	m.refresh()
	m.viewport.GotoTop()
}

// refresh re-renders the current slide keeping the scroll position
func (m *mainModel) refresh() {
	width, height := m.bodySize()
	m.viewport.Width = width + m.styles.Padding.Left + m.styles.Padding.Right
	m.viewport.Height = height

	lines, err := m.slideLines(width)
	m.err = err
	if err != nil {
		lines = m.errorLines(err)
	}

	pad := strings.Repeat(" ", m.styles.Padding.Left)
	var b strings.Builder
	b.WriteString(strings.Repeat("\n", m.styles.Padding.Top))
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad)
		b.WriteString(line)
	}
	b.WriteString(strings.Repeat("\n", m.styles.Padding.Bottom))

	m.viewport.SetContent(b.String())
}

func (m mainModel) slideLines(width int) ([]string, error) {
	if m.pres.SlideCount() == 0 {
		return nil, nil
	}
	w, err := m.pres.RenderSlide(m.current)
	if err != nil {
		return nil, err
	}
	return w.Render(width), nil
}

// errorLines describes a failed render in place of the slide
func (m mainModel) errorLines(err error) []string {
	lines := []string{
		m.styles.Error.Render(fmt.Sprintf("error rendering slide %d: %s", m.current+1, firstLine(err.Error()))),
	}
	lines = append(lines, strings.Split(err.Error(), "\n")[1:]...)
	if !m.debug {
		lines = append(lines, "", m.styles.Dim.Render("rerun with --debug for a full trace"))
	}
	return lines
}

// ============================================================================
// View
// ============================================================================

// View implements tea.Model
func (m mainModel) View() string {
	if m.quitting {
		return ""
	}
	mg := m.styles.Margin
	inner := max(m.width-mg.Left-mg.Right, 10)

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(inner),
		m.viewport.View(),
		m.renderFooter(inner),
	)
	return lipgloss.NewStyle().
		Margin(mg.Top, mg.Right, mg.Bottom, mg.Left).
		Render(view)
}

// renderHeader renders the centered title above a divider
func (m mainModel) renderHeader(width int) string {
	title := ""
	if spans, err := m.pres.Title(); err == nil && len(spans) > 0 {
		t := widget.NewText(spans...)
		t.Align = widget.AlignCenter
		t.NoWrap = true
		title = strings.Join(t.Render(width), "\n")
	}
	return title + "\n" + m.divider(width)
}

// renderFooter renders author, progress and date below a divider
func (m mainModel) renderFooter(width int) string {
	meta := m.pres.Meta()
	left := m.styles.Author.Render(meta.Author)
	right := m.styles.Date.Render(meta.Date)
	if m.status != "" {
		right = m.styles.Dim.Render(m.status)
	}
	progress := m.styles.Slides.Render(fmt.Sprintf("slide %d / %d", m.current+1, max(m.pres.SlideCount(), 1)))

	side := max((width-lipgloss.Width(progress))/2, 0)
	line := lipgloss.PlaceHorizontal(side, lipgloss.Left, left) +
		progress +
		lipgloss.PlaceHorizontal(max(width-side-lipgloss.Width(progress), 0), lipgloss.Right, right)

	return m.divider(width) + "\n" + line
}

func (m mainModel) divider(width int) string {
	return m.styles.Divider.Render(strings.Repeat("─", width))
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// firstLine returns the first line of s
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
