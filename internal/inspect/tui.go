package inspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobflow/internal/model"
)

// Lines per record item in the list view (title + subtitle + blank separator).
const recordItemHeight = 3

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	droppedTitleStyle = lipgloss.NewStyle().
				Strikethrough(true).
				Foreground(lipgloss.Color("240"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(26)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Entry pairs an upstream row with its normalized form.
type Entry struct {
	Raw    model.RawRecord
	Record model.Record
	Kept   bool // false when the record filter would drop it
}

// BuildEntries normalizes every row of a chunk. filter may be nil.
func BuildEntries(raw []model.RawRecord, n model.Normalizer, filter model.RecordFilter) []Entry {
	entries := make([]Entry, len(raw))
	for i, r := range raw {
		rec := n.Normalize(r)
		entries[i] = Entry{
			Raw:    r,
			Record: rec,
			Kept:   filter == nil || filter.Keep(rec),
		}
	}
	return entries
}

type inspectModel struct {
	title         string
	entries       []Entry
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	cursor        int
	width         int
	height        int
	ready         bool
	wantQuit      bool
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wantQuit = true
			return m, tea.Quit
		case "esc", "b":
			m.wantQuit = false
			return m, tea.Quit
		case "tab", "left", "right":
			m.activePane = 1 - m.activePane
			return m, nil
		case "up", "k":
			if m.activePane == 0 {
				m.moveCursor(-1)
				return m, nil
			}
		case "down", "j":
			if m.activePane == 0 {
				m.moveCursor(1)
				return m, nil
			}
		}

		// Forward other keys (and scrolling in the detail pane) to the active viewport.
		var cmd tea.Cmd
		if m.activePane == 0 {
			m.leftViewport, cmd = m.leftViewport.Update(msg)
		} else {
			m.rightViewport, cmd = m.rightViewport.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *inspectModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.entries)-1, 0))
	m.recalcContent()
	m.rightViewport.SetYOffset(0)

	cursorTop := m.cursor * recordItemHeight
	cursorBottom := cursorTop + recordItemHeight - 1
	vp := &m.leftViewport
	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *inspectModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *inspectModel) recalcContent() {
	m.leftViewport.SetContent(renderEntries(m.entries, m.cursor))
	if len(m.entries) == 0 {
		m.rightViewport.SetContent("  (no records)")
		return
	}
	m.rightViewport.SetContent(renderDetail(m.entries[m.cursor]))
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	paneWidth := m.leftViewport.Width
	leftHeader := fmt.Sprintf(" %s (%d)", m.title, len(m.entries))
	rightHeader := " Raw → Normalized"

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == 1 {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	kept := 0
	for _, e := range m.entries {
		if e.Kept {
			kept++
		}
	}
	statusText := fmt.Sprintf(" %d fetched | %d kept | %d filtered out    ←/→/Tab switch  ↑/↓ move  Esc back  q quit",
		len(m.entries), kept, len(m.entries)-kept)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func renderEntries(entries []Entry, cursor int) string {
	if len(entries) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, e := range entries {
		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if !e.Kept {
			titleSt = droppedTitleStyle
		}
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		title := e.Record.JobTitle
		if title == "" {
			title = "(untitled)"
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", e.Record.Company, e.Record.Region, e.Record.WageType)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderDetail(e Entry) string {
	var b strings.Builder

	addField := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	b.WriteString(sectionStyle.Render("── Normalized ──") + "\n\n")
	r := e.Record
	addField("company", r.Company)
	addField("job_title", r.JobTitle)
	addField("wage_type", string(r.WageType))
	addField("wage_value_krw", formatAmount(r.WageValue))
	addField("wage_value_monthly", formatAmount(r.WageValueMonthly))
	addField("region", r.Region)
	for i, slot := range r.RegionSlots {
		if slot != "" {
			addField("region"+strconv.Itoa(i+1), slot)
		}
	}
	addField("region_joined", r.RegionJoined)
	addField("career", r.Career)
	addField("career_level", string(r.CareerLevel))
	addField("RCRIT_JSSFC_CMMN_CODE_SE", r.JobCode)
	addField("JOBCODE_NM", r.JobCodeName)
	addField("CAREER_CND_CMMN_CODE_SE", r.CareerCode)
	addField("ACDMCR_CMMN_CODE_SE", r.EducationCode)
	if !e.Kept {
		b.WriteString("\n" + droppedTitleStyle.UnsetStrikethrough().Render("filtered out") + "\n")
	}

	b.WriteString("\n" + sectionStyle.Render("── Raw ──") + "\n\n")
	keys := make([]string, 0, len(e.Raw))
	for k := range e.Raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		addField(k, e.Raw.String(k))
	}

	return b.String()
}

func formatAmount(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunInspectTUI launches the split-pane inspector over entries.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunInspectTUI(title string, entries []Entry) (bool, error) {
	m := inspectModel{
		title:   title,
		entries: entries,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(inspectModel)
	return final.wantQuit, nil
}
