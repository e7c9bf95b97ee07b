// Package ui is the bubbletea front end for the interactive picker. It
// renders the session state and translates key presses into controller
// intents; all loading and merging happens on the controller's worker,
// with completions arriving here as messages.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"ctxpick/internal/history"
	"ctxpick/internal/metrics"
	"ctxpick/internal/output"
	"ctxpick/internal/session"
	"ctxpick/internal/source"
)

// Options carries the wired dependencies into the picker.
type Options struct {
	Controller *session.Controller
	Metrics    *metrics.MergeMetrics
	History    *history.Store
	Logger     *slog.Logger
	Target     string
	OutputPath string
}

// focusArea identifies which panel receives key input.
type focusArea int

const (
	focusSource focusArea = iota
	focusFilters
	focusFiles
	focusDest
	focusOutput
	focusCount
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	focusedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	busyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// eventMsg wraps a controller completion event as a tea.Msg.
type eventMsg struct {
	ev session.Event
}

// waitForEvent blocks on the controller's event channel.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

type model struct {
	opts Options
	ctrl *session.Controller

	focus       focusArea
	sourceInput textinput.Model
	searchInput textinput.Model
	outputInput textinput.Model
	lastTarget  string // target of the last requested reload

	files        []source.SourceFile
	filtered     []source.SourceFile
	exts         []string
	fileCursor   int
	filterCursor int
	destIdx      int

	viewport   viewport.Model
	ready      bool
	processing bool
	status     string
	statusErr  bool
}

func newModel(opts Options) model {
	src := textinput.New()
	src.Prompt = ""
	src.SetValue(opts.Target)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "fuzzy search"

	out := textinput.New()
	out.Prompt = ""
	out.SetValue(opts.OutputPath)

	m := model{
		opts:        opts,
		ctrl:        opts.Controller,
		sourceInput: src,
		searchInput: search,
		outputInput: out,
		lastTarget:  opts.Target,
		viewport:    viewport.New(0, 0),
	}
	m.setFocus(focusFiles)
	return m
}

// Run starts the controller worker and runs the picker until quit.
func Run(opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opts.Controller.Start(ctx)

	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	m.ctrl.SetTarget(m.opts.Target)
	m.ctrl.RequestReload()
	return tea.Batch(textinput.Blink, waitForEvent(m.ctrl.Events()))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m.handleEvent(msg.ev)

	case tea.WindowSizeMsg:
		// Panels above and below the file list take a fixed number of rows.
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-12)
		if !m.ready {
			m.ready = true
			m.updateViewportContent()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	m.processing = m.ctrl.Busy()

	switch ev := ev.(type) {
	case session.IndexLoaded:
		if ev.Err != nil {
			m.setStatus(fmt.Sprintf("load failed: %v", ev.Err), true)
		} else {
			m.setStatus(fmt.Sprintf("%d files loaded from %s", len(ev.Files), ev.Target), false)
		}
		m.files = m.ctrl.Files()
		m.exts = m.ctrl.Extensions()
		m.filterCursor = 0
		m.refilter()

	case session.MergeCompleted:
		if ev.Err != nil {
			m.setStatus(fmt.Sprintf("merge failed: %v", ev.Err), true)
		} else {
			m.deliver(ev)
		}
	}

	m.updateViewportContent()
	return m, waitForEvent(m.ctrl.Events())
}

// deliver writes a finished merge to the chosen destination and records it.
func (m *model) deliver(ev session.MergeCompleted) {
	dest := output.Destinations[m.destIdx]
	if err := output.Write(dest, m.outputInput.Value(), ev.Content); err != nil {
		m.setStatus(fmt.Sprintf("output failed: %v", err), true)
		return
	}

	total := m.opts.Metrics.Total()
	m.setStatus(fmt.Sprintf("merged %d files (%d bytes, ~%d tokens) to %s",
		ev.Files, total.Bytes, total.Tokens, dest), false)

	if m.opts.History == nil {
		return
	}
	err := m.opts.History.Record(history.Merge{
		Source:      m.ctrl.Target(),
		FileCount:   ev.Files,
		ByteCount:   total.Bytes,
		TokenCount:  total.Tokens,
		Destination: dest.String(),
	})
	if err != nil && m.opts.Logger != nil {
		m.opts.Logger.Error("record merge history", "error", err)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "f10":
		return m, tea.Quit

	case "f1":
		m.applySource()
		m.ctrl.RequestReload()
		m.processing = true
		return m, nil

	case "f2":
		m.applySource()
		m.ctrl.RequestMerge()
		m.processing = true
		return m, nil

	case "f3":
		m.clearFocusedInput()
		m.refilter()
		m.updateViewportContent()
		return m, nil

	case "tab", "enter":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil
	}

	switch m.focus {
	case focusSource:
		var cmd tea.Cmd
		m.sourceInput, cmd = m.sourceInput.Update(msg)
		return m, cmd

	case focusFilters:
		m.handleFilterKey(msg)
		m.updateViewportContent()
		return m, nil

	case focusFiles:
		return m.handleFileKey(msg)

	case focusDest:
		switch msg.String() {
		case "left", "h":
			m.destIdx = (m.destIdx + len(output.Destinations) - 1) % len(output.Destinations)
		case "right", "l", " ":
			m.destIdx = (m.destIdx + 1) % len(output.Destinations)
		}
		return m, nil

	case focusOutput:
		var cmd tea.Cmd
		m.outputInput, cmd = m.outputInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleFilterKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case "down", "j":
		if m.filterCursor < len(m.exts)-1 {
			m.filterCursor++
		}
	case " ":
		if len(m.exts) > 0 {
			m.ctrl.ToggleExtension(m.exts[m.filterCursor])
		}
	}
}

func (m model) handleFileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.fileCursor > 0 {
			m.fileCursor--
		}
		m.updateViewportContent()
		m.ensureCursorVisible()
		return m, nil
	case "down":
		if m.fileCursor < len(m.filtered)-1 {
			m.fileCursor++
		}
		m.updateViewportContent()
		m.ensureCursorVisible()
		return m, nil
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	case " ":
		if len(m.filtered) > 0 {
			m.ctrl.ToggleFile(m.filtered[m.fileCursor].Path)
			m.updateViewportContent()
		}
		return m, nil
	case "ctrl+a":
		m.ctrl.SelectAll()
		m.updateViewportContent()
		return m, nil
	case "ctrl+q":
		m.ctrl.ClearSelection()
		m.updateViewportContent()
		return m, nil
	}

	// Anything else goes to the fuzzy search box.
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.refilter()
	m.updateViewportContent()
	return m, cmd
}

// applySource retargets the controller if the source input changed since
// the last reload request.
func (m *model) applySource() {
	value := strings.TrimSpace(m.sourceInput.Value())
	if value != "" && value != m.lastTarget {
		m.lastTarget = value
		m.ctrl.SetTarget(value)
	}
}

func (m model) cycleFocus(dir int) model {
	prev := m.focus
	next := focusArea((int(m.focus) + dir + int(focusCount)) % int(focusCount))
	m.setFocus(next)

	// Leaving the source panel with a changed value triggers a reload.
	if prev == focusSource && next != focusSource {
		value := strings.TrimSpace(m.sourceInput.Value())
		if value != "" && value != m.lastTarget {
			m.applySource()
			m.ctrl.RequestReload()
			m.processing = true
		}
	}
	return m
}

func (m *model) setFocus(f focusArea) {
	m.focus = f
	m.sourceInput.Blur()
	m.searchInput.Blur()
	m.outputInput.Blur()
	switch f {
	case focusSource:
		m.sourceInput.Focus()
	case focusFiles:
		m.searchInput.Focus()
	case focusOutput:
		m.outputInput.Focus()
	}
}

func (m *model) clearFocusedInput() {
	switch m.focus {
	case focusSource:
		m.sourceInput.SetValue("")
	case focusFiles:
		m.searchInput.SetValue("")
	case focusOutput:
		m.outputInput.SetValue("")
	}
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// refilter narrows the visible file list by the fuzzy search term.
func (m *model) refilter() {
	m.filtered = filterFiles(m.files, m.searchInput.Value())
	if m.fileCursor >= len(m.filtered) {
		m.fileCursor = max(0, len(m.filtered)-1)
	}
}

// filterFiles returns the files whose paths fuzzy-match term, ranked by
// match quality. An empty term passes everything through in index order.
func filterFiles(files []source.SourceFile, term string) []source.SourceFile {
	if term == "" {
		return files
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	matches := fuzzy.Find(term, paths)
	out := make([]source.SourceFile, 0, len(matches))
	for _, match := range matches {
		out = append(out, files[match.Index])
	}
	return out
}

func (m *model) updateViewportContent() {
	var sb strings.Builder
	for i, f := range m.filtered {
		cursor := " "
		if i == m.fileCursor && m.focus == focusFiles {
			cursor = ">"
		}
		check := " "
		if m.ctrl.IsSelected(f.Path) {
			check = "x"
		}
		line := fmt.Sprintf("%s [%s] %s", cursor, check, f.Path)
		if i == m.fileCursor && m.focus == focusFiles {
			line = cursorStyle.Render(line)
		} else if check == "x" {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	m.viewport.SetContent(sb.String())
}

func (m *model) ensureCursorVisible() {
	top := m.viewport.YOffset
	bottom := m.viewport.YOffset + m.viewport.Height - 1
	if m.fileCursor < top {
		m.viewport.SetYOffset(m.fileCursor)
	} else if m.fileCursor > bottom {
		m.viewport.SetYOffset(m.fileCursor - m.viewport.Height + 1)
	}
}

func (m model) panelTitle(label string, f focusArea) string {
	if m.focus == f {
		return focusedStyle.Render("[" + label + "]")
	}
	return titleStyle.Render(" " + label + " ")
}

func (m model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	sb.WriteString(m.panelTitle("Source", focusSource) + " " + m.sourceInput.View() + "\n")
	sb.WriteString(m.panelTitle("Filters", focusFilters) + " " + m.filtersView() + "\n")

	sb.WriteString(m.panelTitle("Files", focusFiles) + " " + m.searchInput.View() + "\n")
	sb.WriteString(m.viewport.View() + "\n")

	sb.WriteString(m.panelTitle("Output", focusDest) + " " + m.destView())
	sb.WriteString("  " + m.panelTitle("File", focusOutput) + " " + m.outputInput.View() + "\n")

	selected, total := m.ctrl.SelectionCount()
	statusLine := fmt.Sprintf("%d/%d files, %d selected", len(m.filtered), total, selected)
	if m.processing {
		statusLine += "  " + busyStyle.Render("Processing...")
	} else if m.status != "" {
		if m.statusErr {
			statusLine += "  " + errStyle.Render(m.status)
		} else {
			statusLine += "  " + m.status
		}
	}
	sb.WriteString(statusLine + "\n")

	hints := "Tab cycle | Space toggle | F1 reload | F2 merge | F3 clear | F10 quit"
	sb.WriteString(dimStyle.Render(hints))

	return sb.String()
}

// filtersView renders the extension toggles on one line.
func (m model) filtersView() string {
	if len(m.exts) == 0 {
		return dimStyle.Render("(no files loaded)")
	}
	parts := make([]string, 0, len(m.exts))
	for i, ext := range m.exts {
		check := " "
		if m.ctrl.IsExtensionSelected(ext) {
			check = "x"
		}
		part := fmt.Sprintf("[%s] %s", check, ext)
		if i == m.filterCursor && m.focus == focusFilters {
			part = cursorStyle.Render(part)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

// destView renders the destination tabs.
func (m model) destView() string {
	parts := make([]string, 0, len(output.Destinations))
	for i, d := range output.Destinations {
		label := d.String()
		if i == m.destIdx {
			label = focusedStyle.Render("<" + label + ">")
		} else {
			label = dimStyle.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}
