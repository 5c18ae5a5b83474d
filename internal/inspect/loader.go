package inspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobflow/internal/model"
)

// ErrCancelled is returned when the user aborts a fetch.
var ErrCancelled = errors.New("cancelled")

type fetchDoneMsg struct {
	chunk model.Chunk
	err   error
}

type loaderModel struct {
	sourceName string
	fetchFn    func(ctx context.Context) (model.Chunk, error)
	spinner    spinner.Model
	result     model.Chunk
	err        error
	done       bool
}

func newLoaderModel(sourceName string, fetchFn func(ctx context.Context) (model.Chunk, error)) loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{sourceName: sourceName, fetchFn: fetchFn, spinner: s}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doFetch(), m.spinner.Tick)
}

func (m loaderModel) doFetch() tea.Cmd {
	fetchFn := m.fetchFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		chunk, err := fetchFn(ctx)
		return fetchDoneMsg{chunk: chunk, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.result = msg.chunk
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Fetching one chunk from %s...\n", m.spinner.View(), m.sourceName)
}

// RunLoader shows a spinner while fetching a chunk. It renders inline (no alt screen).
func RunLoader(sourceName string, fetchFn func(ctx context.Context) (model.Chunk, error)) (model.Chunk, error) {
	p := tea.NewProgram(newLoaderModel(sourceName, fetchFn))
	result, err := p.Run()
	if err != nil {
		return model.Chunk{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
