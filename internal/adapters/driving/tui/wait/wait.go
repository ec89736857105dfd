// Package wait provides the terminal view shown while an interactive
// sign-in is outstanding.
package wait

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gsignin/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gsignin/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// ErrDetached is returned when the user stopped waiting before the call settled.
var ErrDetached = errors.New("stopped waiting")

// settledMsg is sent once the call has settled.
type settledMsg struct{}

// Model is a bubbletea model that spins until a call settles.
type Model[T any] struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	spinner spinner.Model
	call    *domain.Call[T]
	title   string

	settled  bool
	detached bool
}

// NewModel creates a wait view for call.
func NewModel[T any](s *styles.Styles, call *domain.Call[T], title string) *Model[T] {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner))
	return &Model[T]{
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		call:    call,
		title:   title,
	}
}

// Init starts the spinner and the settle watch.
func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.awaitSettle)
}

func (m *Model[T]) awaitSettle() tea.Msg {
	<-m.call.Done()
	return settledMsg{}
}

// Update handles messages for the wait view.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.settled = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Detach) {
			m.detached = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the wait view.
func (m *Model[T]) View() string {
	if m.settled || m.detached {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("Finish signing in in your browser."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

// Settled reports whether the call settled while the view was running.
func (m *Model[T]) Settled() bool {
	return m.settled
}

// Detached reports whether the user stopped waiting.
func (m *Model[T]) Detached() bool {
	return m.detached
}

// Run shows the wait view on out until call settles, then returns its
// outcome. If the user stops waiting, ErrDetached is returned and the call
// keeps running in the background.
func Run[T any](ctx context.Context, call *domain.Call[T], title string, in io.Reader, out io.Writer) (T, error) {
	var zero T
	if call.Settled() {
		return call.Wait(ctx)
	}

	model := NewModel(nil, call, title)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return zero, fmt.Errorf("running wait view: %w", err)
	}

	if model.Detached() {
		return zero, ErrDetached
	}
	return call.Wait(ctx)
}
