package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Display renders per-member scan/transfer progress. In interactive mode it
// runs a bubbletea program with a spinner and progress bar; otherwise it
// prints plain lines suitable for logs.
//
// One Display handles one member at a time: Begin, any number of Update and
// Retry calls, then End.
type Display struct {
	interactive bool
	program     *tea.Program
	label       string
}

// NewDisplay creates a Display matching the detected terminal mode.
func NewDisplay() *Display {
	return &Display{interactive: IsInteractive()}
}

// Begin starts progress rendering for one member.
func (d *Display) Begin(label string) {
	d.label = label
	if !d.interactive {
		fmt.Fprintf(os.Stderr, "%s %s\n", SymbolSpinner, label)
		return
	}
	m := newProgressModel(label)
	d.program = tea.NewProgram(m, tea.WithOutput(os.Stderr))
	go func() {
		// Rendering errors must never fail an import.
		_, _ = d.program.Run()
	}()
}

// Update reports bytes done out of total.
func (d *Display) Update(done, total int64) {
	if d.program == nil {
		return
	}
	d.program.Send(progressMsg{done: done, total: total})
}

// Retry reports a transfer attempt failure and the next chunk exponent.
func (d *Display) Retry(exponent int) {
	if !d.interactive {
		fmt.Fprintf(os.Stderr, "  chunk 2^%d failed; backing off\n", exponent)
		return
	}
	d.program.Send(retryMsg{exponent: exponent})
}

// End finishes rendering for the member, showing success or failure.
func (d *Display) End(err error) {
	if !d.interactive {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", SymbolCross, d.label, err)
		} else {
			fmt.Fprintf(os.Stderr, "%s %s\n", SymbolCheck, d.label)
		}
		return
	}
	d.program.Send(doneMsg{err: err})
	d.program.Wait()
	d.program = nil
}

type progressMsg struct {
	done  int64
	total int64
}

type retryMsg struct {
	exponent int
}

type doneMsg struct {
	err error
}

type progressModel struct {
	spinner  spinner.Model
	bar      progress.Model
	label    string
	detail   string
	done     int64
	total    int64
	finished bool
	err      error
}

func newProgressModel(label string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return progressModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		label:   label,
	}
}

// Init implements tea.Model.
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case retryMsg:
		m.detail = fmt.Sprintf("chunk 2^%d failed; backing off", msg.exponent)
		m.done = 0
		return m, nil
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m progressModel) View() string {
	if m.finished {
		if m.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+m.label+": "+m.err.Error()) + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+m.label) + "\n"
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	line := m.spinner.View() + " " + LabelStyle.Render(m.label) + " " + m.bar.ViewAs(pct)
	if m.detail != "" {
		line += "\n  " + DetailStyle.Render(m.detail)
	}
	return line + "\n"
}
