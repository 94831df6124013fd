package display

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// prompt is plain text so the textinput width math stays correct.
const prompt = "face> "

// refreshInterval is how often the panel re-reads the snapshot.
const refreshInterval = 100 * time.Millisecond

type tickMsg time.Time

// model is the Bubble Tea model: a status panel over a one-line prompt.
type model struct {
	snapshot func() (domain.SessionState, bool)
	input    textinput.Model
	inputCh  chan<- string
	readyCh  chan struct{}
	echo     func(string)

	view  domain.SessionState
	shown bool
	width int
}

func newModel(snapshot func() (domain.SessionState, bool), inputCh chan<- string, readyCh chan struct{}, echo func(string)) model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = toneStyles[Instruction]
	ti.Cursor.Style = promptStyle
	ti.CharLimit = 120
	ti.Width = 60
	ti.Focus()

	return model{
		snapshot: snapshot,
		input:    ti,
		inputCh:  inputCh,
		readyCh:  readyCh,
		echo:     echo,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tick()}
	if m.readyCh != nil {
		ready := m.readyCh
		cmds = append(cmds, func() tea.Msg {
			close(ready)
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m.submit("cancel")
		case tea.KeyEnter:
			v := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if v == "" {
				return m, nil
			}
			return m.submit(v)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt) - 1
		}
		return m, nil

	case tickMsg:
		m.view, m.shown = m.snapshot()
		title := "Face Capture"
		if m.shown {
			title += ": " + ProgressText(m.view)
		}
		return m, tea.Batch(tick(), tea.SetWindowTitle(title))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands v to the application and echoes it from a Cmd, since
// printing from inside Update would deadlock the program.
func (m model) submit(v string) (tea.Model, tea.Cmd) {
	select {
	case m.inputCh <- v:
	default:
		return m, nil
	}
	echo := m.echo
	return m, func() tea.Msg {
		if echo != nil {
			echo(v)
		}
		return nil
	}
}

func (m model) View() string {
	var b strings.Builder
	if m.shown {
		b.WriteString(m.panel())
		b.WriteString("\n\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) panel() string {
	s := m.view
	width := m.width
	if width <= 0 {
		width = 80
	}

	header := " " + Markers(s) + dimStyle.Render("  |  ") +
		progressStyle.Render(ProgressBar(s, 20)) + " " + ProgressText(s)

	status := statusStyle.Render(StatusText(s))
	if c := CountdownText(s); c != "" {
		status += "  " + countdownStyle.Render(c)
	}
	return panelBg.Width(width).Render(header) + "\n " + status
}
