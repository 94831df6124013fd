// Package display draws the capture status panel and the command prompt
// with Bubble Tea.
//
// Everything the application prints goes through [UI.Print], which hands
// the line to the running program so it lands above the panel instead of
// tearing through it.
package display

import (
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Tone selects how a printed line is styled.
type Tone int

const (
	Chat        Tone = iota // conversational feedback
	Instruction             // primary information
	Hint                    // dimmed help text
	Urgent                  // errors and alerts
	Voice                   // a transcribed voice command
	Echo                    // a typed command echoed back
)

var (
	panelBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#1e293b")).
		Foreground(lipgloss.Color("#cbd5e1"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac")).
			Bold(true)

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dd3fc"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is used for the startup banner and intro lines.
	BannerStyle = promptStyle

	toneStyles = map[Tone]lipgloss.Style{
		Chat:        lipgloss.NewStyle().Foreground(lipgloss.Color("#bae6fd")),
		Instruction: lipgloss.NewStyle().Foreground(lipgloss.Color("#e2e8f0")),
		Hint:        dimStyle,
		Urgent:      lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")).Bold(true),
	}
)

// UI owns the terminal while a session runs. Create it with [NewUI] and
// block in [UI.Run]; other goroutines may call Print, Printf and Watch and
// read [UI.InputChan] once [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	source  atomic.Pointer[sourceRef]
	stopped atomic.Bool
}

type sourceRef struct{ domain.SnapshotSource }

// NewUI creates the display. Call Run to start it.
func NewUI() *UI {
	return &UI{
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
	}
}

// Watch makes the status panel follow src. Pass nil to hide the panel.
func (u *UI) Watch(src domain.SnapshotSource) {
	if src == nil {
		u.source.Store(nil)
		return
	}
	u.source.Store(&sourceRef{src})
}

func (u *UI) snapshot() (domain.SessionState, bool) {
	ref := u.source.Load()
	if ref == nil {
		return domain.SessionState{}, false
	}
	return ref.Snapshot(), true
}

// Print writes one styled line above the panel.
func (u *UI) Print(tone Tone, text string) {
	u.line(render(tone, text))
}

// Printf writes one unstyled formatted line above the panel. It matches
// command.PrintFunc.
func (u *UI) Printf(format string, a ...interface{}) {
	u.line(fmt.Sprintf(format, a...))
}

func (u *UI) line(s string) {
	if u.program != nil && !u.stopped.Load() {
		u.program.Println(s)
		return
	}
	fmt.Println(s)
}

func render(tone Tone, text string) string {
	switch tone {
	case Voice:
		return dimStyle.Render("[voice] ") + toneStyles[Instruction].Render(text)
	case Echo:
		return promptStyle.Render(prompt) + dimStyle.Render(text)
	}
	return toneStyles[tone].Render("  " + text)
}

// InputChan returns submitted input lines. Pressing Esc submits "cancel".
func (u *UI) InputChan() <-chan string { return u.inputCh }

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit asks the program to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the event loop and blocks until the program exits.
func (u *UI) Run() error {
	m := newModel(u.snapshot, u.inputCh, u.readyCh, func(v string) {
		u.Print(Echo, v)
	})
	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.stopped.Store(true)
	return err
}
