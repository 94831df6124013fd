package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/facecapture/internal/command"
	"github.com/hammamikhairi/facecapture/internal/display"
	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/engine"
	"github.com/hammamikhairi/facecapture/internal/logger"
	"github.com/hammamikhairi/facecapture/internal/voice"
)

type cliApp struct {
	session  *engine.Session
	parser   *command.KeywordParser
	listener *voice.Listener // nil when voice commands are off
	log      *logger.Logger
	ui       *display.UI
}

// run reads commands until the session ends or the user quits.
func (a *cliApp) run(ctx context.Context) {
	var voiceCh <-chan string
	if a.listener != nil {
		voiceCh = a.listener.C()
	}
	uiCh := a.ui.InputChan()

	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case <-a.session.Done():
			if line := display.StatusText(a.session.Snapshot()); line != "" {
				a.ui.Print(display.Chat, line)
			}
			return
		case input = <-uiCh:
		case input = <-voiceCh:
			a.ui.Print(display.Voice, input)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}
		cmd := a.parser.Parse(input)
		a.log.Debug("command: %s (angle=%q)", cmd.Type, cmd.Angle)
		if !a.handle(ctx, cmd) {
			return
		}
	}
}

// handle executes one command. Returns false when the loop should stop.
func (a *cliApp) handle(ctx context.Context, cmd command.Command) bool {
	switch cmd.Type {
	case command.Capture:
		a.capture(ctx, cmd.Angle)
	case command.Cancel:
		a.session.Cancel()
	case command.Status:
		a.status()
	case command.Help:
		for _, line := range strings.Split(command.HelpText(), "\n") {
			a.ui.Print(display.Hint, line)
		}
	case command.Quit:
		a.session.Cancel()
		return false
	default:
		a.ui.Print(display.Hint, fmt.Sprintf("I didn't catch %q. Type 'help' for commands.", cmd.Raw))
	}
	return true
}

// capture triggers a manual photo. With no angle named, the current target
// is used.
func (a *cliApp) capture(ctx context.Context, angle domain.Angle) {
	snap := a.session.Snapshot()
	if angle == "" {
		angle = snap.Current
	}

	err := a.session.ManualCapture(ctx, angle)
	switch {
	case err == nil:
		a.ui.Print(display.Chat, fmt.Sprintf("Capturing %s...", angle))
	case errors.Is(err, domain.ErrManualCaptureDisabled):
		a.ui.Print(display.Hint, "Photos are taken automatically. Hold still when your pose matches.")
	case errors.Is(err, domain.ErrNotActiveTarget):
		a.ui.Print(display.Hint, fmt.Sprintf("The current angle is %s. %s.", snap.Current, snap.Current.Instruction()))
	case errors.Is(err, domain.ErrCaptureInProgress):
		a.ui.Print(display.Hint, "Already capturing, one moment.")
	case errors.Is(err, domain.ErrSessionTerminal):
		a.ui.Print(display.Hint, "This session has ended.")
	default:
		a.ui.Print(display.Urgent, fmt.Sprintf("Capture failed: %v", err))
	}
}

func (a *cliApp) status() {
	snap := a.session.Snapshot()
	a.ui.Print(display.Instruction, display.Markers(snap))
	a.ui.Print(display.Instruction, display.ProgressText(snap))
	if line := display.StatusText(snap); line != "" {
		a.ui.Print(display.Chat, line)
	}
	if fb := a.session.Fallback(); !fb.AutomaticAvailable() && fb.Reason() != nil {
		a.ui.Print(display.Hint, fmt.Sprintf("Manual mode: %v", fb.Reason()))
	}
	if n := a.session.Dropped(); n > 0 {
		a.ui.Print(display.Hint, display.DroppedText(n))
	}
}
