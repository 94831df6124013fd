package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*CLINotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes notices in cyan and alerts in bold red. Repeating
// the previous notice verbatim is suppressed.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc

	mu   sync.Mutex
	last string
}

// NewCLINotifier creates a terminal notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a persistent notice.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.mu.Lock()
	dup := message == n.last
	n.last = message
	n.mu.Unlock()
	if dup {
		n.log.Debug("notify (repeat suppressed): %s", message)
		return nil
	}

	n.log.Debug("notify: %s", message)
	n.printFn("%s%s%s", cyan, message, reset)
	return nil
}

// NotifyUrgent prints a transient alert. Alerts are never suppressed.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.mu.Lock()
	n.last = ""
	n.mu.Unlock()

	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}
