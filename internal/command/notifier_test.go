package command

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hammamikhairi/facecapture/internal/logger"
)

func TestCLINotifier(t *testing.T) {
	var lines []string
	n := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, a...))
	})
	ctx := context.Background()

	n.Notify(ctx, "look left")
	n.Notify(ctx, "look left")
	if len(lines) != 1 {
		t.Fatalf("expected repeated notice suppressed, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], cyan) {
		t.Fatalf("expected cyan notice, got %q", lines[0])
	}

	n.NotifyUrgent(ctx, "capture failed")
	n.NotifyUrgent(ctx, "capture failed")
	if len(lines) != 3 || !strings.Contains(lines[2], red) {
		t.Fatalf("expected two red alerts, got %q", lines)
	}

	n.Notify(ctx, "look left")
	if len(lines) != 4 {
		t.Fatalf("expected notice after alert to print, got %d lines", len(lines))
	}
}
