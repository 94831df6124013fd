package command

import (
	"testing"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)

	tests := []struct {
		input     string
		wantType  Type
		wantAngle domain.Angle
	}{
		// Capture variants
		{"capture", Capture, ""},
		{"Capture!", Capture, ""},
		{"snap", Capture, ""},
		{"take a picture", Capture, ""},
		{"c", Capture, ""},
		{"capture left", Capture, domain.AngleLeft},
		{"Capture, down.", Capture, domain.AngleDown},

		// Cancel
		{"cancel", Cancel, ""},
		{"stop", Cancel, ""},

		// Status
		{"status", Status, ""},
		{"progress", Status, ""},

		// Help
		{"help", Help, ""},
		{"?", Help, ""},

		// Quit
		{"quit", Quit, ""},
		{"q", Quit, ""},

		// Unknown
		{"", Unknown, ""},
		{"what is this", Unknown, ""},
		{"candle", Unknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := parser.Parse(tt.input)
			if cmd.Type != tt.wantType {
				t.Fatalf("Parse(%q) = %s, want %s", tt.input, cmd.Type, tt.wantType)
			}
			if cmd.Angle != tt.wantAngle {
				t.Fatalf("Parse(%q) angle = %q, want %q", tt.input, cmd.Angle, tt.wantAngle)
			}
		})
	}
}

func TestCleanTranscripts(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Capture.  ", "capture"},
		{"[BLANK_AUDIO]", ""},
		{"(music) capture now", "capture now"},
		{"Stop!!", "stop"},
		{"what?", "what?"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
