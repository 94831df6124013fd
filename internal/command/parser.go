// Package command turns typed or spoken input into session commands and
// prints notices back to the terminal.
package command

import (
	"regexp"
	"strings"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Type is what the user asked for.
type Type string

const (
	Capture Type = "capture"
	Cancel  Type = "cancel"
	Status  Type = "status"
	Help    Type = "help"
	Quit    Type = "quit"
	Unknown Type = "unknown"
)

// Command is a parsed user request. Angle is set when the user named one,
// e.g. "capture left".
type Command struct {
	Type  Type
	Angle domain.Angle
	Raw   string
}

// KeywordParser matches input to commands using keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex *regexp.Regexp
	typ   Type
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`^(capture|snap|shoot|take( it| photo| picture)?|cheese|now|c)\b`), Capture},
		{regexp.MustCompile(`^(cancel|abort|stop|restart)$`), Cancel},
		{regexp.MustCompile(`^(status|where|progress|info)$`), Status},
		{regexp.MustCompile(`^(help|h|\?)$`), Help},
		{regexp.MustCompile(`^(quit|exit|q|bye)$`), Quit},
	}
	return p
}

// Parse converts user input into a command.
func (p *KeywordParser) Parse(input string) Command {
	cleaned := Clean(input)
	if cleaned == "" {
		return Command{Type: Unknown, Raw: input}
	}

	p.log.Debug("parsing input: %q", cleaned)

	for _, rule := range p.patterns {
		if !rule.regex.MatchString(cleaned) {
			continue
		}
		cmd := Command{Type: rule.typ, Raw: input}
		if rule.typ == Capture {
			cmd.Angle = findAngle(cleaned)
		}
		p.log.Debug("matched command: %s", cmd.Type)
		return cmd
	}

	p.log.Debug("no match, returning unknown command")
	return Command{Type: Unknown, Raw: input}
}

// noise matches transcription artefacts such as "[BLANK_AUDIO]" or "(music)".
var noise = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Clean normalises typed and transcribed input: lower case, no bracketed
// annotations, no punctuation other than '?', single spaces.
func Clean(s string) string {
	s = noise.ReplaceAllString(strings.ToLower(s), " ")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '?', r == '\'':
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func findAngle(s string) domain.Angle {
	for _, word := range strings.Fields(s) {
		if a, ok := domain.ParseAngle(word); ok {
			return a
		}
	}
	return ""
}

// HelpText lists the commands.
func HelpText() string {
	return strings.Join([]string{
		"capture   take the photo for the current angle (manual mode)",
		"status    show progress",
		"cancel    abandon this session",
		"quit      exit",
	}, "\n")
}
