// Package voice turns short microphone clips into text commands using a
// local Whisper model.
package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Option configures a Listener.
type Option func(*Listener)

// WithClipDuration sets how long each recorded clip lasts.
func WithClipDuration(d time.Duration) Option {
	return func(l *Listener) { l.clip = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) Option {
	return func(l *Listener) { l.tempDir = dir }
}

// Listener records fixed-length clips back to back and publishes every
// non-empty transcription on C. Commands are short ("capture", "cancel")
// so no wake word is needed.
type Listener struct {
	whisperBin string
	modelPath  string
	tempDir    string
	clip       time.Duration
	log        *logger.Logger

	mu     sync.Mutex
	paused bool
	textCh chan string
}

// NewListener creates a voice command listener.
//
//   - whisperBin: path to the whisper-cli executable
//   - modelPath:  path to the GGML model file
func NewListener(whisperBin, modelPath string, log *logger.Logger, opts ...Option) *Listener {
	l := &Listener{
		whisperBin: whisperBin,
		modelPath:  modelPath,
		tempDir:    ".facecapture-stt",
		clip:       2 * time.Second,
		log:        log,
		textCh:     make(chan string, 8),
	}
	for _, opt := range opts {
		opt(l)
	}

	if _, err := exec.LookPath(l.whisperBin); err != nil {
		log.Error("voice: whisper binary %q not found in PATH: %v", l.whisperBin, err)
	}
	return l
}

// PrepareTempDir creates dir for clip files and checks it is writable.
func PrepareTempDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating voice temp dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		return fmt.Errorf("voice temp dir %s not writable: %w", dir, err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// C returns the channel that receives transcribed commands.
func (l *Listener) C() <-chan string { return l.textCh }

// Pause stops recording until Resume is called.
func (l *Listener) Pause() {
	l.mu.Lock()
	l.paused = true
	l.mu.Unlock()
}

// Resume re-enables recording.
func (l *Listener) Resume() {
	l.mu.Lock()
	l.paused = false
	l.mu.Unlock()
}

func (l *Listener) isPaused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Run records until ctx is cancelled. Call it in a goroutine.
func (l *Listener) Run(ctx context.Context) {
	l.log.Info("voice: listening (clip=%s)", l.clip)
	for {
		select {
		case <-ctx.Done():
			l.log.Info("voice: stopped")
			return
		default:
		}

		if l.isPaused() {
			select {
			case <-time.After(200 * time.Millisecond):
			case <-ctx.Done():
			}
			continue
		}

		text := Clean(l.recordClip(ctx))
		if text == "" {
			continue
		}
		l.log.Debug("voice: heard %q", text)

		select {
		case l.textCh <- text:
		case <-ctx.Done():
		default:
			l.log.Warn("voice: dropping %q, consumer is behind", text)
		}
	}
}

// recordClip records one clip and returns its transcription.
func (l *Listener) recordClip(ctx context.Context) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := l.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(
		l.whisperBin,
		l.modelPath,
		l.tempDir,
		"wav",
		callback,
		verbose,
	)
	if err != nil {
		l.log.Error("voice: transcriber init failed: %v", err)
		l.backoff(ctx)
		return ""
	}

	if err := t.Start(); err != nil {
		l.log.Error("voice: recording start failed: %v", err)
		l.backoff(ctx)
		return ""
	}

	select {
	case <-time.After(l.clip):
	case <-ctx.Done():
	}

	t.Stop()
	wg.Wait()
	return result
}

func (l *Listener) backoff(ctx context.Context) {
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
	}
}

// annotation matches whisper sound tags such as "(keyboard clicking)"
// or "[BLANK_AUDIO]".
var annotation = regexp.MustCompile(`[\(\[][a-zA-Z_][a-zA-Z_\s]*[\)\]]`)

// timestamp matches a leading "[00:00:00.000 --> 00:00:02.000]".
var timestamp = regexp.MustCompile(`^\[[0-9:.]+\s*-->\s*[0-9:.]+\]`)

// hallucinations are phrases whisper emits for silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
}

// Clean strips whisper artifacts and returns "" when nothing meaningful
// was said.
func Clean(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	s = strings.TrimSpace(s)
	s = timestamp.ReplaceAllString(s, "")
	s = annotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
