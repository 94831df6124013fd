// FaceCapture: guided five-angle face photo capture.
//
// Usage:
//
//	facecapture [flags]             run a capture session
//	facecapture [flags] list        list stored face records
//	facecapture [flags] show ID     print one record and its images
//	facecapture [flags] delete ID   delete a stored record
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hammamikhairi/facecapture/internal/audio"
	"github.com/hammamikhairi/facecapture/internal/camera"
	"github.com/hammamikhairi/facecapture/internal/command"
	"github.com/hammamikhairi/facecapture/internal/config"
	"github.com/hammamikhairi/facecapture/internal/detector"
	"github.com/hammamikhairi/facecapture/internal/display"
	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/engine"
	"github.com/hammamikhairi/facecapture/internal/headpose"
	"github.com/hammamikhairi/facecapture/internal/logger"
	"github.com/hammamikhairi/facecapture/internal/storage"
	"github.com/hammamikhairi/facecapture/internal/timer"
	"github.com/hammamikhairi/facecapture/internal/voice"
)

func main() {
	os.Exit(run())
}

// run holds every deferred cleanup so they execute before os.Exit.
func run() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	subject := flag.String("subject", "", "name stored with the face record")
	manual := flag.Bool("manual", false, "allow typed 'capture' even when automatic detection works")
	noAudio := flag.Bool("no-audio", false, "disable feedback tones")
	voiceOn := flag.Bool("voice", false, "enable voice commands via local Whisper STT")
	device := flag.Int("device", -1, "camera device index")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	// Flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose":
			if *verbose {
				cfg.Log.Level = "verbose"
			}
		case "quiet":
			if *quiet {
				cfg.Log.Level = "off"
			}
		case "log-file":
			cfg.Log.File = *logFile
		case "subject":
			cfg.Subject = *subject
		case "manual":
			cfg.Manual = *manual
		case "no-audio":
			cfg.Audio.Enabled = !*noAudio
		case "voice":
			cfg.Voice.Enabled = *voiceOn
		case "device":
			cfg.Camera.Device = *device
		}
	})

	logOut := openLog(cfg.Log)
	if c, ok := logOut.(io.Closer); ok {
		defer c.Close()
	}

	// Route third-party output from the standard log package (the whisper
	// transcriber uses it) away from the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(parseLevel(cfg.Log.Level), logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := buildStore(ctx, cfg, log.Named("store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeStore()

	ui := display.NewUI()
	notifier := command.NewCLINotifier(log.Named("notify"), ui.Printf)
	opts := []engine.Option{engine.WithNotifier(notifier)}

	args := flag.Args()
	if len(args) == 0 {
		var cue domain.Cue = audio.Silent{}
		if cfg.Audio.Enabled {
			chime, err := audio.NewChime(cfg.Audio.Volume, log.Named("audio"))
			if err != nil {
				log.Error("audio init failed, tones disabled: %v", err)
			} else {
				cue = chime
			}
		}
		opts = append(opts, engine.WithCue(cue))
	}
	eng := engine.New(store, log.Named("engine"), opts...)

	if len(args) > 0 {
		return runSubcommand(ctx, eng, args)
	}
	return runSession(ctx, cancel, cfg, eng, ui, notifier, log)
}

// runSession captures one face record. Returns the process exit code.
func runSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, eng *engine.Engine, ui *display.UI, notifier domain.Notifier, log *logger.Logger) int {
	cam, err := camera.Open(camera.Config{
		Device:      cfg.Camera.Device,
		StillDir:    cfg.Camera.StillDir,
		JPEGQuality: cfg.Camera.JPEGQuality,
	}, log.Named("camera"))
	if err != nil {
		if errors.Is(err, domain.ErrCameraPermissionDenied) {
			fmt.Fprintln(os.Stderr, "Camera access was denied or no camera is available.")
			fmt.Fprintln(os.Stderr, "Grant camera permission to this terminal and try again.")
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	defer cam.Close()

	dcfg := detector.Config{
		OnnxLib:   cfg.Detector.OnnxLib,
		Model:     cfg.Detector.Model,
		Cascade:   cfg.Detector.Cascade,
		InputSize: cfg.Detector.InputSize,
		Margin:    cfg.Detector.Margin,
		FlipYaw:   cfg.Detector.FlipYaw,
		FlipPitch: cfg.Detector.FlipPitch,
		MinFace:   cfg.Detector.MinFace,
	}
	if cfg.Detector.ModelURL != "" {
		client := &http.Client{Timeout: 2 * time.Minute}
		fetched, err := headpose.EnsureModel(ctx, client, dcfg.Model, cfg.Detector.ModelURL)
		switch {
		case err != nil:
			log.Warn("model download failed: %v", err)
		case fetched:
			log.Info("downloaded head-pose model to %s", dcfg.Model)
		}
	}
	status, reason := detector.Probe(dcfg)

	var sampler engine.Sampler
	if reason == nil {
		hp, err := detector.New(dcfg, cam, log.Named("detector"))
		if err != nil {
			status.ModelLoaded = false
			reason = err
		} else {
			defer hp.Close()
			sampler = hp
		}
	}
	if reason != nil {
		log.Warn("automatic detection unavailable: %v", reason)
	}
	fallback := engine.NewFallback(status.PlatformSupported, status.ModelLoaded, cfg.Manual, reason)

	sess := eng.StartSession(cam, cfg.Subject, fallback)
	ui.Watch(sess)

	supervisor := timer.New(sess, notifier, log.Named("reminder"),
		timer.WithReminderInterval(cfg.Reminder.Interval),
		timer.WithNotifyCooldown(cfg.Reminder.Cooldown),
	)
	supervisor.Start(ctx)
	defer supervisor.Stop()

	if sampler != nil {
		feed := engine.NewFeed(sampler, sess, log.Named("feed"), engine.WithInterval(cfg.Detector.Interval))
		go feed.Run(ctx)
	}

	var listener *voice.Listener
	if cfg.Voice.Enabled {
		if _, err := os.Stat(cfg.Voice.Model); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", cfg.Voice.Model)
			return 1
		}
		if err := voice.PrepareTempDir(cfg.Voice.TempDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (voice commands disabled)\n", err)
			log.Warn("voice disabled: %v", err)
		} else {
			listener = voice.NewListener(cfg.Voice.WhisperBin, cfg.Voice.Model, log.Named("voice"),
				voice.WithClipDuration(cfg.Voice.Clip),
				voice.WithTempDir(cfg.Voice.TempDir),
			)
			go listener.Run(ctx)
		}
	}

	app := &cliApp{
		session:  sess,
		parser:   command.NewKeywordParser(log.Named("parser")),
		listener: listener,
		log:      log,
		ui:       ui,
	}

	fmt.Println(display.RenderBanner())
	if fallback.AutomaticAvailable() {
		fmt.Println(display.BannerStyle.Render("  Follow the prompts. Photos are taken automatically when you hold still."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Manual mode: type 'capture' when you are in position."))
	}
	if listener != nil {
		fmt.Println(display.BannerStyle.Render("  Voice commands ON: say \"capture\" or \"cancel\"."))
	}
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	outcomeCh := make(chan engine.Outcome, 1)
	go func() {
		outcomeCh <- sess.Run(ctx)
	}()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()

	outcome := <-outcomeCh
	return report(outcome)
}

// report prints how the session ended and returns the exit code.
func report(out engine.Outcome) int {
	switch {
	case out.Err != nil:
		fmt.Fprintf(os.Stderr, "Capture failed: %v\n", out.Err)
		return 1
	case out.Record != nil:
		fmt.Printf("Saved face record %s (%d images)\n", out.Record.ID, len(out.Record.Images))
		for _, img := range out.Record.Images {
			fmt.Printf("  %-6s %s\n", img.Angle, img.URI)
		}
		return 0
	default:
		fmt.Println("Capture cancelled. No record was saved.")
		return 0
	}
}

// buildStore picks the record store backend and wraps it with the S3
// mirror when uploads are enabled.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.RecordStore, func(), error) {
	var (
		store   domain.RecordStore
		closeFn = func() {}
	)

	switch cfg.Store.Backend {
	case "redis":
		rs, err := storage.NewRedisStore(ctx, storage.RedisOptions{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		store = rs
		closeFn = func() { rs.Close() }
	default:
		store = storage.NewMemoryStore(log)
	}

	if cfg.Upload.Enabled {
		opts := storage.S3Options{
			Bucket:          cfg.Upload.Bucket,
			Prefix:          cfg.Upload.Prefix,
			Region:          cfg.Upload.Region,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
		}
		sess, err := storage.NewS3Session(opts)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("s3 session: %w", err)
		}
		store = storage.NewS3MirrorFromSession(store, sess, opts, log)
	}
	return store, closeFn, nil
}

// runSubcommand handles record management. Returns the exit code.
func runSubcommand(ctx context.Context, eng *engine.Engine, args []string) int {
	switch args[0] {
	case "list":
		recs, err := eng.ListRecords(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if len(recs) == 0 {
			fmt.Println("No face records.")
			return 0
		}
		for _, r := range recs {
			fmt.Printf("%s  %-16s %d images  %s\n", r.ID, r.Subject, len(r.Images), r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return 0

	case "show":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: facecapture show ID")
			return 2
		}
		rec, err := eng.GetRecord(ctx, args[1])
		if err != nil {
			return recordError(args[1], err)
		}
		fmt.Printf("Face record %s\n", rec.ID)
		fmt.Printf("  subject  %s\n", rec.Subject)
		fmt.Printf("  session  %s\n", rec.SessionID)
		fmt.Printf("  created  %s\n", rec.CreatedAt.Format(time.RFC3339))
		for _, img := range rec.Images {
			fmt.Printf("  %-6s %s\n", img.Angle, img.URI)
		}
		return 0

	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: facecapture delete ID")
			return 2
		}
		if err := eng.DeleteRecord(ctx, args[1]); err != nil {
			return recordError(args[1], err)
		}
		fmt.Printf("Deleted %s\n", args[1])
		return 0
	}

	fmt.Fprintf(os.Stderr, "unknown command %q (want list, show or delete)\n", args[0])
	return 2
}

func recordError(id string, err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "no record %s\n", id)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return 1
}

// openLog returns the log destination. Files are rotated by lumberjack;
// "stderr" or an empty path logs to the console.
func openLog(c config.LogConfig) io.Writer {
	if c.File == "" || c.File == "stderr" {
		return os.Stderr
	}
	if dir := filepath.Dir(c.File); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create log dir %s: %v (falling back to stderr)\n", dir, err)
			return os.Stderr
		}
	}
	return &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	}
}

func parseLevel(s string) logger.Level {
	switch strings.ToLower(s) {
	case "off":
		return logger.LevelOff
	case "verbose":
		return logger.LevelVerbose
	}
	return logger.LevelNormal
}
