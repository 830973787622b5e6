package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/api"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/config"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/export"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/logging"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/storage"
	"github.com/spf13/pflag"
)

var version = "dev"

const usage = `usage: lecture-notes <command> [flags]

commands:
  serve     run the HTTP API
  process   process one audio file and write exports
  version   print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "process":
		err = process(os.Args[2:])
	case "version":
		fmt.Println(version)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func commonFlags(fs *pflag.FlagSet) *config.Overrides {
	overrides := &config.Overrides{}
	fs.StringVar(&overrides.EnvFile, "env", "", "settings file (default $SETTINGS_FILE or .env)")
	fs.StringVar(&overrides.LogLevel, "log-level", "", "log level override")
	return overrides
}

func loadConfig(overrides config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, nil
}

// newSink prefers S3 when a bucket is configured and verifies access up front.
func newSink(ctx context.Context, cfg *config.Config, localDir string) (storage.Sink, error) {
	if !cfg.S3Enabled() {
		return storage.NewLocalSink(localDir), nil
	}

	sink, err := storage.NewS3Sink(ctx, cfg.S3Options())
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sink.HeadBucket(checkCtx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w", cfg.S3Bucket, cfg.S3Endpoint, err)
	}
	return sink, nil
}

func serve(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	overrides := commonFlags(fs)
	fs.StringVar(&overrides.HTTPAddr, "addr", "", "listen address override")
	fs.StringVar(&overrides.ExportDir, "export-dir", "", "local export directory override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*overrides)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.NewLogger(ctx)
	log.Infof("lecture-notes starting version=%s addr=%s", version, cfg.HTTPAddr)

	defaults, err := cfg.DefaultRequest()
	if err != nil {
		return err
	}
	sink, err := newSink(ctx, cfg, cfg.ExportDir)
	if err != nil {
		return err
	}

	reg := cfg.Registry()
	router := api.NewRouter(api.Deps{
		Runner:   orchestrator.New(reg),
		Catalog:  reg,
		Sink:     sink,
		Defaults: defaults,
		Logger:   logging.Base(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http server shutdown error: %v", err)
	}
	log.Infof("lecture-notes stopped")
	return nil
}

func process(args []string) error {
	fs := pflag.NewFlagSet("process", pflag.ExitOnError)
	overrides := commonFlags(fs)
	audioPath := fs.String("audio", "", "lecture audio file (required)")
	outDir := fs.String("out", "", "output directory (default $EXPORT_DIR)")
	formats := fs.String("formats", "md", "comma separated export formats: txt,md,pdf,docx")
	noNotes := fs.Bool("no-notes", false, "skip notes")
	noQuiz := fs.Bool("no-quiz", false, "skip quiz")
	noFlashcards := fs.Bool("no-flashcards", false, "skip flashcards")
	questions := fs.Int("questions", 0, "quiz question count")
	flashcards := fs.Int("flashcards", 0, "flashcard count")
	provider := fs.String("provider", "", "text provider")
	transcriptionProvider := fs.String("transcription-provider", "", "transcription provider")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *audioPath == "" {
		fs.Usage()
		return errors.New("--audio is required")
	}

	cfg, err := loadConfig(*overrides)
	if err != nil {
		return err
	}
	req, err := cfg.DefaultRequest()
	if err != nil {
		return err
	}

	exportFormats, err := parseFormats(*formats)
	if err != nil {
		return err
	}
	for _, count := range []int{*questions, *flashcards} {
		if count != 0 && (count < orchestrator.MinCount || count > orchestrator.MaxCount) {
			return fmt.Errorf("counts must be between %d and %d, got %d", orchestrator.MinCount, orchestrator.MaxCount, count)
		}
	}

	data, err := os.ReadFile(*audioPath)
	if err != nil {
		return err
	}
	req.Audio = model.AudioInput{Filename: filepath.Base(*audioPath), Data: data}
	if err := model.ValidateAudio(req.Audio, req.AudioOptions.EffectiveMaxBytes()); err != nil {
		return err
	}
	req.EnableNotes = req.EnableNotes && !*noNotes
	req.EnableQuiz = req.EnableQuiz && !*noQuiz
	req.EnableFlashcards = req.EnableFlashcards && !*noFlashcards
	if *questions != 0 {
		req.NumQuestions = *questions
	}
	if *flashcards != 0 {
		req.NumFlashcards = *flashcards
	}
	if *provider != "" {
		req.Provider = *provider
		req.TextModel = ""
	}
	if *transcriptionProvider != "" {
		req.TranscriptionProvider = *transcriptionProvider
		req.TranscriptionModel = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := *outDir
	if dir == "" {
		dir = cfg.ExportDir
	}
	sink, err := newSink(ctx, cfg, dir)
	if err != nil {
		return err
	}

	runner := orchestrator.New(cfg.Registry(), orchestrator.WithProgress(func(p orchestrator.Progress) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Step, p.TotalSteps, p.State)
	}))
	result, err := runner.Run(ctx, req)
	if result == nil {
		return err
	}
	if err := writeExports(ctx, sink, result, exportFormats); err != nil {
		return err
	}
	for stage, message := range result.StageErrors {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", stage, message)
	}
	return err
}

func parseFormats(value string) ([]export.Format, error) {
	formats := make([]export.Format, 0, len(export.Formats))
	for _, raw := range strings.Split(value, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		format, err := export.ParseFormat(raw)
		if err != nil {
			return nil, err
		}
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, errors.New("at least one export format is required")
	}
	return formats, nil
}

func writeExports(ctx context.Context, sink storage.Sink, result *orchestrator.SessionResult, formats []export.Format) error {
	contents := []struct {
		content export.Content
		stage   model.Stage
	}{
		{export.ContentTranscript, model.StageTranscription},
		{export.ContentNotes, model.StageNotes},
		{export.ContentQuiz, model.StageQuiz},
		{export.ContentFlashcards, model.StageFlashcards},
	}
	for _, item := range contents {
		if !result.Has(item.stage) {
			continue
		}
		for _, format := range formats {
			data, err := export.Render(format, item.content, result)
			if err != nil {
				return err
			}
			key := result.ID + "/" + export.FileName(result.AudioName, item.content, format)
			if err := sink.Save(ctx, key, data, export.ContentType(format)); err != nil {
				return err
			}
			url, err := sink.URL(ctx, key)
			if err != nil {
				return err
			}
			fmt.Println(url)
		}
	}
	return nil
}
