// Command sitevoice processes a recorded site voice note through the full
// correction pipeline and prints the transcript, suggestions, and routing
// decision.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/siteproof/sitevoice/internal/classify"
	"github.com/siteproof/sitevoice/internal/config"
	"github.com/siteproof/sitevoice/internal/disambiguate"
	"github.com/siteproof/sitevoice/internal/observe"
	"github.com/siteproof/sitevoice/internal/pipeline"
	"github.com/siteproof/sitevoice/internal/ratelimit"
	"github.com/siteproof/sitevoice/internal/recognize"
	"github.com/siteproof/sitevoice/pkg/provider/llm"
	"github.com/siteproof/sitevoice/pkg/provider/llm/openai"
	"github.com/siteproof/sitevoice/pkg/provider/stt"
	"github.com/siteproof/sitevoice/pkg/provider/stt/assemblyai"
	"github.com/siteproof/sitevoice/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	audioPath := flag.String("audio", "", "path to the voice note to process")
	submissionID := flag.String("submission", "", "submission identifier (defaults to a fresh UUID)")
	callerID := flag.String("caller", "", "caller identifier used for rate limiting")
	flag.Parse()

	if *audioPath == "" {
		fmt.Fprintln(os.Stderr, "sitevoice: -audio is required")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "sitevoice: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "sitevoice: %v\n", err)
		}
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "sitevoice"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	p, err := buildPipeline(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	id := *submissionID
	if id == "" {
		id = uuid.NewString()
	}

	res, err := p.Process(ctx, pipeline.Request{
		AudioRef:     *audioPath,
		SubmissionID: id,
		CallerID:     *callerID,
	})
	if err != nil {
		if errors.Is(err, recognize.ErrRecognitionFailed) {
			fmt.Fprintln(os.Stderr, recognize.UserMessage)
		}
		slog.Error("processing failed", "submission_id", id, "err", err)
		return 1
	}

	printResult(res)
	return 0
}

// buildPipeline wires the configured providers into a ready pipeline.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	primary, err := reg.CreateSTT(cfg.Providers.Recognition.Primary)
	if err != nil {
		return nil, fmt.Errorf("create primary stt provider: %w", err)
	}

	gwOpts := []recognize.Option{recognize.WithMetrics(observe.DefaultMetrics())}
	if cfg.Pipeline.Language != "" {
		gwOpts = append(gwOpts, recognize.WithLanguage(cfg.Pipeline.Language))
	}
	if len(cfg.Pipeline.Vocabulary) > 0 {
		vocab := append([]string{}, recognize.ConstructionVocabulary...)
		vocab = append(vocab, cfg.Pipeline.Vocabulary...)
		gwOpts = append(gwOpts, recognize.WithVocabulary(vocab))
	}
	gateway := recognize.New(cfg.Providers.Recognition.Primary.Name, primary, gwOpts...)

	if name := cfg.Providers.Recognition.Fallback.Name; name != "" {
		fallback, err := reg.CreateSTT(cfg.Providers.Recognition.Fallback)
		if err != nil {
			return nil, fmt.Errorf("create fallback stt provider %q: %w", name, err)
		}
		gateway.AddFallback(name, fallback)
		slog.Info("provider created", "kind", "stt", "name", name, "role", "fallback")
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.Recognition.Primary.Name, "role", "primary")

	var llmProvider llm.Provider
	if name := cfg.Providers.LLM.Name; name != "" {
		llmProvider, err = reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		slog.Info("provider created", "kind", "llm", "name", name, "model", cfg.Providers.LLM.Model)
	} else {
		slog.Warn("running without an LLM provider; classification and disambiguation are degraded")
	}

	opts := []pipeline.Option{
		pipeline.WithMetrics(observe.DefaultMetrics()),
		pipeline.WithMaxConcurrency(cfg.Pipeline.MaxConcurrency),
	}
	if cfg.RateLimit.Requests > 0 {
		period := time.Duration(cfg.RateLimit.PeriodSeconds) * time.Second
		var lopts []ratelimit.Option
		if cfg.RateLimit.MaxKeys > 0 {
			lopts = append(lopts, ratelimit.WithMaxKeys(cfg.RateLimit.MaxKeys))
		}
		opts = append(opts, pipeline.WithRateLimiter(ratelimit.New(cfg.RateLimit.Requests, period, lopts...)))
	}

	return pipeline.New(
		pipeline.FileAudioStore{},
		pipeline.NewMemoryStore(),
		gateway,
		classify.New(llmProvider),
		disambiguate.New(llmProvider, disambiguate.WithPhoneticPass(cfg.Pipeline.PhoneticEnabled())),
		opts...,
	), nil
}

// registerBuiltinProviders wires the provider factories that ship with
// SiteVoice into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterSTT("assemblyai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []assemblyai.Option
		if entry.BaseURL != "" {
			opts = append(opts, assemblyai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, assemblyai.WithSpeechModel(entry.Model))
		}
		return assemblyai.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, entry.APIKey, opts...)
	})

	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})
}

// printResult renders the processed submission for the operator.
func printResult(res *pipeline.Result) {
	fmt.Printf("Submission : %s\n", res.SubmissionID)
	fmt.Printf("Session    : %s\n", res.SessionID)
	fmt.Printf("Engine     : %s (confidence %d)\n", res.Engine, res.Confidence)
	fmt.Printf("Context    : %s (confidence %d)\n", res.Classification.Context, res.Classification.Confidence)
	if len(res.Degraded) > 0 {
		fmt.Printf("Degraded   : %v\n", res.Degraded)
	}
	fmt.Println()
	fmt.Println("Transcript:")
	fmt.Println("  " + res.Transcript)

	if len(res.AppliedChanges) > 0 {
		fmt.Println()
		fmt.Println("Applied corrections:")
		for _, c := range res.AppliedChanges {
			fmt.Printf("  %q -> %q (%s)\n", c.Original, c.Corrected, c.Reason)
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Println()
		fmt.Println("Suggestions awaiting review:")
		for _, s := range res.Suggestions {
			fmt.Printf("  [%s] %q -> %q  risk=%s  %s\n",
				s.ID, s.Original, s.Suggested, s.BusinessRisk, s.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Risk score : %d (impact %s, exposure %.2f)\n",
		res.Risk.TotalRiskScore, res.Risk.BusinessImpact, res.Risk.TotalExposure)
	fmt.Printf("Routing    : %s", res.Risk.Routing)
	if res.Risk.RequiresReview {
		fmt.Printf("  (estimated review %ds)", res.Risk.EstimatedReviewSeconds)
	}
	fmt.Println()
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
