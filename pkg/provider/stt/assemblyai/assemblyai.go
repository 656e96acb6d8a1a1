// Package assemblyai provides an AssemblyAI-backed STT provider.
//
// AssemblyAI exposes an asynchronous batch REST API: the audio is uploaded,
// a transcript job is created, and the job is polled until it completes. The
// provider hides that cycle behind stt.Provider.Transcribe and bounds it with
// the caller's context.
//
// Usage:
//
//	p, err := assemblyai.New(apiKey,
//	    assemblyai.WithSpeechModel("best"),
//	)
//	res, err := p.Transcribe(ctx, audio, stt.Config{Vocabulary: vocab})
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/siteproof/sitevoice/pkg/provider/stt"
)

const (
	defaultBaseURL = "https://api.assemblyai.com/v2"

	// defaultSpeechModel selects AssemblyAI's most accurate model tier.
	defaultSpeechModel = "best"

	// defaultConfidence is used when the API omits an overall confidence.
	defaultConfidence = 85

	defaultMaxPollAttempts  = 30
	defaultInitialPollDelay = 1 * time.Second
	defaultMaxPollDelay     = 10 * time.Second
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// ErrPollTimeout is returned when a transcript job does not complete within
// the configured number of poll attempts.
var ErrPollTimeout = errors.New("transcript did not complete within the poll budget")

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithBaseURL overrides the AssemblyAI API base URL. Intended for tests and
// proxies. Defaults to the public v2 endpoint.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets the HTTP client used for all API calls. Defaults to a
// client with a 30 second per-request timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithSpeechModel selects the AssemblyAI speech model tier (e.g., "best",
// "nano"). Defaults to "best".
func WithSpeechModel(model string) Option {
	return func(p *Provider) {
		p.speechModel = model
	}
}

// WithMaxPollAttempts sets how many status polls are made before giving up
// with ErrPollTimeout. Defaults to 30.
func WithMaxPollAttempts(n int) Option {
	return func(p *Provider) {
		p.maxPollAttempts = n
	}
}

// WithPollDelays sets the initial poll delay and the cap it doubles towards.
// Defaults to 1s doubling up to 10s.
func WithPollDelays(initial, max time.Duration) Option {
	return func(p *Provider) {
		p.initialPollDelay = initial
		p.maxPollDelay = max
	}
}

// Provider implements stt.Provider backed by the AssemblyAI v2 REST API.
// It is safe for concurrent use.
type Provider struct {
	apiKey           string
	baseURL          string
	speechModel      string
	httpClient       *http.Client
	maxPollAttempts  int
	initialPollDelay time.Duration
	maxPollDelay     time.Duration
}

// New creates a new Provider authenticated with apiKey. apiKey must be
// non-empty. Functional options may be provided to override defaults.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("assemblyai: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:           apiKey,
		baseURL:          defaultBaseURL,
		speechModel:      defaultSpeechModel,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		maxPollAttempts:  defaultMaxPollAttempts,
		initialPollDelay: defaultInitialPollDelay,
		maxPollDelay:     defaultMaxPollDelay,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe uploads the audio, creates a transcript job with the vocabulary
// boost from cfg, and polls until the job completes or ctx is done.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio, cfg stt.Config) (*stt.Result, error) {
	if len(audio.Data) == 0 {
		return nil, errors.New("assemblyai: audio data must not be empty")
	}

	uploadURL, err := p.upload(ctx, audio)
	if err != nil {
		return nil, err
	}

	id, err := p.createTranscript(ctx, uploadURL, cfg)
	if err != nil {
		return nil, err
	}

	tr, err := p.pollTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	conf := defaultConfidence
	if tr.Confidence > 0 {
		conf = int(math.Round(tr.Confidence * 100))
	}
	wordCount := len(tr.Words)
	if wordCount == 0 && tr.Text != "" {
		wordCount = len(strings.Fields(tr.Text))
	}

	return &stt.Result{
		Text:       tr.Text,
		Confidence: conf,
		Duration:   time.Duration(tr.AudioDuration * float64(time.Second)),
		WordCount:  wordCount,
	}, nil
}

// upload POSTs the raw audio bytes and returns the ephemeral upload URL.
func (p *Provider) upload(ctx context.Context, audio stt.Audio) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/upload", bytes.NewReader(audio.Data))
	if err != nil {
		return "", fmt.Errorf("assemblyai: create upload request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	if audio.MIMEType != "" {
		req.Header.Set("Content-Type", audio.MIMEType)
	} else {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := p.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("assemblyai: upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", errors.New("assemblyai: no upload URL returned")
	}
	return out.UploadURL, nil
}

// createTranscript starts a transcript job for the uploaded audio and returns
// its id.
func (p *Provider) createTranscript(ctx context.Context, audioURL string, cfg stt.Config) (string, error) {
	body := map[string]any{
		"audio_url":    audioURL,
		"speech_model": p.speechModel,

		// Noisy site recordings transcribe better with cleanup on and
		// filler words stripped.
		"punctuate":    true,
		"format_text":  true,
		"disfluencies": false,
	}
	if cfg.Language != "" {
		body["language_code"] = cfg.Language
	} else {
		body["language_detection"] = false
	}
	if len(cfg.Vocabulary) > 0 {
		body["word_boost"] = cfg.Vocabulary
		body["boost_param"] = "high"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("assemblyai: marshal transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("assemblyai: create transcript request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := p.doJSON(req, &out); err != nil {
		return "", fmt.Errorf("assemblyai: create transcript: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("assemblyai: no transcript id returned")
	}
	return out.ID, nil
}

// transcript is the subset of AssemblyAI's transcript resource the provider
// reads.
type transcript struct {
	Status        string  `json:"status"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	AudioDuration float64 `json:"audio_duration"`
	Error         string  `json:"error"`
	Words         []struct {
		Text string `json:"text"`
	} `json:"words"`
}

// pollTranscript polls the transcript job until it completes, errors, or the
// poll budget is exhausted. Delays start at initialPollDelay and double up to
// maxPollDelay.
func (p *Provider) pollTranscript(ctx context.Context, id string) (*transcript, error) {
	delay := p.initialPollDelay
	for attempt := 0; attempt < p.maxPollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transcript/"+id, nil)
		if err != nil {
			return nil, fmt.Errorf("assemblyai: create poll request: %w", err)
		}
		req.Header.Set("Authorization", p.apiKey)

		var tr transcript
		if err := p.doJSON(req, &tr); err != nil {
			return nil, fmt.Errorf("assemblyai: poll transcript: %w", err)
		}

		switch tr.Status {
		case "completed":
			return &tr, nil
		case "error":
			return nil, fmt.Errorf("assemblyai: transcription failed: %s", tr.Error)
		case "queued", "processing":
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("assemblyai: poll cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			if delay *= 2; delay > p.maxPollDelay {
				delay = p.maxPollDelay
			}
		default:
			return nil, fmt.Errorf("assemblyai: unknown transcript status %q", tr.Status)
		}
	}
	return nil, fmt.Errorf("assemblyai: %w", ErrPollTimeout)
}

// doJSON executes req, checks for a 2xx status, and decodes the response body
// into out.
func (p *Provider) doJSON(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, truncate(data, 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse JSON response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
