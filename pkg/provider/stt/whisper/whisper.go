// Package whisper provides a Whisper-backed STT provider used as the fallback
// recognition engine.
//
// It speaks the OpenAI-compatible batch transcription API
// (POST {base}/v1/audio/transcriptions with a multipart form), which is served
// by both the hosted OpenAI endpoint and self-hosted whisper.cpp or faster-
// whisper servers. Whisper has no vocabulary-boost API, so Config.Vocabulary
// is folded into the prompt field as a comma-separated hint.
//
// Usage:
//
//	p, err := whisper.New("https://api.openai.com", apiKey,
//	    whisper.WithModel("whisper-1"),
//	)
//	res, err := p.Transcribe(ctx, audio, stt.Config{Language: "en"})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/siteproof/sitevoice/pkg/provider/stt"
)

const (
	defaultModel = "whisper-1"

	// defaultConfidence is reported when the server returns no segment
	// log-probabilities to derive a confidence from.
	defaultConfidence = 70
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier sent to the server (e.g., "whisper-1",
// "base.en"). Defaults to "whisper-1".
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithHTTPClient sets the HTTP client used for transcription requests.
// Defaults to a client with a 60 second timeout; batch inference on long
// recordings can be slow.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements stt.Provider against an OpenAI-compatible Whisper
// endpoint. It is safe for concurrent use.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a new Provider for the server at baseURL (e.g.,
// "https://api.openai.com" or "http://localhost:8000"). baseURL must be
// non-empty; apiKey may be empty for unauthenticated self-hosted servers.
func New(baseURL, apiKey string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("whisper: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// verboseResponse is the verbose_json transcription response. Segments carry
// AvgLogprob, from which an overall confidence is derived.
type verboseResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe submits the audio as one batch inference request.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio, cfg stt.Config) (*stt.Result, error) {
	if len(audio.Data) == 0 {
		return nil, errors.New("whisper: audio data must not be empty")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", fileName(audio.MIMEType))
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio.Data); err != nil {
		return nil, fmt.Errorf("whisper: write audio data: %w", err)
	}
	if err := mw.WriteField("model", p.model); err != nil {
		return nil, fmt.Errorf("whisper: write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if cfg.Language != "" {
		if err := mw.WriteField("language", cfg.Language); err != nil {
			return nil, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if len(cfg.Vocabulary) > 0 {
		if err := mw.WriteField("prompt", strings.Join(cfg.Vocabulary, ", ")); err != nil {
			return nil, fmt.Errorf("whisper: write prompt field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	var vr verboseResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	text := strings.TrimSpace(vr.Text)
	return &stt.Result{
		Text:       text,
		Confidence: confidenceFromSegments(vr),
		Duration:   time.Duration(vr.Duration * float64(time.Second)),
		WordCount:  len(strings.Fields(text)),
	}, nil
}

// confidenceFromSegments converts the mean segment avg_logprob into a 0-100
// confidence via exp(mean). Whisper log-probs are per-token averages, so
// exp(avg_logprob) approximates the geometric mean token probability.
func confidenceFromSegments(vr verboseResponse) int {
	if len(vr.Segments) == 0 {
		return defaultConfidence
	}
	var sum float64
	for _, s := range vr.Segments {
		sum += s.AvgLogprob
	}
	mean := sum / float64(len(vr.Segments))
	conf := int(math.Round(math.Exp(mean) * 100))
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return conf
}

// fileName picks a form file name whose extension matches the MIME type; some
// servers sniff the extension rather than the Content-Type part header.
func fileName(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return "audio.mp3"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return "audio.m4a"
	case strings.Contains(mimeType, "ogg"), strings.Contains(mimeType, "opus"):
		return "audio.ogg"
	case strings.Contains(mimeType, "webm"):
		return "audio.webm"
	default:
		return "audio.wav"
	}
}
