package assemblyai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siteproof/sitevoice/pkg/provider/stt"
	"github.com/siteproof/sitevoice/pkg/provider/stt/assemblyai"
)

// ---- helpers ----------------------------------------------------------------

// apiState drives the mock AssemblyAI server. pollsBeforeDone controls how
// many status polls report "processing" before the transcript completes.
type apiState struct {
	pollsBeforeDone int32
	polls           atomic.Int32
	uploads         atomic.Int32

	createBody    atomic.Pointer[map[string]any]
	finalStatus   string
	finalText     string
	finalError    string
	confidence    float64
	audioDuration float64
}

// newMockServer serves the three AssemblyAI endpoints the provider uses:
// POST /upload, POST /transcript, GET /transcript/{id}.
func newMockServer(t *testing.T, st *apiState) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			st.uploads.Add(1)
			writeJSON(w, map[string]string{"upload_url": "https://cdn.example/upload/abc"})

		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			data, _ := io.ReadAll(r.Body)
			var body map[string]any
			if err := json.Unmarshal(data, &body); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			st.createBody.Store(&body)
			writeJSON(w, map[string]string{"id": "tr_123", "status": "queued"})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/transcript/"):
			n := st.polls.Add(1)
			if n <= st.pollsBeforeDone {
				writeJSON(w, map[string]any{"status": "processing"})
				return
			}
			status := st.finalStatus
			if status == "" {
				status = "completed"
			}
			words := make([]map[string]string, 0)
			for _, wd := range strings.Fields(st.finalText) {
				words = append(words, map[string]string{"text": wd})
			}
			writeJSON(w, map[string]any{
				"status":         status,
				"text":           st.finalText,
				"error":          st.finalError,
				"confidence":     st.confidence,
				"audio_duration": st.audioDuration,
				"words":          words,
			})

		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newProvider(t *testing.T, srv *httptest.Server, opts ...assemblyai.Option) *assemblyai.Provider {
	t.Helper()
	opts = append([]assemblyai.Option{
		assemblyai.WithBaseURL(srv.URL),
		assemblyai.WithPollDelays(time.Millisecond, 5*time.Millisecond),
	}, opts...)
	p, err := assemblyai.New("test-key", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

var testAudio = stt.Audio{Data: []byte("fake-wav-bytes"), MIMEType: "audio/wav"}

// ---- provider construction --------------------------------------------------

func TestNew_EmptyAPIKey_ReturnsError(t *testing.T) {
	_, err := assemblyai.New("")
	if err == nil {
		t.Fatal("expected error for empty apiKey, got nil")
	}
}

// ---- Transcribe -------------------------------------------------------------

func TestTranscribe_CompletedAfterPolling(t *testing.T) {
	st := &apiState{
		pollsBeforeDone: 2,
		finalText:       "pour the ground floor slab at half past nine",
		confidence:      0.934,
		audioDuration:   12.5,
	}
	srv := newMockServer(t, st)
	defer srv.Close()

	p := newProvider(t, srv)
	res, err := p.Transcribe(context.Background(), testAudio, stt.Config{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != st.finalText {
		t.Errorf("Text = %q, want %q", res.Text, st.finalText)
	}
	if res.Confidence != 93 {
		t.Errorf("Confidence = %d, want 93", res.Confidence)
	}
	if res.WordCount != 9 {
		t.Errorf("WordCount = %d, want 9", res.WordCount)
	}
	if got, want := res.Duration, 12500*time.Millisecond; got != want {
		t.Errorf("Duration = %v, want %v", got, want)
	}
	if got := st.polls.Load(); got != 3 {
		t.Errorf("poll count = %d, want 3", got)
	}
	if got := st.uploads.Load(); got != 1 {
		t.Errorf("upload count = %d, want 1", got)
	}
}

func TestTranscribe_SendsVocabularyBoost(t *testing.T) {
	st := &apiState{finalText: "ok", confidence: 0.9}
	srv := newMockServer(t, st)
	defer srv.Close()

	p := newProvider(t, srv)
	cfg := stt.Config{Vocabulary: []string{"formwork", "rebar", "C25/30"}}
	if _, err := p.Transcribe(context.Background(), testAudio, cfg); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	body := st.createBody.Load()
	if body == nil {
		t.Fatal("no transcript create request recorded")
	}
	b := *body
	boost, ok := b["word_boost"].([]any)
	if !ok || len(boost) != 3 {
		t.Fatalf("word_boost = %v, want 3 entries", b["word_boost"])
	}
	if b["boost_param"] != "high" {
		t.Errorf("boost_param = %v, want %q", b["boost_param"], "high")
	}
	if b["speech_model"] != "best" {
		t.Errorf("speech_model = %v, want %q", b["speech_model"], "best")
	}
	if b["disfluencies"] != false {
		t.Errorf("disfluencies = %v, want false", b["disfluencies"])
	}
}

func TestTranscribe_JobError_ReturnsError(t *testing.T) {
	st := &apiState{finalStatus: "error", finalError: "audio too short"}
	srv := newMockServer(t, st)
	defer srv.Close()

	p := newProvider(t, srv)
	_, err := p.Transcribe(context.Background(), testAudio, stt.Config{})
	if err == nil {
		t.Fatal("expected error for failed job, got nil")
	}
	if !strings.Contains(err.Error(), "audio too short") {
		t.Errorf("error = %v, want it to mention the job failure reason", err)
	}
}

func TestTranscribe_PollBudgetExhausted_ReturnsErrPollTimeout(t *testing.T) {
	st := &apiState{pollsBeforeDone: 1000, finalText: "never"}
	srv := newMockServer(t, st)
	defer srv.Close()

	p := newProvider(t, srv, assemblyai.WithMaxPollAttempts(3))
	_, err := p.Transcribe(context.Background(), testAudio, stt.Config{})
	if !errors.Is(err, assemblyai.ErrPollTimeout) {
		t.Fatalf("error = %v, want ErrPollTimeout", err)
	}
	if got := st.polls.Load(); got != 3 {
		t.Errorf("poll count = %d, want 3", got)
	}
}

func TestTranscribe_ContextCancelledDuringPoll(t *testing.T) {
	st := &apiState{pollsBeforeDone: 1000}
	srv := newMockServer(t, st)
	defer srv.Close()

	p, err := assemblyai.New("test-key",
		assemblyai.WithBaseURL(srv.URL),
		assemblyai.WithPollDelays(time.Hour, time.Hour),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = p.Transcribe(ctx, testAudio, stt.Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestTranscribe_EmptyAudio_ReturnsError(t *testing.T) {
	p, err := assemblyai.New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), stt.Audio{}, stt.Config{}); err == nil {
		t.Fatal("expected error for empty audio, got nil")
	}
}
