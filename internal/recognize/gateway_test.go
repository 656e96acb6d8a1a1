package recognize

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/siteproof/sitevoice/internal/observe"
	"github.com/siteproof/sitevoice/pkg/provider/stt"
	sttmock "github.com/siteproof/sitevoice/pkg/provider/stt/mock"
)

var testAudio = stt.Audio{Data: []byte("wav-bytes"), MIMEType: "audio/wav"}

func TestRecognize_PrimarySucceeds(t *testing.T) {
	primary := &sttmock.Provider{
		Result: &stt.Result{Text: "pour the slab at half past nine", Confidence: 93, WordCount: 7},
	}
	fallback := &sttmock.Provider{Result: &stt.Result{Text: "fallback"}}

	g := New("assemblyai", primary)
	g.AddFallback("whisper", fallback)

	tr, err := g.Recognize(context.Background(), testAudio)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if tr.Engine != "assemblyai" {
		t.Errorf("Engine = %q, want %q", tr.Engine, "assemblyai")
	}
	if tr.Text != "pour the slab at half past nine" {
		t.Errorf("Text = %q, want the primary transcript", tr.Text)
	}
	if tr.Confidence != 93 {
		t.Errorf("Confidence = %d, want 93", tr.Confidence)
	}
	if len(fallback.Calls()) != 0 {
		t.Errorf("fallback called %d times, want 0", len(fallback.Calls()))
	}
}

func TestRecognize_PrimaryFails_FallbackUsed(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("quota exceeded")}
	fallback := &sttmock.Provider{
		Result: &stt.Result{Text: "check the shuttering", Confidence: 78, WordCount: 3},
	}

	g := New("assemblyai", primary)
	g.AddFallback("whisper", fallback)

	tr, err := g.Recognize(context.Background(), testAudio)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if tr.Engine != "whisper" {
		t.Errorf("Engine = %q, want %q", tr.Engine, "whisper")
	}
	if tr.Text != "check the shuttering" {
		t.Errorf("Text = %q, want the fallback transcript", tr.Text)
	}
}

func TestRecognize_AllFail_ReturnsErrRecognitionFailed(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("auth error")}
	fallback := &sttmock.Provider{Err: errors.New("connection refused")}

	g := New("assemblyai", primary)
	g.AddFallback("whisper", fallback)

	_, err := g.Recognize(context.Background(), testAudio)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("err = %v, want ErrRecognitionFailed", err)
	}
	// Provider error text stays internal; users get the generic message.
	if strings.Contains(UserMessage, "auth") || strings.Contains(UserMessage, "connection") {
		t.Errorf("UserMessage leaks provider detail: %q", UserMessage)
	}
}

func TestRecognize_SendsVocabularyAndLanguage(t *testing.T) {
	primary := &sttmock.Provider{Result: &stt.Result{Text: "ok"}}

	g := New("assemblyai", primary, WithLanguage("en"))
	if _, err := g.Recognize(context.Background(), testAudio); err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	calls := primary.Calls()
	if len(calls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(calls))
	}
	if calls[0].Cfg.Language != "en" {
		t.Errorf("Language = %q, want %q", calls[0].Cfg.Language, "en")
	}
	if len(calls[0].Cfg.Vocabulary) == 0 {
		t.Fatal("Vocabulary not sent to provider")
	}
	found := false
	for _, v := range calls[0].Cfg.Vocabulary {
		if v == "C25/30" {
			found = true
		}
	}
	if !found {
		t.Error("Vocabulary missing construction terms")
	}
}

// counterValue sums the data points of an int64 counter whose attributes
// include every key/value pair in want, or 0 when none match.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, want map[string]string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != name {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", name)
			}
			for _, dp := range sum.DataPoints {
				matched := 0
				for _, kv := range dp.Attributes.ToSlice() {
					if want[string(kv.Key)] == kv.Value.AsString() {
						matched++
					}
				}
				if matched == len(want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestRecognize_RecordsProviderCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	primary := &sttmock.Provider{Err: errors.New("quota exceeded")}
	fallback := &sttmock.Provider{Result: &stt.Result{Text: "move the skip", Confidence: 80}}

	g := New("assemblyai", primary, WithMetrics(metrics))
	g.AddFallback("whisper", fallback)

	if _, err := g.Recognize(context.Background(), testAudio); err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	if got := counterValue(t, reader, "sitevoice.provider.requests",
		map[string]string{"provider": "assemblyai", "status": "error"}); got != 1 {
		t.Errorf("assemblyai error requests = %d, want 1", got)
	}
	if got := counterValue(t, reader, "sitevoice.provider.requests",
		map[string]string{"provider": "whisper", "status": "ok"}); got != 1 {
		t.Errorf("whisper ok requests = %d, want 1", got)
	}
	if got := counterValue(t, reader, "sitevoice.provider.errors",
		map[string]string{"provider": "assemblyai"}); got != 1 {
		t.Errorf("assemblyai errors = %d, want 1", got)
	}
	if got := counterValue(t, reader, "sitevoice.provider.errors",
		map[string]string{"provider": "whisper"}); got != 0 {
		t.Errorf("whisper errors = %d, want 0", got)
	}
}

func TestRecognize_CustomVocabulary(t *testing.T) {
	primary := &sttmock.Provider{Result: &stt.Result{Text: "ok"}}
	vocab := []string{"site cabin"}

	g := New("assemblyai", primary, WithVocabulary(vocab))
	if _, err := g.Recognize(context.Background(), testAudio); err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	calls := primary.Calls()
	if len(calls[0].Cfg.Vocabulary) != 1 || calls[0].Cfg.Vocabulary[0] != "site cabin" {
		t.Errorf("Vocabulary = %v, want [site cabin]", calls[0].Cfg.Vocabulary)
	}
}
