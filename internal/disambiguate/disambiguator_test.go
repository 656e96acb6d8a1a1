package disambiguate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siteproof/sitevoice/internal/classify"
	llmmock "github.com/siteproof/sitevoice/pkg/provider/llm/mock"
)

var materialCls = classify.Classification{Context: classify.MaterialOrder, Confidence: 85}

func TestDisambiguate_DeterministicOnly(t *testing.T) {
	p := &llmmock.Provider{Content: `{"changes": []}`}
	d := New(p)

	res := d.Disambiguate(context.Background(), "c2530 pour, safe farming", materialCls)
	if res.Corrected != "C25/30 pour, safe working" {
		t.Errorf("Corrected = %q, want deterministic rewrites applied", res.Corrected)
	}
	if res.Degraded {
		t.Error("Degraded = true, want false when the model tier responded")
	}
	if len(res.Pending()) != 0 {
		t.Errorf("Pending = %+v, want none", res.Pending())
	}
}

func TestDisambiguate_AppliesConfidentProposals(t *testing.T) {
	p := &llmmock.Provider{Content: `{"changes": [
		{"original": "near the gate", "suggested": "near the east gate", "confidence": 85, "reasoning": "site layout", "requiresHumanReview": false}
	]}`}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "stack the blocks near the gate", materialCls)
	if !strings.Contains(res.Corrected, "near the east gate") {
		t.Errorf("Corrected = %q, want confident proposal applied", res.Corrected)
	}
	var llmChange *Change
	for i := range res.Changes {
		if res.Changes[i].Method == MethodLLM {
			llmChange = &res.Changes[i]
		}
	}
	if llmChange == nil {
		t.Fatal("no llm change recorded")
	}
	if !llmChange.Applied {
		t.Error("confident proposal not marked applied")
	}
}

func TestDisambiguate_LowConfidenceProposalsStayPending(t *testing.T) {
	p := &llmmock.Provider{Content: `{"changes": [
		{"original": "200 blocks", "suggested": "200 concrete blocks", "confidence": 60, "reasoning": "unit unclear", "requiresHumanReview": false}
	]}`}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "order 200 blocks for Monday", materialCls)
	if strings.Contains(res.Corrected, "concrete blocks") {
		t.Errorf("Corrected = %q, low-confidence proposal must not be applied", res.Corrected)
	}
	pending := res.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending = %+v, want exactly one", pending)
	}
	if !pending[0].RequiresReview {
		t.Error("pending proposal must require review")
	}
}

func TestDisambiguate_FlaggedProposalNotApplied(t *testing.T) {
	p := &llmmock.Provider{Content: `{"changes": [
		{"original": "by Friday", "suggested": "by Thursday", "confidence": 90, "reasoning": "schedule ambiguity", "requiresHumanReview": true}
	]}`}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "inspection by Friday", materialCls)
	if strings.Contains(res.Corrected, "Thursday") {
		t.Errorf("Corrected = %q, flagged proposal must not be applied", res.Corrected)
	}
	if len(res.Pending()) != 1 {
		t.Fatalf("Pending = %+v, want one", res.Pending())
	}
}

func TestDisambiguate_DeterministicWinsOnOverlap(t *testing.T) {
	// The model proposes a change to "safe farming", but the deterministic
	// tier already rewrote that span. The stale proposal is discarded.
	p := &llmmock.Provider{Content: `{"changes": [
		{"original": "safe farming", "suggested": "safe performing", "confidence": 95, "reasoning": "term fix", "requiresHumanReview": false}
	]}`}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "signing off, safe farming", materialCls)
	if res.Corrected != "signing off, safe working" {
		t.Errorf("Corrected = %q, want deterministic result to stand", res.Corrected)
	}
	for _, c := range res.Changes {
		if c.Method == MethodLLM {
			t.Errorf("stale model proposal kept: %+v", c)
		}
	}
}

func TestDisambiguate_LLMError_Degrades(t *testing.T) {
	p := &llmmock.Provider{Err: errors.New("timeout")}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "c2530 pour today", materialCls)
	if !res.Degraded {
		t.Fatal("Degraded = false, want true after model failure")
	}
	if res.Corrected != "C25/30 pour today" {
		t.Errorf("Corrected = %q, deterministic result must survive degradation", res.Corrected)
	}
}

func TestDisambiguate_MalformedResponse_Degrades(t *testing.T) {
	p := &llmmock.Provider{Content: "not json at all"}
	d := New(p, WithPhoneticPass(false))

	res := d.Disambiguate(context.Background(), "form work on level two", materialCls)
	if !res.Degraded {
		t.Fatal("Degraded = false, want true for unparseable response")
	}
	if res.Corrected != "formwork on level two" {
		t.Errorf("Corrected = %q, want deterministic result", res.Corrected)
	}
}

func TestDisambiguate_NilProvider_Degrades(t *testing.T) {
	d := New(nil, WithPhoneticPass(false))
	res := d.Disambiguate(context.Background(), "shutter ring off tomorrow", materialCls)
	if !res.Degraded {
		t.Fatal("Degraded = false, want true with nil provider")
	}
	if res.Corrected != "shuttering off tomorrow" {
		t.Errorf("Corrected = %q, want deterministic rewrites", res.Corrected)
	}
}

func TestDisambiguate_EmptyTranscript(t *testing.T) {
	d := New(&llmmock.Provider{})
	res := d.Disambiguate(context.Background(), "", materialCls)
	if res.Corrected != "" || len(res.Changes) != 0 {
		t.Errorf("got %+v, want empty result", res)
	}
}

func TestDisambiguate_PhoneticProposalsIncluded(t *testing.T) {
	p := &llmmock.Provider{Content: `{"changes": []}`}
	d := New(p)

	res := d.Disambiguate(context.Background(), "the formwerk needs bracing", materialCls)
	pending := res.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending = %+v, want one phonetic proposal", pending)
	}
	if pending[0].Method != MethodPhonetic || pending[0].Corrected != "formwork" {
		t.Errorf("pending = %+v, want phonetic formwork proposal", pending[0])
	}
	if strings.Contains(res.Corrected, "formwork") {
		t.Error("phonetic proposal must not be applied to the transcript")
	}
}
