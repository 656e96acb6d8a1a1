package disambiguate

import "testing"

func TestPhoneticPass_ProposesNearMiss(t *testing.T) {
	changes := phoneticPass("strip the formwerk on the south wall")
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want exactly one proposal", changes)
	}
	c := changes[0]
	if c.Original != "formwerk" || c.Corrected != "formwork" {
		t.Errorf("proposal = %q -> %q, want formwerk -> formwork", c.Original, c.Corrected)
	}
	if c.Method != MethodPhonetic {
		t.Errorf("Method = %q, want %q", c.Method, MethodPhonetic)
	}
	if !c.RequiresReview {
		t.Error("phonetic proposals must require review")
	}
	if c.Applied {
		t.Error("phonetic proposals must not be auto-applied")
	}
	if c.Confidence < 90 {
		t.Errorf("Confidence = %d, want >= 90 for a near-exact match", c.Confidence)
	}
}

func TestPhoneticPass_RecordsPosition(t *testing.T) {
	text := "check the scaffolt bracing"
	changes := phoneticPass(text)
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want one proposal", changes)
	}
	if changes[0].Corrected != "scaffold" {
		t.Errorf("Corrected = %q, want scaffold", changes[0].Corrected)
	}
	if got, want := changes[0].Position, 10; got != want {
		t.Errorf("Position = %d, want %d", got, want)
	}
}

func TestPhoneticPass_SkipsExactTerms(t *testing.T) {
	changes := phoneticPass("the formwork and shuttering are sound, rebar delivered")
	if len(changes) != 0 {
		t.Errorf("changes = %+v, want none for correct terminology", changes)
	}
}

func TestPhoneticPass_SkipsShortAndOrdinaryWords(t *testing.T) {
	changes := phoneticPass("lads we need the van at the gate by noon")
	if len(changes) != 0 {
		t.Errorf("changes = %+v, want none for ordinary speech", changes)
	}
}

func TestPhoneticPass_StripsPunctuation(t *testing.T) {
	changes := phoneticPass("order more aggregatt, please")
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want one proposal", changes)
	}
	if changes[0].Original != "aggregatt" {
		t.Errorf("Original = %q, want punctuation trimmed", changes[0].Original)
	}
	if changes[0].Corrected != "aggregate" {
		t.Errorf("Corrected = %q, want aggregate", changes[0].Corrected)
	}
}
