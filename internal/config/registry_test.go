package config

import (
	"errors"
	"testing"

	"github.com/siteproof/sitevoice/pkg/provider/llm"
	llmmock "github.com/siteproof/sitevoice/pkg/provider/llm/mock"
	"github.com/siteproof/sitevoice/pkg/provider/stt"
	sttmock "github.com/siteproof/sitevoice/pkg/provider/stt/mock"
)

func TestRegistry_CreateSTT(t *testing.T) {
	r := NewRegistry()
	r.RegisterSTT("fake", func(entry ProviderEntry) (stt.Provider, error) {
		if entry.APIKey != "k" {
			t.Errorf("entry.APIKey = %q, want k", entry.APIKey)
		}
		return &sttmock.Provider{}, nil
	})

	p, err := r.CreateSTT(ProviderEntry{Name: "fake", APIKey: "k"})
	if err != nil {
		t.Fatalf("CreateSTT: %v", err)
	}
	if p == nil {
		t.Fatal("CreateSTT returned nil provider")
	}
}

func TestRegistry_CreateLLM(t *testing.T) {
	r := NewRegistry()
	r.RegisterLLM("fake", func(ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	if _, err := r.CreateLLM(ProviderEntry{Name: "fake"}); err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
}

func TestRegistry_UnregisteredName(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateSTT(ProviderEntry{Name: "nope"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_OverwriteKeepsLatest(t *testing.T) {
	r := NewRegistry()
	r.RegisterLLM("dup", func(ProviderEntry) (llm.Provider, error) {
		t.Error("stale factory invoked")
		return nil, nil
	})
	r.RegisterLLM("dup", func(ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	if _, err := r.CreateLLM(ProviderEntry{Name: "dup"}); err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
}
