// Package mock provides test doubles for the stt package interfaces.
//
// Use Provider to feed controlled transcription Results and to inspect the
// Audio and Config values the caller passed in.
//
// Example:
//
//	p := &mock.Provider{
//	    Result: &stt.Result{Text: "order 20 bags of cement", Confidence: 92},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/siteproof/sitevoice/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Audio is the audio passed to Transcribe.
	Audio stt.Audio
	// Cfg is the Config passed to Transcribe.
	Cfg stt.Config
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned from Transcribe when Err is nil. If both Result and
	// Err are nil, Transcribe returns an empty Result.
	Result *stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeFunc, if non-nil, overrides Result and Err entirely.
	TranscribeFunc func(ctx context.Context, audio stt.Audio, cfg stt.Config) (*stt.Result, error)

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns the configured result.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio, cfg stt.Config) (*stt.Result, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Audio: audio, Cfg: cfg})
	fn := p.TranscribeFunc
	res, err := p.Result, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, cfg)
	}
	if err != nil {
		return nil, err
	}
	if res != nil {
		cp := *res
		return &cp, nil
	}
	return &stt.Result{}, nil
}

// Calls returns a snapshot of the recorded Transcribe calls.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.TranscribeCalls))
	copy(out, p.TranscribeCalls)
	return out
}
