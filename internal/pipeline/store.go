package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/siteproof/sitevoice/pkg/provider/stt"
)

// ErrSubmissionNotFound is returned by [ResultStore.Load] when no processed
// result exists for a submission.
var ErrSubmissionNotFound = errors.New("pipeline: submission not found")

// AudioStore resolves an audio reference to the recorded bytes. Persistent
// storage of submissions lives outside this module; the pipeline only reads.
type AudioStore interface {
	Fetch(ctx context.Context, ref string) (stt.Audio, error)
}

// ResultStore persists processed results between [Pipeline.Process] and
// [Pipeline.ApplyDecisions]. Implementations must be safe for concurrent use.
type ResultStore interface {
	Save(ctx context.Context, res *Result) error
	Load(ctx context.Context, submissionID string) (*Result, error)
}

// MemoryStore is an in-memory [ResultStore] for tests and single-process use.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

// NewMemoryStore returns an empty, ready-to-use [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*Result)}
}

func (s *MemoryStore) Save(_ context.Context, res *Result) error {
	cp := *res
	s.mu.Lock()
	s.results[res.SubmissionID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, submissionID string) (*Result, error) {
	s.mu.RLock()
	res, ok := s.results[submissionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSubmissionNotFound, submissionID)
	}
	cp := *res
	return &cp, nil
}

var _ ResultStore = (*MemoryStore)(nil)

// FileAudioStore reads audio referenced by filesystem path, with the MIME
// type inferred from the file extension.
type FileAudioStore struct{}

func (FileAudioStore) Fetch(_ context.Context, ref string) (stt.Audio, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return stt.Audio{}, fmt.Errorf("pipeline: read audio %q: %w", ref, err)
	}
	return stt.Audio{Data: data, MIMEType: mimeForPath(ref)}, nil
}

var _ AudioStore = FileAudioStore{}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
