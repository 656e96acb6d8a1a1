// Package pipeline orchestrates the full voice-note correction flow: audio
// normalization, speech recognition with fallback, context classification,
// disambiguation, suggestion generation, and risk routing. The pipeline is a
// stateless component constructed once and safe for concurrent submissions;
// per-submission state lives in the [Result].
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/siteproof/sitevoice/internal/classify"
	"github.com/siteproof/sitevoice/internal/disambiguate"
	"github.com/siteproof/sitevoice/internal/observe"
	"github.com/siteproof/sitevoice/internal/ratelimit"
	"github.com/siteproof/sitevoice/internal/recognize"
	"github.com/siteproof/sitevoice/internal/review"
	"github.com/siteproof/sitevoice/internal/risk"
	"github.com/siteproof/sitevoice/internal/suggest"
	"github.com/siteproof/sitevoice/pkg/audio"
)

// ErrRateLimited is returned by [Pipeline.Process] when the caller has
// exhausted its submission budget for the current window.
var ErrRateLimited = errors.New("pipeline: submission rate limit exceeded")

// defaultMaxConcurrency bounds [Pipeline.ProcessAll] when no explicit limit
// is configured.
const defaultMaxConcurrency = 4

// Request identifies one voice note to process.
type Request struct {
	// AudioRef is resolved through the configured [AudioStore].
	AudioRef string

	// SubmissionID keys the stored result for later decision application.
	SubmissionID string

	// CallerID attributes the submission for rate limiting. Empty skips
	// the limiter.
	CallerID string
}

// Result is the full output of processing one submission.
type Result struct {
	// SessionID uniquely identifies this processing run.
	SessionID    string
	SubmissionID string

	// RawTranscript is the recognizer output before any correction.
	RawTranscript string

	// Transcript is the corrected text all suggestions are anchored to.
	Transcript string

	// Final is the transcript after human decisions were applied. Empty
	// until [Pipeline.ApplyDecisions] runs.
	Final string

	// Engine names the recognition provider that produced the transcript.
	Engine     string
	Confidence int

	Classification classify.Classification

	// AppliedChanges are the corrections already applied to Transcript.
	AppliedChanges []disambiguate.Change

	// Suggestions are the proposed changes awaiting human decisions,
	// anchored in Transcript.
	Suggestions []suggest.Suggestion

	Risk risk.Assessment

	// Degraded names the non-terminal stages that fell back to their
	// deterministic substitutes.
	Degraded []string
}

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithMetrics attaches metric instruments. Defaults to no recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithRateLimiter bounds submissions per caller. Defaults to unlimited.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(p *Pipeline) {
		p.limiter = l
	}
}

// WithMaxConcurrency bounds [Pipeline.ProcessAll] parallelism.
func WithMaxConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxConcurrency = n
		}
	}
}

// Pipeline wires the correction stages together. Construct once with [New];
// all methods are safe for concurrent use.
type Pipeline struct {
	audio         AudioStore
	results       ResultStore
	gateway       *recognize.Gateway
	classifier    *classify.Classifier
	disambiguator *disambiguate.Disambiguator

	metrics        *observe.Metrics
	limiter        *ratelimit.Limiter
	maxConcurrency int
}

// New returns a [Pipeline] over the given stages and stores.
func New(
	audioStore AudioStore,
	results ResultStore,
	gateway *recognize.Gateway,
	classifier *classify.Classifier,
	disambiguator *disambiguate.Disambiguator,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		audio:          audioStore,
		results:        results,
		gateway:        gateway,
		classifier:     classifier,
		disambiguator:  disambiguator,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs the full correction flow for one submission. Recognition is
// the only terminal failure; classification and disambiguation degrade to
// their deterministic substitutes and are reported in [Result.Degraded].
// Nothing is persisted when ctx is cancelled before the pipeline completes.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if p.limiter != nil && req.CallerID != "" && !p.limiter.Allow(req.CallerID) {
		return nil, fmt.Errorf("%w: caller %q", ErrRateLimited, req.CallerID)
	}

	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	defer span.End()
	log := observe.Logger(ctx).With("submission_id", req.SubmissionID)

	if p.metrics != nil {
		p.metrics.ActivePipelines.Add(ctx, 1)
		defer p.metrics.ActivePipelines.Add(ctx, -1)
		start := time.Now()
		defer func() {
			p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
		}()
	}

	res := &Result{
		SessionID:    uuid.NewString(),
		SubmissionID: req.SubmissionID,
	}

	raw, err := p.audio.Fetch(ctx, req.AudioRef)
	if err != nil {
		return nil, err
	}

	normStart := time.Now()
	norm := audio.Normalize(raw.Data, raw.MIMEType)
	if p.metrics != nil {
		p.metrics.NormalizeDuration.Record(ctx, time.Since(normStart).Seconds())
	}
	raw.Data, raw.MIMEType = norm.Data, norm.MIMEType

	recStart := time.Now()
	transcript, err := p.gateway.Recognize(ctx, raw)
	if p.metrics != nil {
		p.metrics.RecognitionDuration.Record(ctx, time.Since(recStart).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("process submission %q: %w", req.SubmissionID, err)
	}
	res.RawTranscript = transcript.Text
	res.Engine = transcript.Engine
	res.Confidence = transcript.Confidence

	clsStart := time.Now()
	res.Classification = p.classifier.Classify(ctx, transcript.Text)
	if p.metrics != nil {
		p.metrics.ClassificationDuration.Record(ctx, time.Since(clsStart).Seconds())
	}
	if res.Classification.Degraded {
		res.Degraded = append(res.Degraded, "classification")
	}

	disStart := time.Now()
	dis := p.disambiguator.Disambiguate(ctx, transcript.Text, res.Classification)
	if p.metrics != nil {
		p.metrics.DisambiguationDuration.Record(ctx, time.Since(disStart).Seconds())
	}
	if dis.Degraded {
		res.Degraded = append(res.Degraded, "disambiguation")
	}
	res.Transcript = dis.Corrected
	for _, c := range dis.Changes {
		if c.Applied {
			res.AppliedChanges = append(res.AppliedChanges, c)
		}
	}

	res.Suggestions = append(pendingSuggestions(dis), suggest.Generate(dis.Corrected)...)
	res.Risk = risk.Assess(res.Suggestions)

	if p.metrics != nil {
		p.metrics.RecordRoutingDecision(ctx, string(res.Risk.Routing))
		for _, s := range res.Suggestions {
			p.metrics.RecordSuggestion(ctx, string(s.Type))
		}
		for _, stage := range res.Degraded {
			p.metrics.RecordDegradedStage(ctx, stage)
		}
	}

	// Abandoned submissions must not leave partial state behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.results.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("process submission %q: save result: %w", req.SubmissionID, err)
	}

	log.Info("submission processed",
		"engine", res.Engine,
		"context", res.Classification.Context,
		"suggestions", len(res.Suggestions),
		"routing", res.Risk.Routing,
		"degraded", res.Degraded,
	)
	return res, nil
}

// ApplyDecisions loads the stored result for submissionID, applies the
// reviewer's decisions against the corrected transcript, persists the final
// text, and returns the application outcome.
func (p *Pipeline) ApplyDecisions(ctx context.Context, submissionID string, decisions []review.Decision) (review.Outcome, error) {
	res, err := p.results.Load(ctx, submissionID)
	if err != nil {
		return review.Outcome{}, err
	}

	byID := make(map[string]review.Decision, len(decisions))
	for _, d := range decisions {
		byID[d.SuggestionID] = d
	}

	outcome := review.Apply(res.Transcript, res.Suggestions, byID)
	res.Final = outcome.Final
	if err := p.results.Save(ctx, res); err != nil {
		return review.Outcome{}, fmt.Errorf("apply decisions for %q: save result: %w", submissionID, err)
	}

	observe.Logger(ctx).Info("decisions applied",
		"submission_id", submissionID,
		"applied", len(outcome.Applied),
		"rejected", len(outcome.Rejected),
	)
	return outcome, nil
}

// ProcessAll processes requests with bounded parallelism, preserving input
// order in the returned slice. The first terminal failure cancels the
// remaining work.
func (p *Pipeline) ProcessAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := p.Process(ctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

var timeFragmentRE = regexp.MustCompile(`\d{1,2}:\d{2}`)

// pendingSuggestions converts the disambiguator's unapplied proposals into
// suggestions anchored in the corrected transcript, so they flow through the
// same review and risk path as pattern-generated ones. Proposals whose span
// no longer exists in the corrected text are dropped.
func pendingSuggestions(dis disambiguate.Result) []suggest.Suggestion {
	var out []suggest.Suggestion
	for i, c := range dis.Pending() {
		typ := suggest.TypeTerminology
		if timeFragmentRE.MatchString(c.Corrected) {
			typ = suggest.TypeTime
		}

		s, err := suggest.New(dis.Corrected, suggest.Suggestion{
			ID:             fmt.Sprintf("context-%d", i),
			Type:           typ,
			Original:       c.Original,
			Suggested:      c.Corrected,
			Position:       anchor(dis.Corrected, c),
			Confidence:     gradeConfidence(c.Confidence),
			BusinessRisk:   suggest.RiskMedium,
			RequiresReview: true,
			Reason:         c.Reason,
		})
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// anchor re-locates a pending change in the corrected text. Later applied
// proposals can shift the position captured when the change was recorded.
func anchor(text string, c disambiguate.Change) int {
	end := c.Position + len(c.Original)
	if c.Position >= 0 && end <= len(text) && text[c.Position:end] == c.Original {
		return c.Position
	}
	return strings.Index(text, c.Original)
}

func gradeConfidence(conf int) suggest.Confidence {
	switch {
	case conf >= 80:
		return suggest.ConfidenceHigh
	case conf >= 60:
		return suggest.ConfidenceMedium
	default:
		return suggest.ConfidenceLow
	}
}
