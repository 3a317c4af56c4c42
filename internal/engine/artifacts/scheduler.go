package artifacts

import (
	"context"
	"log/slog"
	"time"
)

// DefaultDelay is the pause between two consecutive generation dispatches.
const DefaultDelay = 3 * time.Second

// QuotaState is the set of quota groups found exhausted during one run.
// Groups are only ever added.
type QuotaState struct {
	exhausted map[string]bool
}

// NewQuotaState returns an empty state.
func NewQuotaState() *QuotaState {
	return &QuotaState{exhausted: make(map[string]bool)}
}

// Exhaust marks group g as spent. Empty groups are ignored.
func (q *QuotaState) Exhaust(g string) {
	if g != "" {
		q.exhausted[g] = true
	}
}

// Exhausted reports whether group g is spent.
func (q *QuotaState) Exhausted(g string) bool {
	return g != "" && q.exhausted[g]
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Scheduler issues generation requests one kind at a time.
type Scheduler struct {
	client       Generator
	registry     *Registry
	delay        time.Duration
	sleep        SleepFunc
	logger       *slog.Logger
	instructions string
	observe      func(Outcome)
	now          func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay sets the pause before every dispatch but the first.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.delay = d }
}

// WithSleep replaces the delay implementation, mostly for tests.
func WithSleep(fn SleepFunc) SchedulerOption {
	return func(s *Scheduler) { s.sleep = fn }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithRegistry overrides the kind registry.
func WithRegistry(r *Registry) SchedulerOption {
	return func(s *Scheduler) { s.registry = r }
}

// WithInstructions passes free-form instructions with every generation call.
func WithInstructions(text string) SchedulerOption {
	return func(s *Scheduler) { s.instructions = text }
}

// WithObserver registers a callback invoked once per outcome.
func WithObserver(fn func(Outcome)) SchedulerOption {
	return func(s *Scheduler) { s.observe = fn }
}

// NewScheduler creates a Scheduler over client.
func NewScheduler(client Generator, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		client:   client,
		registry: DefaultRegistry(),
		delay:    DefaultDelay,
		sleep:    Sleep,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run generates kinds on notebookID in canonical order. Kinds whose quota
// group was exhausted earlier in the run are rejected without being sent.
// Every failure is folded into the kind's outcome; Run itself never fails.
func (s *Scheduler) Run(ctx context.Context, notebookID string, kinds []Kind, lang string) RunResult {
	ordered, unknown := s.registry.Canonical(kinds)
	res := RunResult{
		NotebookID: notebookID,
		Requested:  len(ordered),
		Outcomes:   make([]Outcome, 0, len(ordered)),
		Unknown:    unknown,
	}
	for _, k := range unknown {
		s.logger.Warn("generate: unknown kind ignored", slog.String("kind", string(k)))
	}

	quota := NewQuotaState()
	for _, kind := range ordered {
		spec, _ := s.registry.Spec(kind)

		if ctx.Err() != nil {
			res.record(s, Outcome{Kind: kind, Status: OutcomeError, Reason: ctx.Err().Error(), Err: ctx.Err(), Skipped: true})
			continue
		}
		if quota.Exhausted(spec.QuotaGroup) {
			o := rejected(kind, ReasonSharedQuota)
			o.Group = spec.QuotaGroup
			o.Skipped = true
			s.logger.Info("generate: skipped, shared quota exhausted",
				slog.String("kind", string(kind)), slog.String("group", spec.QuotaGroup))
			res.record(s, o)
			continue
		}

		if res.Dispatched > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				res.record(s, Outcome{Kind: kind, Status: OutcomeError, Reason: err.Error(), Err: err, Skipped: true})
				continue
			}
		}

		res.Dispatched++
		o := s.dispatch(ctx, spec, notebookID, lang)
		if o.Status == OutcomeQuotaExhausted {
			quota.Exhaust(spec.QuotaGroup)
		}
		res.record(s, o)
	}
	return res
}

func (res *RunResult) record(s *Scheduler, o Outcome) {
	if o.Status == OutcomeSucceeded {
		res.Succeeded++
	}
	res.Outcomes = append(res.Outcomes, o)
	if s.observe != nil {
		s.observe(o)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, spec KindSpec, notebookID, lang string) Outcome {
	started := s.now()
	o := s.attempt(ctx, spec, notebookID, lang)
	o.StartedAt = started
	o.FinishedAt = s.now()

	attrs := []any{
		slog.String("notebook", notebookID),
		slog.String("kind", string(spec.Kind)),
		slog.String("status", string(o.Status)),
		slog.Duration("took", o.Duration()),
	}
	switch o.Status {
	case OutcomeSucceeded:
		s.logger.Info("generate: done", attrs...)
	case OutcomeQuotaExhausted:
		s.logger.Warn("generate: daily limit reached", append(attrs, slog.String("group", o.Group))...)
	default:
		s.logger.Warn("generate: not generated", append(attrs, slog.String("reason", o.Reason))...)
	}
	return o
}

func (s *Scheduler) attempt(ctx context.Context, spec KindSpec, notebookID, lang string) Outcome {
	kind := spec.Kind
	params := GenerateParams{Instructions: s.instructions}
	if spec.AcceptsLanguage {
		params.Language = lang
	}

	st, err := s.client.Generate(ctx, kind, notebookID, params)
	if err != nil {
		return failed(kind, err)
	}
	switch {
	case st == nil:
		return succeeded(kind)
	case st.Failed() && st.RateLimited:
		return quotaExhausted(kind, spec.QuotaGroup)
	case st.Failed():
		reason := st.Error
		if reason == "" {
			reason = "generation failed"
		}
		return rejected(kind, reason)
	case st.TaskID != "":
		if err := s.client.WaitForCompletion(ctx, notebookID, st.TaskID); err != nil {
			return failed(kind, err)
		}
		return succeeded(kind)
	case st.Result != nil:
		if st.Result.Content == "" {
			return rejected(kind, "empty result")
		}
		return succeeded(kind)
	default:
		// Accepted without a task handle: nothing to wait for.
		return succeeded(kind)
	}
}
