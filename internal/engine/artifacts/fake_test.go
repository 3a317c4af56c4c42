package artifacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeLister struct {
	records map[Kind][]Record
	fail    map[Kind]bool
	raw     []RawArtifact
	rawErr  error
	calls   []Kind
}

func (f *fakeLister) ListArtifacts(_ context.Context, kind Kind, _ string) ([]Record, error) {
	f.calls = append(f.calls, kind)
	if f.fail[kind] {
		return nil, errors.New("listing exploded")
	}
	return f.records[kind], nil
}

func (f *fakeLister) ListRaw(context.Context, string) ([]RawArtifact, error) {
	return f.raw, f.rawErr
}

type generateCall struct {
	Kind   Kind
	Params GenerateParams
}

type fakeGenerator struct {
	responses map[Kind]*GenerationStatus
	errs      map[Kind]error
	waitErr   map[string]error
	calls     []generateCall
	waited    []string
	events    *[]string
}

func (f *fakeGenerator) Generate(_ context.Context, kind Kind, _ string, p GenerateParams) (*GenerationStatus, error) {
	f.calls = append(f.calls, generateCall{Kind: kind, Params: p})
	if f.events != nil {
		*f.events = append(*f.events, "generate:"+string(kind))
	}
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	if st, ok := f.responses[kind]; ok {
		return st, nil
	}
	return &GenerationStatus{Status: GenerationInProgress, TaskID: "task-" + string(kind)}, nil
}

func (f *fakeGenerator) WaitForCompletion(_ context.Context, _, taskID string) error {
	f.waited = append(f.waited, taskID)
	return f.waitErr[taskID]
}

func (f *fakeGenerator) kinds() []Kind {
	out := make([]Kind, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Kind
	}
	return out
}

// recordingSleep logs every delay into events without waiting.
func recordingSleep(events *[]string) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*events = append(*events, "sleep:"+d.String())
		return ctx.Err()
	}
}
