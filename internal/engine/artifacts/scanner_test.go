package artifacts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesLanguage(t *testing.T) {
	tests := []struct {
		lang, want string
		match      bool
	}{
		{"es-ES", "es", true},
		{"ES", "es", true},
		{"es", "es", true},
		{"en-US", "es", false},
		{"", "es", true},
		{"", "en", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, MatchesLanguage(tt.lang, tt.want), "%q vs %q", tt.lang, tt.want)
	}
}

func slidesRaw(id, url string, status int) RawArtifact {
	return RawArtifact{
		ID:       id,
		TypeCode: TypeCodeSlides,
		Status:   status,
		Payload:  padded(17, map[int]Value{16: List(Null, Null, Null, String(url))}),
	}
}

func TestScanFiltersLanguage(t *testing.T) {
	f := &fakeLister{records: map[Kind][]Record{
		KindReport: {
			{ID: "r1", Language: "es-ES"},
			{ID: "r2", Language: "en-US"},
			{ID: "r3"},
		},
		KindSlides: {
			{ID: "s1", Language: "en"},
		},
	}}
	snap := NewScanner(f, WithScanLogger(discard)).Scan(context.Background(), "nb", "es")

	var ids []string
	for _, r := range snap.Records(KindReport) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"r1", "r3"}, ids)
	assert.True(t, snap.Has(KindSlides), "slides are not language filtered")
	assert.False(t, snap.Has(KindAudio))
}

func TestScanIsolatesFailures(t *testing.T) {
	f := &fakeLister{
		records: map[Kind][]Record{KindAudio: {{ID: "a1"}}},
		fail:    map[Kind]bool{KindReport: true, KindMindMap: true},
	}
	snap := NewScanner(f, WithScanLogger(discard)).Scan(context.Background(), "nb", "en")

	assert.Equal(t, DefaultRegistry().Kinds(), f.calls, "every kind is queried in canonical order")
	assert.False(t, snap.Has(KindReport))
	assert.True(t, snap.Has(KindAudio))
}

func TestScanResolvesCompletedURLs(t *testing.T) {
	f := &fakeLister{raw: []RawArtifact{
		slidesRaw("done", "https://x/done.pdf", StatusCompleted),
		slidesRaw("pending", "https://x/pending.pdf", 1),
		{ID: "broken", TypeCode: TypeCodeAudio, Status: StatusCompleted, Payload: String("garbage")},
		{ID: "unknown", TypeCode: 99, Status: StatusCompleted},
	}}
	snap := NewScanner(f, WithScanLogger(discard)).Scan(context.Background(), "nb", "en")

	assert.Equal(t, map[string]string{"done": "https://x/done.pdf"}, snap.URLs())
	_, ok := snap.URL("pending")
	assert.False(t, ok)
}

func TestScanRawFailureLeavesURLsEmpty(t *testing.T) {
	f := &fakeLister{
		records: map[Kind][]Record{KindReport: {{ID: "r1"}}},
		rawErr:  errors.New("boom"),
	}
	snap := NewScanner(f, WithScanLogger(discard)).Scan(context.Background(), "nb", "en")
	assert.True(t, snap.Has(KindReport))
	assert.Empty(t, snap.URLs())
}

func TestScanIdempotent(t *testing.T) {
	f := &fakeLister{
		records: map[Kind][]Record{
			KindReport: {{ID: "r1", Language: "en"}, {ID: "r2", Language: "de"}},
			KindVideo:  {{ID: "v1"}},
		},
		fail: map[Kind]bool{KindQuiz: true},
		raw:  []RawArtifact{slidesRaw("s1", "https://x/s1.pdf", StatusCompleted)},
	}
	s := NewScanner(f, WithScanLogger(discard))
	first := s.Scan(context.Background(), "nb", "en")
	second := s.Scan(context.Background(), "nb", "en")
	require.Equal(t, first, second)
}

func TestSnapshotIsCopied(t *testing.T) {
	recs := map[Kind][]Record{KindReport: {{ID: "r1"}}}
	snap := NewSnapshot("nb", "en", []Kind{KindReport}, recs, nil)
	recs[KindReport][0].ID = "changed"

	got := snap.Records(KindReport)
	assert.Equal(t, "r1", got[0].ID)
	got[0].ID = "mutated"
	assert.Equal(t, "r1", snap.Records(KindReport)[0].ID)
}
