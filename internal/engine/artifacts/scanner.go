package artifacts

import (
	"context"
	"log/slog"
)

// Snapshot is what exists on a notebook at scan time: matching records per
// kind in discovery order and the resolved download URLs by artifact id.
// A Snapshot is never modified after Scan returns it.
type Snapshot struct {
	NotebookID string
	Language   string
	kinds      []Kind
	records    map[Kind][]Record
	urls       map[string]string
}

// NewSnapshot builds a snapshot from already collected data. Slices and maps
// are copied.
func NewSnapshot(notebookID, lang string, kinds []Kind, records map[Kind][]Record, urls map[string]string) Snapshot {
	s := Snapshot{
		NotebookID: notebookID,
		Language:   lang,
		kinds:      append([]Kind(nil), kinds...),
		records:    make(map[Kind][]Record, len(records)),
		urls:       make(map[string]string, len(urls)),
	}
	for k, rs := range records {
		s.records[k] = append([]Record(nil), rs...)
	}
	for id, u := range urls {
		s.urls[id] = u
	}
	return s
}

// Kinds lists the scanned kinds in canonical order.
func (s Snapshot) Kinds() []Kind { return append([]Kind(nil), s.kinds...) }

// Records returns the matching records of kind k.
func (s Snapshot) Records(k Kind) []Record {
	return append([]Record(nil), s.records[k]...)
}

// Has reports whether at least one record of kind k exists.
func (s Snapshot) Has(k Kind) bool { return len(s.records[k]) > 0 }

// URL returns the resolved download URL of an artifact.
func (s Snapshot) URL(id string) (string, bool) {
	u, ok := s.urls[id]
	return u, ok
}

// URLs returns a copy of the id→URL map.
func (s Snapshot) URLs() map[string]string {
	out := make(map[string]string, len(s.urls))
	for id, u := range s.urls {
		out[id] = u
	}
	return out
}

// Scanner discovers which artifacts already exist on a notebook.
type Scanner struct {
	client   Lister
	registry *Registry
	logger   *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScanLogger sets the logger used for per-kind diagnostics.
func WithScanLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

// WithScanRegistry overrides the kind registry.
func WithScanRegistry(r *Registry) ScannerOption {
	return func(s *Scanner) { s.registry = r }
}

// NewScanner creates a Scanner over client.
func NewScanner(client Lister, opts ...ScannerOption) *Scanner {
	s := &Scanner{client: client, registry: DefaultRegistry(), logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan queries every registered kind independently. A failing listing is
// logged and counts as no records for that kind. Completed raw artifacts are
// then decoded into download URLs. Listers that go through SharedListing
// fetch the raw listing once per scan.
func (s *Scanner) Scan(ctx context.Context, notebookID, lang string) Snapshot {
	ctx = WithListingMemo(ctx)
	kinds := s.registry.Kinds()
	records := make(map[Kind][]Record, len(kinds))

	for _, spec := range s.registry.Specs() {
		listed, err := s.client.ListArtifacts(ctx, spec.Kind, notebookID)
		if err != nil {
			s.logger.Debug("scan: listing failed",
				slog.String("notebook", notebookID),
				slog.String("kind", string(spec.Kind)),
				slog.Any("error", err))
			continue
		}
		var kept []Record
		for _, r := range listed {
			if spec.LanguageFiltered && !MatchesLanguage(r.Language, lang) {
				s.logger.Debug("scan: language mismatch",
					slog.String("kind", string(spec.Kind)),
					slog.String("id", r.ID),
					slog.String("language", r.Language),
					slog.String("want", lang))
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) > 0 {
			records[spec.Kind] = kept
		}
		s.logger.Debug("scan: kind listed",
			slog.String("kind", string(spec.Kind)),
			slog.Int("found", len(listed)),
			slog.Int("kept", len(kept)))
	}

	urls := s.resolveURLs(ctx, notebookID)
	return Snapshot{NotebookID: notebookID, Language: lang, kinds: kinds, records: records, urls: urls}
}

func (s *Scanner) resolveURLs(ctx context.Context, notebookID string) map[string]string {
	urls := make(map[string]string)
	raw, err := s.client.ListRaw(ctx, notebookID)
	if err != nil {
		s.logger.Debug("scan: raw listing failed", slog.String("notebook", notebookID), slog.Any("error", err))
		return urls
	}
	for _, a := range raw {
		if a.Status != StatusCompleted {
			continue
		}
		kind, ok := s.registry.KindForRaw(a)
		if !ok {
			continue
		}
		if u, ok := DecodeURL(kind, a.Payload); ok {
			urls[a.ID] = u
		} else {
			s.logger.Debug("scan: no download url", slog.String("id", a.ID), slog.String("kind", string(kind)))
		}
	}
	return urls
}
