package artifacts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies one artifact type NotebookLM can generate for a notebook.
type Kind string

const (
	KindReport      Kind = "report"
	KindMindMap     Kind = "mind_map"
	KindDataTable   Kind = "data_table"
	KindQuiz        Kind = "quiz"
	KindFlashcards  Kind = "flashcards"
	KindSlides      Kind = "slides"
	KindInfographic Kind = "infographic"
	KindAudio       Kind = "audio"
	KindVideo       Kind = "video"
)

// GroupPremium is the daily allowance shared by slide decks and infographics.
const GroupPremium = "premium"

// Upstream artifact type codes as they appear at index 2 of a raw artifact.
const (
	TypeCodeAudio       = 1
	TypeCodeReport      = 2
	TypeCodeVideo       = 3
	TypeCodeQuiz        = 4
	TypeCodeMindMap     = 5
	TypeCodeInfographic = 7
	TypeCodeSlides      = 8
	TypeCodeDataTable   = 9
)

// KindSpec describes how one artifact kind is listed, generated and reported.
type KindSpec struct {
	Kind          Kind
	DisplayName   string
	HasDailyQuota bool
	// QuotaGroup names the allowance this kind shares with its siblings.
	// Empty means the kind has no shared pool.
	QuotaGroup string
	// Order is the position in the canonical processing order.
	Order int
	// AcceptsLanguage reports whether the generation call takes a language.
	AcceptsLanguage bool
	// LanguageFiltered reports whether listed records carry a language tag
	// that must match the requested language.
	LanguageFiltered bool
	TypeCode         int
}

// Registry is the validated, immutable table of artifact kinds.
type Registry struct {
	specs  []KindSpec // sorted by Order
	byKind map[Kind]KindSpec
	groups map[string][]Kind
}

var (
	ErrDuplicateKind  = errors.New("artifacts: duplicate kind")
	ErrDuplicateOrder = errors.New("artifacts: duplicate canonical order")
	ErrUnknownGroup   = errors.New("artifacts: quota group not declared")
	ErrEmptyGroup     = errors.New("artifacts: quota group has no members")
)

// NewRegistry validates specs against the declared quota groups.
// Every kind must appear once, orders must be unique, and every QuotaGroup
// must be one of groups. A declared group without members is rejected too.
func NewRegistry(specs []KindSpec, groups ...string) (*Registry, error) {
	declared := make(map[string]bool, len(groups))
	for _, g := range groups {
		declared[g] = true
	}

	r := &Registry{
		specs:  make([]KindSpec, len(specs)),
		byKind: make(map[Kind]KindSpec, len(specs)),
		groups: make(map[string][]Kind, len(groups)),
	}
	copy(r.specs, specs)

	orders := make(map[int]Kind, len(specs))
	for _, s := range specs {
		if _, ok := r.byKind[s.Kind]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, s.Kind)
		}
		if prev, ok := orders[s.Order]; ok {
			return nil, fmt.Errorf("%w: %s and %s share %d", ErrDuplicateOrder, prev, s.Kind, s.Order)
		}
		if s.QuotaGroup != "" && !declared[s.QuotaGroup] {
			return nil, fmt.Errorf("%w: %s references %q", ErrUnknownGroup, s.Kind, s.QuotaGroup)
		}
		r.byKind[s.Kind] = s
		orders[s.Order] = s.Kind
	}

	sort.Slice(r.specs, func(i, j int) bool { return r.specs[i].Order < r.specs[j].Order })
	for _, s := range r.specs {
		if s.QuotaGroup != "" {
			r.groups[s.QuotaGroup] = append(r.groups[s.QuotaGroup], s.Kind)
		}
	}
	for _, g := range groups {
		if len(r.groups[g]) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyGroup, g)
		}
	}
	return r, nil
}

// DefaultSpecs is the NotebookLM studio table. Kinds without a daily limit
// come first, then limited kinds roughly by how long they take to render.
var DefaultSpecs = []KindSpec{
	{Kind: KindReport, DisplayName: "Report", Order: 0, AcceptsLanguage: true, LanguageFiltered: true, TypeCode: TypeCodeReport},
	{Kind: KindMindMap, DisplayName: "Mind map", Order: 1, LanguageFiltered: true, TypeCode: TypeCodeMindMap},
	{Kind: KindDataTable, DisplayName: "Data table", Order: 2, AcceptsLanguage: true, TypeCode: TypeCodeDataTable},
	{Kind: KindQuiz, DisplayName: "Quiz", Order: 3, TypeCode: TypeCodeQuiz},
	{Kind: KindFlashcards, DisplayName: "Flashcards", Order: 4, TypeCode: TypeCodeQuiz},
	{Kind: KindSlides, DisplayName: "Slide deck", HasDailyQuota: true, QuotaGroup: GroupPremium, Order: 5, AcceptsLanguage: true, TypeCode: TypeCodeSlides},
	{Kind: KindInfographic, DisplayName: "Infographic", HasDailyQuota: true, QuotaGroup: GroupPremium, Order: 6, AcceptsLanguage: true, TypeCode: TypeCodeInfographic},
	{Kind: KindAudio, DisplayName: "Audio summary", HasDailyQuota: true, Order: 7, AcceptsLanguage: true, LanguageFiltered: true, TypeCode: TypeCodeAudio},
	{Kind: KindVideo, DisplayName: "Video overview", HasDailyQuota: true, Order: 8, AcceptsLanguage: true, TypeCode: TypeCodeVideo},
}

var defaultRegistry = mustRegistry(NewRegistry(DefaultSpecs, GroupPremium))

func mustRegistry(r *Registry, err error) *Registry {
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the registry built from DefaultSpecs.
func DefaultRegistry() *Registry { return defaultRegistry }

// Specs returns every kind in canonical order.
func (r *Registry) Specs() []KindSpec {
	out := make([]KindSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Kinds returns every kind in canonical order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.Kind
	}
	return out
}

// Spec looks up a kind.
func (r *Registry) Spec(k Kind) (KindSpec, bool) {
	s, ok := r.byKind[k]
	return s, ok
}

// Group returns the kinds sharing group g, in canonical order.
func (r *Registry) Group(g string) []Kind {
	return append([]Kind(nil), r.groups[g]...)
}

// Canonical filters kinds down to registered ones, drops duplicates and
// sorts the rest into canonical order. Unknown kinds are returned separately.
func (r *Registry) Canonical(kinds []Kind) (ordered, unknown []Kind) {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if _, ok := r.byKind[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		want[k] = true
	}
	for _, s := range r.specs {
		if want[s.Kind] {
			ordered = append(ordered, s.Kind)
		}
	}
	return ordered, unknown
}

// ParseKind accepts a kind name case-insensitively, with '-' or ' ' in place of '_'.
func (r *Registry) ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	k := Kind(n)
	_, ok := r.byKind[k]
	return k, ok
}

// DisplayName returns the human name of k, or the raw kind when unregistered.
func (r *Registry) DisplayName(k Kind) string {
	if s, ok := r.byKind[k]; ok {
		return s.DisplayName
	}
	return string(k)
}

// KindForRaw maps an upstream type code to a kind. Quiz and flashcards share
// a type code; the payload variant decides between them.
func (r *Registry) KindForRaw(a RawArtifact) (Kind, bool) {
	if a.TypeCode == TypeCodeQuiz {
		if isFlashcards(a.Payload) {
			return KindFlashcards, r.has(KindFlashcards)
		}
		return KindQuiz, r.has(KindQuiz)
	}
	for _, s := range r.specs {
		if s.TypeCode == a.TypeCode {
			return s.Kind, true
		}
	}
	return "", false
}

func (r *Registry) has(k Kind) bool {
	_, ok := r.byKind[k]
	return ok
}

// flashcardsVariant is the option value at payload[9][1][0] that marks a
// type-4 artifact as a flashcard deck rather than a quiz.
const flashcardsVariant = 1

func isFlashcards(payload Value) bool {
	n, ok := payload.Path(9, 1, 0).Number()
	return ok && int(n) == flashcardsVariant
}
