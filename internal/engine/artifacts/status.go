package artifacts

import "fmt"

// KindStatus is the availability of one kind on a notebook.
type KindStatus struct {
	Kind         Kind     `json:"kind"`
	DisplayName  string   `json:"display_name"`
	Available    bool     `json:"available"`
	Records      []Record `json:"records,omitempty"`
	QuotaLimited bool     `json:"quota_limited,omitempty"`
	// URLs maps record ids to resolved download URLs when known.
	URLs map[string]string `json:"urls,omitempty"`
}

// Status is the per-kind availability report of a snapshot.
type Status struct {
	NotebookID          string       `json:"notebook_id"`
	Language            string       `json:"language,omitempty"`
	Kinds               []KindStatus `json:"kinds"`
	Missing             []Kind       `json:"missing"`
	MissingQuotaLimited []Kind       `json:"missing_quota_limited"`
}

// BuildStatus reports every registered kind of reg in canonical order.
// Missing kinds are flagged as quota-limited when they have a daily quota.
func BuildStatus(reg *Registry, snap Snapshot) Status {
	if reg == nil {
		reg = DefaultRegistry()
	}
	st := Status{
		NotebookID:          snap.NotebookID,
		Language:            snap.Language,
		Missing:             []Kind{},
		MissingQuotaLimited: []Kind{},
	}
	for _, spec := range reg.Specs() {
		ks := KindStatus{Kind: spec.Kind, DisplayName: spec.DisplayName}
		if recs := snap.Records(spec.Kind); len(recs) > 0 {
			ks.Available = true
			ks.Records = recs
			for _, r := range recs {
				if u, ok := snap.URL(r.ID); ok {
					if ks.URLs == nil {
						ks.URLs = make(map[string]string)
					}
					ks.URLs[r.ID] = u
				}
			}
		} else {
			ks.QuotaLimited = spec.HasDailyQuota
			st.Missing = append(st.Missing, spec.Kind)
			if spec.HasDailyQuota {
				st.MissingQuotaLimited = append(st.MissingQuotaLimited, spec.Kind)
			}
		}
		st.Kinds = append(st.Kinds, ks)
	}
	return st
}

// Kind returns the status of k.
func (s Status) Kind(k Kind) (KindStatus, bool) {
	for _, ks := range s.Kinds {
		if ks.Kind == k {
			return ks, true
		}
	}
	return KindStatus{}, false
}

// IsMissing reports whether k has no matching record.
func (s Status) IsMissing(k Kind) bool {
	for _, m := range s.Missing {
		if m == k {
			return true
		}
	}
	return false
}

// MissingOf returns the kinds of requested that are missing, in canonical order.
func (s Status) MissingOf(requested []Kind) []Kind {
	want := make(map[Kind]bool, len(requested))
	for _, k := range requested {
		want[k] = true
	}
	var out []Kind
	for _, k := range s.Missing {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

// Suggest lists missing kinds the caller did not request.
func (s Status) Suggest(requested []Kind) []Kind {
	asked := make(map[Kind]bool, len(requested))
	for _, k := range requested {
		asked[k] = true
	}
	var out []Kind
	for _, k := range s.Missing {
		if !asked[k] {
			out = append(out, k)
		}
	}
	return out
}

// Lines renders the status block shown to users, one line per record or
// missing kind.
func (s Status) Lines() []string {
	var lines []string
	for _, ks := range s.Kinds {
		if !ks.Available {
			line := fmt.Sprintf("✗ %s: not available", ks.DisplayName)
			if ks.QuotaLimited {
				line += " (daily limit)"
			}
			lines = append(lines, line)
			continue
		}
		n := len(ks.Records)
		for i, r := range ks.Records {
			title := r.Title
			if title == "" {
				title = r.ID
			}
			if n == 1 {
				lines = append(lines, fmt.Sprintf("✓ %s: %s", ks.DisplayName, title))
			} else {
				lines = append(lines, fmt.Sprintf("✓ %s (%d of %d): %s", ks.DisplayName, i+1, n, title))
			}
		}
	}
	return lines
}
