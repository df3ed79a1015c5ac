package merge

import (
	"strings"

	"marketbot/internal/model"
)

func pairKey(r model.Record) string {
	return strings.ToLower(strings.TrimSpace(r.Subject)) + "|" + strings.ToUpper(strings.TrimSpace(r.Ticker))
}

// Union combines the structured source's records with verified candidates,
// keyed by (subject, ticker). Structured records always win on overlap;
// candidates fill in events the structured source missed. No pair appears
// twice, and only date-confirmed or backup-confirmed candidates qualify.
func Union(known []model.Record, accepted []model.Candidate) []model.Record {
	out := make([]model.Record, 0, len(known)+len(accepted))
	seen := make(map[string]struct{}, len(known)+len(accepted))
	for _, r := range known {
		k := pairKey(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	for _, c := range accepted {
		if c.Confidence != model.DateConfirmed && c.Confidence != model.BackupConfirmed {
			continue
		}
		k := pairKey(c.Record)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c.Record)
	}
	return out
}

// InStructured reports whether a candidate's (subject, ticker) pair is
// already covered by the structured set.
func InStructured(known []model.Record, c model.Candidate) bool {
	k := pairKey(c.Record)
	for _, r := range known {
		if pairKey(r) == k {
			return true
		}
	}
	return false
}
