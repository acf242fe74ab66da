package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/scoutline/careerctx/pkg/types"
)

// keyPrefix namespaces inference cache entries in a shared backend.
const keyPrefix = "careerctx:inference:"

// canonicalPeriod is the stable wire form of a period for key derivation.
// Field order is fixed and encoding/json emits struct fields in declaration
// order, so the serialized form is deterministic.
type canonicalPeriod struct {
	Label       string `json:"label"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type canonicalProfile struct {
	Periods []canonicalPeriod `json:"periods"`
}

// ProfileKey derives the content-addressed cache key for a profile.
//
// Only the employment periods feed the hash; the person's display name does
// not, so two people with identical histories share one entry. Two profiles
// that differ only in string casing, surrounding whitespace, or period
// ordering also produce the same key: every string is lowercased and
// trimmed, and periods are sorted by start date with the label as tie-break,
// before hashing.
func ProfileKey(profile types.Profile) string {
	canonical := canonicalProfile{
		Periods: make([]canonicalPeriod, 0, len(profile.Periods)),
	}
	for _, p := range profile.Periods {
		canonical.Periods = append(canonical.Periods, canonicalPeriod{
			Label:       canonicalString(p.Label),
			Title:       canonicalString(p.Title),
			Description: canonicalString(p.Description),
			Start:       formatYearMonth(&p.Start),
			End:         formatYearMonth(p.End),
		})
	}
	sort.SliceStable(canonical.Periods, func(i, j int) bool {
		a, b := canonical.Periods[i], canonical.Periods[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Label < b.Label
	})

	// Marshal of a struct with string fields cannot fail.
	payload, _ := json.Marshal(canonical)
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:])
}

func canonicalString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// formatYearMonth renders a year-month as zero-padded "YYYY-MM" so that
// lexicographic order matches chronological order. Nil renders as "" and
// sorts before any concrete date.
func formatYearMonth(ym *types.YearMonth) string {
	if ym == nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
