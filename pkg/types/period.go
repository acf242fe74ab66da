package types

import (
	"strings"
	"time"
)

// YearMonth is a calendar month with optional month precision. Month 0 means
// the source data only carried a year; ordering and window derivation treat
// it as January.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

// MonthOrJanuary returns the month, defaulting to 1 when unknown.
func (ym YearMonth) MonthOrJanuary() int {
	if ym.Month == 0 {
		return 1
	}
	return ym.Month
}

// Before reports whether ym sorts strictly before other, treating an unknown
// month as January.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.MonthOrJanuary() < other.MonthOrJanuary()
}

// Period is one employment period from a talent profile: a free-text employer
// label, a role title, a free-text description, and a start/end month.
// A nil End means the period is ongoing.
type Period struct {
	Label       string     `json:"label"` // Employer name as written in the profile
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       YearMonth  `json:"start"`
	End         *YearMonth `json:"end,omitempty"`
}

// NormalizedLabel returns the label in the canonical form used for alias
// matching: lowercased with surrounding whitespace trimmed.
func (p Period) NormalizedLabel() string {
	return NormalizeLabel(p.Label)
}

// Window derives the date range for this period: the first day of the start
// month through the last day of the end month, or open-ended when the end is
// unknown.
func (p Period) Window() (start time.Time, end *time.Time) {
	start = time.Date(p.Start.Year, time.Month(p.Start.MonthOrJanuary()), 1, 0, 0, 0, 0, time.UTC)
	if p.End == nil || p.End.Year == 0 || p.End.Month == 0 {
		return start, nil
	}
	// First day of the following month, minus one day.
	last := time.Date(p.End.Year, time.Month(p.End.Month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1)
	return start, &last
}

// NormalizeLabel lowercases and trims a free-text employer label. Alias
// resolution matches exactly on this form; no fuzzy matching is performed.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Profile is the talent profile the engine builds context for.
type Profile struct {
	Name    string   `json:"name,omitempty"`
	Periods []Period `json:"periods"`
}

// PeriodContext pairs one employment period with everything the engine could
// retrieve about it. Entity, Summary, and Content are all empty when the
// period's label resolved to no known entity; that is graceful degradation,
// not an error.
type PeriodContext struct {
	Period  Period          `json:"period"`
	Entity  *Entity         `json:"entity,omitempty"`
	Summary *MetricsSummary `json:"summary,omitempty"`
	Content []RankedResult  `json:"content,omitempty"`
}
