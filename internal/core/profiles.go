package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ColumnProfile is a named preset of analyzer column names, offered in
// the UI so users do not have to retype header names for the export
// formats they see every day.
type ColumnProfile struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Columns AnalysisColumns `json:"columns"`
}

var (
	profiles   = make(map[string]ColumnProfile)
	profilesMu sync.RWMutex
)

// RegisterProfile adds a column profile to the registry.
// Panics if the key is empty or already registered.
func RegisterProfile(p ColumnProfile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()

	if p.Key == "" {
		panic("column profile key must not be empty")
	}
	if _, exists := profiles[p.Key]; exists {
		panic(fmt.Sprintf("column profile already registered: %s", p.Key))
	}
	profiles[p.Key] = p
}

// LookupProfile returns a profile by key.
// Returns false if not found.
func LookupProfile(key string) (ColumnProfile, bool) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	p, ok := profiles[key]
	return p, ok
}

// Profiles returns all registered profiles sorted by key for consistent
// ordering in selectors.
func Profiles() []ColumnProfile {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	result := make([]ColumnProfile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// ProfileMatch pairs a profile with how well a schema covers it.
type ProfileMatch struct {
	Profile ColumnProfile `json:"profile"`
	Score   float64       `json:"score"`
}

// ProfileMatchThreshold is the minimum coverage for a profile to be
// offered as a suggestion.
const ProfileMatchThreshold = 0.7

// MatchProfiles scores every registered profile against a column
// schema: the fraction of the profile's three analyzer columns found in
// the schema. Scoring is case-insensitive and trims whitespace, which
// is looser than the analyzer's exact matching; a suggestion is a UI
// hint, not a promise the analysis will succeed. Matches at or above
// the threshold come back sorted by score descending, ties by key.
func MatchProfiles(columns []string) []ProfileMatch {
	schema := make(map[string]bool, len(columns))
	for _, c := range columns {
		schema[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var matches []ProfileMatch
	for _, p := range Profiles() {
		score := profileCoverage(p, schema)
		if score >= ProfileMatchThreshold {
			matches = append(matches, ProfileMatch{Profile: p, Score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Profile.Key < matches[j].Profile.Key
	})
	return matches
}

// SuggestProfile returns the best-matching profile for a schema, if any
// clears the threshold.
func SuggestProfile(columns []string) (ColumnProfile, bool) {
	matches := MatchProfiles(columns)
	if len(matches) == 0 {
		return ColumnProfile{}, false
	}
	return matches[0].Profile, true
}

func profileCoverage(p ColumnProfile, schema map[string]bool) float64 {
	names := []string{p.Columns.Buyer, p.Columns.Date, p.Columns.Address}
	matched := 0
	for _, n := range names {
		if schema[strings.ToLower(strings.TrimSpace(n))] {
			matched++
		}
	}
	return float64(matched) / float64(len(names))
}

func init() {
	RegisterProfile(ColumnProfile{
		Key:     "korean-order-export",
		Label:   "Korean order export",
		Columns: DefaultColumns(),
	})
	RegisterProfile(ColumnProfile{
		Key:   "english-order-export",
		Label: "English order export",
		Columns: AnalysisColumns{
			Buyer:   "buyer",
			Date:    "order_date",
			Address: "address",
		},
	})
}
