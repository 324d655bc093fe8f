package parsing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Valid season bounds for the series. Uploads referencing seasons outside
// this range are treated as unrelated content.
const (
	MinSeason = 1
	MaxSeason = 29
)

// seasonPattern matches a one- or two-digit number immediately preceding the
// season counter, rejecting numbers that are the tail of a longer digit run.
var seasonPattern = regexp.MustCompile(`(\d{1,2})\s*기`)

// roundPatterns are tried in priority order; the first match wins. Patterns
// are never merged across markers.
var roundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bEP\s*\.?\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bE\s*\.?\s*(\d{1,3})\b`),
	regexp.MustCompile(`(\d{1,3})\s*(?:화|회)`),
}

// partPattern matches an intra-round part marker such as "3부".
var partPattern = regexp.MustCompile(`(\d{1,2})\s*부`)

// ParseSeasons extracts every distinct valid season number from text, in
// order of first occurrence.
func ParseSeasons(text string) []int {
	var seasons []int
	for _, match := range seasonPattern.FindAllStringSubmatchIndex(text, -1) {
		// Reject "12" inside "112기" style runs.
		if start := match[2]; start > 0 {
			if prev := text[start-1]; prev >= '0' && prev <= '9' {
				continue
			}
		}
		season, err := strconv.Atoi(text[match[2]:match[3]])
		if err != nil || season < MinSeason || season > MaxSeason {
			continue
		}
		if !containsInt(seasons, season) {
			seasons = append(seasons, season)
		}
	}
	return seasons
}

// ParseSeason returns the first valid season marker in text, or 0 when none
// is present. Callers treat 0 as "unknown".
func ParseSeason(text string) int {
	if seasons := ParseSeasons(text); len(seasons) > 0 {
		return seasons[0]
	}
	return 0
}

// ParseRound extracts the broadcast round number (EP/E/화/회 markers) from
// text. Returns 0 when no pattern matches or the number is out of range.
func ParseRound(text string) int {
	for _, pattern := range roundPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		round, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if round >= 1 && round <= 999 {
			return round
		}
	}
	return 0
}

// ParseEpisodeInRound extracts an intra-round part number ("2부"), or 0.
func ParseEpisodeInRound(text string) int {
	match := partPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	part, err := strconv.Atoi(match[1])
	if err != nil || part < 1 {
		return 0
	}
	return part
}

// EnsureSeasonList deduplicates, bounds-checks, and sorts a requested season
// selection.
func EnsureSeasonList(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	var seasons []int
	for _, value := range values {
		if value < MinSeason || value > MaxSeason {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		seasons = append(seasons, value)
	}
	sort.Ints(seasons)
	return seasons
}

// CleanSpaces trims text and collapses interior whitespace runs to single
// spaces.
func CleanSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func containsInt(values []int, target int) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
