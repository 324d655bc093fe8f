package parsing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const titleKeyMaxLen = 48

var (
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	nonWordPattern = regexp.MustCompile(`[^0-9A-Za-z가-힣]+`)
	nonHashPattern = regexp.MustCompile(`[^0-9a-z가-힣 ]+`)
)

// NormalizeTitleKey strips bracketed segments and punctuation from a title
// and lowercases it, leaving a coarse comparable form.
func NormalizeTitleKey(title string) string {
	cleaned := bracketPattern.ReplaceAllString(title, " ")
	cleaned = nonWordPattern.ReplaceAllString(cleaned, " ")
	return strings.ToLower(CleanSpaces(cleaned))
}

// DedupeKey derives the grouping key used to collapse duplicate discoveries.
// With a known round the key is exact (season+round). Otherwise it falls
// back to season+date+truncated normalized title, which is a heuristic and
// can collide for near-identical titles. Season and round of 0 mean unknown.
func DedupeKey(season, round int, uploadDate, title string) string {
	if round > 0 {
		return fmt.Sprintf("s%02d:e%03d", season, round)
	}
	day := uploadDate
	if day == "" {
		day = "0000-00-00"
	}
	norm := NormalizeTitleKey(title)
	if runes := []rune(norm); len(runes) > titleKeyMaxLen {
		norm = strings.TrimSpace(string(runes[:titleKeyMaxLen]))
	}
	if norm == "" {
		norm = "untitled"
	}
	return fmt.Sprintf("s%02d:d%s:%s", season, day, norm)
}

// NormalizeForHash lowercases text, collapses whitespace, and strips every
// character outside the alphanumeric and Hangul ranges.
func NormalizeForHash(text string) string {
	lowered := strings.ToLower(text)
	lowered = CleanSpaces(lowered)
	return strings.TrimSpace(nonHashPattern.ReplaceAllString(lowered, ""))
}

// TranscriptHash digests normalized transcript text so re-fetches can detect
// content drift without a byte comparison.
func TranscriptHash(text string) string {
	sum := sha1.Sum([]byte(NormalizeForHash(text)))
	return hex.EncodeToString(sum[:])
}

// uploadDateLayouts are the formats the platform emits for upload dates.
var uploadDateLayouts = []string{"20060102", "2006-01-02", "2006.01.02", "2006/01/02"}

// ParseUploadDate normalizes a platform upload date into ISO form, returning
// "" when the value is empty or unparseable.
func ParseUploadDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range uploadDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return ""
}
