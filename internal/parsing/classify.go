package parsing

import "strings"

// ContentClass partitions uploads into the main series, its spin-offs, and
// everything else.
type ContentClass string

const (
	ClassMain    ContentClass = "main"
	ClassSpinoff ContentClass = "spinoff"
	ClassUnknown ContentClass = "unknown"
)

// spinoffKeywords identify spin-off programming. Checked before the main
// keywords: a title naming both classifies as spinoff.
var spinoffKeywords = []string{
	"나솔사계",
	"사랑은 계속된다",
	"지볶행",
	"솔로민박",
}

var mainKeywords = []string{
	"나는 solo",
	"나는솔로",
	"솔로나라",
}

// coreKeywords are the minimal relevance markers accepted by the fallback
// search gate; "나솔" alone is too ambiguous for classification but fine for
// relevance.
var coreKeywords = []string{
	"나는 solo",
	"나는솔로",
	"나솔",
}

// exclusionKeywords mark non-episodic uploads from the official channel:
// live segments, behind-the-scenes cuts, news/press items, interviews, and
// shorts compilations.
var exclusionKeywords = []string{
	"라이브",
	"live",
	"비하인드",
	"behind",
	"뉴스",
	"기자회견",
	"인터뷰",
	"interview",
	"쇼츠",
	"shorts",
}

// Classify buckets a video into main/spinoff/unknown from its title and
// description. Spin-off keywords take precedence over main-series keywords.
func Classify(title, description string) ContentClass {
	combined := strings.ToLower(title + " " + description)
	for _, keyword := range spinoffKeywords {
		if strings.Contains(combined, keyword) {
			return ClassSpinoff
		}
	}
	for _, keyword := range mainKeywords {
		if strings.Contains(combined, keyword) {
			return ClassMain
		}
	}
	return ClassUnknown
}

// IsPureMainContent reports whether the upload looks like a regular
// main-series episode: a main keyword present and no exclusion keyword.
func IsPureMainContent(title, description string) bool {
	combined := strings.ToLower(title + " " + description)
	found := false
	for _, keyword := range mainKeywords {
		if strings.Contains(combined, keyword) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, keyword := range exclusionKeywords {
		if strings.Contains(combined, keyword) {
			return false
		}
	}
	return true
}

// HasCoreKeyword reports whether text mentions the series at all. Used by
// the fallback search acceptance gate.
func HasCoreKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range coreKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// ParseContentClass converts a stored string back into a ContentClass.
func ParseContentClass(value string) ContentClass {
	switch ContentClass(strings.ToLower(strings.TrimSpace(value))) {
	case ClassMain:
		return ClassMain
	case ClassSpinoff:
		return ClassSpinoff
	default:
		return ClassUnknown
	}
}
