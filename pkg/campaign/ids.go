package campaign

import (
	"strings"
	"time"
	"unicode"
)

// Slugify lowercases s and collapses anything that is not a letter or digit
// into single hyphens, truncating to at most max runes. Non-ASCII letters are
// kept so CJK topics still produce a recognizable directory name.
func Slugify(s string, max int) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if runes := []rune(out); len(runes) > max {
		out = strings.Trim(string(runes[:max]), "-")
	}
	if out == "" {
		out = "campaign"
	}
	return out
}

// NewCampaignID builds a campaign identifier from a creation timestamp and
// the topic, e.g. "20260830-154501_solar-panels". Leading with the timestamp
// keeps campaign directories in chronological order.
func NewCampaignID(topic string, at time.Time) string {
	return at.UTC().Format("20060102-150405") + "_" + Slugify(topic, 40)
}

// DetectLanguage guesses the dominant written language of s from its script.
// It distinguishes Chinese, Japanese, Korean and falls back to English.
// Japanese wins over Chinese when any kana is present, since Japanese text
// freely mixes kanji with kana.
func DetectLanguage(s string) string {
	var han, kana, hangul int
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		}
	}
	switch {
	case kana > 0:
		return "Japanese"
	case hangul > 0 && hangul >= han:
		return "Korean"
	case han > 0:
		return "Chinese"
	}
	return "English"
}

// LanguageCode returns the ISO 639-1 code for the detected language of s.
func LanguageCode(s string) string {
	switch DetectLanguage(s) {
	case "Japanese":
		return "ja"
	case "Korean":
		return "ko"
	case "Chinese":
		return "zh"
	}
	return "en"
}
