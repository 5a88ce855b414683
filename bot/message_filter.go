package bot

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// longFormRunes is the length at which a post counts regardless of its opening
const longFormRunes = 1000

var (
	reviewPrefix = regexp.MustCompile(`(?i)^(preview|review|프리뷰|리뷰)`)

	emojiRanges = [][2]rune{
		{0x1F600, 0x1F64F},
		{0x1F300, 0x1F5FF},
		{0x1F680, 0x1F6FF},
		{0x2600, 0x26FF},
		{0x2700, 0x27BF},
	}

	strippedSymbols = "<>[]{}()#*_~`|\\!@$%^&+=:;'\",.?/-"
)

// IsQualifyingMessage reports whether a library post counts as a review.
// Long posts always count; shorter ones must open with a review marker once
// emoji and decoration are removed.
func IsQualifyingMessage(content string) bool {
	if content == "" {
		return false
	}
	if utf8.RuneCountInString(content) >= longFormRunes {
		return true
	}
	return reviewPrefix.MatchString(stripDecoration(content))
}

func stripDecoration(content string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isStrippedEmoji(r) || strings.ContainsRune(strippedSymbols, r) {
			return -1
		}
		return r
	}, content)
	return strings.TrimSpace(cleaned)
}

func isStrippedEmoji(r rune) bool {
	for _, span := range emojiRanges {
		if r >= span[0] && r <= span[1] {
			return true
		}
	}
	return false
}
