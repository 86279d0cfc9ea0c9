package naming

import (
	"strings"
	"unicode"
)

// pictographic covers the emoji ranges that show up in curated folder names:
// dingbats, stars, clocks, and the supplementary pictographic planes.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x231A, Hi: 0x231B, Stride: 1},
		{Lo: 0x23E9, Hi: 0x23EC, Stride: 1},
		{Lo: 0x23F0, Hi: 0x23F0, Stride: 1},
		{Lo: 0x23F3, Hi: 0x23F3, Stride: 1},
		{Lo: 0x25FD, Hi: 0x25FE, Stride: 1},
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1},
		{Lo: 0x2B50, Hi: 0x2B50, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F004, Hi: 0x1F004, Stride: 1},
		{Lo: 0x1F0CF, Hi: 0x1F0CF, Stride: 1},
		{Lo: 0x1F170, Hi: 0x1F251, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1FAFF, Stride: 1},
	},
}

// SeparateEmojis splits a folder label into its base text and the
// concatenation of every pictographic rune. When the base reduces to bare
// digits and the emoji run ends with those same digits, the digits are
// treated as an OCR artifact and dropped from the emoji string.
func SeparateEmojis(text string) (string, string) {
	var base, emojis strings.Builder
	for _, r := range text {
		if unicode.Is(pictographic, r) {
			emojis.WriteRune(r)
		} else {
			base.WriteRune(r)
		}
	}

	baseText := strings.TrimSpace(base.String())
	emojiText := emojis.String()

	if baseText != "" && isAllDigits(baseText) && emojiText != "" && strings.HasSuffix(emojiText, baseText) {
		emojiText = strings.TrimSuffix(emojiText, baseText)
		baseText = ""
	}

	if baseText == "" {
		baseText = strings.TrimSpace(text)
	}
	return baseText, emojiText
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
