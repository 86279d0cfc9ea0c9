// Package naming turns human-curated folder names into canonical identity
// tokens. Profile folders accumulate years of inconsistent conventions
// ("4 - KIMBERLY", "1 (diosa)", "0 - TIKAS ⭐⭐") and every consumer that
// groups or matches by folder name goes through these helpers.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ordinalPrefixPattern = regexp.MustCompile(`^\d+\s*[-.)]\s*`)
	parentheticalPattern = regexp.MustCompile(`\(([^()]+)\)`)
	nonAlphanumPattern   = regexp.MustCompile(`[^a-z0-9]+`)
	underscoreRunPattern = regexp.MustCompile(`_+`)
	slugUnsafePattern    = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	pathSeparatorPattern = regexp.MustCompile(`[\\/]+`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// stripMarks decomposes text (NFKD) and removes combining marks, so that
// "Mónica" and "Monica" normalize to the same token.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeToken folds a label into its canonical lookup token: diacritics
// stripped, lowercased, "&" spelled out, every non-alphanumeric run collapsed
// to a single underscore.
func NormalizeToken(value string) string {
	if folded, _, err := transform.String(stripMarks, value); err == nil {
		value = folded
	}
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "&", " and ")
	value = strings.ReplaceAll(value, "_", " ")
	value = nonAlphanumPattern.ReplaceAllString(value, "_")
	value = underscoreRunPattern.ReplaceAllString(value, "_")
	return strings.Trim(value, "_")
}

// PreferParenthetical returns the inner text of the first parentheses when it
// is non-empty, otherwise the trimmed input.
func PreferParenthetical(text string) string {
	if m := parentheticalPattern.FindStringSubmatch(text); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	return strings.TrimSpace(text)
}

// StripFolderPrefix drops the ordering prefix from a folder name
// ("4 - KIMBERLY" -> "KIMBERLY") and prefers parenthetical content when
// present ("1 (diosa)" -> "diosa"). Emojis outside the parentheses survive as
// a suffix ("4 - KIMBERLY (Diosa) ⭐⭐" -> "Diosa ⭐⭐") so a later
// SeparateEmojis call still sees them.
func StripFolderPrefix(folder string) string {
	base := folder
	if _, after, found := strings.Cut(folder, "-"); found {
		base = strings.TrimSpace(after)
	}
	text, emojis := SeparateEmojis(base)
	text = PreferParenthetical(text)
	if emojis != "" && !strings.Contains(text, emojis) {
		text = strings.TrimSpace(text + " " + emojis)
	}
	return text
}

// CandidateLabels returns every plausible reading of a folder name, in a
// deterministic order: the raw name, the ordinal-prefix-stripped form, each
// parenthetical inner text, and the rightmost dash-delimited segment. The
// target index registers a folder under all of them so files can find it
// regardless of which convention named the source folder.
func CandidateLabels(component string) []string {
	raw := strings.TrimSpace(component)

	var out []string
	seen := make(map[string]struct{})
	add := func(item string) {
		item = strings.TrimSpace(item)
		if item == "" {
			return
		}
		if _, ok := seen[item]; ok {
			return
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}

	add(raw)
	add(ordinalPrefixPattern.ReplaceAllString(raw, ""))

	for _, m := range parentheticalPattern.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}

	if strings.Contains(raw, "-") {
		parts := strings.Split(raw, "-")
		for i := len(parts) - 1; i >= 0; i-- {
			if segment := strings.TrimSpace(parts[i]); segment != "" {
				add(segment)
				break
			}
		}
	}

	return out
}

// Slugify converts a display name into a safe file stem. Empty results fall
// back to "profile".
func Slugify(value string) string {
	safe := slugUnsafePattern.ReplaceAllString(strings.TrimSpace(value), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "profile"
	}
	return safe
}

// SanitizeFolderName makes a raw folder label safe to create on disk:
// path separators and whitespace become underscores, runs collapse, and
// leading/trailing separators are trimmed.
func SanitizeFolderName(raw string) string {
	value := strings.TrimSpace(raw)
	value = pathSeparatorPattern.ReplaceAllString(value, "_")
	value = whitespacePattern.ReplaceAllString(value, "_")
	value = underscoreRunPattern.ReplaceAllString(value, "_")
	return strings.Trim(value, "._ ")
}
