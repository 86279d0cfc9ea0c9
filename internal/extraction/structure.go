package extraction

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// KeyValue is one "key: value" line recognized in OCR text.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Structured is the line-level decomposition of raw OCR text.
type Structured struct {
	Lines     []string
	KeyValues []KeyValue
	Bullets   []string
}

// Price is one normalized rate from a card.
type Price struct {
	Duration string `json:"duration"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// durationSynonyms maps canonical rate durations to the spellings cards use.
var durationSynonyms = map[string][]string{
	"1 hora":  {"1 hora", "1hr", "1 hr", "1h", "una hora"},
	"2 horas": {"2 horas", "2hr", "2 hrs", "2h", "dos horas"},
	"3 horas": {"3 horas", "3hr", "3 hrs", "3h", "tres horas"},
	"Toda la noche": {
		"toda la noche",
		"noche completa",
		"overnight",
		"9:00 pm a 7:00 am",
		"9 pm a 7 am",
		"9pm a 7am",
		"7 pm a 8 am",
		"9 pm a 6 am",
	},
}

var (
	agePattern      = regexp.MustCompile(`(?i)edad\s*[:\-]?\s*(\d{1,2})`)
	numberPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)*)`)
	whatsappPattern = regexp.MustCompile(`(?i)whatsapp[\s:]*([\+\d][\d\s\-]{5,})`)
	phonePattern    = regexp.MustCompile(`(?i)(?:tel(?:efono)?|contact(?:o|a|ala|ela)?)\D*([\+\d][\d\s\-]{5,})`)
	nonDigitPattern = regexp.MustCompile(`\D`)
	namePrefixRe    = regexp.MustCompile(`^[0-9]+[\s\-\)\(]*`)
)

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ä", "a", "ë", "e", "ï", "i", "ö", "o", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U",
	"Ä", "A", "Ë", "E", "Ï", "I", "Ö", "O", "Ü", "U", "Ñ", "N",
	"¿", " ", "?", " ",
)

// StructureText decomposes free-form OCR text into lines, bullet items, and
// "key: value" pairs.
func StructureText(raw string) Structured {
	var out Structured
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out.Lines = append(out.Lines, line)

		normalized := strings.TrimLeft(line, "-•* ")
		if normalized != line {
			out.Bullets = append(out.Bullets, normalized)
		}
		if key, value, found := strings.Cut(normalized, ":"); found {
			out.KeyValues = append(out.KeyValues, KeyValue{
				Key:   strings.TrimSpace(key),
				Value: strings.TrimSpace(value),
			})
		}
	}
	return out
}

func normalizeText(value string) string {
	return strings.TrimSpace(strings.ToLower(accentFolder.Replace(value)))
}

func findValue(keyValues []KeyValue, aliases ...string) string {
	for _, entry := range keyValues {
		key := normalizeText(entry.Key)
		for _, alias := range aliases {
			if strings.Contains(key, alias) {
				return entry.Value
			}
		}
	}
	return ""
}

func normalizeDuration(text string) string {
	if text == "" {
		return ""
	}
	normalized := normalizeText(text)
	for canonical, patterns := range durationSynonyms {
		for _, pattern := range patterns {
			if strings.Contains(normalized, normalizeText(pattern)) {
				return canonical
			}
		}
	}
	return ""
}

func inferCurrency(text string) string {
	normalized := strings.ToLower(text)
	if strings.Contains(normalized, "usd") || strings.Contains(normalized, "dolar") || strings.Contains(normalized, "$") {
		return "USD"
	}
	return "CRC"
}

// parseAmount pulls a numeric amount out of price text. "mil" multiplies by
// a thousand; dots are thousands separators and commas decimal points.
func parseAmount(text string) (int, string, bool) {
	if text == "" {
		return 0, "CRC", false
	}
	currency := inferCurrency(text)
	normalized := strings.ToLower(text)
	multiplier := 1.0
	if strings.Contains(normalized, "mil") {
		multiplier = 1000
	}
	match := numberPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, currency, false
	}
	number := strings.ReplaceAll(match[1], ".", "")
	number = strings.ReplaceAll(number, ",", ".")
	amount, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, currency, false
	}
	return int(amount*multiplier + 0.5), currency, true
}

// ExtractPrices finds normalized rates across key/value pairs and raw lines,
// deduplicated.
func ExtractPrices(parsed Structured) []Price {
	var prices []Price
	seen := make(map[Price]struct{})
	add := func(p Price) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		prices = append(prices, p)
	}

	for _, entry := range parsed.KeyValues {
		combined := entry.Key + ": " + entry.Value
		duration := normalizeDuration(combined)
		if duration == "" {
			continue
		}
		amount, currency, ok := parseAmount(entry.Value)
		if !ok {
			amount, currency, ok = parseAmount(combined)
		}
		if ok {
			add(Price{Duration: duration, Amount: amount, Currency: currency})
		}
	}

	for _, line := range parsed.Lines {
		normalized := strings.TrimSpace(strings.TrimLeft(line, "-•* "))
		duration := normalizeDuration(normalized)
		if duration == "" {
			continue
		}
		amount, currency, ok := parseAmount(normalized)
		if !ok {
			if _, value, found := strings.Cut(normalized, ":"); found {
				amount, currency, ok = parseAmount(value)
			}
		}
		if ok {
			add(Price{Duration: duration, Amount: amount, Currency: currency})
		}
	}

	return prices
}

// ExtractAge looks for an age in the "edad" field or anywhere in the text.
func ExtractAge(parsed Structured, raw string) (int, bool) {
	if value := findValue(parsed.KeyValues, "edad"); value != "" {
		if match := numberPattern.FindStringSubmatch(value); match != nil {
			head, _, _ := strings.Cut(match[1], ",")
			if age, err := strconv.Atoi(strings.ReplaceAll(head, ".", "")); err == nil {
				return age, true
			}
		}
	}
	if match := agePattern.FindStringSubmatch(raw); match != nil {
		if age, err := strconv.Atoi(match[1]); err == nil {
			return age, true
		}
	}
	return 0, false
}

// ExtractLocation reads the residence field.
func ExtractLocation(parsed Structured) string {
	return strings.TrimSpace(findValue(parsed.KeyValues, "zona donde vive", "ubicacion", "ubicacion actual"))
}

func booleanFromSpanish(value string) (bool, bool) {
	normalized := normalizeText(value)
	switch {
	case strings.HasPrefix(normalized, "si"):
		return true, true
	case strings.HasPrefix(normalized, "no"):
		return false, true
	}
	return false, false
}

// ExtractAttributes collects physical attributes from key/value pairs.
func ExtractAttributes(parsed Structured) map[string]any {
	attributes := make(map[string]any)
	if height := findValue(parsed.KeyValues, "estatura", "altura"); height != "" {
		attributes["height"] = strings.TrimSpace(height)
	}
	if weight := findValue(parsed.KeyValues, "peso"); weight != "" {
		attributes["weight"] = strings.TrimSpace(weight)
	}
	if eye := findValue(parsed.KeyValues, "color de ojos", "color de ojo"); eye != "" {
		attributes["eye_color"] = strings.TrimSpace(eye)
	}
	if hair := findValue(parsed.KeyValues, "color de cabello", "cabello"); hair != "" {
		attributes["hair_color"] = strings.TrimSpace(hair)
	}
	if implants := findValue(parsed.KeyValues, "tenes implantes", "tenes implante", "implantes"); implants != "" {
		if value, ok := booleanFromSpanish(implants); ok {
			attributes["implants"] = value
		}
	}
	return attributes
}

func cleanPhone(value string) string {
	digits := nonDigitPattern.ReplaceAllString(value, "")
	digits = strings.TrimPrefix(digits, "00")
	return digits
}

// ExtractContact finds WhatsApp and phone numbers across all text sources.
// A phone equal to the WhatsApp number is not repeated.
func ExtractContact(parsed Structured, raw string) map[string]string {
	contact := make(map[string]string)

	var sources []string
	for _, entry := range parsed.KeyValues {
		sources = append(sources, entry.Key+" "+entry.Value)
	}
	sources = append(sources, parsed.Lines...)
	sources = append(sources, raw)

	for _, source := range sources {
		if match := whatsappPattern.FindStringSubmatch(source); match != nil {
			if digits := cleanPhone(match[1]); digits != "" {
				contact["whatsapp"] = digits
				break
			}
		}
	}

	for _, source := range sources {
		if match := phonePattern.FindStringSubmatch(source); match != nil {
			if digits := cleanPhone(match[1]); digits != "" && digits != contact["whatsapp"] {
				contact["phone"] = digits
				break
			}
		}
	}

	return contact
}

// DeriveNameFromPath falls back to the image's parent folder for a profile
// name, with ordering digits stripped.
func DeriveNameFromPath(imagePath string) string {
	parent := strings.TrimSpace(filepath.Base(filepath.Dir(imagePath)))
	candidate := namePrefixRe.ReplaceAllString(parent, "")
	return strings.Trim(candidate, "_- ")
}

// BaselineProfile builds a structured profile from heuristics alone, for
// when no model is configured or the model output cannot be parsed.
func BaselineProfile(raw string, parsed Structured, imagePath string) map[string]any {
	profile := map[string]any{
		"name":       nil,
		"age":        nil,
		"location":   nil,
		"prices":     ExtractPrices(parsed),
		"services":   []string{},
		"attributes": ExtractAttributes(parsed),
		"contact":    ExtractContact(parsed, raw),
		"raw_text":   raw,
	}
	if name := DeriveNameFromPath(imagePath); name != "" {
		profile["name"] = name
	}
	if age, ok := ExtractAge(parsed, raw); ok {
		profile["age"] = age
	}
	if location := ExtractLocation(parsed); location != "" {
		profile["location"] = location
	}
	return profile
}

// EnsureDefaults fills fallback fields a model response omitted.
func EnsureDefaults(profile map[string]any, raw, imagePath string) map[string]any {
	if name, _ := profile["name"].(string); strings.TrimSpace(name) == "" {
		if fallback := DeriveNameFromPath(imagePath); fallback != "" {
			profile["name"] = fallback
		}
	}
	if text, _ := profile["raw_text"].(string); strings.TrimSpace(text) == "" {
		profile["raw_text"] = raw
	}
	return profile
}
