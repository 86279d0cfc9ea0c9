// Package extraction turns profile card screenshots into structured records.
// An LLM provider does the reading; this package owns the prompt, the
// response cleanup, and a heuristic fallback that can structure raw OCR text
// without any model at all.
package extraction

import (
	"fmt"
	"strings"
)

// Hints carries context derived from the folder structure around an image.
// The model uses them to disambiguate partial or noisy card text.
type Hints struct {
	Name     string
	Location string
	AgeGroup string
	Category string
}

// BuildPrompt assembles the profile-extraction prompt for one card image or
// its OCR text.
func BuildPrompt(hints *Hints) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert data extraction assistant for a service catalog. The input is a profile card or service menu.
`)

	if hints != nil {
		fmt.Fprintf(&sb, `
CONTEXT HINTS (derived from folder structure):
- Name/Alias: %s
- Location: %s
- Suggested Age Group: %s
- Category/Tag: %s
`, orUnknown(hints.Name), orUnknown(hints.Location), orUnknown(hints.AgeGroup), orUnknown(hints.Category))
	}

	sb.WriteString(`
Extract structured data into a JSON object matching this schema:
{
  "name": string | null,
  "age": integer | null,
  "location": string | null,
  "prices": [ { "duration": string, "amount": integer, "currency": "CRC"|"USD" } ],
  "services": [ string ],
  "contact": { "whatsapp": string, "phone": string, "email": string, "social": string },
  "attributes": { "height": string, "weight": string, "measurements": string, "implants": boolean, "hair_color": string, "eye_color": string },
  "raw_text": string
}

Guidelines:
1. Normalize prices to numeric amounts. If "25 mil", amount is 25000.
2. Separate services from physical attributes.
3. Use "CRC" for colones and "USD" for dollars. Never use "EUR".
4. If a field is missing, use null.
5. "raw_text" MUST be a concise summary in Spanish, regardless of the input language.

Response must be VALID JSON ONLY. Do not include commentary or markdown blocks. Just the JSON.`)

	return sb.String()
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}
