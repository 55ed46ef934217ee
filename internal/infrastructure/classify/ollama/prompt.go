package ollama

import (
	"strings"
	"unicode/utf8"

	"docvault/internal/core/domain"
)

// promptBudget caps how much of the document is shown to the model; the
// candidates and instructions consume the rest of the context window.
const promptBudget = 6000

func buildPrompt(fullText, filename string, candidates domain.Candidates) string {
	var sb strings.Builder
	sb.WriteString(`You are a document filing assistant for a family archive.
Pick the best matching context and category for the document below.
Return a strict JSON object with keys:
context_id (string, one of the listed ids or empty),
category_id (string, one of the listed ids or empty),
summary (one sentence, string),
document_date (ISO date string or empty),
confidence (number from 0 to 1).
No markdown, no extra keys.

`)

	writeCandidates(&sb, "Contexts", candidates.Contexts)
	writeCandidates(&sb, "Categories", candidates.Categories)

	sb.WriteString("Filename: ")
	sb.WriteString(filename)
	sb.WriteString("\n\nDocument:\n")

	sb.WriteString(truncateOnRune(fullText, promptBudget))
	return sb.String()
}

// truncateOnRune cuts the text at the budget without splitting a multi-byte
// rune at the boundary.
func truncateOnRune(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func writeCandidates(sb *strings.Builder, label string, items []domain.Candidate) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label)
	sb.WriteString(":\n")
	for _, item := range items {
		sb.WriteString("- id=")
		sb.WriteString(item.ID)
		sb.WriteString(" name=")
		sb.WriteString(item.Name)
		if item.Description != "" {
			sb.WriteString(" (")
			sb.WriteString(item.Description)
			sb.WriteString(")")
		}
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
}

// extractJSONObject salvages the JSON object from a response that may wrap
// it in prose or code fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
