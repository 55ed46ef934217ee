package classify

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docvault/internal/core/domain"
)

// Date forms recognized in document text and filenames. Dotted forms are
// day-first; two-digit years belong to the 2000s.
var (
	isoDatePattern    = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dottedDatePattern = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})\b`)
)

// Heuristic matches candidate names against the filename and text, and
// scans for a document date. It needs no network and runs first.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) ID() string { return "heuristic" }

func (h *Heuristic) Analyze(ctx context.Context, fullText, filename string, candidates domain.Candidates, p *domain.Prediction) error {
	haystack := strings.ToLower(filename + "\n" + fullText)

	if match := matchCandidate(haystack, candidates.Contexts); match != "" {
		p.ContextID = match
	}
	if match := matchCandidate(haystack, candidates.Categories); match != "" {
		p.CategoryID = match
	}
	if date := findDocumentDate(fullText); date != nil {
		p.DocumentDate = date
	} else if date := findDocumentDate(filename); date != nil {
		p.DocumentDate = date
	}
	return nil
}

func matchCandidate(haystack string, candidates []domain.Candidate) string {
	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		if strings.Contains(haystack, name) {
			return c.ID
		}
	}
	return ""
}

func findDocumentDate(text string) *time.Time {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if date := buildDate(m[1], m[2], m[3]); date != nil {
			return date
		}
	}
	if m := dottedDatePattern.FindStringSubmatch(text); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	return nil
}

func buildDate(yearStr, monthStr, dayStr string) *time.Time {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject normalized rollovers like 31.02
	if date.Day() != day || date.Month() != time.Month(month) {
		return nil
	}
	return &date
}
