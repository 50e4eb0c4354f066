package ticketquery

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/dom/worknest/internal/domain"
	"github.com/google/uuid"
)

// LikeEscape is the escape character used with EscapeLike patterns.
const LikeEscape = "!"

// MaxTerms bounds the number of distinct terms a search query is split into.
const MaxTerms = 16

// Search is a full-text query over ticket title and description.
type Search struct {
	Terms     []string
	ProjectID *uuid.UUID
	Limit     int
}

// Empty reports whether the query has nothing to match. Empty queries return
// no tickets rather than all of them.
func (s Search) Empty() bool {
	return len(s.Terms) == 0
}

func NewSearch(text string, projectID *uuid.UUID, limit int) Search {
	terms := Terms(text)
	if len(terms) > MaxTerms {
		terms = terms[:MaxTerms]
	}
	return Search{Terms: terms, ProjectID: projectID, Limit: clampLimit(limit)}
}

// ParseSearch reads q, project_id and limit. A blank q is accepted here and
// yields an empty Search.
func ParseSearch(values url.Values) (Search, error) {
	var projectID *uuid.UUID
	if v := strings.TrimSpace(values.Get("project_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return Search{}, domain.Invalid("project_id", "must be a valid id")
		}
		projectID = &id
	}
	limit, err := parseNonNegative(values, "limit")
	if err != nil {
		return Search{}, err
	}
	return NewSearch(values.Get("q"), projectID, limit), nil
}

// Tokenize splits text into lower-cased runs of letters and digits, in order
// of appearance and including repeats.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// TokenCounts is the per-token occurrence count of text.
func TokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range Tokenize(text) {
		counts[tok]++
	}
	return counts
}

// Terms is Tokenize without repeats.
func Terms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range Tokenize(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// EscapeLike escapes LIKE wildcards so s matches literally when used with
// ESCAPE '!'.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// ContainsPattern is the LIKE pattern matching any value containing s.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}
