package gormdb

import (
	"sort"
	"strings"
	"time"

	"github.com/dom/worknest/internal/ticketquery"
	"gorm.io/gorm"
)

// maxTokenLength matches the token column width. Longer runs are truncated.
const maxTokenLength = 255

type searchDocument struct {
	TicketID  string `gorm:"primaryKey"`
	Body      string
	UpdatedAt time.Time
}

func (searchDocument) TableName() string { return "ticket_search_documents" }

type searchToken struct {
	TicketID string `gorm:"primaryKey"`
	Token    string `gorm:"primaryKey"`
	Hits     int
}

func (searchToken) TableName() string { return "ticket_search_tokens" }

// writeSearchDocument replaces the index entries of one ticket. It must run
// in the same transaction as the ticket write.
func writeSearchDocument(tx *gorm.DB, ticketID, text string, updatedAt time.Time) error {
	if err := deleteSearchDocument(tx, ticketID); err != nil {
		return err
	}

	doc := searchDocument{
		TicketID:  ticketID,
		Body:      strings.ToLower(text),
		UpdatedAt: updatedAt,
	}
	if err := tx.Create(&doc).Error; err != nil {
		return err
	}

	counts := make(map[string]int)
	for tok, n := range ticketquery.TokenCounts(text) {
		if len(tok) > maxTokenLength {
			tok = truncateToken(tok)
		}
		counts[tok] += n
	}
	if len(counts) == 0 {
		return nil
	}

	tokens := make([]searchToken, 0, len(counts))
	for tok, n := range counts {
		tokens = append(tokens, searchToken{TicketID: ticketID, Token: tok, Hits: n})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Token < tokens[j].Token })
	return tx.CreateInBatches(tokens, 200).Error
}

func deleteSearchDocument(tx *gorm.DB, ticketIDs ...string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	if err := tx.Where("ticket_id IN ?", ticketIDs).Delete(&searchToken{}).Error; err != nil {
		return err
	}
	return tx.Where("ticket_id IN ?", ticketIDs).Delete(&searchDocument{}).Error
}

// truncateToken cuts tok to maxTokenLength bytes on a rune boundary.
func truncateToken(tok string) string {
	cut := maxTokenLength
	for cut > 0 && !isRuneStart(tok[cut]) {
		cut--
	}
	return tok[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// searchScores builds the relevance subquery: one row per matching ticket
// scored by the hits of every (term, token) pair that matches, so a token
// matched by two terms counts twice.
func searchScores(tx *gorm.DB, terms []string) *gorm.DB {
	like := "token LIKE ? ESCAPE '" + ticketquery.LikeEscape + "'"

	matches := make([]string, len(terms))
	conds := make([]string, len(terms))
	patterns := make([]any, len(terms))
	for i, term := range terms {
		matches[i] = "CASE WHEN " + like + " THEN 1 ELSE 0 END"
		conds[i] = like
		patterns[i] = ticketquery.ContainsPattern(term)
	}

	return tx.Model(&searchToken{}).
		Select("ticket_id, SUM(hits * ("+strings.Join(matches, " + ")+")) AS score", patterns...).
		Where(strings.Join(conds, " OR "), patterns...).
		Group("ticket_id")
}
