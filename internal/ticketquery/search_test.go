package ticketquery_test

import (
	"net/url"
	"testing"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Login bug on Safari", []string{"login", "bug", "on", "safari"}},
		{"  ", nil},
		{"", nil},
		{"API-v2: 500 errors!!", []string{"api", "v2", "500", "errors"}},
		{"Größe ändern", []string{"größe", "ändern"}},
		{"bug bug BUG", []string{"bug", "bug", "bug"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ticketquery.Tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenCountsAndTerms(t *testing.T) {
	assert.Equal(t, map[string]int{"bug": 3, "crash": 1}, ticketquery.TokenCounts("Bug crash bug, BUG"))
	assert.Equal(t, []string{"bug", "crash"}, ticketquery.Terms("Bug crash bug, BUG"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", ticketquery.EscapeLike("100%"))
	assert.Equal(t, "a!_b", ticketquery.EscapeLike("a_b"))
	assert.Equal(t, "x!!y", ticketquery.EscapeLike("x!y"))
	assert.Equal(t, "%safari%", ticketquery.ContainsPattern("safari"))
}

func TestParseSearch(t *testing.T) {
	s, err := ticketquery.ParseSearch(url.Values{"q": {"  "}})
	require.NoError(t, err)
	assert.True(t, s.Empty())

	s, err = ticketquery.ParseSearch(url.Values{"q": {"Safari safari login"}, "limit": {"5"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"safari", "login"}, s.Terms)
	assert.Equal(t, 5, s.Limit)
	assert.Nil(t, s.ProjectID)

	_, err = ticketquery.ParseSearch(url.Values{"q": {"x"}, "project_id": {"bad"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
