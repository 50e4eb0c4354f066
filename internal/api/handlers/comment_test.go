package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/worknest/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCommentHandler(t *testing.T) {
	ts := testutil.NewTestServer(t)
	author, authorToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(author).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, author).Build(t, ts.Repos)
	ticketPath := "/tickets/" + ticket.ID.String() + "/comments"

	resp := ts.Do(t, http.MethodPost, ticketPath, authorToken, map[string]string{"content": "looks good"})
	var comment struct {
		ID      string `json:"id"`
		UserID  string `json:"user_id"`
		Content string `json:"content"`
	}
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &comment)
	resp.Body.Close()
	assert.Equal(t, author.ID.String(), comment.UserID)

	resp = ts.Do(t, http.MethodGet, ticketPath, otherToken, nil)
	var comments []map[string]any
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &comments)
	resp.Body.Close()
	assert.Len(t, comments, 1)

	tests := []struct {
		name           string
		method         string
		token          string
		body           any
		expectedStatus int
	}{
		{"other user cannot edit", http.MethodPut, otherToken, map[string]string{"content": "mine now"}, http.StatusForbidden},
		{"other user cannot delete", http.MethodDelete, otherToken, nil, http.StatusForbidden},
		{"author cannot blank it", http.MethodPut, authorToken, map[string]string{"content": ""}, http.StatusBadRequest},
		{"author edits", http.MethodPut, authorToken, map[string]string{"content": "edited"}, http.StatusOK},
		{"author deletes", http.MethodDelete, authorToken, nil, http.StatusNoContent},
		{"gone after delete", http.MethodDelete, authorToken, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, tt.method, "/comments/"+comment.ID, tt.token, tt.body)
			defer resp.Body.Close()
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
		})
	}

	resp = ts.Do(t, http.MethodPost, "/tickets/2f1f6a57-5d5a-4c6e-9a0e-0d5b1d8f0c11/comments", authorToken, map[string]string{"content": "hi"})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
