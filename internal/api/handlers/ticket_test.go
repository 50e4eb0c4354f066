package handlers_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketJSON struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	TicketType  string  `json:"ticket_type"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	AssigneeID  *string `json:"assignee_id"`
	CreatedBy   string  `json:"created_by"`
	UpdatedAt   string  `json:"updated_at"`
}

func ticketIDs(tickets []ticketJSON) []string {
	ids := make([]string, 0, len(tickets))
	for _, tk := range tickets {
		ids = append(ids, tk.ID)
	}
	return ids
}

func listTickets(t *testing.T, ts *testutil.TestServer, token string, query url.Values) ([]ticketJSON, string) {
	t.Helper()

	resp := ts.Do(t, http.MethodGet, "/tickets?"+query.Encode(), token, nil)
	defer resp.Body.Close()

	var tickets []ticketJSON
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &tickets)
	return tickets, resp.Header.Get("X-Total-Count")
}

func TestTicketHandler_EndToEnd(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := ts.Do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@x.com", "password": "pw123456",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.Do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "pw123456",
	})
	var login testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &login)
	resp.Body.Close()
	token := login.Token

	resp = ts.Do(t, http.MethodPost, "/projects", token, map[string]string{"name": "Website"})
	var project struct {
		ID string `json:"id"`
	}
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &project)
	resp.Body.Close()

	resp = ts.Do(t, http.MethodPost, "/tickets", token, map[string]any{
		"project_id":  project.ID,
		"title":       "Fix footer",
		"ticket_type": "Bug",
		"priority":    "High",
	})
	var created ticketJSON
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &created)
	resp.Body.Close()
	assert.Equal(t, "Open", created.Status)
	assert.Equal(t, "High", created.Priority)

	open, total := listTickets(t, ts, token, url.Values{"status": {"Open"}})
	testutil.AssertTicketIDs(t, []string{created.ID}, ticketIDs(open))
	assert.Equal(t, "1", total)

	resp = ts.Do(t, http.MethodPut, "/tickets/"+created.ID, token, map[string]string{"status": "Done"})
	var updated ticketJSON
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &updated)
	resp.Body.Close()
	assert.Equal(t, "Done", updated.Status)
	assert.Equal(t, "Fix footer", updated.Title)
	assert.Equal(t, "High", updated.Priority)
	assert.NotEqual(t, created.UpdatedAt, updated.UpdatedAt)

	open, _ = listTickets(t, ts, token, url.Values{"status": {"Open"}})
	assert.Empty(t, open)

	done, _ := listTickets(t, ts, token, url.Values{"status": {"Done"}})
	testutil.AssertTicketIDs(t, []string{created.ID}, ticketIDs(done))
}

func TestTicketHandler_PrioritySortAndPaging(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)

	byPriority := map[domain.Priority]string{}
	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityCritical, domain.PriorityMedium, domain.PriorityHigh} {
		tk := testutil.NewTicketBuilder(project, user).WithPriority(p).Build(t, ts.Repos)
		byPriority[p] = tk.ID.String()
	}

	sorted, total := listTickets(t, ts, token, url.Values{"project_id": {project.ID.String()}, "sort": {"priority"}})
	testutil.AssertTicketIDs(t, []string{
		byPriority[domain.PriorityCritical],
		byPriority[domain.PriorityHigh],
		byPriority[domain.PriorityMedium],
		byPriority[domain.PriorityLow],
	}, ticketIDs(sorted))
	assert.Equal(t, "4", total)

	first, _ := listTickets(t, ts, token, url.Values{"sort": {"priority"}, "limit": {"2"}, "offset": {"0"}})
	second, total := listTickets(t, ts, token, url.Values{"sort": {"priority"}, "limit": {"2"}, "offset": {"2"}})
	assert.Equal(t, "4", total)
	assert.Equal(t, ticketIDs(sorted), append(ticketIDs(first), ticketIDs(second)...))
}

func TestTicketHandler_AssigneeWireSemantics(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	other, _ := testutil.NewUserBuilder().Build(t, ts.Repos)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, user).WithAssignee(other).Build(t, ts.Repos)
	path := "/tickets/" + ticket.ID.String()

	put := func(body map[string]any) ticketJSON {
		t.Helper()
		resp := ts.Do(t, http.MethodPut, path, token, body)
		defer resp.Body.Close()
		var got ticketJSON
		testutil.AssertJSONResponse(t, resp, http.StatusOK, &got)
		return got
	}

	got := put(map[string]any{"title": "renamed"})
	require.NotNil(t, got.AssigneeID, "absent key leaves the assignee alone")
	assert.Equal(t, other.ID.String(), *got.AssigneeID)

	got = put(map[string]any{"assignee_id": "me"})
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, user.ID.String(), *got.AssigneeID)

	got = put(map[string]any{"assignee_id": nil})
	assert.Nil(t, got.AssigneeID)

	put(map[string]any{"assignee_id": other.ID.String()})
	got = put(map[string]any{"assignee_id": ""})
	assert.Nil(t, got.AssigneeID)

	mine, _ := listTickets(t, ts, token, url.Values{"assignee_id": {"me"}})
	assert.Empty(t, mine)

	resp := ts.Do(t, http.MethodPut, path, token, map[string]any{"assignee_id": "not-a-user"})
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "assignee_id")
}

func TestTicketHandler_Errors(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{"bad enum", http.MethodPost, "/tickets", map[string]any{"project_id": project.ID.String(), "title": "x", "priority": "Urgent"}, http.StatusBadRequest, "priority"},
		{"empty title", http.MethodPost, "/tickets", map[string]any{"project_id": project.ID.String(), "title": " "}, http.StatusBadRequest, "title"},
		{"unknown project", http.MethodPost, "/tickets", map[string]any{"project_id": "2f1f6a57-5d5a-4c6e-9a0e-0d5b1d8f0c11", "title": "x"}, http.StatusBadRequest, "project_id"},
		{"negative estimate", http.MethodPost, "/tickets", map[string]any{"project_id": project.ID.String(), "title": "x", "estimate_hours": -1}, http.StatusBadRequest, "estimate_hours"},
		{"malformed json", http.MethodPost, "/tickets", "{", http.StatusBadRequest, "invalid JSON"},
		{"bad id", http.MethodGet, "/tickets/nope", nil, http.StatusBadRequest, "id"},
		{"missing ticket", http.MethodGet, "/tickets/2f1f6a57-5d5a-4c6e-9a0e-0d5b1d8f0c11", nil, http.StatusNotFound, "ticket"},
		{"bad sort", http.MethodGet, "/tickets?sort=title", nil, http.StatusBadRequest, "sort"},
		{"negative limit", http.MethodGet, "/tickets?limit=-1", nil, http.StatusBadRequest, "limit"},
		{"search without q", http.MethodGet, "/tickets/search", nil, http.StatusBadRequest, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.Do(t, tt.method, tt.path, token, tt.body)
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
		})
	}
}

func TestTicketHandler_Search(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, user).WithTitle("Login bug on Safari").Build(t, ts.Repos)
	testutil.NewTicketBuilder(project, user).WithTitle("Unrelated chore").Build(t, ts.Repos)

	search := func(q string) []ticketJSON {
		t.Helper()
		resp := ts.Do(t, http.MethodGet, "/tickets/search?q="+url.QueryEscape(q), token, nil)
		defer resp.Body.Close()
		var got []ticketJSON
		testutil.AssertJSONResponse(t, resp, http.StatusOK, &got)
		return got
	}

	testutil.AssertTicketIDs(t, []string{ticket.ID.String()}, ticketIDs(search("Safari")))
	assert.Empty(t, search(""))
	assert.Empty(t, search("'; DROP TABLE tickets; --"))

	resp := ts.Do(t, http.MethodPut, fmt.Sprintf("/tickets/%s", ticket.ID), token, map[string]string{"title": "Login bug on Firefox"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Empty(t, search("Safari"))
}
