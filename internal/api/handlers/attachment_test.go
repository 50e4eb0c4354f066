package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upload(t *testing.T, ts *testutil.TestServer, token, ticketID, filename string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.APIURL("/tickets/"+ticketID+"/attachments"), &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAttachmentHandler_Lifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, user).Build(t, ts.Repos)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	resp := upload(t, ts, token, ticket.ID.String(), "screen.png", png)
	var attachment struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		FileSize int64  `json:"file_size"`
		MimeType string `json:"mime_type"`
	}
	testutil.AssertJSONResponse(t, resp, http.StatusCreated, &attachment)
	resp.Body.Close()
	assert.Equal(t, "screen.png", attachment.Filename)
	assert.Equal(t, int64(len(png)), attachment.FileSize)
	assert.Equal(t, "image/png", attachment.MimeType)

	resp = ts.Do(t, http.MethodGet, "/tickets/"+ticket.ID.String()+"/attachments", token, nil)
	var list []map[string]any
	testutil.AssertJSONResponse(t, resp, http.StatusOK, &list)
	resp.Body.Close()
	assert.Len(t, list, 1)

	resp = ts.Do(t, http.MethodGet, "/attachments/"+attachment.ID, token, nil)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "screen.png")

	resp = ts.Do(t, http.MethodPut, "/attachments/"+attachment.ID, token, map[string]string{"filename": "renamed.png"})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.Do(t, http.MethodDelete, "/attachments/"+attachment.ID, token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.Do(t, http.MethodGet, "/attachments/"+attachment.ID+"/metadata", token, nil)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}

func TestAttachmentHandler_UploadErrors(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, user).Build(t, ts.Repos)

	t.Run("missing ticket", func(t *testing.T) {
		resp := upload(t, ts, token, "2f1f6a57-5d5a-4c6e-9a0e-0d5b1d8f0c11", "a.txt", []byte("x"))
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		resp := upload(t, ts, token, ticket.ID.String(), "a.txt", nil)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	})

	t.Run("not multipart", func(t *testing.T) {
		resp := ts.Do(t, http.MethodPost, "/tickets/"+ticket.ID.String()+"/attachments", token, map[string]string{"file": "x"})
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "multipart")
	})
}

func TestAttachmentHandler_TooLarge(t *testing.T) {
	ts := testutil.NewTestServerWithConfig(t, func(cfg *config.Config) {
		cfg.Upload.MaxSizeBytes = 1024
	})
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	project := testutil.NewProjectBuilder(user).Build(t, ts.Repos)
	ticket := testutil.NewTicketBuilder(project, user).Build(t, ts.Repos)

	resp := upload(t, ts, token, ticket.ID.String(), "big.bin", bytes.Repeat([]byte("a"), 4096))
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	attachments, err := ts.Repos.Attachment.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, attachments)

	resp = upload(t, ts, token, ticket.ID.String(), "small.txt", []byte("fits"))
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
}
